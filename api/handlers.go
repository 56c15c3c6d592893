package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"saferide/service"
)

type registerReq struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.svc.User().Register(c.Request.Context(), req.Username, req.FullName, req.Role)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	tok, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": tok})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := s.svc.User().GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	tok, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": tok})
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.svc.Event().List(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var req struct {
		Name     string    `json:"name" binding:"required"`
		StartsAt time.Time `json:"starts_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	event, err := s.svc.Event().Create(c.Request.Context(), req.Name, req.StartsAt)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (s *Server) handleOptIn(c *gin.Context) {
	var req struct {
		CarMake      string `json:"car_make"`
		CarModel     string `json:"car_model"`
		LicensePlate string `json:"license_plate"`
		Seats        int    `json:"seats"`
		ContactPhone string `json:"contact_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := s.svc.Trust().OptIn(c.Request.Context(), currentUserID(c), service.OptInInput{
		CarMake:      req.CarMake,
		CarModel:     req.CarModel,
		LicensePlate: req.LicensePlate,
		Seats:        req.Seats,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

// decodeMedia tolerates absent media; only malformed base64 is an error.
func decodeMedia(b64 string) ([]byte, error) {
	if b64 == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(b64)
}

func (s *Server) handleEnroll(c *gin.Context) {
	var req struct {
		ReactionLatencyMs int     `json:"reaction_latency_ms"`
		PhraseDurationSec float64 `json:"phrase_duration_sec"`
		Image             string  `json:"image_b64"`
		ImageContentType  string  `json:"image_content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image, err := decodeMedia(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_b64 is not valid base64"})
		return
	}
	baseline, err := s.svc.Verify().Enroll(c.Request.Context(), currentUserID(c), service.EnrollInput{
		ReactionLatencyMs: req.ReactionLatencyMs,
		PhraseDurationSec: req.PhraseDurationSec,
		Image:             image,
		ImageContentType:  req.ImageContentType,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"baseline": baseline})
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req struct {
		EventID           int64   `json:"event_id"`
		ReactionLatencyMs int     `json:"reaction_latency_ms"`
		PhraseDurationSec float64 `json:"phrase_duration_sec"`
		Image             string  `json:"image_b64"`
		ImageContentType  string  `json:"image_content_type"`
		Audio             string  `json:"audio_b64"`
		AudioContentType  string  `json:"audio_content_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	image, err := decodeMedia(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_b64 is not valid base64"})
		return
	}
	audio, err := decodeMedia(req.Audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio_b64 is not valid base64"})
		return
	}
	outcome, err := s.svc.Verify().Evaluate(c.Request.Context(), currentUserID(c), service.AttemptInput{
		EventID:           req.EventID,
		ReactionLatencyMs: req.ReactionLatencyMs,
		PhraseDurationSec: req.PhraseDurationSec,
		Image:             image,
		ImageContentType:  req.ImageContentType,
		Audio:             audio,
		AudioContentType:  req.AudioContentType,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req struct {
		EventID int64 `json:"event_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	session, err := s.svc.Verify().StartSession(c.Request.Context(), currentUserID(c), req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (s *Server) handleEndSession(c *gin.Context) {
	session, err := s.svc.Verify().EndSession(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (s *Server) handleReportLocation(c *gin.Context) {
	var req struct {
		EventID int64   `json:"event_id" binding:"required"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.Ride().ReportLocation(c.Request.Context(), currentUserID(c), req.EventID, req.Lat, req.Lng); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleQueue(c *gin.Context) {
	var req struct {
		EventID int64 `form:"event_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	queue, err := s.svc.Ride().Queue(c.Request.Context(), currentUserID(c), req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

func (s *Server) handleSubmitRequest(c *gin.Context) {
	var req struct {
		EventID int64 `json:"event_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := s.svc.Trust().SubmitRequest(c.Request.Context(), currentUserID(c), req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

func (s *Server) handleCreateRide(c *gin.Context) {
	var req struct {
		DriverUserID int64    `json:"driver_user_id" binding:"required"`
		EventID      int64    `json:"event_id" binding:"required"`
		PickupText   string   `json:"pickup_text"`
		PickupLat    *float64 `json:"pickup_lat"`
		PickupLng    *float64 `json:"pickup_lng"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ride, err := s.svc.Ride().Create(c.Request.Context(), currentUserID(c), service.RideInput{
		DriverUserID: req.DriverUserID,
		EventID:      req.EventID,
		PickupText:   req.PickupText,
		PickupLat:    req.PickupLat,
		PickupLng:    req.PickupLng,
	})
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ride": ride})
}

func (s *Server) handleAdvanceRide(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ride, err := s.svc.Ride().Advance(c.Request.Context(), currentUserID(c), c.Param("id"), req.Status)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ride": ride})
}

func (s *Server) handleListRides(c *gin.Context) {
	var req struct {
		EventID int64 `form:"event_id" binding:"required"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rides, err := s.svc.Ride().ListForRider(c.Request.Context(), currentUserID(c), req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

type adjudicateReq struct {
	UserID  int64 `json:"user_id" binding:"required"`
	EventID int64 `json:"event_id" binding:"required"`
}

func (s *Server) handleApproveRequest(c *gin.Context) {
	var req adjudicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	assignment, err := s.svc.Trust().ApproveRequest(c.Request.Context(), req.EventID, req.UserID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignment": assignment})
}

func (s *Server) handleRejectRequest(c *gin.Context) {
	var req adjudicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	request, err := s.svc.Trust().RejectRequest(c.Request.Context(), req.EventID, req.UserID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

func (s *Server) handleReinstate(c *gin.Context) {
	var req adjudicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := s.svc.Trust().Reinstate(c.Request.Context(), currentUserID(c), req.UserID, req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (s *Server) handleFinalize(c *gin.Context) {
	var req adjudicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := s.svc.Trust().Finalize(c.Request.Context(), currentUserID(c), req.UserID, req.EventID)
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// handleRunCascade lets an operator converge a partially applied
// revocation. The cascade itself is idempotent.
func (s *Server) handleRunCascade(c *gin.Context) {
	var req struct {
		UserID  int64 `json:"user_id" binding:"required"`
		EventID int64 `json:"event_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.svc.Trust().RunCascade(c.Request.Context(), req.UserID, req.EventID, ""); err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListAlerts(c *gin.Context) {
	alerts, err := s.svc.Trust().Alerts(c.Request.Context())
	if err != nil {
		s.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}
