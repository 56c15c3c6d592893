package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saferide/pkg/logger"
	"saferide/pkg/token"
	"saferide/service"
)

type Server struct {
	svc    service.IServiceManager
	tokens *token.Manager
	log    logger.ILogger
}

func NewRouter(svc service.IServiceManager, tokens *token.Manager, blobDir string, log logger.ILogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{svc: svc, tokens: tokens, log: log}

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Stored verification media
	if blobDir != "" {
		r.Static("/blobs", blobDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/auth/register", s.handleRegister)
		api.POST("/auth/login", s.handleLogin)
		api.GET("/events", s.handleListEvents)

		authed := api.Group("", s.authRequired())
		{
			authed.POST("/drivers/optin", s.handleOptIn)
			authed.POST("/drivers/enroll", s.handleEnroll)
			authed.POST("/drivers/verify", s.handleEvaluate)
			authed.POST("/drivers/location", s.handleReportLocation)
			authed.GET("/drivers/queue", s.handleQueue)
			authed.POST("/drivers/requests", s.handleSubmitRequest)

			authed.POST("/sessions", s.handleStartSession)
			authed.DELETE("/sessions/:id", s.handleEndSession)

			authed.POST("/rides", s.handleCreateRide)
			authed.PATCH("/rides/:id", s.handleAdvanceRide)
			authed.GET("/rides", s.handleListRides)

			admin := authed.Group("/admin", s.adminRequired())
			{
				admin.POST("/events", s.handleCreateEvent)
				admin.POST("/requests/approve", s.handleApproveRequest)
				admin.POST("/requests/reject", s.handleRejectRequest)
				admin.POST("/reinstate", s.handleReinstate)
				admin.POST("/finalize", s.handleFinalize)
				admin.POST("/cascade", s.handleRunCascade)
				admin.GET("/alerts", s.handleListAlerts)
			}
		}
	}

	return r
}
