// Package notify pushes operator-facing alerts. End users never see
// these; verification results reach them through the API response.
package notify

import (
	"context"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"saferide/pkg/logger"
	"saferide/pkg/models"
)

type Notifier interface {
	VerifyFail(ctx context.Context, alert *models.AdminAlert) error
}

// Telegram sends alerts to the operator chat.
type Telegram struct {
	bot    *tele.Bot
	chatID int64
	log    logger.ILogger
}

func NewTelegram(botToken string, chatID int64, log logger.ILogger) (*Telegram, error) {
	pref := tele.Settings{
		Token:  botToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID, log: log}, nil
}

func (t *Telegram) VerifyFail(ctx context.Context, alert *models.AdminAlert) error {
	msg := fmt.Sprintf(
		"⚠️ Verification failed\nDriver: %d\nEvent: %d\nAttempt: %s\nDriving privilege revoked, adjudication required.",
		alert.UserID, alert.EventID, alert.AttemptID,
	)
	_, err := t.bot.Send(tele.ChatID(t.chatID), msg)
	if err != nil {
		t.log.Error("failed to send operator alert", logger.String("alert_id", alert.ID), logger.Error(err))
	}
	return err
}

// Nop drops alerts. Used when no operator channel is configured and in
// tests.
type Nop struct{}

func (Nop) VerifyFail(ctx context.Context, alert *models.AdminAlert) error { return nil }
