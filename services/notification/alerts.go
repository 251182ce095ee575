package notification

import (
	"context"
	"fmt"

	"voctnow/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// AlertSender raises operational alerts that need a human.
type AlertSender interface {
	NoProviderAvailable(ctx context.Context, booking *models.Booking)
}

// MessageSender is the part of the FCM client used for alerts.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMAlerts publishes alerts to an FCM topic the ops app subscribes to.
type FCMAlerts struct {
	client MessageSender
	topic  string
	logger *zap.Logger
}

func NewFCMAlerts(client MessageSender, topic string, logger *zap.Logger) (*FCMAlerts, error) {
	if client == nil || topic == "" {
		return nil, fmt.Errorf("fcm alerts initialization error: client or topic is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FCMAlerts{client: client, topic: topic, logger: logger}, nil
}

func (a *FCMAlerts) NoProviderAvailable(ctx context.Context, booking *models.Booking) {
	msg := &messaging.Message{
		Topic: a.topic,
		Notification: &messaging.Notification{
			Title: "No provider available",
			Body:  fmt.Sprintf("Booking %s in %s could not be matched.", booking.ID, booking.City),
		},
		Data: map[string]string{
			"type":      models.MsgNoProviderAvailable,
			"bookingId": booking.ID,
			"city":      booking.City,
			"gender":    booking.ProviderGenderPreference,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority",
				Sound:     "default",
			},
		},
	}

	if _, err := a.client.Send(ctx, msg); err != nil {
		a.logger.Error("failed to send ops alert",
			zap.String("bookingId", booking.ID),
			zap.String("topic", a.topic),
			zap.Error(err),
		)
	}
}
