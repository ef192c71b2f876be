package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/domain"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/core/port"
	"github.com/Ikaze-Murugo/murugo-v2-sub000/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes identity.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string         `json:"user_id"`
		Email        string         `json:"email"`
		Phone        string         `json:"phone,omitempty"`
		Role         string         `json:"role"`
		ProfileType  string         `json:"profile_type"`
		RegisteredAt time.Time      `json:"registered_at"`
		Metadata     map[string]any `json:"metadata,omitempty"`
	}{
		UserID:       event.UserID,
		Email:        event.Email,
		Phone:        event.Phone,
		Role:         event.Role,
		ProfileType:  event.ProfileType,
		RegisteredAt: event.RegisteredAt.UTC(),
		Metadata:     event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishUserLoggedIn publishes identity.user.logged_in events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.UserLoggedInEvent) error {
	payload := struct {
		UserID   string         `json:"user_id"`
		LoggedAt time.Time      `json:"logged_at"`
		IP       *string        `json:"ip,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}{
		UserID:   event.UserID,
		LoggedAt: event.LoggedAt.UTC(),
		IP:       event.IP,
		Metadata: event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.logged_in", event.UserID, event.LoggedAt, payload)
}

// PublishOTPIssued publishes identity.user.otp_issued events. The payload
// carries the raw code so the notification service can deliver it.
func (p *EventPublisher) PublishOTPIssued(ctx context.Context, event domain.OTPIssuedEvent) error {
	payload := struct {
		Purpose    string    `json:"purpose"`
		Identifier string    `json:"identifier"`
		Code       string    `json:"code"`
		IssuedAt   time.Time `json:"issued_at"`
		ExpiresAt  time.Time `json:"expires_at"`
	}{
		Purpose:    event.Purpose,
		Identifier: event.Identifier,
		Code:       event.Code,
		IssuedAt:   event.IssuedAt.UTC(),
		ExpiresAt:  event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "user.otp_issued", "", event.IssuedAt, payload)
}

// PublishContactVerified publishes identity.user.verified events.
func (p *EventPublisher) PublishContactVerified(ctx context.Context, event domain.ContactVerifiedEvent) error {
	payload := struct {
		UserID     string    `json:"user_id"`
		Channel    string    `json:"channel"`
		VerifiedAt time.Time `json:"verified_at"`
	}{
		UserID:     event.UserID,
		Channel:    event.Channel,
		VerifiedAt: event.VerifiedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "user.verified", event.UserID, event.VerifiedAt, payload)
}

// PublishPasswordResetRequested publishes identity.user.password_reset_requested
// events. The raw token travels only here; the database stores its hash.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		UserID            string    `json:"user_id"`
		Email             string    `json:"email"`
		MaskedDestination string    `json:"masked_destination"`
		Token             string    `json:"token"`
		RequestedAt       time.Time `json:"requested_at"`
		ExpiresAt         time.Time `json:"expires_at"`
	}{
		UserID:            event.UserID,
		Email:             event.Email,
		MaskedDestination: event.MaskedDestination,
		Token:             event.Token,
		RequestedAt:       event.RequestedAt.UTC(),
		ExpiresAt:         event.ExpiresAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "user.password_reset_requested", event.UserID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes identity.user.password_changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		UserID    string         `json:"user_id"`
		ChangedAt time.Time      `json:"changed_at"`
		Metadata  map[string]any `json:"metadata,omitempty"`
	}{
		UserID:    event.UserID,
		ChangedAt: event.ChangedAt.UTC(),
		Metadata:  event.Metadata,
	}

	return p.publish(ctx, event.EventID, "user.password_changed", event.UserID, event.ChangedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
