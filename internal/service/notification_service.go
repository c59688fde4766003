package service

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/config"
	"github.com/lumen-shop/storefront-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetCompleted, n.handlePasswordResetCompleted)
	n.dispatcher.Subscribe(events.EventContactMessageReceived, n.handleContactMessageReceived)
}

func (n *NotificationService) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserRegisteredPayload)
	n.logger.Info("UserRegistered", zap.Int64p("user_id", event.UserID), zap.String("role", payload.Role))
	n.sendEmailNotificationStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetRequestedPayload)
	n.logger.Info("PasswordResetRequested", zap.Int64p("user_id", event.UserID), zap.Time("expires_at", payload.ExpiresAt))
	n.logger.Debug("password reset link", zap.String("link", RedactResetLink(payload.Link)))
	n.sendEmailNotificationStub(ctx, event, payload.Email)
	return nil
}

func (n *NotificationService) handlePasswordResetCompleted(_ context.Context, event events.Event) error {
	n.logger.Info("PasswordResetCompleted", zap.Int64p("user_id", event.UserID))
	return nil
}

func (n *NotificationService) handleContactMessageReceived(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.ContactMessageReceivedPayload)
	n.logger.Info("ContactMessageReceived",
		zap.Int64("message_id", payload.MessageID),
		zap.String("email_domain", emailDomain(payload.Email)))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to_domain", emailDomain(to)),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}

// RedactResetLink replaces the token query value of a reset link.
func RedactResetLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return "[unparseable link]"
	}
	q := u.Query()
	if q.Has("token") {
		q.Set("token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
