package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumen-shop/storefront-service/internal/domain"
	"github.com/lumen-shop/storefront-service/internal/events"
	"github.com/lumen-shop/storefront-service/internal/repository"
	apperrors "github.com/lumen-shop/storefront-service/pkg/util/errorutil"
)

const (
	defaultContactLimit = 50
	maxContactLimit     = 200
)

// ContactInput is a message submitted through the contact form.
type ContactInput struct {
	Name    string
	Email   string
	Subject *string
	Message string
}

// ContactService stores contact form messages.
type ContactService struct {
	contacts   repository.ContactRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{contacts: contacts, dispatcher: dispatcher, logger: logger}
}

// Submit validates and stores a message. caller is attached when present.
func (s *ContactService) Submit(ctx context.Context, input ContactInput, caller *domain.Session) (*domain.ContactMessage, error) {
	msg := &domain.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   NormalizeEmail(input.Email),
		Subject: optionalText(input.Subject),
		Message: strings.TrimSpace(input.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, apperrors.NewValidationError("name, email and message are required", nil)
	}
	if !validEmail(msg.Email) {
		return nil, apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	if caller != nil {
		id := caller.UserID
		msg.UserID = &id
	}

	err := s.contacts.Create(ctx, msg)
	if errors.Is(err, repository.ErrNotFound) && msg.UserID != nil {
		// The session outlived its account; keep the message anonymously.
		msg.UserID = nil
		err = s.contacts.Create(ctx, msg)
	}
	if err != nil {
		s.logger.Error("store contact message", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventContactMessageReceived,
			UserID:    msg.UserID,
			Timestamp: time.Now(),
			Payload: events.ContactMessageReceivedPayload{
				MessageID: msg.ID,
				Name:      msg.Name,
				Email:     msg.Email,
				Subject:   msg.Subject,
			},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	return msg, nil
}

// List returns messages newest first. Limits are clamped to a sane page size.
func (s *ContactService) List(ctx context.Context, limit, offset int) ([]domain.ContactMessage, error) {
	if limit <= 0 {
		limit = defaultContactLimit
	}
	if limit > maxContactLimit {
		limit = maxContactLimit
	}
	if offset < 0 {
		offset = 0
	}
	msgs, err := s.contacts.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return msgs, nil
}
