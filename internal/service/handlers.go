package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopworks/mailroom/internal/eventbus"
	"github.com/shopworks/mailroom/internal/storage"
)

const handlerTimeout = 30 * time.Second

// RegisterHandlers subscribes the notification handlers for the event catalog
// on the given bus. Registration happens once at process start.
//
// Handler errors never reach the publisher: an enqueue failure is logged and
// recorded as an in-app notification keyed by the recipient's email, so a
// lost password-reset or welcome email is at least observable.
func RegisterHandlers(bus eventbus.Bus, svc NotificationService, store storage.NotificationStore, logger *slog.Logger) {
	h := &eventHandlers{svc: svc, store: store, logger: logger}
	bus.Subscribe(h.handle)
}

type eventHandlers struct {
	svc    NotificationService
	store  storage.NotificationStore
	logger *slog.Logger
}

func (h *eventHandlers) handle(e eventbus.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	switch e.Type {
	case eventbus.EventUserRegistered:
		email, name, otp := e.Payload["email"], e.Payload["name"], e.Payload["otp"]
		if err := h.svc.SendWelcomeEmail(ctx, email, name); err != nil {
			h.recordEnqueueFailure(ctx, e.Type, email, err)
		}
		if err := h.svc.SendOTPEmail(ctx, email, name, otp); err != nil {
			h.recordEnqueueFailure(ctx, e.Type, email, err)
		}

	case eventbus.EventUserForgotPassword:
		email, name, link := e.Payload["email"], e.Payload["name"], e.Payload["reset_link"]
		if err := h.svc.SendPasswordResetEmail(ctx, email, name, link); err != nil {
			h.recordEnqueueFailure(ctx, e.Type, email, err)
		}

	default:
		// Not in the catalog; other listeners may care, this one does not.
	}
}

// recordEnqueueFailure makes a lost notification observable: the failure is
// logged and a system notification row is written for the affected user.
func (h *eventHandlers) recordEnqueueFailure(ctx context.Context, eventType, email string, cause error) {
	h.logger.Error("failed to enqueue notification job",
		"event_type", eventType, "to", email, "error", cause)

	n := &storage.Notification{
		UserID:  email,
		Title:   "Notification delivery problem",
		Message: "We could not queue an email for this account. Please contact support if you were expecting one.",
		Type:    "failed_enqueue",
	}
	if err := h.store.Create(ctx, n); err != nil {
		h.logger.Error("failed to record enqueue failure",
			"event_type", eventType, "error", err)
	}
}
