// Package service contains the application-facing notification API: the
// send operations that enqueue email jobs, the in-app notification CRUD, and
// the event bus handlers that connect domain events to both.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopworks/mailroom/internal/queue"
	"github.com/shopworks/mailroom/internal/storage"
)

// Email template names resolved by the mailer at dispatch time.
const (
	templateWelcome       = "welcome"
	templateOTP           = "otp"
	templatePasswordReset = "password_reset"
)

// NotificationService produces notifications independent of delivery channel.
// Every Send* call enqueues exactly one durable email job; no validation or
// retrying happens at this layer. The CRUD methods manage user-visible in-app
// notification records and never touch the job queue.
type NotificationService interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
	SendOTPEmail(ctx context.Context, email, name, otp string) error
	SendPasswordResetEmail(ctx context.Context, email, name, resetLink string) error

	CreateNotification(ctx context.Context, n *storage.Notification) error
	GetMyNotifications(ctx context.Context, userID string, limit int) ([]storage.Notification, error)
	MarkAsRead(ctx context.Context, id int64, userID string) error
	DeleteNotification(ctx context.Context, id int64, userID string) error
}

// notificationServiceImpl implements NotificationService.
type notificationServiceImpl struct {
	producer queue.Producer
	store    storage.NotificationStore
	logger   *slog.Logger
	appName  string
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	producer queue.Producer,
	store storage.NotificationStore,
	logger *slog.Logger,
	appName string,
) NotificationService {
	return &notificationServiceImpl{
		producer: producer,
		store:    store,
		logger:   logger,
		appName:  appName,
	}
}

// SendWelcomeEmail enqueues the account welcome email.
func (s *notificationServiceImpl) SendWelcomeEmail(ctx context.Context, email, name string) error {
	return s.enqueue(ctx, queue.EmailPayload{
		To:       email,
		Subject:  fmt.Sprintf("Welcome to %s", s.appName),
		Template: templateWelcome,
		Context: map[string]any{
			"name":     name,
			"app_name": s.appName,
		},
	})
}

// SendOTPEmail enqueues the email verification code.
func (s *notificationServiceImpl) SendOTPEmail(ctx context.Context, email, name, otp string) error {
	return s.enqueue(ctx, queue.EmailPayload{
		To:       email,
		Subject:  "Your verification code",
		Template: templateOTP,
		Context: map[string]any{
			"name":     name,
			"otp":      otp,
			"app_name": s.appName,
		},
	})
}

// SendPasswordResetEmail enqueues the password reset email.
func (s *notificationServiceImpl) SendPasswordResetEmail(ctx context.Context, email, name, resetLink string) error {
	return s.enqueue(ctx, queue.EmailPayload{
		To:       email,
		Subject:  "Reset your password",
		Template: templatePasswordReset,
		Context: map[string]any{
			"name":       name,
			"reset_link": resetLink,
			"app_name":   s.appName,
		},
	})
}

func (s *notificationServiceImpl) enqueue(ctx context.Context, payload queue.EmailPayload) error {
	jobID, err := s.producer.EnqueueEmail(ctx, payload)
	if err != nil {
		return fmt.Errorf("enqueueing %q email: %w", payload.Template, err)
	}
	s.logger.Info("email job enqueued",
		"job_id", jobID, "template", payload.Template, "to", payload.To)
	return nil
}

// CreateNotification persists an in-app notification record.
func (s *notificationServiceImpl) CreateNotification(ctx context.Context, n *storage.Notification) error {
	if n.Type == "" {
		n.Type = "info"
	}
	return s.store.Create(ctx, n)
}

// GetMyNotifications returns the user's notifications, newest first.
func (s *notificationServiceImpl) GetMyNotifications(ctx context.Context, userID string, limit int) ([]storage.Notification, error) {
	return s.store.ListForUser(ctx, userID, limit)
}

// MarkAsRead flags the user's notification as read.
func (s *notificationServiceImpl) MarkAsRead(ctx context.Context, id int64, userID string) error {
	return s.store.MarkRead(ctx, id, userID)
}

// DeleteNotification removes the user's notification.
func (s *notificationServiceImpl) DeleteNotification(ctx context.Context, id int64, userID string) error {
	return s.store.Delete(ctx, id, userID)
}
