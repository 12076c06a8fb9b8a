package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shopworks/mailroom/internal/storage"
)

// MockNotificationService is a mock implementation of service.NotificationService.
type MockNotificationService struct {
	mock.Mock
}

//nolint:revive
func (m *MockNotificationService) SendWelcomeEmail(ctx context.Context, email, name string) error {
	args := m.Called(ctx, email, name)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) SendOTPEmail(ctx context.Context, email, name, otp string) error {
	args := m.Called(ctx, email, name, otp)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) SendPasswordResetEmail(ctx context.Context, email, name, resetLink string) error {
	args := m.Called(ctx, email, name, resetLink)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) CreateNotification(ctx context.Context, n *storage.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) GetMyNotifications(ctx context.Context, userID string, limit int) ([]storage.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Notification), args.Error(1)
}

//nolint:revive
func (m *MockNotificationService) MarkAsRead(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

//nolint:revive
func (m *MockNotificationService) DeleteNotification(ctx context.Context, id int64, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
