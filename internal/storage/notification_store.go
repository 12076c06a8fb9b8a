// Package storage persists user-visible in-app notification records in
// SQLite. These records back the frontend notification bell and never touch
// the job queue.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a notification does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("notification not found")

// Notification is a user-visible in-app notification record.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationStore defines the interface for persisting in-app notifications.
type NotificationStore interface {
	// Create inserts a notification and fills in its ID and CreatedAt.
	Create(ctx context.Context, n *Notification) error
	// ListForUser returns the user's notifications, newest first, up to limit.
	ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	// MarkRead flags the user's notification as read.
	// Returns ErrNotFound if it does not exist or belongs to someone else.
	MarkRead(ctx context.Context, id int64, userID string) error
	// Delete removes the user's notification.
	// Returns ErrNotFound if it does not exist or belongs to someone else.
	Delete(ctx context.Context, id int64, userID string) error
}
