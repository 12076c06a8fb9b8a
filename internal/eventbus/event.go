package eventbus

import (
	"fmt"
	"time"
)

// Event represents a domain event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)

// Recognized event types. The catalog is closed: handlers must only read the
// payload keys listed for the event type they handle.
const (
	// EventUserRegistered is published after a successful signup.
	// Payload keys: email, name, otp.
	EventUserRegistered = "user.registered"

	// EventUserForgotPassword is published when a password reset is requested.
	// Payload keys: email, name, reset_link.
	EventUserForgotPassword = "user.forgot_password"
)

// requiredKeys maps each catalog event type to the payload keys it carries.
var requiredKeys = map[string][]string{
	EventUserRegistered:     {"email", "name", "otp"},
	EventUserForgotPassword: {"email", "name", "reset_link"},
}

// RequiredKeys returns the payload keys for a catalog event type, or nil for
// unknown types.
func RequiredKeys(eventType string) []string {
	return requiredKeys[eventType]
}

// ValidatePayload checks that eventType is in the catalog and that payload
// contains every required key.
func ValidatePayload(eventType string, payload map[string]string) error {
	keys, ok := requiredKeys[eventType]
	if !ok {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	for _, k := range keys {
		if _, present := payload[k]; !present {
			return fmt.Errorf("event %q missing payload key %q", eventType, k)
		}
	}
	return nil
}
