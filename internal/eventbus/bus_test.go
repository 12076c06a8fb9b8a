package eventbus_test

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopworks/mailroom/internal/eventbus"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishAndReceive(t *testing.T) {
	bus := eventbus.New(2, discardLogger())
	defer bus.Close()

	var received []eventbus.Event
	var mu sync.Mutex

	bus.Subscribe(func(e eventbus.Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	})

	bus.Publish(eventbus.EventUserRegistered, map[string]string{"email": "a@b.com"})

	// Give workers time to process
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, eventbus.EventUserRegistered, received[0].Type)
	assert.Equal(t, "a@b.com", received[0].Payload["email"])
	assert.False(t, received[0].Timestamp.IsZero())
}

func TestMultipleListeners(t *testing.T) {
	bus := eventbus.New(2, discardLogger())
	defer bus.Close()

	var count int32

	for i := 0; i < 3; i++ {
		bus.Subscribe(func(_ eventbus.Event) {
			atomic.AddInt32(&count, 1)
		})
	}

	bus.Publish("multi", nil)
	time.Sleep(50 * time.Millisecond)

	assert.EqualValues(t, 3, atomic.LoadInt32(&count))
}

func TestListenerPanicDoesNotCrash(t *testing.T) {
	bus := eventbus.New(1, discardLogger())
	defer bus.Close()

	var goodCalled int32

	bus.Subscribe(func(_ eventbus.Event) {
		panic("intentional panic in listener")
	})
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&goodCalled, 1)
	})

	bus.Publish("panic.event", nil)
	time.Sleep(50 * time.Millisecond)

	// The second listener should still have been called.
	assert.EqualValues(t, 1, atomic.LoadInt32(&goodCalled))
}

func TestClose(t *testing.T) {
	bus := eventbus.New(2, discardLogger())

	var count int32
	bus.Subscribe(func(_ eventbus.Event) {
		atomic.AddInt32(&count, 1)
	})

	for i := 0; i < 5; i++ {
		bus.Publish("evt", nil)
	}

	// Close waits for all workers to finish processing.
	bus.Close()

	assert.EqualValues(t, 5, atomic.LoadInt32(&count))
}

func TestDefaultWorkers(t *testing.T) {
	// workers <= 0 should use default without panicking.
	bus := eventbus.New(0, discardLogger())
	require.NotNil(t, bus)
	bus.Close()
}

func TestValidatePayload(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   map[string]string
		wantErr   bool
	}{
		{
			name:      "registered with full payload",
			eventType: eventbus.EventUserRegistered,
			payload:   map[string]string{"email": "a@b.com", "name": "Ann", "otp": "123456"},
		},
		{
			name:      "registered missing otp",
			eventType: eventbus.EventUserRegistered,
			payload:   map[string]string{"email": "a@b.com", "name": "Ann"},
			wantErr:   true,
		},
		{
			name:      "forgot password with full payload",
			eventType: eventbus.EventUserForgotPassword,
			payload:   map[string]string{"email": "a@b.com", "name": "Ann", "reset_link": "https://x/r"},
		},
		{
			name:      "unknown event type",
			eventType: "order.shipped",
			payload:   map[string]string{},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eventbus.ValidatePayload(tt.eventType, tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRequiredKeys(t *testing.T) {
	assert.ElementsMatch(t, []string{"email", "name", "otp"},
		eventbus.RequiredKeys(eventbus.EventUserRegistered))
	assert.Nil(t, eventbus.RequiredKeys("nope"))
}
