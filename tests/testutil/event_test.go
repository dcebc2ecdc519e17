package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler_Handle(t *testing.T) {
	handler := NewMockEventHandler("TestEvent")
	event := NewTestEvent("TestEvent", "staff-1")

	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])
	assert.Equal(t, []string{"TestEvent"}, handler.EventTypes())
}

func TestMockEventHandler_SetErrorAndReset(t *testing.T) {
	handler := NewMockEventHandler("TestEvent")
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), NewTestEvent("TestEvent", ""))
	assert.Equal(t, assert.AnError, err)

	handler.Reset()
	assert.Equal(t, 0, handler.HandledCount())
	assert.NoError(t, handler.Handle(context.Background(), NewTestEvent("TestEvent", "")))
}

func TestNewTestEvent(t *testing.T) {
	event := NewTestEvent("TestEvent", "staff-1")

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, "TestEvent", event.EventType())
	assert.Equal(t, "staff-1", event.ActorID())
	assert.False(t, event.OccurredAt().IsZero())
}

func TestWaitForCondition(t *testing.T) {
	t.Run("condition met", func(t *testing.T) {
		var flag atomic.Bool
		go func() {
			time.Sleep(20 * time.Millisecond)
			flag.Store(true)
		}()

		assert.True(t, WaitForCondition(t, flag.Load, time.Second, 5*time.Millisecond))
	})

	t.Run("condition not met within timeout", func(t *testing.T) {
		assert.False(t, WaitForCondition(t, func() bool { return false }, 30*time.Millisecond, 10*time.Millisecond))
	})
}

func TestWaitForEventCount(t *testing.T) {
	handler := NewMockEventHandler("TestEvent")

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = handler.Handle(context.Background(), NewTestEvent("TestEvent", ""))
		_ = handler.Handle(context.Background(), NewTestEvent("TestEvent", ""))
	}()

	assert.True(t, WaitForEventCount(t, handler, 2, time.Second))
}
