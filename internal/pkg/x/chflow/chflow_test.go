package chflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReceive(t *testing.T) {
	t.Run("returns a buffered value", func(t *testing.T) {
		ch := make(chan []byte, 1)
		ch <- []byte(`{"type":"ping"}`)

		value, ok := Receive(t.Context(), ch)

		assert.True(t, ok)
		assert.Equal(t, []byte(`{"type":"ping"}`), value)
	})

	t.Run("stops when the context is canceled", func(t *testing.T) {
		ch := make(chan int)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		value, ok := Receive(ctx, ch)

		assert.False(t, ok)
		assert.Zero(t, value)
	})

	t.Run("reports a closed channel", func(t *testing.T) {
		ch := make(chan string)
		close(ch)

		value, ok := Receive(t.Context(), ch)

		assert.False(t, ok)
		assert.Empty(t, value)
	})
}

func TestSend(t *testing.T) {
	t.Run("delivers to a ready receiver", func(t *testing.T) {
		ch := make(chan int, 1)

		ok := Send(t.Context(), ch, 7)

		assert.True(t, ok)
		assert.Equal(t, 7, <-ch)
	})

	t.Run("gives up when the context is canceled", func(t *testing.T) {
		ch := make(chan int)
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()

		ok := Send(ctx, ch, 7)

		assert.False(t, ok)
	})
}

func TestSleep(t *testing.T) {
	t.Run("waits for the full duration", func(t *testing.T) {
		start := time.Now()

		ok := Sleep(t.Context(), 20*time.Millisecond)

		assert.True(t, ok)
		assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	})

	t.Run("returns early when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()
		start := time.Now()

		ok := Sleep(ctx, time.Minute)

		assert.False(t, ok)
		assert.Less(t, time.Since(start), time.Second)
	})
}
