package discord

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotifier(t *testing.T) {
	n := NewNotifier("https://discord.com/api/webhooks/1/abc", testTemplate())

	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", n.webhookURL)
	assert.Equal(t, testTemplate(), n.template)
	require.NotNil(t, n.httpClient)
	assert.Zero(t, n.httpClient.RetryMax)
}

func TestNotifier_NotifyTransaction(t *testing.T) {
	t.Run("posts the rendered payload", func(t *testing.T) {
		var got Message
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()

		err := NewNotifier(srv.URL, testTemplate()).NotifyTransaction(t.Context(), testNotification())
		require.NoError(t, err)

		require.Len(t, got.Embeds, 1)
		fields := got.Embeds[0].Fields
		require.Len(t, fields, 3)
		assert.Equal(t, "BTC", fields[0].Value)
		assert.Equal(t, "5.0", fields[1].Value)
		assert.Equal(t, "US$ 42000.12", fields[2].Value)
		assert.Equal(t, "https://mempool.space/tx/t1", got.Embeds[0].URL)
	})

	t.Run("reports a failing webhook once", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		err := NewNotifier(srv.URL, testTemplate()).NotifyTransaction(t.Context(), testNotification())

		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.ErrorContains(t, err, "500")
		assert.Equal(t, int32(1), calls.Load(), "webhook must not be retried")
	})

	t.Run("reports client errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		err := NewNotifier(srv.URL, testTemplate()).NotifyTransaction(t.Context(), testNotification())

		assert.ErrorIs(t, err, ErrUnexpectedStatus)
		assert.ErrorContains(t, err, "404")
	})

	t.Run("returns transport errors", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		err := NewNotifier(srv.URL, testTemplate()).NotifyTransaction(t.Context(), testNotification())

		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnexpectedStatus)
	})
}
