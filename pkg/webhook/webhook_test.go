package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	event     Event
	signature string
	eventHdr  string
	userAgent string
}

func newCapturingServer(t *testing.T, status int) (*httptest.Server, func() []received) {
	t.Helper()
	var mu sync.Mutex
	var got []received

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var ev Event
		require.NoError(t, json.Unmarshal(body, &ev))

		mu.Lock()
		got = append(got, received{
			event:     ev,
			signature: r.Header.Get("X-Scorebox-Signature"),
			eventHdr:  r.Header.Get("X-Scorebox-Event"),
			userAgent: r.Header.Get("User-Agent"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		out := make([]received, len(got))
		copy(out, got)
		return out
	}
}

func TestSendSync(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{
		URL:     srv.URL,
		Events:  []EventType{EventScoreUpdated},
		Enabled: true,
	}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendScoreUpdated("manual", 13, 25, false))

	got := recv()
	require.Len(t, got, 1)
	assert.Equal(t, EventScoreUpdated, got[0].event.Event)
	assert.Equal(t, "manual", got[0].event.Trigger)
	assert.Equal(t, 13, got[0].event.CurrentPoints)
	assert.Equal(t, 25, got[0].event.MaxPoints)
	assert.Equal(t, "score.updated", got[0].eventHdr)
	assert.Equal(t, "Scorebox-Webhook/1.0", got[0].userAgent)
	assert.NotEmpty(t, got[0].event.Timestamp)
	assert.Empty(t, got[0].signature)
}

func TestSendSignature(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{
		URL:     srv.URL,
		Secret:  "s3cret",
		Events:  []EventType{"*"},
		Enabled: true,
	}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendQuestionAnswered("q1", false))

	got := recv()
	require.Len(t, got, 1)

	// Verify the signature the way a receiver would.
	payload, err := json.Marshal(got[0].event)
	require.NoError(t, err)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, got[0].signature)
}

func TestEventFiltering(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{
		URL:     srv.URL,
		Events:  []EventType{EventCheckFailed},
		Enabled: true,
	}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendScoreUpdated("interval", 0, 10, false))
	require.NoError(t, c.SendCheckFailed("interval", "snapshot unavailable", false))

	got := recv()
	require.Len(t, got, 1)
	assert.Equal(t, EventCheckFailed, got[0].event.Event)
	assert.Equal(t, "snapshot unavailable", got[0].event.Error)
}

func TestWildcardMatchesEverything(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{
		URL:     srv.URL,
		Events:  []EventType{"*"},
		Enabled: true,
	}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendRubricConfigured(25, false))
	require.NoError(t, c.SendCheckFailed("manual", "boom", false))

	assert.Len(t, recv(), 2)
}

func TestDisabledHookSkipped(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{
		URL:     srv.URL,
		Events:  []EventType{"*"},
		Enabled: false,
	}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendScoreUpdated("manual", 1, 2, false))
	assert.Empty(t, recv())
}

func TestDisabledClientSendsNothing(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Enabled = false
	cfg.Hooks = []HookConfig{{URL: srv.URL, Events: []EventType{"*"}, Enabled: true}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendScoreUpdated("manual", 1, 2, false))
	assert.Empty(t, recv())
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.RetryDelay = 10 * time.Millisecond
	cfg.Hooks = []HookConfig{{URL: srv.URL, Events: []EventType{"*"}, Enabled: true}}
	c := NewClient(cfg)
	defer c.Close()

	require.NoError(t, c.SendScoreUpdated("manual", 5, 10, false))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	srv, _ := newCapturingServer(t, http.StatusBadGateway)

	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = 10 * time.Millisecond
	cfg.Hooks = []HookConfig{{URL: srv.URL, Events: []EventType{"*"}, Enabled: true}}
	c := NewClient(cfg)
	defer c.Close()

	err := c.SendScoreUpdated("manual", 5, 10, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 502")
}

func TestAsyncDeliveredByClose(t *testing.T) {
	srv, recv := newCapturingServer(t, http.StatusOK)

	cfg := DefaultConfig()
	cfg.Hooks = []HookConfig{{URL: srv.URL, Events: []EventType{"*"}, Enabled: true}}
	c := NewClient(cfg)

	require.NoError(t, c.SendScoreUpdated("interval", 8, 25, true))
	require.NoError(t, c.Close())

	assert.Len(t, recv(), 1)
}
