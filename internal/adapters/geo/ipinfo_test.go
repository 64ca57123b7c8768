package geo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResolveParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/203.0.113.9", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		io.WriteString(w, `{"ip":"203.0.113.9","hostname":"mail.inst.edu","country":"US"}`)
	}))
	t.Cleanup(srv.Close)

	r := NewIPInfoResolver(Config{BaseURL: srv.URL, Token: "tok"}, zap.NewNop())

	info, err := r.Resolve(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "US", info.Country)
	assert.Equal(t, "mail.inst.edu", info.Hostname)
}

func TestResolveRetriesBeforeGivingUp(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	r := NewIPInfoResolver(Config{BaseURL: srv.URL, MaxAttempts: 3}, zap.NewNop())
	r.sleep = func(time.Duration) {}

	_, err := r.Resolve(context.Background(), "203.0.113.9")
	require.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestResolveSucceedsAfterTransientFailure(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `{"country":"BR","hostname":"host.example.br"}`)
	}))
	t.Cleanup(srv.Close)

	r := NewIPInfoResolver(Config{BaseURL: srv.URL, MaxAttempts: 3}, zap.NewNop())
	r.sleep = func(time.Duration) {}

	info, err := r.Resolve(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "BR", info.Country)
	assert.Equal(t, 2, attempts)
}
