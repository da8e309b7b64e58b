package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/couchcryptid/store-tier-service/internal/observability"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "store-tier-service/test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(t *testing.T, baseURL string, timeout time.Duration) (*Client, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	c, err := NewClient(baseURL, timeout, testUserAgent, testLogger(), metrics)
	require.NoError(t, err)
	return c, metrics
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tiendas", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL+"/api", 5*time.Second)
	resp, err := c.Fetch(context.Background(), domain.Request{Endpoint: domain.EndpointStores, Path: "tiendas"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"data":[]}`, string(resp.Body))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.BackendRequests.WithLabelValues(domain.EndpointStores, "ok")), 0)
}

func TestClient_Fetch_NonOKIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL, 5*time.Second)
	resp, err := c.Fetch(context.Background(), domain.Request{Endpoint: domain.EndpointHealth, Path: "health"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.BackendRequests.WithLabelValues(domain.EndpointHealth, "server_error")), 0)
}

func TestClient_Fetch_PostBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tiendas/7/feedback", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"colaborador":"ana"}`, string(body))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, 5*time.Second)
	resp, err := c.Fetch(context.Background(), domain.Request{
		Endpoint: domain.EndpointFeedback,
		Method:   http.MethodPost,
		Path:     "tiendas/7/feedback",
		Body:     []byte(`{"colaborador":"ana"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL, 50*time.Millisecond)
	_, err := c.Fetch(context.Background(), domain.Request{Endpoint: domain.EndpointInsights, Path: "tiendas/1/insights"})

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, domain.EndpointInsights, netErr.Endpoint)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.BackendRequests.WithLabelValues(domain.EndpointInsights, "network_error")), 0)
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, _ := testClient(t, addr, time.Second)
	_, err := c.Fetch(context.Background(), domain.Request{Endpoint: domain.EndpointStores, Path: "tiendas"})

	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := testClient(t, srv.URL, time.Second)
	_, err := c.Fetch(ctx, domain.Request{Endpoint: domain.EndpointStores, Path: "tiendas"})

	var netErr *domain.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClient_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "::not a url", "ftp://files.example.com", "/relative/path", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NewClient(raw, time.Second, testUserAgent, testLogger(), observability.NewMetricsForTesting())
			var urlErr *domain.InvalidURLError
			require.True(t, errors.As(err, &urlErr))
			assert.Equal(t, raw, urlErr.URL)
		})
	}
}

func TestClient_Fetch_BodyLimit(t *testing.T) {
	tests := []struct {
		name     string
		maxBody  int64
		bodySize int
		wantErr  bool
	}{
		{name: "default limit exceeded", maxBody: maxBodyBytes, bodySize: maxBodyBytes + 1, wantErr: true},
		{name: "small limit exceeded", maxBody: 64, bodySize: 65, wantErr: true},
		{name: "exactly at limit", maxBody: 64, bodySize: 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := bytes.Repeat([]byte("a"), tt.bodySize)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(body)
			}))
			defer srv.Close()

			c, metrics := testClient(t, srv.URL, 10*time.Second)
			c.maxBody = tt.maxBody
			resp, err := c.Fetch(context.Background(), domain.Request{Endpoint: domain.EndpointStores, Path: "tiendas"})

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Len(t, resp.Body, tt.bodySize)
				return
			}
			var netErr *domain.NetworkError
			require.ErrorAs(t, err, &netErr)
			assert.ErrorIs(t, err, ErrBodyTooLarge)
			assert.Nil(t, resp.Body)
			assert.InDelta(t, 1, testutil.ToFloat64(metrics.BackendRequests.WithLabelValues(domain.EndpointStores, "network_error")), 0)
		})
	}
}
