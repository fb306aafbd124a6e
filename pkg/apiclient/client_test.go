package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fedlearn.dev/dashboard/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	return New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, Attempts: 3, RetryWait: time.Millisecond})
}

func TestDoDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("user_id"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"model_id":1,"model_name":"mnist"}]`)
	}))
	defer srv.Close()

	var out []map[string]any
	err := Do(newTestClient(srv).R(context.Background()).SetQueryParam("user_id", "7"), http.MethodGet, "/models/", &out, "Failed to fetch models")
	require.NoError(t, err)
	assert.Equal(t, "mnist", out[0]["model_name"])
}

func TestDoUsesPlatformMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"Invalid credentials"}`)
	}))
	defer srv.Close()

	err := Do(newTestClient(srv).R(context.Background()), http.MethodPost, "/login/", nil, "Login failed")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestDoFallsBackWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"username":["This field is required."]}`)
	}))
	defer srv.Close()

	err := Do(newTestClient(srv).R(context.Background()), http.MethodPost, "/login/", nil, "Login failed")
	assert.EqualError(t, err, "Login failed")
	assert.Equal(t, http.StatusBadRequest, apperror.MapErrorToStatus(err))
}

func TestUnreachablePlatformIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := newTestClient(srv)
	srv.Close()

	err := Do(c.R(context.Background()), http.MethodGet, "/faq/", nil, "Failed to fetch FAQs")
	assert.EqualError(t, err, "Failed to fetch FAQs")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestRetryingStopsAfterSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	var out []any
	err := Do(newTestClient(srv).Retrying(context.Background()), http.MethodGet, "/models/", &out, "Failed to fetch models")
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetryingGivesUpAfterAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Do(newTestClient(srv).Retrying(context.Background()), http.MethodGet, "/models/", nil, "Failed to fetch models")
	assert.EqualError(t, err, "Failed to fetch models")
	assert.Equal(t, int32(3), hits.Load())
}

func TestSingleAttemptDoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_ = Do(newTestClient(srv).R(context.Background()), http.MethodGet, "/faq/", nil, "x")
	assert.Equal(t, int32(1), hits.Load())
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"File not found"}`)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="w.h5"`)
		io.WriteString(w, "weights")
	}))
	defer srv.Close()
	c := newTestClient(srv)

	s, err := c.Stream(context.Background(), "/proxy-download/", map[string]string{"url": "x"}, "Download failed")
	require.NoError(t, err)
	body, _ := io.ReadAll(s.Body)
	s.Close()
	assert.Equal(t, "weights", string(body))
	assert.Equal(t, "application/octet-stream", s.ContentType)
	assert.Contains(t, s.Disposition, "w.h5")

	_, err = c.Stream(context.Background(), "/proxy-download/", map[string]string{"url": "missing"}, "Download failed")
	assert.EqualError(t, err, "File not found")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
