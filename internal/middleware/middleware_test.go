package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

func TestLogging_CorrelationID(t *testing.T) {
	t.Parallel()

	var seen string
	h := middleware.Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.GetCorrelationID(r.Context())
		_, isFlusher := w.(http.Flusher)
		assert.True(t, isFlusher)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestLogging_ResponseControllerReachesConnection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(middleware.Logging(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	h := middleware.RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNoContent, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestValidateID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id    string
		valid bool
	}{
		{"pair-0", true},
		{"0190b1c2-7a3e-7c2d-9f00-000000000001", true},
		{"conv_42.a", true},
		{"", false},
		{"-leading", false},
		{"has space", false},
		{strings.Repeat("a", 129), false},
	}

	for _, tt := range tests {
		err := middleware.ValidateID(tt.id)
		if tt.valid {
			assert.NoError(t, err, tt.id)
		} else {
			assert.Error(t, err, tt.id)
		}
	}
}

func TestValidateContentAndReasoning(t *testing.T) {
	t.Parallel()

	assert.NoError(t, middleware.ValidateContent("How do I cancel?"))
	assert.Error(t, middleware.ValidateContent("   "))
	assert.Error(t, middleware.ValidateContent(string([]byte{0xff, 0xfe})))
	assert.Error(t, middleware.ValidateContent(strings.Repeat("x", 100001)))

	assert.NoError(t, middleware.ValidateReasoning("judge missed the refund policy"))
	assert.Error(t, middleware.ValidateReasoning(""))

	assert.NoError(t, middleware.ValidateModel(""))
	assert.NoError(t, middleware.ValidateModel("claude-3-5-haiku-20241022"))
	assert.Error(t, middleware.ValidateModel("gpt 4"))
}
