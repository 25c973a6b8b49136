package healthcheck_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flowkit/core/healthcheck"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandlerLiveness(t *testing.T) {
	t.Parallel()

	h := healthcheck.Handler(discardLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestHandlerReadiness(t *testing.T) {
	t.Parallel()

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()

		h := healthcheck.Handler(discardLogger(),
			func(context.Context) error { return nil },
			func(context.Context) error { return nil },
		)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("failing check returns 503", func(t *testing.T) {
		t.Parallel()

		called := false
		h := healthcheck.Handler(discardLogger(),
			func(context.Context) error { return errors.New("dependency down") },
			func(context.Context) error { called = true; return nil },
		)

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, called, "checks after the first failure must not run")
	})
}
