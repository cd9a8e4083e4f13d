package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightsurety-ledger/internal/domain/entity"
	"flightsurety-ledger/internal/infrastructure/auth"
	"flightsurety-ledger/internal/interface/handler"
	"flightsurety-ledger/internal/interface/repository"
	"flightsurety-ledger/internal/usecase"
	"flightsurety-ledger/pkg/logger"
	"flightsurety-ledger/pkg/metrics"
)

func newTestRouter(t *testing.T, health HealthFunc) http.Handler {
	t.Helper()
	log := logger.NewNop()
	reg := prometheus.NewRegistry()

	ledger, err := usecase.NewLedger(
		usecase.LedgerConfig{Owner: "0x00000000000000000000000000000000000000aa"},
		repository.NewMemoryStore(),
		repository.NewMemoryEventRepository(),
		usecase.TransferFunc(func(context.Context, entity.Identity, int64) error { return nil }),
		metrics.NewMetrics("ledger", reg),
		log,
	)
	require.NoError(t, err)
	require.NoError(t, ledger.Bootstrap(context.Background()))

	tokens, err := auth.NewTokenService("0123456789abcdef0123456789abcdef", "", time.Hour)
	require.NoError(t, err)

	return NewRouter(handler.NewLedgerHandler(ledger, log), auth.NewMiddleware(tokens, log), reg, health, log)
}

func TestRouter(t *testing.T) {
	r := newTestRouter(t, nil)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Healthy", rec.Body.String())
	})

	t.Run("api is mounted under v1", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/operational", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"operational": true}`, rec.Body.String())
	})

	t.Run("metrics expose ledger operations", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `ledger_operations_total{operation="bootstrap",result="committed"} 1`)
	})
}

func TestRouterUnhealthy(t *testing.T) {
	r := newTestRouter(t, func(*http.Request) error { return errors.New("db down") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
