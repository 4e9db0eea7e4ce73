package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler("1.0.0")
	h.RegisterChecker("storage", NewPingChecker("storage", ok))
	h.RegisterChecker("catalog", NewOptionalChecker("catalog", ok))

	rec := serve(h.ServeHTTP)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, StatusHealthy, resp.Status)
	require.Equal(t, "1.0.0", resp.Version)
	require.Len(t, resp.Checks, 2)
}

func TestHealthHandler_Degraded(t *testing.T) {
	h := NewHandler("1.0.0")
	h.RegisterChecker("storage", NewPingChecker("storage", ok))
	h.RegisterChecker("kafka", NewOptionalChecker("kafka", failing))

	rec := serve(h.ServeHTTP)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, StatusDegraded, resp.Status)
	require.Equal(t, "connection refused", resp.Checks["kafka"].Message)

	require.Equal(t, http.StatusOK, serve(h.ReadinessHandler).Code)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	h := NewHandler("1.0.0")
	h.RegisterChecker("storage", NewPingChecker("storage", failing))
	h.RegisterChecker("kafka", NewOptionalChecker("kafka", failing))

	rec := serve(h.ServeHTTP)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready := serve(h.ReadinessHandler)
	require.Equal(t, http.StatusServiceUnavailable, ready.Code)
	require.Equal(t, "not ready", ready.Body.String())
}

func TestLivenessHandler(t *testing.T) {
	rec := serve(LivenessHandler)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestRun_FillsNameAndPassesDeadline(t *testing.T) {
	h := NewHandler("")
	var hadDeadline bool
	h.RegisterChecker("storage", checkerFunc(func(ctx context.Context) Check {
		_, hadDeadline = ctx.Deadline()
		return Check{Status: StatusHealthy}
	}))

	overall, checks := h.Run(context.Background())
	require.Equal(t, StatusHealthy, overall)
	require.Equal(t, "storage", checks["storage"].Name)
	require.True(t, hadDeadline)
}

type checkerFunc func(ctx context.Context) Check

func (f checkerFunc) Check(ctx context.Context) Check { return f(ctx) }
