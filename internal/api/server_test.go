package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/grocery-catalog-crawler/internal/engine"
)

type stubProgress struct {
	p engine.Progress
}

func (s stubProgress) Progress() engine.Progress {
	return s.p
}

func TestHealthz(t *testing.T) {
	srv := NewServer(stubProgress{}, 0, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProgressEndpoint(t *testing.T) {
	started := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	srv := NewServer(stubProgress{p: engine.Progress{
		RunID:     "run-7",
		Mode:      "update",
		Phase:     "discovering",
		StartedAt: started,
		Rows:      1234,
	}}, 0, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got engine.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "run-7", got.RunID)
	require.Equal(t, "discovering", got.Phase)
	require.Equal(t, 1234, got.Rows)
	require.True(t, got.StartedAt.Equal(started))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer(stubProgress{}, 0, zap.NewNop())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
