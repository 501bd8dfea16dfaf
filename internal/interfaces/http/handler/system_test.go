package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/interfaces/http/dto"
	"github.com/nyos/apr/internal/interfaces/http/middleware"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		ledger     Pinger
		wantStatus int
		wantHealth string
		wantLedger string
	}{
		{"no ledger", nil, http.StatusOK, "healthy", "disabled"},
		{"ledger reachable", stubPinger{}, http.StatusOK, "healthy", "ok"},
		{"ledger down", stubPinger{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, "degraded", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("test", tt.ledger)
			engine := gin.New()
			engine.GET("/health", h.Health)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			var body HealthResponse
			decode(t, w, &body)
			assert.Equal(t, tt.wantHealth, body.Status)
			assert.Equal(t, tt.wantLedger, body.Ledger)
			assert.Equal(t, "test", body.Version)
		})
	}
}

func TestPing(t *testing.T) {
	h := NewSystemHandler("test", nil)
	engine := gin.New()
	engine.GET("/ping", h.Ping)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body PingResponse
	decode(t, w, &body)
	assert.Equal(t, "pong", body.Message)
}

// ==================== BaseHandler ====================

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", shared.NewValidationError("bad %s", "input"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"integrity", shared.NewIntegrityError("dangling batch"), http.StatusUnprocessableEntity, dto.ErrCodeIntegrity},
		{"cancelled", shared.NewCancelledError("run cancelled"), dto.StatusClientClosedRequest, dto.ErrCodeCancelled},
		{"configuration", shared.NewConfigurationError("bad scenario"), http.StatusInternalServerError, dto.ErrCodeConfiguration},
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(middleware.RequestID())
			engine.GET("/", func(c *gin.Context) {
				(&BaseHandler{}).HandleError(c, tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestHandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	(&BaseHandler{}).HandleError(c, nil)
	assert.False(t, c.Writer.Written())
}
