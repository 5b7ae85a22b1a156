package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var ctxRID, keyRID string
	r := gin.New()
	r.Use(middleware.ContextLogger(zap.New(core)))
	r.GET("/leaves/me", func(c *gin.Context) {
		c.Set("employee_id", "emp-1")
		ctxRID = contextutil.GetRequestID(c.Request.Context())
		keyRID = c.GetString("request_id")
		contextutil.GetLogger(c.Request.Context(), nil).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	t.Run("keeps client request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leaves/me", nil)
		req.Header.Set("X-Request-ID", "rid-42")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "rid-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "rid-42", ctxRID)
		assert.Equal(t, "rid-42", keyRID)

		entries := logs.TakeAll()
		assert.Len(t, entries, 2)
		assert.Equal(t, "inside handler", entries[0].Message)
		assert.Equal(t, "rid-42", entries[0].ContextMap()["request_id"])
		assert.Equal(t, "http request", entries[1].Message)
		assert.Equal(t, "emp-1", entries[1].ContextMap()["employee_id"])
		assert.EqualValues(t, http.StatusNoContent, entries[1].ContextMap()["status"])
	})

	t.Run("generates one when missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaves/me", nil))

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, w.Header().Get("X-Request-ID"), ctxRID)
		logs.TakeAll()
	})
}
