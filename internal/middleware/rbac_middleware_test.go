package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-leave/internal/middleware"
	rbacMock "go-leave/internal/rbac/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func rbacRouter(svc middleware.RBACService, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/approvals/:id/action",
		func(c *gin.Context) {
			if role != "" {
				c.Set("employee_id", "emp-1")
				c.Set("role", role)
			}
		},
		middleware.RBACAuthorize(svc, "approval", "decide"),
		func(c *gin.Context) { c.Status(http.StatusNoContent) },
	)
	return r
}

func TestRBACAuthorize(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := rbacMock.NewMockService(ctrl)
		svc.EXPECT().Enforce("MANAGER", "approval", "decide").Return(true, nil)

		w := httptest.NewRecorder()
		rbacRouter(svc, "MANAGER").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/x/action", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("denied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := rbacMock.NewMockService(ctrl)
		svc.EXPECT().Enforce("EMPLOYEE", "approval", "decide").Return(false, nil)

		w := httptest.NewRecorder()
		rbacRouter(svc, "EMPLOYEE").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/x/action", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "approval:decide")
	})

	t.Run("no actor", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := rbacMock.NewMockService(ctrl)

		w := httptest.NewRecorder()
		rbacRouter(svc, "").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/x/action", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("enforcer error is hidden", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := rbacMock.NewMockService(ctrl)
		svc.EXPECT().Enforce("HR", "approval", "decide").Return(false, errors.New("policy broken"))

		w := httptest.NewRecorder()
		rbacRouter(svc, "HR").ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/approvals/x/action", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "policy broken")
	})
}
