package leavebalance

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth gin.HandlerFunc,
) {
	balances := r.Group("/balances")
	balances.Use(auth)
	{
		balances.GET("/me", middleware.RBACAuthorize(rbacService, "balance", "read_own"), handler.GetMine)
		balances.GET("/:employeeId", middleware.RBACAuthorize(rbacService, "balance", "read_all"), handler.GetByEmployee)
		balances.POST("/rollover", middleware.RBACAuthorize(rbacService, "balance", "rollover"), handler.Rollover)
	}
}
