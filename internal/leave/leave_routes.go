package leave

import (
	"go-leave/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth gin.HandlerFunc,
	redisClient *redis.Client,
	logger *zap.Logger,
) {
	idempotent := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if redisClient == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{middleware.Idempotency(redisClient, logger), h}
	}

	leaves := r.Group("/leaves")
	leaves.Use(auth)
	{
		leaves.POST("/apply", append([]gin.HandlerFunc{
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
		}, idempotent(handler.Apply)...)...)

		leaves.GET("/me", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetMine)
		leaves.GET("/employee/:employeeId", middleware.RBACAuthorize(rbacService, "leave", "read_all"), handler.GetByEmployee)
		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetByID)

		leaves.POST("/:id/cancel",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "leave", "cancel"),
			handler.Cancel,
		)
	}

	approvals := r.Group("/approvals")
	approvals.Use(auth)
	{
		approvals.GET("/pending", middleware.RBACAuthorize(rbacService, "approval", "read"), handler.GetPendingApprovals)

		approvals.POST("/:id/action", append([]gin.HandlerFunc{
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, "approval", "decide"),
		}, idempotent(handler.Decide)...)...)
	}
}
