package calendar

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
	holidays := r.Group("/holidays")
	holidays.Use(auth)
	{
		holidays.GET("", middleware.RBACAuthorize(rbacService, "holiday", "read"), handler.List)
	}
}
