package router

import (
	"github.com/gin-gonic/gin"

	"github.com/thebinarypenguin/scribblez-go/internal/handlers"
)

// GroupRoutes defines routes for group and membership management
func GroupRoutes(rg *gin.RouterGroup, groupHandler *handlers.GroupHandler) {
	groups := rg.Group("/groups")
	{
		groups.POST("", groupHandler.CreateGroup)
		groups.GET("/:groupId", groupHandler.GetGroup)
		groups.DELETE("/:groupId", groupHandler.DeleteGroup)

		// Membership
		groups.POST("/:groupId/members", groupHandler.AddMember)
		groups.DELETE("/:groupId/members/:userId", groupHandler.RemoveMember)
	}
}
