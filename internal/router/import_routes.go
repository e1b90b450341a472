package router

import (
	"github.com/gin-gonic/gin"

	"github.com/thebinarypenguin/scribblez-go/internal/handlers"
)

// ImportRoutes defines routes for bulk user import
func ImportRoutes(rg *gin.RouterGroup, importHandler *handlers.ImportHandler) {
	rg.POST("/import-users", importHandler.ImportUsers)
}
