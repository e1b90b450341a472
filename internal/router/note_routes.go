package router

import (
	"github.com/gin-gonic/gin"

	"github.com/thebinarypenguin/scribblez-go/internal/handlers"
)

// NoteRoutes defines routes for note management
func NoteRoutes(rg *gin.RouterGroup, noteHandler *handlers.NoteHandler) {
	notes := rg.Group("/notes")
	{
		notes.POST("", noteHandler.CreateNote)
		notes.GET("", noteHandler.ListNotes)
		notes.GET("/:noteId", noteHandler.GetNote)
		notes.PUT("/:noteId", noteHandler.ReplaceNote)
		notes.DELETE("/:noteId", noteHandler.DeleteNote)
	}
}
