package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thebinarypenguin/scribblez-go/internal/dto"
	"github.com/thebinarypenguin/scribblez-go/internal/grants"
	"github.com/thebinarypenguin/scribblez-go/internal/services"
	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
	"github.com/thebinarypenguin/scribblez-go/pkg/responses"
)

type NoteHandler struct {
	notes *services.NoteService
}

func NewNoteHandler(notes *services.NoteService) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// currentUser pulls the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, responses.NewErrorResponse("Authentication required", ""))
		return uuid.Nil, false
	}
	return userID.(uuid.UUID), true
}

// writeNoteError maps service errors to HTTP responses.
func writeNoteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoteNotFound):
		c.JSON(http.StatusNotFound, responses.NewErrorResponse("Note not found", ""))
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(http.StatusForbidden, responses.NewErrorResponse("Only the owner can modify this note", ""))
	case errors.Is(err, services.ErrNoAccess):
		c.JSON(http.StatusForbidden, responses.NewErrorResponse("You don't have permission to access this note", ""))
	case errors.Is(err, services.ErrEmptyShare),
		errors.Is(err, visibility.ErrUnclassifiable),
		errors.Is(err, grants.ErrUnknownUser),
		errors.Is(err, grants.ErrUnknownGroup):
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid visibility", err.Error()))
	default:
		log.Printf("Note operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("Internal error", ""))
	}
}

// CreateNote creates a new note with its initial visibility
func (h *NoteHandler) CreateNote(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateNoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid request format", err.Error()))
		return
	}

	note, err := h.notes.CreateNote(c.Request.Context(), currentUserID, req.Body, req.Visibility)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, responses.NewSuccessResponse("Note created successfully", note))
}

// GetNote retrieves a note the caller may read
func (h *NoteHandler) GetNote(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid note ID format", ""))
		return
	}

	note, err := h.notes.GetNote(c.Request.Context(), noteID, currentUserID)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Note retrieved successfully", note))
}

// ListNotes returns every note visible to the caller
func (h *NoteHandler) ListNotes(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	notes, err := h.notes.ListNotes(c.Request.Context(), currentUserID)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Notes retrieved successfully", notes))
}

// ReplaceNote replaces a note's body and visibility
func (h *NoteHandler) ReplaceNote(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid note ID format", ""))
		return
	}

	var req dto.ReplaceNoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid request format", err.Error()))
		return
	}

	note, err := h.notes.UpdateNote(c.Request.Context(), noteID, currentUserID, req.Body, req.Visibility)
	if err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Note updated successfully", note))
}

// DeleteNote deletes a note and all of its grants
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	noteID, err := uuid.Parse(c.Param("noteId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid note ID format", ""))
		return
	}

	if err := h.notes.DeleteNote(c.Request.Context(), noteID, currentUserID); err != nil {
		writeNoteError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Note deleted successfully", nil))
}
