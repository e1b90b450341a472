package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thebinarypenguin/scribblez-go/internal/dto"
	"github.com/thebinarypenguin/scribblez-go/internal/services"
	"github.com/thebinarypenguin/scribblez-go/pkg/responses"
)

type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

func writeGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, responses.NewErrorResponse("Group not found", ""))
	case errors.Is(err, services.ErrNotGroupOwner):
		c.JSON(http.StatusForbidden, responses.NewErrorResponse("Only the owner can modify this group", ""))
	case errors.Is(err, services.ErrAlreadyMember):
		c.JSON(http.StatusConflict, responses.NewErrorResponse("User is already a member", ""))
	case errors.Is(err, services.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, responses.NewErrorResponse("User is not a member", ""))
	default:
		log.Printf("Group operation failed: %v", err)
		c.JSON(http.StatusInternalServerError, responses.NewErrorResponse("Internal error", ""))
	}
}

// CreateGroup creates a new group with an optional initial member set
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid request format", err.Error()))
		return
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), req.Name, currentUserID, req.UserIDs)
	if err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, responses.NewSuccessResponse("Group created successfully", group))
}

// GetGroup retrieves a group and its current members
func (h *GroupHandler) GetGroup(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid group ID format", ""))
		return
	}

	group, members, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Group retrieved successfully", gin.H{
		"group":   group,
		"members": members,
	}))
}

// DeleteGroup deletes a group, its membership, and the grants it mediates
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid group ID format", ""))
		return
	}

	if err := h.groups.DeleteGroup(c.Request.Context(), groupID, currentUserID); err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Group deleted successfully", nil))
}

// AddMember adds a user to a group
func (h *GroupHandler) AddMember(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid group ID format", ""))
		return
	}

	var req dto.AddMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, currentUserID, req.UserID); err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusCreated, responses.NewSuccessResponse("Member added successfully", nil))
}

// RemoveMember removes a user from a group. Notes already shared through
// the group keep their grants until their next reconciliation.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	currentUserID, ok := currentUser(c)
	if !ok {
		return
	}

	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid group ID format", ""))
		return
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.NewErrorResponse("Invalid user ID format", ""))
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), groupID, currentUserID, userID); err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, responses.NewSuccessResponse("Member removed successfully", nil))
}
