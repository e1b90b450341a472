package dto

import (
	"github.com/google/uuid"
)

type CreateGroupReq struct {
	Name    string      `json:"name" binding:"required"`
	UserIDs []uuid.UUID `json:"userIds"`
}

type AddMemberReq struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}
