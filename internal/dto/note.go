package dto

import (
	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
)

type CreateNoteReq struct {
	Body       string                `json:"body" binding:"required"`
	Visibility visibility.Descriptor `json:"visibility" binding:"required"`
}

// ReplaceNoteReq replaces a note wholesale; the grant set is recomputed
// from the descriptor and reconciled against storage.
type ReplaceNoteReq struct {
	Body       *string               `json:"body"`
	Visibility visibility.Descriptor `json:"visibility" binding:"required"`
}
