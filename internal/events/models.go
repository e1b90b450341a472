package events

import (
	"time"

	"github.com/google/uuid"
)

// NoteEvent represents events related to note operations
type NoteEvent struct {
	EventType  string    `json:"eventType"`
	NoteID     string    `json:"noteId"`
	OwnerID    string    `json:"ownerId"`
	Visibility string    `json:"visibility,omitempty"`
	// Grant churn from the last reconciliation, for visibility changes.
	GrantsAdded   int       `json:"grantsAdded,omitempty"`
	GrantsRemoved int       `json:"grantsRemoved,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// GroupEvent represents events related to group operations
type GroupEvent struct {
	EventType    string    `json:"eventType"`
	GroupID      string    `json:"groupId"`
	PerformedBy  string    `json:"performedBy"`
	TargetUserID string    `json:"targetUserId,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewNoteEvent creates a new note event
func NewNoteEvent(eventType string, noteID, ownerID uuid.UUID, visibility string) *NoteEvent {
	return &NoteEvent{
		EventType:  eventType,
		NoteID:     noteID.String(),
		OwnerID:    ownerID.String(),
		Visibility: visibility,
		Timestamp:  time.Now(),
	}
}

// NewGroupEvent creates a new group event
func NewGroupEvent(eventType string, groupID, performedBy uuid.UUID, targetUserID *uuid.UUID) *GroupEvent {
	event := &GroupEvent{
		EventType:   eventType,
		GroupID:     groupID.String(),
		PerformedBy: performedBy.String(),
		Timestamp:   time.Now(),
	}
	if targetUserID != nil {
		event.TargetUserID = targetUserID.String()
	}
	return event
}
