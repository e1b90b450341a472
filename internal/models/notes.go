package models

import (
	"time"

	"github.com/google/uuid"
)

type Note struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null" json:"ownerId"`
	Visibility string    `gorm:"size:16;not null" json:"visibility"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NoteGrant is one persisted access grant for a note. A null GroupID is a
// direct user grant; a non-null GroupID records the group whose membership
// produced the grant at write time. The (note, user, group) triple is the
// grant's identity and no two rows for a note may repeat it.
type NoteGrant struct {
	ID      uint64        `gorm:"primary_key;auto_increment" json:"id"`
	NoteID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_note_grant_triple" json:"noteId"`
	UserID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_note_grant_triple" json:"userId"`
	GroupID uuid.NullUUID `gorm:"type:uuid;uniqueIndex:idx_note_grant_triple" json:"groupId"`

	// Foreign key relationships
	Note Note `gorm:"foreignKey:NoteID" json:"-"`
}
