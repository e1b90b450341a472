package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Username     string    `gorm:"size:150;not null;unique" json:"username"`
	RealName     string    `gorm:"size:255;not null" json:"realName"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Group is a named set of users. Only the owning user may reference a group
// when sharing a note, so names are unique per owner rather than globally.
type Group struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"size:150;not null;uniqueIndex:idx_group_owner_name" json:"name"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_owner_name" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GroupMember is the junction table for Group-User membership. Changing
// membership never rewrites existing note grants; grants capture membership
// as it stood at the last reconciliation.
type GroupMember struct {
	ID      uint64    `gorm:"primary_key;auto_increment" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"groupId"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member" json:"userId"`

	// Foreign key relationships
	Group Group `gorm:"foreignKey:GroupID" json:"-"`
}
