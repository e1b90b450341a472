// Package grants holds the two write-path core algorithms: expanding a
// visibility descriptor into a desired grant set, and reconciling that set
// against the grants already persisted for a note.
package grants

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// GrantSpec is the value identity of a grant: the (note, user, group)
// triple. An invalid GroupID means a direct user grant.
type GrantSpec struct {
	NoteID  uuid.UUID
	UserID  uuid.UUID
	GroupID uuid.NullUUID
}

// GrantRef is a persisted grant row: the storage-assigned id plus the triple
// it carries. The reconciler never compares ids, only triples.
type GrantRef struct {
	ID   uint64
	Spec GrantSpec
}

// Membership is one (user, group) pairing from a group's current member list.
type Membership struct {
	UserID  uuid.UUID
	GroupID uuid.UUID
}

// Directory is the lookup capability grant expansion consumes. All three
// methods fail loudly on unknown names; expansion never drops unresolved
// entries silently.
type Directory interface {
	ResolveUserIDs(ctx context.Context, usernames []string) ([]uuid.UUID, error)
	ResolveOwnedGroupIDs(ctx context.Context, names []string, ownerID uuid.UUID) ([]uuid.UUID, error)
	MembersOf(ctx context.Context, groupIDs []uuid.UUID) ([]Membership, error)
}

var (
	ErrUnknownUser  = errors.New("unknown username")
	ErrUnknownGroup = errors.New("unknown group name")
)

// DirectGrant builds a spec for a grant with no mediating group.
func DirectGrant(noteID, userID uuid.UUID) GrantSpec {
	return GrantSpec{NoteID: noteID, UserID: userID}
}

// GroupGrant builds a spec for a grant mediated by the given group.
func GroupGrant(noteID, userID, groupID uuid.UUID) GrantSpec {
	return GrantSpec{
		NoteID:  noteID,
		UserID:  userID,
		GroupID: uuid.NullUUID{UUID: groupID, Valid: true},
	}
}
