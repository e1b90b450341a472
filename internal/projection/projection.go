// Package projection rebuilds nested note objects from the flat rows an
// outer join across notes, grantees, and groups produces.
package projection

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
)

// FlatRow is one denormalized result row: note and owner fields always
// present, grantee fields present when the note has a matching grant, and
// group fields present when that grant is group-mediated.
type FlatRow struct {
	NoteID          uuid.UUID
	Body            string
	Visibility      string
	OwnerUsername   string
	OwnerRealName   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	GranteeUsername sql.NullString
	GranteeRealName sql.NullString
	GroupID         uuid.NullUUID
	GroupName       sql.NullString
}

// Grantee is one user entry in a projected note's visibility.
type Grantee struct {
	Username string `json:"username"`
	RealName string `json:"realName"`
}

// GroupGrant is one group entry, carrying the members granted through it.
type GroupGrant struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Members []Grantee `json:"members"`
}

// Visibility is a projected note's visibility: the bare tag for public and
// private notes, or the user and group grant lists when shared.
type Visibility struct {
	Kind   visibility.Kind
	Users  []Grantee
	Groups []GroupGrant
}

func (v Visibility) MarshalJSON() ([]byte, error) {
	if v.Kind != visibility.Shared {
		return json.Marshal(string(v.Kind))
	}
	users := v.Users
	if users == nil {
		users = []Grantee{}
	}
	groups := v.Groups
	if groups == nil {
		groups = []GroupGrant{}
	}
	return json.Marshal(struct {
		Users  []Grantee    `json:"users"`
		Groups []GroupGrant `json:"groups"`
	}{users, groups})
}

// ProjectedNote is the nested output shape: one entry per note, in order of
// first appearance in the flat sequence.
type ProjectedNote struct {
	ID         uuid.UUID  `json:"id"`
	Body       string     `json:"body"`
	Owner      Grantee    `json:"owner"`
	Visibility Visibility `json:"visibility"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

const timestampLayout = time.RFC3339

func formatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timestampLayout)
}

// Project folds an ordered flat row sequence into nested projected notes.
//
// Public and private rows carry no grant information and each append a
// standalone note. Shared rows accumulate onto the note created at their
// note id's first appearance: direct grants append to Users, group-mediated
// grants append to the member list of their group entry, with group entries
// ordered by first appearance. A shared note whose rows carry no grantee
// (grants removed out from under the join) still projects, with empty lists.
func Project(rows []FlatRow) []ProjectedNote {
	notes := make([]ProjectedNote, 0, len(rows))
	index := make(map[uuid.UUID]int)

	for _, row := range rows {
		if row.Visibility != string(visibility.Shared) {
			notes = append(notes, newProjectedNote(row))
			continue
		}

		pos, ok := index[row.NoteID]
		if !ok {
			pos = len(notes)
			index[row.NoteID] = pos
			notes = append(notes, newProjectedNote(row))
		}
		note := &notes[pos]

		if !row.GranteeUsername.Valid {
			continue
		}
		grantee := Grantee{
			Username: row.GranteeUsername.String,
			RealName: row.GranteeRealName.String,
		}

		if !row.GroupID.Valid {
			note.Visibility.Users = append(note.Visibility.Users, grantee)
			continue
		}

		group := findOrCreateGroup(&note.Visibility, row.GroupID.UUID, row.GroupName.String)
		group.Members = append(group.Members, grantee)
	}

	return notes
}

func newProjectedNote(row FlatRow) ProjectedNote {
	return ProjectedNote{
		ID:   row.NoteID,
		Body: row.Body,
		Owner: Grantee{
			Username: row.OwnerUsername,
			RealName: row.OwnerRealName,
		},
		Visibility: Visibility{Kind: visibility.Kind(row.Visibility)},
		CreatedAt:  formatTimestamp(row.CreatedAt),
		UpdatedAt:  formatTimestamp(row.UpdatedAt),
	}
}

func findOrCreateGroup(v *Visibility, groupID uuid.UUID, name string) *GroupGrant {
	for i := range v.Groups {
		if v.Groups[i].ID == groupID {
			return &v.Groups[i]
		}
	}
	v.Groups = append(v.Groups, GroupGrant{ID: groupID, Name: name})
	return &v.Groups[len(v.Groups)-1]
}
