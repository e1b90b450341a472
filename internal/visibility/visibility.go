package visibility

import (
	"encoding/json"
	"errors"
)

// Kind is the canonical visibility tag stored on a note.
type Kind string

const (
	Public  Kind = "public"
	Private Kind = "private"
	Shared  Kind = "shared"
)

// ErrUnclassifiable is returned when a descriptor matches none of the
// recognized forms.
var ErrUnclassifiable = errors.New("unclassifiable visibility descriptor")

// Descriptor is the wire shape of a note's visibility: either the literal
// string "public" or "private", or an object {users, groups} when the note
// is shared with an explicit set of usernames and group names.
type Descriptor struct {
	Literal string
	Users   []string
	Groups  []string

	// shared records that the {users, groups} form was supplied, even when
	// both lists are empty. Emptiness is a validation concern for callers,
	// not a classification concern.
	shared bool
}

// Tag builds a literal descriptor ("public" or "private").
func Tag(literal string) Descriptor {
	return Descriptor{Literal: literal}
}

// SharedWith builds a shared descriptor from username and group name lists.
func SharedWith(users, groups []string) Descriptor {
	return Descriptor{Users: users, Groups: groups, shared: true}
}

// Classify derives the canonical tag for a descriptor. A descriptor that
// exposes both a users collection and a groups collection classifies as
// Shared regardless of whether either list is empty.
func Classify(d Descriptor) (Kind, error) {
	if d.shared {
		return Shared, nil
	}
	switch d.Literal {
	case string(Public):
		return Public, nil
	case string(Private):
		return Private, nil
	}
	return "", ErrUnclassifiable
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var literal string
	if err := json.Unmarshal(data, &literal); err == nil {
		*d = Descriptor{Literal: literal}
		return nil
	}

	var obj struct {
		Users  *[]string `json:"users"`
		Groups *[]string `json:"groups"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Users == nil || obj.Groups == nil {
		// Neither a literal nor the full {users, groups} form. Keep the
		// zero value; Classify reports it as unclassifiable.
		*d = Descriptor{}
		return nil
	}
	*d = SharedWith(*obj.Users, *obj.Groups)
	return nil
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	if d.shared {
		users := d.Users
		if users == nil {
			users = []string{}
		}
		groups := d.Groups
		if groups == nil {
			groups = []string{}
		}
		return json.Marshal(struct {
			Users  []string `json:"users"`
			Groups []string `json:"groups"`
		}{users, groups})
	}
	return json.Marshal(d.Literal)
}
