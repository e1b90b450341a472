package grants

import (
	"context"

	"github.com/google/uuid"

	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
)

// Expand turns a visibility descriptor into the desired grant set for a
// note: one (user, nil) pair per directly listed username, followed by one
// (member, group) pair per membership of each listed group. Group names are
// resolved scoped to the note's owner, and membership is read at call time
// (grants are a snapshot, not a live view of the group).
//
// The descriptor's name lists are sets: a name repeated within a list
// counts once. The result is still a concatenation, not a set union: a user
// reachable directly and through a group (or through two groups) appears
// once per path, each occurrence carrying its own mediating group. Public
// and private descriptors expand to an empty set.
func Expand(ctx context.Context, noteID uuid.UUID, d visibility.Descriptor, ownerID uuid.UUID, dir Directory) ([]GrantSpec, error) {
	kind, err := visibility.Classify(d)
	if err != nil {
		return nil, err
	}
	if kind != visibility.Shared {
		return nil, nil
	}

	users := dedupNames(d.Users)
	groups := dedupNames(d.Groups)

	desired := make([]GrantSpec, 0, len(users))

	if len(users) > 0 {
		userIDs, err := dir.ResolveUserIDs(ctx, users)
		if err != nil {
			return nil, err
		}
		for _, userID := range userIDs {
			desired = append(desired, DirectGrant(noteID, userID))
		}
	}

	if len(groups) > 0 {
		groupIDs, err := dir.ResolveOwnedGroupIDs(ctx, groups, ownerID)
		if err != nil {
			return nil, err
		}
		memberships, err := dir.MembersOf(ctx, groupIDs)
		if err != nil {
			return nil, err
		}
		for _, m := range memberships {
			desired = append(desired, GroupGrant(noteID, m.UserID, m.GroupID))
		}
	}

	return desired, nil
}

// dedupNames drops repeated names, keeping first-occurrence order.
func dedupNames(names []string) []string {
	if len(names) < 2 {
		return names
	}
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
