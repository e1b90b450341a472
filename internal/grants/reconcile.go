package grants

// Diff is the minimal mutation that moves a note's persisted grant set to
// the desired one. ToDelete holds storage ids of existing rows, ToInsert
// holds triples that need new rows.
type Diff struct {
	ToDelete []uint64
	ToInsert []GrantSpec
}

// Empty reports whether applying the diff would change nothing.
func (d Diff) Empty() bool {
	return len(d.ToDelete) == 0 && len(d.ToInsert) == 0
}

// Reconcile diffs the persisted grants of a note against a desired grant
// set. Two grants match iff their (note_id, user_id, group_id) triples are
// equal; a null group compares equal only to null.
//
// Matching is set membership, not multiset: an existing row survives as long
// as its triple appears anywhere in desired, and a desired triple is
// inserted as long as no existing row carries it. Duplicate desired triples
// with no existing match each produce their own insert; the reconciler does
// not deduplicate on the caller's behalf.
//
// The result is independent of the order of both inputs, never touches
// grants present on both sides, and applying it once makes a subsequent
// reconciliation against the same desired set empty.
func Reconcile(existing []GrantRef, desired []GrantSpec) Diff {
	desiredSet := make(map[GrantSpec]struct{}, len(desired))
	for _, spec := range desired {
		desiredSet[spec] = struct{}{}
	}

	existingSet := make(map[GrantSpec]struct{}, len(existing))
	var diff Diff
	for _, ref := range existing {
		existingSet[ref.Spec] = struct{}{}
		if _, ok := desiredSet[ref.Spec]; !ok {
			diff.ToDelete = append(diff.ToDelete, ref.ID)
		}
	}

	for _, spec := range desired {
		if _, ok := existingSet[spec]; !ok {
			diff.ToInsert = append(diff.ToInsert, spec)
		}
	}

	return diff
}
