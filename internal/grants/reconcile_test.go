package grants

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func specKeyed(specs []GrantSpec) map[GrantSpec]int {
	m := make(map[GrantSpec]int)
	for _, s := range specs {
		m[s]++
	}
	return m
}

func idSet(ids []uint64) map[uint64]struct{} {
	m := make(map[uint64]struct{})
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// applyDiff simulates storage applying a diff to an existing grant set.
func applyDiff(existing []GrantRef, diff Diff) []GrantRef {
	deleted := idSet(diff.ToDelete)
	next := make([]GrantRef, 0, len(existing)+len(diff.ToInsert))
	var maxID uint64
	for _, ref := range existing {
		if ref.ID > maxID {
			maxID = ref.ID
		}
		if _, ok := deleted[ref.ID]; !ok {
			next = append(next, ref)
		}
	}
	for _, spec := range diff.ToInsert {
		maxID++
		next = append(next, GrantRef{ID: maxID, Spec: spec})
	}
	return next
}

func TestReconcileKeepsMatchingDirectGrant(t *testing.T) {
	noteID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	team := uuid.New()

	existing := []GrantRef{
		{ID: 1, Spec: DirectGrant(noteID, alice)},
	}
	desired := []GrantSpec{
		DirectGrant(noteID, alice),
		GroupGrant(noteID, bob, team),
	}

	diff := Reconcile(existing, desired)

	if len(diff.ToDelete) != 0 {
		t.Fatalf("ToDelete = %v, want empty", diff.ToDelete)
	}
	if len(diff.ToInsert) != 1 || diff.ToInsert[0] != GroupGrant(noteID, bob, team) {
		t.Fatalf("ToInsert = %v, want only bob's group grant", diff.ToInsert)
	}
}

func TestReconcileNullGroupMatchesOnlyNull(t *testing.T) {
	noteID := uuid.New()
	alice := uuid.New()
	team := uuid.New()

	existing := []GrantRef{
		{ID: 1, Spec: DirectGrant(noteID, alice)},
	}
	desired := []GrantSpec{
		GroupGrant(noteID, alice, team),
	}

	diff := Reconcile(existing, desired)

	if len(diff.ToDelete) != 1 || diff.ToDelete[0] != 1 {
		t.Fatalf("ToDelete = %v, want [1]", diff.ToDelete)
	}
	if len(diff.ToInsert) != 1 || diff.ToInsert[0] != GroupGrant(noteID, alice, team) {
		t.Fatalf("ToInsert = %v, want alice's group grant", diff.ToInsert)
	}
}

func TestReconcileEmptyDesiredDeletesEverything(t *testing.T) {
	noteID := uuid.New()
	existing := []GrantRef{
		{ID: 4, Spec: DirectGrant(noteID, uuid.New())},
		{ID: 9, Spec: GroupGrant(noteID, uuid.New(), uuid.New())},
	}

	diff := Reconcile(existing, nil)

	got := idSet(diff.ToDelete)
	if len(got) != 2 {
		t.Fatalf("ToDelete = %v, want ids 4 and 9", diff.ToDelete)
	}
	for _, id := range []uint64{4, 9} {
		if _, ok := got[id]; !ok {
			t.Fatalf("ToDelete = %v, missing id %d", diff.ToDelete, id)
		}
	}
	if len(diff.ToInsert) != 0 {
		t.Fatalf("ToInsert = %v, want empty", diff.ToInsert)
	}
}

func TestReconcileDuplicateDesiredTriplesEachInsert(t *testing.T) {
	noteID := uuid.New()
	alice := uuid.New()
	spec := DirectGrant(noteID, alice)

	diff := Reconcile(nil, []GrantSpec{spec, spec})

	if len(diff.ToInsert) != 2 {
		t.Fatalf("ToInsert = %v, want the duplicate triple twice", diff.ToInsert)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	noteID := uuid.New()
	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	team := uuid.New()

	existing := []GrantRef{
		{ID: 1, Spec: DirectGrant(noteID, users[0])},
		{ID: 2, Spec: GroupGrant(noteID, users[1], team)},
	}
	desired := []GrantSpec{
		DirectGrant(noteID, users[0]),
		DirectGrant(noteID, users[2]),
		GroupGrant(noteID, users[2], team),
	}

	first := Reconcile(existing, desired)
	next := applyDiff(existing, first)

	second := Reconcile(next, desired)
	if !second.Empty() {
		t.Fatalf("second reconciliation = %+v, want empty", second)
	}
}

func TestReconcileIsOrderIndependent(t *testing.T) {
	noteID := uuid.New()
	team := uuid.New()

	var existing []GrantRef
	var desired []GrantSpec
	for i := 0; i < 8; i++ {
		userID := uuid.New()
		existing = append(existing, GrantRef{ID: uint64(i + 1), Spec: DirectGrant(noteID, userID)})
		if i%2 == 0 {
			desired = append(desired, DirectGrant(noteID, userID))
		} else {
			desired = append(desired, GroupGrant(noteID, userID, team))
		}
	}

	base := Reconcile(existing, desired)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffledExisting := append([]GrantRef(nil), existing...)
		rng.Shuffle(len(shuffledExisting), func(i, j int) {
			shuffledExisting[i], shuffledExisting[j] = shuffledExisting[j], shuffledExisting[i]
		})
		shuffledDesired := append([]GrantSpec(nil), desired...)
		rng.Shuffle(len(shuffledDesired), func(i, j int) {
			shuffledDesired[i], shuffledDesired[j] = shuffledDesired[j], shuffledDesired[i]
		})

		got := Reconcile(shuffledExisting, shuffledDesired)

		if len(got.ToDelete) != len(base.ToDelete) {
			t.Fatalf("trial %d: ToDelete length %d, want %d", trial, len(got.ToDelete), len(base.ToDelete))
		}
		baseDeletes := idSet(base.ToDelete)
		for _, id := range got.ToDelete {
			if _, ok := baseDeletes[id]; !ok {
				t.Fatalf("trial %d: unexpected delete id %d", trial, id)
			}
		}

		baseInserts := specKeyed(base.ToInsert)
		gotInserts := specKeyed(got.ToInsert)
		if len(baseInserts) != len(gotInserts) {
			t.Fatalf("trial %d: insert sets differ", trial)
		}
		for spec, n := range baseInserts {
			if gotInserts[spec] != n {
				t.Fatalf("trial %d: insert counts differ for %v", trial, spec)
			}
		}
	}
}

func TestReconcileNeverTouchesUnchangedGrants(t *testing.T) {
	noteID := uuid.New()
	team := uuid.New()

	var existing []GrantRef
	var desired []GrantSpec
	kept := make(map[GrantSpec]struct{})
	for i := 0; i < 5; i++ {
		spec := GroupGrant(noteID, uuid.New(), team)
		existing = append(existing, GrantRef{ID: uint64(i + 1), Spec: spec})
		desired = append(desired, spec)
		kept[spec] = struct{}{}
	}
	// One extra on each side.
	existing = append(existing, GrantRef{ID: 99, Spec: DirectGrant(noteID, uuid.New())})
	desired = append(desired, DirectGrant(noteID, uuid.New()))

	diff := Reconcile(existing, desired)

	if len(diff.ToDelete) != 1 || diff.ToDelete[0] != 99 {
		t.Fatalf("ToDelete = %v, want only the unmatched row 99", diff.ToDelete)
	}
	for _, spec := range diff.ToInsert {
		if _, ok := kept[spec]; ok {
			t.Fatalf("unchanged grant %v appeared in ToInsert", spec)
		}
	}
	if len(diff.ToInsert) != 1 {
		t.Fatalf("ToInsert = %v, want a single insert", diff.ToInsert)
	}
}
