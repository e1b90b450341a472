package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/grants"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
	"github.com/thebinarypenguin/scribblez-go/internal/projection"
	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
)

// fakeNoteRepo keeps notes and grant rows in memory and applies diffs the
// way the gorm repository does, inside one "transaction".
type fakeNoteRepo struct {
	notes  map[uuid.UUID]*models.Note
	grants map[uuid.UUID][]grants.GrantRef
	nextID uint64

	appliedDiffs []grants.Diff
}

func newFakeNoteRepo() *fakeNoteRepo {
	return &fakeNoteRepo{
		notes:  make(map[uuid.UUID]*models.Note),
		grants: make(map[uuid.UUID][]grants.GrantRef),
	}
}

func (f *fakeNoteRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *note
	return &copied, nil
}

func (f *fakeNoteRepo) GrantsFor(_ context.Context, noteID uuid.UUID) ([]grants.GrantRef, error) {
	return append([]grants.GrantRef(nil), f.grants[noteID]...), nil
}

func (f *fakeNoteRepo) apply(noteID uuid.UUID, diff grants.Diff) {
	f.appliedDiffs = append(f.appliedDiffs, diff)
	deleted := make(map[uint64]struct{}, len(diff.ToDelete))
	for _, id := range diff.ToDelete {
		deleted[id] = struct{}{}
	}
	var kept []grants.GrantRef
	for _, ref := range f.grants[noteID] {
		if _, ok := deleted[ref.ID]; !ok {
			kept = append(kept, ref)
		}
	}
	for _, spec := range diff.ToInsert {
		f.nextID++
		kept = append(kept, grants.GrantRef{ID: f.nextID, Spec: spec})
	}
	f.grants[noteID] = kept
}

func (f *fakeNoteRepo) CreateWithGrants(_ context.Context, note *models.Note, diff grants.Diff) error {
	copied := *note
	f.notes[note.ID] = &copied
	f.apply(note.ID, diff)
	return nil
}

func (f *fakeNoteRepo) SaveWithDiff(_ context.Context, note *models.Note, diff grants.Diff) error {
	copied := *note
	f.notes[note.ID] = &copied
	f.apply(note.ID, diff)
	return nil
}

func (f *fakeNoteRepo) DeleteWithGrants(_ context.Context, note *models.Note) error {
	delete(f.notes, note.ID)
	delete(f.grants, note.ID)
	return nil
}

func (f *fakeNoteRepo) FlatRowsByID(_ context.Context, noteID uuid.UUID) ([]projection.FlatRow, error) {
	note, ok := f.notes[noteID]
	if !ok {
		return nil, nil
	}
	base := projection.FlatRow{
		NoteID:        note.ID,
		Body:          note.Body,
		Visibility:    note.Visibility,
		OwnerUsername: "owner",
		OwnerRealName: "Owner",
		CreatedAt:     note.CreatedAt,
		UpdatedAt:     note.UpdatedAt,
	}
	refs := f.grants[noteID]
	if len(refs) == 0 {
		return []projection.FlatRow{base}, nil
	}
	rows := make([]projection.FlatRow, 0, len(refs))
	for _, ref := range refs {
		row := base
		row.GranteeUsername = sql.NullString{String: ref.Spec.UserID.String(), Valid: true}
		row.GranteeRealName = row.GranteeUsername
		row.GroupID = ref.Spec.GroupID
		if ref.Spec.GroupID.Valid {
			row.GroupName = sql.NullString{String: "group", Valid: true}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeNoteRepo) FlatRowsVisibleTo(ctx context.Context, _ uuid.UUID) ([]projection.FlatRow, error) {
	var rows []projection.FlatRow
	for id := range f.notes {
		noteRows, _ := f.FlatRowsByID(ctx, id)
		rows = append(rows, noteRows...)
	}
	return rows, nil
}

type stubDirectory struct {
	users   map[string]uuid.UUID
	groups  map[string]uuid.UUID
	members map[uuid.UUID][]uuid.UUID
}

func (d *stubDirectory) ResolveUserIDs(_ context.Context, usernames []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(usernames))
	for _, name := range usernames {
		id, ok := d.users[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", grants.ErrUnknownUser, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *stubDirectory) ResolveOwnedGroupIDs(_ context.Context, names []string, _ uuid.UUID) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, ok := d.groups[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", grants.ErrUnknownGroup, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *stubDirectory) MembersOf(_ context.Context, groupIDs []uuid.UUID) ([]grants.Membership, error) {
	var out []grants.Membership
	for _, groupID := range groupIDs {
		for _, userID := range d.members[groupID] {
			out = append(out, grants.Membership{UserID: userID, GroupID: groupID})
		}
	}
	return out, nil
}

func TestCreateSharedNotePersistsExpandedGrants(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	team := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{
		users:   map[string]uuid.UUID{"alice": alice},
		groups:  map[string]uuid.UUID{"team": team},
		members: map[uuid.UUID][]uuid.UUID{team: {bob}},
	}
	svc := NewNoteService(repo, dir, nil, nil)

	note, err := svc.CreateNote(context.Background(), owner, "hello",
		visibility.SharedWith([]string{"alice"}, []string{"team"}))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	refs := repo.grants[note.ID]
	if len(refs) != 2 {
		t.Fatalf("persisted %d grants, want 2", len(refs))
	}
	if refs[0].Spec != grants.DirectGrant(note.ID, alice) {
		t.Fatalf("first grant = %+v, want alice direct", refs[0].Spec)
	}
	if refs[1].Spec != grants.GroupGrant(note.ID, bob, team) {
		t.Fatalf("second grant = %+v, want bob via team", refs[1].Spec)
	}
}

func TestCreateRejectsEmptyShare(t *testing.T) {
	svc := NewNoteService(newFakeNoteRepo(), &stubDirectory{}, nil, nil)

	_, err := svc.CreateNote(context.Background(), uuid.New(), "x",
		visibility.SharedWith(nil, nil))
	if !errors.Is(err, ErrEmptyShare) {
		t.Fatalf("error = %v, want ErrEmptyShare", err)
	}
}

func TestUpdateReconcilesMinimally(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{users: map[string]uuid.UUID{
		"alice": alice,
		"bob":   bob,
	}}
	svc := NewNoteService(repo, dir, nil, nil)

	created, err := svc.CreateNote(context.Background(), owner, "hello",
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	_, err = svc.UpdateNote(context.Background(), created.ID, owner, nil,
		visibility.SharedWith([]string{"alice", "bob"}, nil))
	if err != nil {
		t.Fatalf("UpdateNote error: %v", err)
	}

	updateDiff := repo.appliedDiffs[len(repo.appliedDiffs)-1]
	if len(updateDiff.ToDelete) != 0 {
		t.Fatalf("update deleted %v, want alice's grant kept", updateDiff.ToDelete)
	}
	if len(updateDiff.ToInsert) != 1 || updateDiff.ToInsert[0].UserID != bob {
		t.Fatalf("update inserted %+v, want only bob", updateDiff.ToInsert)
	}
}

func TestUpdateWithSameVisibilityIsNoOp(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{users: map[string]uuid.UUID{"alice": alice}}
	svc := NewNoteService(repo, dir, nil, nil)

	created, err := svc.CreateNote(context.Background(), owner, "hello",
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	_, err = svc.UpdateNote(context.Background(), created.ID, owner, nil,
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("UpdateNote error: %v", err)
	}

	updateDiff := repo.appliedDiffs[len(repo.appliedDiffs)-1]
	if !updateDiff.Empty() {
		t.Fatalf("repeated reconciliation applied %+v, want empty diff", updateDiff)
	}
}

func TestUpdateToPrivateRevokesAllGrants(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{users: map[string]uuid.UUID{"alice": alice}}
	svc := NewNoteService(repo, dir, nil, nil)

	created, err := svc.CreateNote(context.Background(), owner, "hello",
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	_, err = svc.UpdateNote(context.Background(), created.ID, owner, nil, visibility.Tag("private"))
	if err != nil {
		t.Fatalf("UpdateNote error: %v", err)
	}

	if got := repo.grants[created.ID]; len(got) != 0 {
		t.Fatalf("grants after going private = %+v, want none", got)
	}
	if repo.notes[created.ID].Visibility != "private" {
		t.Fatalf("visibility = %q, want private", repo.notes[created.ID].Visibility)
	}
}

func TestUpdateByNonOwnerIsRejected(t *testing.T) {
	owner := uuid.New()

	repo := newFakeNoteRepo()
	svc := NewNoteService(repo, &stubDirectory{}, nil, nil)

	created, err := svc.CreateNote(context.Background(), owner, "hello", visibility.Tag("private"))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	_, err = svc.UpdateNote(context.Background(), created.ID, uuid.New(), nil, visibility.Tag("public"))
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("error = %v, want ErrNotOwner", err)
	}
}

func TestGetNoteAccessRules(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()
	stranger := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{users: map[string]uuid.UUID{"alice": alice}}
	svc := NewNoteService(repo, dir, nil, nil)

	shared, err := svc.CreateNote(context.Background(), owner, "secret",
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	if _, err := svc.GetNote(context.Background(), shared.ID, owner); err != nil {
		t.Fatalf("owner read failed: %v", err)
	}
	if _, err := svc.GetNote(context.Background(), shared.ID, alice); err != nil {
		t.Fatalf("grantee read failed: %v", err)
	}
	if _, err := svc.GetNote(context.Background(), shared.ID, stranger); !errors.Is(err, ErrNoAccess) {
		t.Fatalf("stranger read error = %v, want ErrNoAccess", err)
	}

	public, err := svc.CreateNote(context.Background(), owner, "open", visibility.Tag("public"))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}
	if _, err := svc.GetNote(context.Background(), public.ID, stranger); err != nil {
		t.Fatalf("public read failed: %v", err)
	}
}

func TestDeleteNoteRemovesGrants(t *testing.T) {
	owner := uuid.New()
	alice := uuid.New()

	repo := newFakeNoteRepo()
	dir := &stubDirectory{users: map[string]uuid.UUID{"alice": alice}}
	svc := NewNoteService(repo, dir, nil, nil)

	created, err := svc.CreateNote(context.Background(), owner, "hello",
		visibility.SharedWith([]string{"alice"}, nil))
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}

	if err := svc.DeleteNote(context.Background(), created.ID, owner); err != nil {
		t.Fatalf("DeleteNote error: %v", err)
	}
	if _, ok := repo.notes[created.ID]; ok {
		t.Fatal("note still present after delete")
	}
	if len(repo.grants[created.ID]) != 0 {
		t.Fatal("grants still present after delete")
	}
}
