package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/grants"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
	"github.com/thebinarypenguin/scribblez-go/internal/projection"
)

// NoteRepository defines data access for notes and their grants. Mutating
// methods that touch a note together with its grants run inside a single
// transaction so a partially applied diff is never visible.
type NoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Note, error)
	GrantsFor(ctx context.Context, noteID uuid.UUID) ([]grants.GrantRef, error)
	CreateWithGrants(ctx context.Context, note *models.Note, diff grants.Diff) error
	SaveWithDiff(ctx context.Context, note *models.Note, diff grants.Diff) error
	DeleteWithGrants(ctx context.Context, note *models.Note) error
	FlatRowsByID(ctx context.Context, noteID uuid.UUID) ([]projection.FlatRow, error)
	FlatRowsVisibleTo(ctx context.Context, userID uuid.UUID) ([]projection.FlatRow, error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates a new gorm-backed NoteRepository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Note, error) {
	var note models.Note
	if err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

// GrantsFor loads the persisted grant rows of a note as reconciler input.
func (r *noteRepository) GrantsFor(ctx context.Context, noteID uuid.UUID) ([]grants.GrantRef, error) {
	var rows []models.NoteGrant
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	refs := make([]grants.GrantRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, grants.GrantRef{
			ID: row.ID,
			Spec: grants.GrantSpec{
				NoteID:  row.NoteID,
				UserID:  row.UserID,
				GroupID: row.GroupID,
			},
		})
	}
	return refs, nil
}

func (r *noteRepository) CreateWithGrants(ctx context.Context, note *models.Note, diff grants.Diff) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(note).Error; err != nil {
			return fmt.Errorf("failed to create note: %w", err)
		}
		return applyDiff(tx, diff)
	})
}

func (r *noteRepository) SaveWithDiff(ctx context.Context, note *models.Note, diff grants.Diff) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(note).Error; err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
		return applyDiff(tx, diff)
	})
}

func (r *noteRepository) DeleteWithGrants(ctx context.Context, note *models.Note) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("note_id = ?", note.ID).Delete(&models.NoteGrant{}).Error; err != nil {
			return fmt.Errorf("failed to delete note grants: %w", err)
		}
		if err := tx.Delete(note).Error; err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return nil
	})
}

// applyDiff applies a reconciliation diff inside tx: deletes first, then
// inserts, all or nothing.
func applyDiff(tx *gorm.DB, diff grants.Diff) error {
	if len(diff.ToDelete) > 0 {
		if err := tx.Where("id IN ?", diff.ToDelete).Delete(&models.NoteGrant{}).Error; err != nil {
			return fmt.Errorf("failed to delete grants: %w", err)
		}
	}
	if len(diff.ToInsert) > 0 {
		rows := make([]models.NoteGrant, 0, len(diff.ToInsert))
		for _, spec := range diff.ToInsert {
			rows = append(rows, models.NoteGrant{
				NoteID:  spec.NoteID,
				UserID:  spec.UserID,
				GroupID: spec.GroupID,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert grants: %w", err)
		}
	}
	return nil
}

// flatRowSelect joins notes to their owner, grant rows, grantees, and
// mediating groups, one row per note-grant pairing. Shared notes with no
// grants still produce one row with null grantee columns.
const flatRowSelect = `
SELECT n.id AS note_id,
       n.body,
       n.visibility,
       o.username AS owner_username,
       o.real_name AS owner_real_name,
       n.created_at,
       n.updated_at,
       gu.username AS grantee_username,
       gu.real_name AS grantee_real_name,
       ng.group_id,
       g.name AS group_name
FROM notes n
JOIN users o ON o.id = n.owner_id
LEFT JOIN note_grants ng ON ng.note_id = n.id
LEFT JOIN users gu ON gu.id = ng.user_id
LEFT JOIN "groups" g ON g.id = ng.group_id
`

func (r *noteRepository) FlatRowsByID(ctx context.Context, noteID uuid.UUID) ([]projection.FlatRow, error) {
	var rows []projection.FlatRow
	query := flatRowSelect + `WHERE n.id = ? ORDER BY ng.id`
	if err := r.db.WithContext(ctx).Raw(query, noteID).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query note rows: %w", err)
	}
	return rows, nil
}

// FlatRowsVisibleTo returns the rows of every note the user may read: their
// own notes, public notes, and notes granted to them directly or through a
// group. Grant rows keep persisted order within each note.
func (r *noteRepository) FlatRowsVisibleTo(ctx context.Context, userID uuid.UUID) ([]projection.FlatRow, error) {
	var rows []projection.FlatRow
	query := flatRowSelect + `
WHERE n.owner_id = @user
   OR n.visibility = 'public'
   OR n.id IN (SELECT note_id FROM note_grants WHERE user_id = @user)
ORDER BY n.created_at, n.id, ng.id`
	if err := r.db.WithContext(ctx).Raw(query, map[string]interface{}{"user": userID}).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query visible notes: %w", err)
	}
	return rows, nil
}
