package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/events"
	"github.com/thebinarypenguin/scribblez-go/internal/grants"
	"github.com/thebinarypenguin/scribblez-go/internal/kafka"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
	"github.com/thebinarypenguin/scribblez-go/internal/projection"
	"github.com/thebinarypenguin/scribblez-go/internal/repositories"
	"github.com/thebinarypenguin/scribblez-go/internal/visibility"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrNotOwner     = errors.New("only the owner may modify this note")
	ErrNoAccess     = errors.New("no access to this note")
	// ErrEmptyShare rejects a shared descriptor whose user and group lists
	// are both empty. Classification accepts it; this service does not.
	ErrEmptyShare = errors.New("shared visibility needs at least one user or group")
)

// NoteService owns the write path "read existing grants, compute desired
// set, compute diff, apply diff" and the read path "flat rows, project".
// The write cycle is serialized per note id; operations on different notes
// run concurrently.
type NoteService struct {
	repo     repositories.NoteRepository
	dir      grants.Directory
	producer *kafka.Producer
	webhook  *WebhookNotifier

	// locks holds one mutex per note id ever written in this process;
	// entries are never released.
	locks sync.Map // note id -> *sync.Mutex
}

// NewNoteService creates a NoteService. producer and webhook may be nil.
func NewNoteService(repo repositories.NoteRepository, dir grants.Directory, producer *kafka.Producer, webhook *WebhookNotifier) *NoteService {
	return &NoteService{
		repo:     repo,
		dir:      dir,
		producer: producer,
		webhook:  webhook,
	}
}

func (s *NoteService) lockNote(id uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// validateDescriptor classifies d and applies the write-path rule that a
// shared note must name at least one user or group.
func validateDescriptor(d visibility.Descriptor) (visibility.Kind, error) {
	kind, err := visibility.Classify(d)
	if err != nil {
		return "", err
	}
	if kind == visibility.Shared && len(d.Users) == 0 && len(d.Groups) == 0 {
		return "", ErrEmptyShare
	}
	return kind, nil
}

// CreateNote creates a note with its initial visibility and grant set.
func (s *NoteService) CreateNote(ctx context.Context, ownerID uuid.UUID, body string, d visibility.Descriptor) (*projection.ProjectedNote, error) {
	kind, err := validateDescriptor(d)
	if err != nil {
		return nil, err
	}

	noteID := uuid.New()
	desired, err := grants.Expand(ctx, noteID, d, ownerID, s.dir)
	if err != nil {
		return nil, err
	}
	diff := grants.Reconcile(nil, desired)

	note := &models.Note{
		ID:         noteID,
		Body:       body,
		OwnerID:    ownerID,
		Visibility: string(kind),
	}
	if err := s.repo.CreateWithGrants(ctx, note, diff); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.publishNoteEvent(ctx, events.NoteCreated, note, diff)

	return s.projectOne(ctx, noteID)
}

// UpdateNote replaces a note's body and visibility. The desired grant set is
// recomputed from scratch and reconciled against the persisted one, so
// unchanged grants keep their rows.
func (s *NoteService) UpdateNote(ctx context.Context, noteID, callerID uuid.UUID, body *string, d visibility.Descriptor) (*projection.ProjectedNote, error) {
	kind, err := validateDescriptor(d)
	if err != nil {
		return nil, err
	}

	mu := s.lockNote(noteID)
	mu.Lock()
	defer mu.Unlock()

	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to load note: %w", err)
	}
	if note.OwnerID != callerID {
		return nil, ErrNotOwner
	}

	desired, err := grants.Expand(ctx, noteID, d, note.OwnerID, s.dir)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GrantsFor(ctx, noteID)
	if err != nil {
		return nil, err
	}
	diff := grants.Reconcile(existing, desired)

	visibilityChanged := note.Visibility != string(kind) || !diff.Empty()
	note.Visibility = string(kind)
	if body != nil {
		note.Body = *body
	}

	if err := s.repo.SaveWithDiff(ctx, note, diff); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	if visibilityChanged {
		s.publishNoteEvent(ctx, events.NoteVisibilityChanged, note, diff)
	} else {
		s.publishNoteEvent(ctx, events.NoteUpdated, note, diff)
	}

	return s.projectOne(ctx, noteID)
}

// DeleteNote destroys a note; its grants go with it.
func (s *NoteService) DeleteNote(ctx context.Context, noteID, callerID uuid.UUID) error {
	mu := s.lockNote(noteID)
	mu.Lock()
	defer mu.Unlock()

	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to load note: %w", err)
	}
	if note.OwnerID != callerID {
		return ErrNotOwner
	}

	if err := s.repo.DeleteWithGrants(ctx, note); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	s.publishNoteEvent(ctx, events.NoteDeleted, note, grants.Diff{})
	return nil
}

// GetNote returns the projected note when the caller may read it: the
// caller owns it, it is public, or a grant names the caller.
func (s *NoteService) GetNote(ctx context.Context, noteID, callerID uuid.UUID) (*projection.ProjectedNote, error) {
	note, err := s.repo.FindByID(ctx, noteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to load note: %w", err)
	}

	if note.OwnerID != callerID && note.Visibility != string(visibility.Public) {
		granted, err := s.hasGrant(ctx, noteID, callerID)
		if err != nil {
			return nil, err
		}
		if !granted {
			return nil, ErrNoAccess
		}
	}

	return s.projectOne(ctx, noteID)
}

// ListNotes returns every note visible to the caller, projected, in
// creation order.
func (s *NoteService) ListNotes(ctx context.Context, callerID uuid.UUID) ([]projection.ProjectedNote, error) {
	rows, err := s.repo.FlatRowsVisibleTo(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return projection.Project(rows), nil
}

func (s *NoteService) hasGrant(ctx context.Context, noteID, userID uuid.UUID) (bool, error) {
	refs, err := s.repo.GrantsFor(ctx, noteID)
	if err != nil {
		return false, err
	}
	for _, ref := range refs {
		if ref.Spec.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *NoteService) projectOne(ctx context.Context, noteID uuid.UUID) (*projection.ProjectedNote, error) {
	rows, err := s.repo.FlatRowsByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	notes := projection.Project(rows)
	if len(notes) == 0 {
		return nil, ErrNoteNotFound
	}
	return &notes[0], nil
}

func (s *NoteService) publishNoteEvent(ctx context.Context, eventType string, note *models.Note, diff grants.Diff) {
	if s.producer != nil {
		event := events.NewNoteEvent(eventType, note.ID, note.OwnerID, note.Visibility)
		event.GrantsAdded = len(diff.ToInsert)
		event.GrantsRemoved = len(diff.ToDelete)
		if err := s.producer.PublishNoteEvent(ctx, event); err != nil {
			log.Printf("Failed to publish %s event: %v", eventType, err)
		}
	}
	if s.webhook != nil && eventType == events.NoteVisibilityChanged {
		s.webhook.NotifyVisibilityChanged(ctx, note.ID, note.Visibility, len(diff.ToInsert), len(diff.ToDelete))
	}
}
