package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/events"
	"github.com/thebinarypenguin/scribblez-go/internal/kafka"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
	"github.com/thebinarypenguin/scribblez-go/internal/repositories"
	"github.com/thebinarypenguin/scribblez-go/pkg/redisclient"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrNotGroupOwner  = errors.New("only the owner may modify this group")
	ErrAlreadyMember  = errors.New("user is already a member of this group")
	ErrMemberNotFound = errors.New("user is not a member of this group")
)

// GroupService manages groups and their membership. Membership changes are
// deliberately decoupled from note grants: a grant records the membership
// snapshot taken when its note was last reconciled, and adding or removing
// a member here has no effect on notes until their next write.
type GroupService struct {
	db       *gorm.DB
	repo     repositories.GroupRepository
	cache    *redisclient.GroupCache
	producer *kafka.Producer
}

// NewGroupService creates a GroupService. cache and producer may be nil.
func NewGroupService(db *gorm.DB, cache *redisclient.GroupCache, producer *kafka.Producer) *GroupService {
	return &GroupService{
		db:       db,
		repo:     repositories.NewGroupRepository(db),
		cache:    cache,
		producer: producer,
	}
}

// CreateGroup creates a group owned by creatorID with an initial member set.
func (s *GroupService) CreateGroup(ctx context.Context, name string, creatorID uuid.UUID, memberIDs []uuid.UUID) (*models.Group, error) {
	group := &models.Group{Name: name, OwnerID: creatorID}
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.CreateGroupWithMembersInTx(tx, group, memberIDs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.refreshCache(ctx, group.ID)
	s.publishGroupEvent(ctx, events.GroupCreated, group.ID, creatorID, nil)

	return group, nil
}

// GetGroup returns a group and its current members.
func (s *GroupService) GetGroup(ctx context.Context, groupID uuid.UUID) (*models.Group, []models.GroupMember, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGroupNotFound
		}
		return nil, nil, err
	}

	members, err := s.repo.GetMembers(ctx, groupID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load members: %w", err)
	}
	return group, members, nil
}

// DeleteGroup removes a group, its membership, and the grants it mediates.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, callerID uuid.UUID) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if group.OwnerID != callerID {
		return ErrNotGroupOwner
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.DeleteGroupWithMembersInTx(tx, group)
	})
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, groupID); err != nil {
			log.Printf("Failed to invalidate cache for group %s: %v", groupID, err)
		}
	}
	s.publishGroupEvent(ctx, events.GroupDeleted, groupID, callerID, nil)

	return nil
}

// AddMember adds a user to a group. Existing note grants are untouched.
func (s *GroupService) AddMember(ctx context.Context, groupID, callerID, userID uuid.UUID) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if group.OwnerID != callerID {
		return ErrNotGroupOwner
	}

	if _, err := s.repo.FindMember(ctx, groupID, userID); err == nil {
		return ErrAlreadyMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member := &models.GroupMember{GroupID: groupID, UserID: userID}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	s.refreshCache(ctx, groupID)
	s.publishGroupEvent(ctx, events.MemberAdded, groupID, callerID, &userID)

	return nil
}

// RemoveMember removes a user from a group. Existing note grants are
// untouched; the user keeps access granted through this group until the
// next reconciliation of each note.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, callerID, userID uuid.UUID) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	if group.OwnerID != callerID {
		return ErrNotGroupOwner
	}

	member, err := s.repo.FindMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return err
	}

	if err := s.repo.DeleteMember(ctx, member); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.refreshCache(ctx, groupID)
	s.publishGroupEvent(ctx, events.MemberRemoved, groupID, callerID, &userID)

	return nil
}

// refreshCache rewrites the cached member list after a membership change.
func (s *GroupService) refreshCache(ctx context.Context, groupID uuid.UUID) {
	if s.cache == nil {
		return
	}
	members, err := s.repo.GetMembers(ctx, groupID)
	if err != nil {
		log.Printf("Failed to reload members of group %s: %v", groupID, err)
		return
	}
	userIDs := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	if err := s.cache.StoreMembers(ctx, groupID, userIDs); err != nil {
		log.Printf("Failed to refresh cache for group %s: %v", groupID, err)
	}
}

func (s *GroupService) publishGroupEvent(ctx context.Context, eventType string, groupID, performedBy uuid.UUID, target *uuid.UUID) {
	if s.producer == nil {
		return
	}
	event := events.NewGroupEvent(eventType, groupID, performedBy, target)
	if err := s.producer.PublishGroupEvent(ctx, event); err != nil {
		log.Printf("Failed to publish %s event: %v", eventType, err)
	}
}
