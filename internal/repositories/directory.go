package repositories

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/thebinarypenguin/scribblez-go/internal/grants"
	"github.com/thebinarypenguin/scribblez-go/internal/models"
	"github.com/thebinarypenguin/scribblez-go/pkg/redisclient"
)

// DirectoryRepository implements grants.Directory on top of Postgres, with
// the Redis group cache in front of membership reads.
type DirectoryRepository struct {
	db    *gorm.DB
	cache *redisclient.GroupCache
}

// NewDirectoryRepository creates a new DirectoryRepository. cache may be nil
// when Redis is not configured.
func NewDirectoryRepository(db *gorm.DB, cache *redisclient.GroupCache) *DirectoryRepository {
	return &DirectoryRepository{db: db, cache: cache}
}

// ResolveUserIDs maps usernames to ids, preserving input order. Any unknown
// username fails the whole call; silently dropping it would corrupt the
// desired grant set downstream.
func (r *DirectoryRepository) ResolveUserIDs(ctx context.Context, usernames []string) ([]uuid.UUID, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("username IN ?", usernames).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}

	byName := make(map[string]uuid.UUID, len(users))
	for _, u := range users {
		byName[u.Username] = u.ID
	}

	ids := make([]uuid.UUID, 0, len(usernames))
	for _, name := range usernames {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", grants.ErrUnknownUser, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResolveOwnedGroupIDs maps group names to ids scoped to the given owner,
// preserving input order. A name that exists but belongs to another user is
// as unknown as one that does not exist at all.
func (r *DirectoryRepository) ResolveOwnedGroupIDs(ctx context.Context, names []string, ownerID uuid.UUID) ([]uuid.UUID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	var groups []models.Group
	if err := r.db.WithContext(ctx).Where("name IN ? AND owner_id = ?", names, ownerID).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve group names: %w", err)
	}

	byName := make(map[string]uuid.UUID, len(groups))
	for _, g := range groups {
		byName[g.Name] = g.ID
	}

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", grants.ErrUnknownGroup, name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MembersOf returns the current (user, group) pairs for the given groups, in
// group order, members ordered by join time. Member lists come from the
// Redis cache when warm and fall back to Postgres otherwise.
func (r *DirectoryRepository) MembersOf(ctx context.Context, groupIDs []uuid.UUID) ([]grants.Membership, error) {
	var out []grants.Membership
	for _, groupID := range groupIDs {
		userIDs, err := r.groupMembers(ctx, groupID)
		if err != nil {
			return nil, err
		}
		for _, userID := range userIDs {
			out = append(out, grants.Membership{UserID: userID, GroupID: groupID})
		}
	}
	return out, nil
}

func (r *DirectoryRepository) groupMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	if r.cache != nil {
		if cached, err := r.cache.GetMembers(ctx, groupID); err == nil && cached != nil {
			return cached, nil
		}
	}

	var rows []models.GroupMember
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		userIDs = append(userIDs, row.UserID)
	}

	if r.cache != nil {
		if err := r.cache.StoreMembers(ctx, groupID, userIDs); err != nil {
			// Cache population is best effort.
			log.Printf("Failed to cache members of group %s: %v", groupID, err)
		}
	}

	return userIDs, nil
}
