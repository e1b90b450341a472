package redisclient

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const memberTTL = 24 * time.Hour

// GroupCache provides Redis caching functions for group member lists.
type GroupCache struct {
	client *redis.Client
}

// NewGroupCache creates a new GroupCache instance
func NewGroupCache(client *redis.Client) *GroupCache {
	return &GroupCache{
		client: client,
	}
}

// GetGroupMembersKey returns the Redis key for group members
func (gc *GroupCache) GetGroupMembersKey(groupID uuid.UUID) string {
	return fmt.Sprintf("group:%s:members", groupID)
}

// GetMembers retrieves group members from Redis cache. A nil slice with a
// nil error is a cache miss.
func (gc *GroupCache) GetMembers(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	if gc == nil || gc.client == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	key := gc.GetGroupMembersKey(groupID)

	memberStrings, err := gc.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	if len(memberStrings) == 0 {
		// A populated group always has at least its sentinel entry, so an
		// empty list means the key is gone.
		return nil, nil
	}

	userIDs := make([]uuid.UUID, 0, len(memberStrings))
	for _, memberStr := range memberStrings {
		if memberStr == sentinelEmpty {
			continue
		}
		memberID, err := uuid.Parse(memberStr)
		if err != nil {
			log.Printf("Invalid UUID in cache: %s", memberStr)
			continue
		}
		userIDs = append(userIDs, memberID)
	}

	gc.client.Expire(ctx, key, memberTTL)

	return userIDs, nil
}

// sentinelEmpty marks a cached group with zero members, so that an empty
// member list is distinguishable from a cache miss.
const sentinelEmpty = "-"

// StoreMembers stores a group's member list in Redis, preserving order.
func (gc *GroupCache) StoreMembers(ctx context.Context, groupID uuid.UUID, userIDs []uuid.UUID) error {
	if gc == nil || gc.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	key := gc.GetGroupMembersKey(groupID)

	members := make([]interface{}, 0, len(userIDs)+1)
	members = append(members, sentinelEmpty)
	for _, userID := range userIDs {
		members = append(members, userID.String())
	}

	// Use pipeline for efficiency
	pipe := gc.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.RPush(ctx, key, members...)
	pipe.Expire(ctx, key, memberTTL)

	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops a group's cached member list.
func (gc *GroupCache) Invalidate(ctx context.Context, groupID uuid.UUID) error {
	if gc == nil || gc.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return gc.client.Del(ctx, gc.GetGroupMembersKey(groupID)).Err()
}
