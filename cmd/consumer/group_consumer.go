package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thebinarypenguin/scribblez-go/internal/events"
	"github.com/thebinarypenguin/scribblez-go/pkg/redisclient"
)

type cacheInvalidator struct {
	cache *redisclient.GroupCache
}

func newCacheInvalidator(cache *redisclient.GroupCache) *cacheInvalidator {
	return &cacheInvalidator{cache: cache}
}

// handle drops the cached member list for the event's group. The server
// repopulates it from Postgres on the next membership read, so the cache
// never serves a stale snapshot to grant expansion.
func (ci *cacheInvalidator) handle(event events.GroupEvent) error {
	groupID, err := uuid.Parse(event.GroupID)
	if err != nil {
		return fmt.Errorf("invalid group id in %s event: %w", event.EventType, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ci.cache.Invalidate(ctx, groupID); err != nil {
		return fmt.Errorf("failed to invalidate group %s: %w", groupID, err)
	}

	fmt.Printf("[%s] %s: invalidated member cache for group %s\n",
		event.Timestamp.Format(time.RFC3339), event.EventType, event.GroupID)
	return nil
}
