package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibe-gaming/storefront-router/internal/domain"
)

// All keys share the {storefront} hash tag so multi-key transactions stay on
// one cluster slot.
const (
	regionsKey   = "{storefront}:regions"
	tagKeyPrefix = "{storefront}:tag:"
)

// RegionStore keeps the last region list fetched by any replica. Entries are
// indexed by cache tags so they can be revalidated by tag.
type RegionStore struct {
	client redis.UniversalClient
}

func NewRegionStore(client redis.UniversalClient) *RegionStore {
	return &RegionStore{client: client}
}

// Get returns the stored region list with its original fetch time. ok is
// false when nothing is stored.
func (s *RegionStore) Get(ctx context.Context) (domain.RegionList, bool, error) {
	payload, err := s.client.Get(ctx, regionsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RegionList{}, false, nil
	}
	if err != nil {
		return domain.RegionList{}, false, fmt.Errorf("get stored regions failed: %w", err)
	}

	var list domain.RegionList
	if err := json.Unmarshal(payload, &list); err != nil {
		return domain.RegionList{}, false, fmt.Errorf("stored regions unmarshal failed: %w", err)
	}
	if len(list.Regions) == 0 || list.FetchedAt.IsZero() {
		return domain.RegionList{}, false, nil
	}

	return list, true, nil
}

// Set replaces the stored list and records it under every tag.
func (s *RegionStore) Set(ctx context.Context, list domain.RegionList, ttl time.Duration, tags ...string) error {
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("regions marshal failed: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, regionsKey, payload, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, tagKey(tag), regionsKey)
			pipe.Expire(ctx, tagKey(tag), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store regions failed: %w", err)
	}

	return nil
}

// InvalidateTag drops every entry recorded under tag and returns how many were removed.
func (s *RegionStore) InvalidateTag(ctx context.Context, tag string) (int, error) {
	keys, err := s.client.SMembers(ctx, tagKey(tag)).Result()
	if err != nil {
		return 0, fmt.Errorf("read tag members failed: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, keys...)
		pipe.Del(ctx, tagKey(tag))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalidate tag failed: %w", err)
	}

	return int(removed.Val()), nil
}

func tagKey(tag string) string {
	return tagKeyPrefix + tag
}
