package redisqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DueSet is a sorted set of JSON members scored by the millisecond they are
// due. Members are claimed by removing them, so each one is handed to a
// single consumer.
type DueSet struct {
	client redis.UniversalClient
	key    string
}

func NewDueSet(client redis.UniversalClient, key string) *DueSet {
	return &DueSet{client: client, key: key}
}

func (s *DueSet) Add(ctx context.Context, member any, due time.Time) error {
	data, err := json.Marshal(member)
	if err != nil {
		return fmt.Errorf("failed to encode %s member: %w", s.key, err)
	}

	err = s.client.ZAdd(ctx, s.key, redis.Z{Score: float64(due.UnixMilli()), Member: data}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to %s: %w", s.key, err)
	}

	return nil
}

// Claim removes and returns up to limit members due at or before now.
func (s *DueSet) Claim(ctx context.Context, now time.Time, limit int64) ([][]byte, error) {
	members, err := s.client.ZRangeByScore(ctx, s.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.key, err)
	}

	claimed := make([][]byte, 0, len(members))

	for _, member := range members {
		removed, err := s.client.ZRem(ctx, s.key, member).Result()
		if err != nil {
			return claimed, fmt.Errorf("failed to claim from %s: %w", s.key, err)
		}

		if removed == 1 {
			claimed = append(claimed, []byte(member))
		}
	}

	return claimed, nil
}

func (s *DueSet) Len(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, s.key).Result()
}
