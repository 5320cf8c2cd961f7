package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const pollKeyPrefix = "credits:poll:"

// PollThrottle limits provider queries to one per purchase per cooldown window
type PollThrottle struct {
	client   *redis.Client
	cooldown time.Duration
}

// NewPollThrottle creates a throttle; a zero cooldown disables it
func NewPollThrottle(client *redis.Client, cooldown time.Duration) *PollThrottle {
	return &PollThrottle{client: client, cooldown: cooldown}
}

// Allow reports whether the caller may query the provider now.
// The first caller in a window wins the SETNX and later callers are refused until the key expires.
func (t *PollThrottle) Allow(ctx context.Context, purchaseID uuid.UUID) (bool, error) {
	if t.cooldown <= 0 {
		return true, nil
	}

	ok, err := t.client.SetNX(ctx, pollKeyPrefix+purchaseID.String(), time.Now().Unix(), t.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("poll throttle: %w", err)
	}
	return ok, nil
}
