package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizmaster-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionArchive keeps final snapshots of evicted games so results remain
// viewable for a while after the PIN has been released.
type SessionArchive struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionArchive(client *redis.Client, ttl time.Duration) *SessionArchive {
	return &SessionArchive{client: client, ttl: ttl}
}

func (a *SessionArchive) Store(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := a.client.Set(ctx, a.key(snap.PIN), raw, a.ttl).Err(); err != nil {
		return fmt.Errorf("%w: archive game %s: %v", domain.ErrUnavailable, snap.PIN, err)
	}
	return nil
}

func (a *SessionArchive) Load(ctx context.Context, pin string) (domain.Snapshot, error) {
	raw, err := a.client.Get(ctx, a.key(pin)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%w: load results %s: %v", domain.ErrUnavailable, pin, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (a *SessionArchive) key(pin string) string {
	return "game:results:" + pin
}
