package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"quizmaster-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizCache is a read-through cache in front of another quiz store. Reads hit
// Redis first (JSON per quiz key); misses collapse through singleflight onto
// the inner store and fill the cache with a jittered TTL. Writes go through
// to the inner store and refresh or drop the cached copy.
type QuizCache struct {
	client *redis.Client
	inner  QuizBackend
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand // guarded by rndMu; fill runs on concurrent Get and Save paths
}

// QuizBackend is the authoritative store behind the cache.
type QuizBackend interface {
	Save(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, id string) (domain.Quiz, error)
	ListAll(ctx context.Context) ([]domain.Quiz, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Quiz, error)
	Delete(ctx context.Context, id string) error
}

func NewQuizCache(client *redis.Client, inner QuizBackend, ttl time.Duration) *QuizCache {
	return &QuizCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuizCache) Get(ctx context.Context, id string) (domain.Quiz, error) {
	key := c.key(id)

	if quiz, ok := c.cached(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, ok := c.cached(ctx, key); ok {
			return quiz, nil
		}
		quiz, err := c.inner.Get(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		c.fill(ctx, key, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (c *QuizCache) Save(ctx context.Context, quiz domain.Quiz) error {
	if err := c.inner.Save(ctx, quiz); err != nil {
		return err
	}
	c.fill(ctx, c.key(quiz.ID), quiz)
	return nil
}

func (c *QuizCache) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	_ = c.client.Del(ctx, c.key(id)).Err()
	return nil
}

// Listings are an authoring-screen path, not game-latency-sensitive; they go
// straight to the inner store.
func (c *QuizCache) ListAll(ctx context.Context) ([]domain.Quiz, error) {
	return c.inner.ListAll(ctx)
}

func (c *QuizCache) ListByAuthor(ctx context.Context, authorID string) ([]domain.Quiz, error) {
	return c.inner.ListByAuthor(ctx, authorID)
}

func (c *QuizCache) cached(ctx context.Context, key string) (domain.Quiz, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, false
	}
	return quiz, true
}

// fill is best-effort: a failed cache write only costs a future miss.
func (c *QuizCache) fill(ctx context.Context, key string, quiz domain.Quiz) {
	raw, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttlWithJitter()).Err()
}

func (c *QuizCache) key(id string) string {
	return "quiz:" + id
}

func (c *QuizCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	jitter := c.rnd.Int63n(jitterMax + 1)
	c.rndMu.Unlock()
	return c.ttl + time.Duration(jitter)
}
