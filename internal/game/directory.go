package game

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/scoring"
)

// Config tunes the session directory and the sessions it creates.
type Config struct {
	PinDigits         int           // width of the numeric PIN space
	PinAttempts       int           // generation retries before DirectoryExhausted
	IdleTimeout       time.Duration // inactivity before auto-abort
	FinishedRetention time.Duration // how long finished sessions stay resolvable
	SweepInterval     time.Duration // janitor tick
	Scoring           scoring.Config
}

func (c Config) withDefaults() Config {
	if c.PinDigits <= 0 {
		c.PinDigits = 6
	}
	if c.PinAttempts <= 0 {
		c.PinAttempts = 100
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 10 * time.Minute
	}
	if c.FinishedRetention <= 0 {
		c.FinishedRetention = 5 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 30 * time.Second
	}
	return c
}

// Archive receives final snapshots of evicted sessions so results stay
// viewable after the PIN is released. Implementations must not block game
// operations; the directory calls Store off the session's critical path.
type Archive interface {
	Store(ctx context.Context, snap domain.Snapshot) error
	Load(ctx context.Context, pin string) (domain.Snapshot, error)
}

// Directory maps PINs to live sessions. PIN allocation is check-and-reserve
// under the directory lock, so two hosts can never be issued the same PIN.
type Directory struct {
	cfg     Config
	now     func() time.Time
	rnd     *rand.Rand
	archive Archive

	mu       sync.Mutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewDirectory starts a directory with a background janitor that aborts idle
// sessions and evicts finished ones after the retention window.
func NewDirectory(cfg Config, archive Archive) *Directory {
	d := NewDirectoryWithClock(cfg, archive, time.Now)
	go d.janitor()
	return d
}

// NewDirectoryWithClock builds a directory without the janitor goroutine;
// tests drive Sweep directly with a fake clock.
func NewDirectoryWithClock(cfg Config, archive Archive, now func() time.Time) *Directory {
	cfg = cfg.withDefaults()
	return &Directory{
		cfg:      cfg,
		now:      now,
		rnd:      rand.New(rand.NewSource(now().UnixNano())),
		archive:  archive,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
}

// Create reserves a fresh PIN and binds a new lobby session to it. The quiz
// is captured by value so later edits cannot reach the running game.
func (d *Directory) Create(quiz domain.Quiz, hostName string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	space := int(math.Pow10(d.cfg.PinDigits))
	for i := 0; i < d.cfg.PinAttempts; i++ {
		pin := fmt.Sprintf("%0*d", d.cfg.PinDigits, d.rnd.Intn(space))
		if _, taken := d.sessions[pin]; taken {
			continue
		}
		session := NewSessionWithClock(pin, quiz, hostName, d.cfg.Scoring, d.now)
		d.sessions[pin] = session
		return session, nil
	}
	return nil, domain.ErrDirectoryExhausted
}

// Resolve returns the live session bound to a PIN.
func (d *Directory) Resolve(pin string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	session, ok := d.sessions[pin]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return session, nil
}

// Results returns the final snapshot for a PIN, falling back to the archive
// once the session has been evicted.
func (d *Directory) Results(ctx context.Context, pin string) (domain.Snapshot, error) {
	d.mu.Lock()
	session, ok := d.sessions[pin]
	d.mu.Unlock()
	if ok {
		return session.Snapshot(), nil
	}
	if d.archive == nil {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return d.archive.Load(ctx, pin)
}

// Sweep aborts idle sessions and evicts finished ones whose retention has
// passed, releasing their PINs for reuse. Exported for tests; the janitor
// calls it on every tick.
func (d *Directory) Sweep(now time.Time) {
	d.mu.Lock()
	var evicted []*Session
	for pin, session := range d.sessions {
		if session.Status() == domain.StatusFinished {
			if now.Sub(session.FinishedAt()) >= d.cfg.FinishedRetention {
				delete(d.sessions, pin)
				evicted = append(evicted, session)
			}
			continue
		}
		if now.Sub(session.LastActivity()) >= d.cfg.IdleTimeout {
			session.Abort()
		}
	}
	d.mu.Unlock()

	for _, session := range evicted {
		snap := session.Snapshot()
		session.CloseSubscribers()
		if d.archive != nil {
			// Off the lock and fire-and-forget: archiving must never stall
			// game operations.
			go func(snap domain.Snapshot) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := d.archive.Store(ctx, snap); err != nil {
					log.Printf("archive results for game %s: %v", snap.PIN, err)
				}
			}(snap)
		}
	}
}

// Close stops the janitor. Live sessions are left untouched.
func (d *Directory) Close() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *Directory) janitor() {
	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			d.Sweep(now)
		case <-d.stop:
			return
		}
	}
}
