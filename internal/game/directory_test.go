package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizmaster-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryArchive struct {
	mu    sync.Mutex
	snaps map[string]domain.Snapshot
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{snaps: make(map[string]domain.Snapshot)}
}

func (a *memoryArchive) Store(_ context.Context, snap domain.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snaps[snap.PIN] = snap
	return nil
}

func (a *memoryArchive) Load(_ context.Context, pin string) (domain.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.snaps[pin]
	if !ok {
		return domain.Snapshot{}, domain.ErrGameNotFound
	}
	return snap, nil
}

func TestCreateIssuesUniquePins(t *testing.T) {
	clock := newFakeClock()
	d := NewDirectoryWithClock(Config{}, nil, clock.Now)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		session, err := d.Create(testQuiz(), "Quinn")
		require.NoError(t, err)
		pin := session.PIN()
		assert.Len(t, pin, 6)
		_, dup := seen[pin]
		assert.False(t, dup, "pin %s issued twice", pin)
		seen[pin] = struct{}{}
	}
}

func TestCreateExhaustsTinyPinSpace(t *testing.T) {
	clock := newFakeClock()
	// One-digit space: ten PINs, the eleventh create must fail.
	d := NewDirectoryWithClock(Config{PinDigits: 1, PinAttempts: 1000}, nil, clock.Now)

	for i := 0; i < 10; i++ {
		_, err := d.Create(testQuiz(), "Quinn")
		require.NoError(t, err)
	}
	_, err := d.Create(testQuiz(), "Quinn")
	assert.ErrorIs(t, err, domain.ErrDirectoryExhausted)
}

func TestResolveUnknownPin(t *testing.T) {
	d := NewDirectoryWithClock(Config{}, nil, newFakeClock().Now)
	_, err := d.Resolve("000000")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestSweepAbortsIdleSessions(t *testing.T) {
	clock := newFakeClock()
	d := NewDirectoryWithClock(Config{IdleTimeout: time.Minute}, nil, clock.Now)

	session, err := d.Create(testQuiz(), "Quinn")
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	d.Sweep(clock.Now())
	assert.Equal(t, domain.StatusFinished, session.Status())
}

func TestSweepEvictsFinishedAndArchivesResults(t *testing.T) {
	clock := newFakeClock()
	archive := newMemoryArchive()
	d := NewDirectoryWithClock(Config{FinishedRetention: time.Minute}, archive, clock.Now)

	session, err := d.Create(testQuiz(), "Quinn")
	require.NoError(t, err)
	pin := session.PIN()
	_, _, err = session.Join("Ava")
	require.NoError(t, err)
	session.Abort()

	// Within retention the session is still resolvable.
	d.Sweep(clock.Now())
	_, err = d.Resolve(pin)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	d.Sweep(clock.Now())
	_, err = d.Resolve(pin)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	// Results fall back to the archive after eviction.
	require.Eventually(t, func() bool {
		snap, err := d.Results(context.Background(), pin)
		return err == nil && snap.Status == domain.StatusFinished && len(snap.Players) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestResultsPrefersLiveSession(t *testing.T) {
	clock := newFakeClock()
	d := NewDirectoryWithClock(Config{}, newMemoryArchive(), clock.Now)

	session, err := d.Create(testQuiz(), "Quinn")
	require.NoError(t, err)

	snap, err := d.Results(context.Background(), session.PIN())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLobby, snap.Status)
}

func TestEvictedPinBecomesReusable(t *testing.T) {
	clock := newFakeClock()
	d := NewDirectoryWithClock(Config{PinDigits: 1, PinAttempts: 1000, FinishedRetention: time.Minute}, nil, clock.Now)

	var pins []*Session
	for i := 0; i < 10; i++ {
		s, err := d.Create(testQuiz(), "Quinn")
		require.NoError(t, err)
		pins = append(pins, s)
	}
	pins[0].Abort()
	clock.Advance(2 * time.Minute)
	d.Sweep(clock.Now())

	s, err := d.Create(testQuiz(), "Quinn")
	require.NoError(t, err)
	assert.Equal(t, pins[0].PIN(), s.PIN(), "only the evicted pin is free")
}
