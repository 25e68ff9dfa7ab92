package game

import (
	"sort"
	"sync"
	"time"

	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/scoring"

	"github.com/google/uuid"
)

// Session is the authoritative in-memory state of one live game. All
// mutations are serialized by the session mutex; concurrent submissions from
// different players interleave safely and the first accepted answer per
// player per question wins.
type Session struct {
	pin      string
	hostName string
	quiz     domain.Quiz // value copy captured at host time
	scoring  scoring.Config
	now      func() time.Time

	mu                sync.RWMutex
	status            domain.SessionStatus
	questionIndex     int
	questionStartedAt time.Time
	createdAt         time.Time
	startedAt         time.Time
	finishedAt        time.Time
	lastActivity      time.Time
	players           map[string]*playerState
	subscribers       map[chan domain.Snapshot]struct{}
}

type playerState struct {
	id          string
	displayName string
	score       int
	joinedAt    time.Time
	answers     map[int]*answerRecord
}

type answerRecord struct {
	optionIndex    int
	elapsedSeconds float64
	submittedAt    time.Time
	scored         bool
}

// NewSession builds a session in the lobby state around a quiz snapshot.
func NewSession(pin string, quiz domain.Quiz, hostName string, cfg scoring.Config) *Session {
	return NewSessionWithClock(pin, quiz, hostName, cfg, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(pin string, quiz domain.Quiz, hostName string, cfg scoring.Config, now func() time.Time) *Session {
	s := &Session{
		pin:           pin,
		hostName:      hostName,
		quiz:          quiz.Clone(),
		scoring:       cfg,
		now:           now,
		status:        domain.StatusLobby,
		questionIndex: -1,
		createdAt:     now(),
		players:       make(map[string]*playerState),
		subscribers:   make(map[chan domain.Snapshot]struct{}),
	}
	s.lastActivity = s.createdAt
	return s
}

// PIN returns the session's directory key.
func (s *Session) PIN() string { return s.pin }

// Join adds a player while the session is still in the lobby.
func (s *Session) Join(displayName string) (string, domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusLobby {
		return "", domain.Snapshot{}, domain.ErrGameAlreadyStarted
	}

	now := s.now()
	player := &playerState{
		id:          uuid.NewString(),
		displayName: displayName,
		joinedAt:    now,
		answers:     make(map[int]*answerRecord),
	}
	s.players[player.id] = player
	s.lastActivity = now
	return player.id, s.broadcastLocked(), nil
}

// Start moves the session from lobby to the first question.
func (s *Session) Start() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusLobby {
		return domain.Snapshot{}, &domain.InvalidTransitionError{From: s.status, Op: "start"}
	}
	if len(s.players) == 0 {
		return domain.Snapshot{}, domain.ErrNoPlayers
	}

	now := s.now()
	s.status = domain.StatusInProgress
	s.questionIndex = 0
	s.questionStartedAt = now
	s.startedAt = now
	s.lastActivity = now
	return s.broadcastLocked(), nil
}

// Reveal freezes submissions for the current question and scores every
// answered player in one atomic step. Already-scored answers are skipped, so
// a retried reveal never double-awards.
func (s *Session) Reveal() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusInProgress {
		return domain.Snapshot{}, &domain.InvalidTransitionError{From: s.status, Op: "reveal"}
	}

	question := s.quiz.Questions[s.questionIndex]
	for _, player := range s.players {
		ans, ok := player.answers[s.questionIndex]
		if !ok || ans.scored {
			continue
		}
		correct := ans.optionIndex == question.CorrectOption
		player.score += scoring.Score(s.scoring, correct, ans.elapsedSeconds, question.TimeLimitSeconds)
		ans.scored = true
	}

	s.status = domain.StatusRevealing
	s.lastActivity = s.now()
	return s.broadcastLocked(), nil
}

// Advance moves from a revealed question to the next one, or to Finished when
// no questions remain.
func (s *Session) Advance() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusRevealing {
		return domain.Snapshot{}, &domain.InvalidTransitionError{From: s.status, Op: "advance"}
	}

	now := s.now()
	if s.questionIndex+1 < len(s.quiz.Questions) {
		s.questionIndex++
		s.status = domain.StatusInProgress
		s.questionStartedAt = now
	} else {
		s.status = domain.StatusFinished
		s.finishedAt = now
	}
	s.lastActivity = now
	return s.broadcastLocked(), nil
}

// Abort ends the session from any state. Aborting a finished session is a
// no-op returning the final snapshot.
func (s *Session) Abort() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusFinished {
		return s.snapshotLocked()
	}
	now := s.now()
	s.status = domain.StatusFinished
	s.finishedAt = now
	s.lastActivity = now
	return s.broadcastLocked()
}

// SubmitAnswer records one player's answer for the current question. The
// acceptance window is enforced against the server clock; the client-reported
// elapsed time is used for scoring only and clamped to the question's limit.
func (s *Session) SubmitAnswer(playerID string, questionIndex, optionIndex int, elapsedSeconds float64) (domain.AnswerAck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, ok := s.players[playerID]
	if !ok {
		return domain.AnswerAck{}, domain.ErrPlayerNotFound
	}
	if questionIndex != s.questionIndex {
		return domain.AnswerAck{}, domain.ErrWrongQuestion
	}
	if s.status != domain.StatusInProgress {
		return domain.AnswerAck{}, domain.ErrTooLate
	}

	question := s.quiz.Questions[s.questionIndex]
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return domain.AnswerAck{}, domain.ErrInvalidOption
	}

	now := s.now()
	if now.Sub(s.questionStartedAt) > time.Duration(question.TimeLimitSeconds)*time.Second {
		return domain.AnswerAck{}, domain.ErrTooLate
	}
	if _, answered := player.answers[questionIndex]; answered {
		return domain.AnswerAck{}, domain.ErrAlreadyAnswered
	}

	limit := float64(question.TimeLimitSeconds)
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	if elapsedSeconds > limit {
		elapsedSeconds = limit
	}

	player.answers[questionIndex] = &answerRecord{
		optionIndex:    optionIndex,
		elapsedSeconds: elapsedSeconds,
		submittedAt:    now,
	}
	s.lastActivity = now
	s.broadcastLocked()
	return domain.AnswerAck{
		QuestionIndex: questionIndex,
		OptionIndex:   optionIndex,
		SubmittedAt:   now,
	}, nil
}

// Answer returns the stored record for a player and question index.
func (s *Session) Answer(playerID string, questionIndex int) (domain.AnswerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[playerID]
	if !ok {
		return domain.AnswerRecord{}, false
	}
	ans, ok := player.answers[questionIndex]
	if !ok {
		return domain.AnswerRecord{}, false
	}
	return domain.AnswerRecord{
		OptionIndex:    ans.optionIndex,
		ElapsedSeconds: ans.elapsedSeconds,
		SubmittedAt:    ans.submittedAt,
	}, true
}

// Subscribe registers a fan-out channel seeded with the current snapshot.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	// Seed under the lock: the channel is fresh and buffered so this cannot
	// block, and no broadcast or close can slip in ahead of the first snapshot.
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Snapshot returns the current observable state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// LastActivity reports when the session last accepted a mutation; the
// directory uses it to abort idle games.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// FinishedAt is zero until the session reaches Finished.
func (s *Session) FinishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finishedAt
}

// CloseSubscribers drops every subscriber; called by the directory on
// eviction so readers see end-of-stream instead of a stalled channel.
func (s *Session) CloseSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: replace its oldest pending snapshot so it only
			// ever observes equal-or-newer state, never blocks the session.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	players := make([]domain.PlayerView, 0, len(s.players))
	for _, p := range s.players {
		_, answered := p.answers[s.questionIndex]
		players = append(players, domain.PlayerView{
			ID:          p.id,
			DisplayName: p.displayName,
			Score:       p.score,
			Answered:    answered,
			JoinedAt:    p.joinedAt,
		})
	}
	// Leaderboard order: score desc, then earliest join, then name.
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		if !players[i].JoinedAt.Equal(players[j].JoinedAt) {
			return players[i].JoinedAt.Before(players[j].JoinedAt)
		}
		return players[i].DisplayName < players[j].DisplayName
	})

	snap := domain.Snapshot{
		PIN:           s.pin,
		HostName:      s.hostName,
		QuizTitle:     s.quiz.Title,
		Status:        s.status,
		QuestionIndex: s.questionIndex,
		QuestionCount: len(s.quiz.Questions),
		Players:       players,
		CreatedAt:     s.createdAt,
		UpdatedAt:     s.now(),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.finishedAt.IsZero() {
		t := s.finishedAt
		snap.FinishedAt = &t
	}
	if s.status == domain.StatusInProgress || s.status == domain.StatusRevealing {
		q := s.quiz.Questions[s.questionIndex]
		view := &domain.QuestionView{
			Index:            s.questionIndex,
			Text:             q.Text,
			Options:          append([]string(nil), q.Options...),
			TimeLimitSeconds: q.TimeLimitSeconds,
			CorrectOption:    -1,
		}
		if s.status == domain.StatusRevealing {
			view.CorrectOption = q.CorrectOption
		}
		snap.Question = view
	}
	return snap
}
