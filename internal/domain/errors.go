package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrQuizNotFound indicates an unknown quiz ID.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNotOwner is returned when a caller mutates a quiz they do not own.
	ErrNotOwner = errors.New("quiz is owned by another author")
	// ErrGameNotFound indicates the PIN does not resolve to a session.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameAlreadyStarted is returned on join once the session left the lobby.
	ErrGameAlreadyStarted = errors.New("game already started")
	// ErrPlayerNotFound indicates an unknown player ID within a session.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already submitted for this question")
	// ErrTooLate is returned when the answer window for the question has closed.
	ErrTooLate = errors.New("answer window closed")
	// ErrWrongQuestion guards against stale clients answering a past question.
	ErrWrongQuestion = errors.New("not the current question")
	// ErrInvalidOption indicates an option index outside the question's options.
	ErrInvalidOption = errors.New("option index out of range")
	// ErrNoPlayers is returned when starting a session with an empty lobby.
	ErrNoPlayers = errors.New("cannot start with no players")
	// ErrDirectoryExhausted means no free PIN could be reserved; transient,
	// callers may retry with backoff.
	ErrDirectoryExhausted = errors.New("no game pin available")
	// ErrUnavailable wraps backing-store failures; callers may retry.
	ErrUnavailable = errors.New("backing store unavailable")
)

// InvalidTransitionError reports a state-machine misuse, naming the current
// status and the requested operation.
type InvalidTransitionError struct {
	From SessionStatus
	Op   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s while %s", e.Op, e.From)
}

// ValidationError rejects malformed quiz input before anything is persisted.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "invalid quiz: " + strings.Join(e.Reasons, "; ")
}
