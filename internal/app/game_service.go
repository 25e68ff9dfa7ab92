package app

import (
	"context"

	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/game"
)

// GameService is the boundary consumed by clients: host controls and player
// actions in, snapshot streams out. It routes every call through the
// directory to the single authoritative session for that PIN.
type GameService struct {
	quizzes   QuizStore
	directory *game.Directory
}

func NewGameService(quizzes QuizStore, directory *game.Directory) *GameService {
	return &GameService{quizzes: quizzes, directory: directory}
}

// HostGame snapshots the quiz and binds a new lobby session to a fresh PIN.
func (s *GameService) HostGame(ctx context.Context, quizID, hostName string) (string, domain.Snapshot, error) {
	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	session, err := s.directory.Create(quiz, hostName)
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	return session.PIN(), session.Snapshot(), nil
}

// Join adds a player to a lobby session and returns their ID.
func (s *GameService) Join(_ context.Context, pin, displayName string) (string, domain.Snapshot, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return "", domain.Snapshot{}, err
	}
	return session.Join(displayName)
}

// Start begins the quiz; requires at least one player in the lobby.
func (s *GameService) Start(_ context.Context, pin string) (domain.Snapshot, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Start()
}

// Reveal exposes the correct answer and scores all answered players at once.
func (s *GameService) Reveal(_ context.Context, pin string) (domain.Snapshot, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Reveal()
}

// Advance moves to the next question or finishes the game.
func (s *GameService) Advance(_ context.Context, pin string) (domain.Snapshot, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Advance()
}

// Abort ends the session immediately from any state.
func (s *GameService) Abort(_ context.Context, pin string) (domain.Snapshot, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return session.Abort(), nil
}

// SubmitAnswer records a player's answer for the current question.
func (s *GameService) SubmitAnswer(_ context.Context, pin, playerID string, questionIndex, optionIndex int, elapsedSeconds float64) (domain.AnswerAck, error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return domain.AnswerAck{}, err
	}
	return session.SubmitAnswer(playerID, questionIndex, optionIndex, elapsedSeconds)
}

// Subscribe returns a channel of session snapshots for a PIN. The caller
// must invoke the returned cancel function to stop delivery and release the
// subscriber slot.
func (s *GameService) Subscribe(_ context.Context, pin string) (<-chan domain.Snapshot, func(), error) {
	session, err := s.directory.Resolve(pin)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Results returns the latest snapshot for a PIN, live or archived.
func (s *GameService) Results(ctx context.Context, pin string) (domain.Snapshot, error) {
	return s.directory.Results(ctx, pin)
}
