package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/game"
	"quizmaster-service/internal/infra/memory"
)

func newGameFixture(t *testing.T) (*app.GameService, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewQuizStore()
	quizzes := app.NewQuizService(store, domain.TimeLimitBounds{})

	created, err := quizzes.Create(ctx, "author-1", domain.QuizInput{
		Title: "One Question Quiz",
		Questions: []domain.Question{
			{
				Text:             "Pick the third option",
				Options:          []string{"a", "b", "c", "d"},
				CorrectOption:    2,
				TimeLimitSeconds: 20,
			},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	directory := game.NewDirectoryWithClock(game.Config{}, nil, time.Now)
	return app.NewGameService(store, directory), created.ID
}

// Full single-question game: host, join, start, answer at 5s, reveal, finish.
func TestHostedGameScenario(t *testing.T) {
	ctx := context.Background()
	service, quizID := newGameFixture(t)

	pin, snap, err := service.HostGame(ctx, quizID, "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}
	if snap.Status != domain.StatusLobby || snap.QuestionIndex != -1 {
		t.Fatalf("expected fresh lobby, got %+v", snap)
	}

	avaID, snap, err := service.Join(ctx, pin, "Ava")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(snap.Players) != 1 || snap.Players[0].Score != 0 {
		t.Fatalf("expected Ava in lobby with score 0, got %+v", snap.Players)
	}

	snap, err = service.Start(ctx, pin)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Status != domain.StatusInProgress || snap.QuestionIndex != 0 {
		t.Fatalf("expected question 0 in progress, got %+v", snap)
	}

	if _, err := service.SubmitAnswer(ctx, pin, avaID, 0, 2, 5); err != nil {
		t.Fatalf("submit: %v", err)
	}

	snap, err = service.Reveal(ctx, pin)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if snap.Players[0].Score != 875 {
		t.Fatalf("expected score 875 = round(500+500*15/20), got %d", snap.Players[0].Score)
	}

	snap, err = service.Advance(ctx, pin)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap.Status != domain.StatusFinished {
		t.Fatalf("expected finished, got %s", snap.Status)
	}
	if snap.Players[0].Score != 875 {
		t.Fatalf("expected final score 875, got %d", snap.Players[0].Score)
	}
}

func TestSecondSubmissionRejectedAndScoreUnchanged(t *testing.T) {
	ctx := context.Background()
	service, quizID := newGameFixture(t)

	pin, _, err := service.HostGame(ctx, quizID, "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}
	avaID, _, err := service.Join(ctx, pin, "Ava")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Start(ctx, pin); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := service.SubmitAnswer(ctx, pin, avaID, 0, 2, 5); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.SubmitAnswer(ctx, pin, avaID, 0, 0, 6); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected ErrAlreadyAnswered, got %v", err)
	}

	snap, err := service.Reveal(ctx, pin)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if snap.Players[0].Score != 875 {
		t.Fatalf("expected first answer to stand with 875, got %d", snap.Players[0].Score)
	}
}

func TestWrongQuestionRejected(t *testing.T) {
	ctx := context.Background()
	service, quizID := newGameFixture(t)

	pin, _, err := service.HostGame(ctx, quizID, "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}
	avaID, _, err := service.Join(ctx, pin, "Ava")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.Start(ctx, pin); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := service.SubmitAnswer(ctx, pin, avaID, 3, 2, 5); !errors.Is(err, domain.ErrWrongQuestion) {
		t.Fatalf("expected ErrWrongQuestion, got %v", err)
	}
}

func TestGameNotFound(t *testing.T) {
	ctx := context.Background()
	service, _ := newGameFixture(t)

	if _, _, err := service.Join(ctx, "999999", "Ava"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if _, _, err := service.HostGame(ctx, "missing-quiz", "Quinn"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestQuizEditsDoNotAffectHostedGame(t *testing.T) {
	ctx := context.Background()
	store := memory.NewQuizStore()
	quizzes := app.NewQuizService(store, domain.TimeLimitBounds{})
	created, err := quizzes.Create(ctx, "author-1", domain.QuizInput{
		Title: "Before",
		Questions: []domain.Question{
			{Text: "Q?", Options: []string{"a", "b", "c", "d"}, CorrectOption: 0, TimeLimitSeconds: 20},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	directory := game.NewDirectoryWithClock(game.Config{}, nil, time.Now)
	service := app.NewGameService(store, directory)

	pin, _, err := service.HostGame(ctx, created.ID, "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}

	if _, err := quizzes.Update(ctx, created.ID, "author-1", domain.QuizInput{
		Title: "After",
		Questions: []domain.Question{
			{Text: "Changed?", Options: []string{"w", "x", "y", "z"}, CorrectOption: 3, TimeLimitSeconds: 5},
		},
	}); err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	snap, err := service.Results(ctx, pin)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if snap.QuizTitle != "Before" {
		t.Fatalf("session must keep the host-time snapshot, got title %q", snap.QuizTitle)
	}
}

func TestSubscribeReceivesStateChanges(t *testing.T) {
	ctx := context.Background()
	service, quizID := newGameFixture(t)

	pin, _, err := service.HostGame(ctx, quizID, "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}
	updates, cancel, err := service.Subscribe(ctx, pin)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	first := <-updates
	if first.Status != domain.StatusLobby {
		t.Fatalf("expected initial lobby snapshot, got %s", first.Status)
	}

	if _, _, err := service.Join(ctx, pin, "Ava"); err != nil {
		t.Fatalf("join: %v", err)
	}
	update := <-updates
	if len(update.Players) != 1 {
		t.Fatalf("expected join to fan out, got %+v", update.Players)
	}
}
