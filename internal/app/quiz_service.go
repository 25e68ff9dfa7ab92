package app

import (
	"context"
	"time"

	"quizmaster-service/internal/domain"

	"github.com/google/uuid"
)

// QuizStore abstracts quiz persistence (in-memory, Postgres, Redis-cached).
type QuizStore interface {
	Save(ctx context.Context, quiz domain.Quiz) error
	Get(ctx context.Context, id string) (domain.Quiz, error)
	ListAll(ctx context.Context) ([]domain.Quiz, error)
	ListByAuthor(ctx context.Context, authorID string) ([]domain.Quiz, error)
	Delete(ctx context.Context, id string) error
}

// QuizService implements the quiz catalog use cases: authors create and
// maintain quizzes, sessions read them once at host time.
type QuizService struct {
	store  QuizStore
	bounds domain.TimeLimitBounds
	now    func() time.Time
	newID  func() string
}

func NewQuizService(store QuizStore, bounds domain.TimeLimitBounds) *QuizService {
	return &QuizService{
		store:  store,
		bounds: bounds,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create validates the input and persists a new quiz owned by authorID.
// Nothing is persisted when validation fails.
func (s *QuizService) Create(ctx context.Context, authorID string, in domain.QuizInput) (domain.Quiz, error) {
	if err := domain.ValidateQuizInput(in, s.bounds); err != nil {
		return domain.Quiz{}, err
	}
	now := s.now()
	quiz := domain.Quiz{
		ID:          s.newID(),
		AuthorID:    authorID,
		Title:       in.Title,
		Description: in.Description,
		Questions:   in.Questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, quiz.Clone()); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// Get returns one quiz by ID.
func (s *QuizService) Get(ctx context.Context, id string) (domain.Quiz, error) {
	return s.store.Get(ctx, id)
}

// ListAll returns every quiz in the catalog.
func (s *QuizService) ListAll(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.ListAll(ctx)
}

// ListByAuthor returns the quizzes owned by one author.
func (s *QuizService) ListByAuthor(ctx context.Context, authorID string) ([]domain.Quiz, error) {
	return s.store.ListByAuthor(ctx, authorID)
}

// Update replaces a quiz's content. Only the owning author may update.
func (s *QuizService) Update(ctx context.Context, id, authorID string, in domain.QuizInput) (domain.Quiz, error) {
	if err := domain.ValidateQuizInput(in, s.bounds); err != nil {
		return domain.Quiz{}, err
	}
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if existing.AuthorID != authorID {
		return domain.Quiz{}, domain.ErrNotOwner
	}
	updated := existing
	updated.Title = in.Title
	updated.Description = in.Description
	updated.Questions = in.Questions
	updated.UpdatedAt = s.now()
	if err := s.store.Save(ctx, updated.Clone()); err != nil {
		return domain.Quiz{}, err
	}
	return updated, nil
}

// Delete removes a quiz. Only the owning author may delete. Sessions hosted
// from it are unaffected: they hold a value copy.
func (s *QuizService) Delete(ctx context.Context, id, authorID string) error {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != authorID {
		return domain.ErrNotOwner
	}
	return s.store.Delete(ctx, id)
}
