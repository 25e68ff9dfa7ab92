package domain

import "time"

// SessionStatus is the single authoritative lifecycle field of a game session.
type SessionStatus string

const (
	StatusLobby      SessionStatus = "lobby"
	StatusInProgress SessionStatus = "in_progress"
	StatusRevealing  SessionStatus = "revealing"
	StatusFinished   SessionStatus = "finished"
)

// OptionsPerQuestion is fixed: every question carries exactly four choices.
const OptionsPerQuestion = 4

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectOption    int      `json:"correctOption"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// Quiz is an authored collection of questions. The AuthorID is an opaque
// identifier supplied by the caller; ownership checks compare it verbatim.
type Quiz struct {
	ID          string     `json:"id"`
	AuthorID    string     `json:"authorId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy. Sessions snapshot quiz content at host time so
// later edits never reach an in-flight game.
func (q Quiz) Clone() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		out.Questions[i] = question
		out.Questions[i].Options = append([]string(nil), question.Options...)
	}
	return out
}

// QuizInput is the caller-supplied payload for create/update.
type QuizInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// AnswerRecord is a player's single answer for one question index.
// ElapsedSeconds is the client-reported answer time, used for scoring only
// (eligibility is enforced server-side) and clamped to [0, timeLimit].
type AnswerRecord struct {
	OptionIndex    int       `json:"optionIndex"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// AnswerAck confirms an accepted submission. Correctness and points are not
// disclosed until the host reveals the question.
type AnswerAck struct {
	QuestionIndex int       `json:"questionIndex"`
	OptionIndex   int       `json:"optionIndex"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// PlayerView is the fan-out-friendly projection of one player.
type PlayerView struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Score       int       `json:"score"`
	Answered    bool      `json:"answered"` // answered the current question
	JoinedAt    time.Time `json:"joinedAt"`
}

// QuestionView is the current question as shown to clients. CorrectOption is
// -1 until the question has been revealed.
type QuestionView struct {
	Index            int      `json:"index"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	CorrectOption    int      `json:"correctOption"`
}

// Snapshot is the full observable state of a session, pushed to every
// subscriber on each accepted mutation. Subscribers reconcile by comparing
// (Status, QuestionIndex) against their last known state, never by counting
// deliveries.
type Snapshot struct {
	PIN           string        `json:"pin"`
	HostName      string        `json:"hostName"`
	QuizTitle     string        `json:"quizTitle"`
	Status        SessionStatus `json:"status"`
	QuestionIndex int           `json:"questionIndex"` // -1 while in lobby
	QuestionCount int           `json:"questionCount"`
	Question      *QuestionView `json:"question,omitempty"`
	Players       []PlayerView  `json:"players"`
	CreatedAt     time.Time     `json:"createdAt"`
	StartedAt     *time.Time    `json:"startedAt,omitempty"`
	FinishedAt    *time.Time    `json:"finishedAt,omitempty"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
