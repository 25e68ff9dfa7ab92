package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"

	"github.com/gorilla/mux"
)

// RESTHandler exposes quiz authoring and game hosting over plain HTTP.
// Authentication is out of scope; the author is an opaque X-Author-ID header.
type RESTHandler struct {
	quizzes *app.QuizService
	games   *app.GameService
}

func NewRESTHandler(quizzes *app.QuizService, games *app.GameService) *RESTHandler {
	return &RESTHandler{quizzes: quizzes, games: games}
}

// Register wires the REST routes onto a router.
func (h *RESTHandler) Register(r *mux.Router) {
	r.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	r.HandleFunc("/quizzes", h.listQuizzes).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}", h.getQuiz).Methods(http.MethodGet)
	r.HandleFunc("/quizzes/{id}", h.updateQuiz).Methods(http.MethodPut)
	r.HandleFunc("/quizzes/{id}", h.deleteQuiz).Methods(http.MethodDelete)
	r.HandleFunc("/games", h.hostGame).Methods(http.MethodPost)
	r.HandleFunc("/games/{pin}/results", h.gameResults).Methods(http.MethodGet)
}

func (h *RESTHandler) createQuiz(w http.ResponseWriter, r *http.Request) {
	authorID := authorFrom(r)
	if authorID == "" {
		http.Error(w, "missing X-Author-ID header", http.StatusBadRequest)
		return
	}
	var in domain.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	quiz, err := h.quizzes.Create(r.Context(), authorID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *RESTHandler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	var (
		quizzes []domain.Quiz
		err     error
	)
	if author := r.URL.Query().Get("author"); author != "" {
		quizzes, err = h.quizzes.ListByAuthor(r.Context(), author)
	} else {
		quizzes, err = h.quizzes.ListAll(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *RESTHandler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *RESTHandler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	authorID := authorFrom(r)
	if authorID == "" {
		http.Error(w, "missing X-Author-ID header", http.StatusBadRequest)
		return
	}
	var in domain.QuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	quiz, err := h.quizzes.Update(r.Context(), mux.Vars(r)["id"], authorID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *RESTHandler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	authorID := authorFrom(r)
	if authorID == "" {
		http.Error(w, "missing X-Author-ID header", http.StatusBadRequest)
		return
	}
	if err := h.quizzes.Delete(r.Context(), mux.Vars(r)["id"], authorID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type hostGameRequest struct {
	QuizID   string `json:"quizId"`
	HostName string `json:"hostName"`
}

type hostGameResponse struct {
	PIN  string          `json:"pin"`
	Game domain.Snapshot `json:"game"`
}

func (h *RESTHandler) hostGame(w http.ResponseWriter, r *http.Request) {
	var req hostGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.QuizID == "" || req.HostName == "" {
		http.Error(w, "quizId and hostName are required", http.StatusBadRequest)
		return
	}
	pin, snap, err := h.games.HostGame(r.Context(), req.QuizID, req.HostName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hostGameResponse{PIN: pin, Game: snap})
}

func (h *RESTHandler) gameResults(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.Results(r.Context(), mux.Vars(r)["pin"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func authorFrom(r *http.Request) string {
	return r.Header.Get("X-Author-ID")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var transition *domain.InvalidTransitionError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":   "validation failed",
			"reasons": validation.Reasons,
		})
	case errors.As(err, &transition):
		http.Error(w, transition.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrPlayerNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNotOwner):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, domain.ErrGameAlreadyStarted), errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrTooLate), errors.Is(err, domain.ErrWrongQuestion),
		errors.Is(err, domain.ErrNoPlayers), errors.Is(err, domain.ErrInvalidOption):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrDirectoryExhausted), errors.Is(err, domain.ErrUnavailable):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
