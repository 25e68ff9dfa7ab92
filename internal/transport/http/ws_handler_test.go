package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/game"
	"quizmaster-service/internal/infra/memory"

	"github.com/gorilla/websocket"
)

func newGameServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewQuizStore()
	if err := store.Save(ctx, domain.Quiz{
		ID:    "quiz-1",
		Title: "WS Quiz",
		Questions: []domain.Question{
			{Text: "Pick c", Options: []string{"a", "b", "c", "d"}, CorrectOption: 2, TimeLimitSeconds: 20},
		},
	}); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	directory := game.NewDirectoryWithClock(game.Config{}, nil, time.Now)
	service := app.NewGameService(store, directory)

	pin, _, err := service.HostGame(ctx, "quiz-1", "Quinn")
	if err != nil {
		t.Fatalf("host game: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, pin
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", query, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wsEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) wsEnvelope {
	t.Helper()
	var msg wsEnvelope
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

// readState drains messages until a state snapshot satisfies the predicate.
func readState(t *testing.T, conn *websocket.Conn, want func(domain.Snapshot) bool) domain.Snapshot {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readEnvelope(t, conn)
		if msg.Type != "state" {
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(msg.Payload, &snap); err != nil {
			t.Fatalf("unmarshal snapshot: %v", err)
		}
		if want(snap) {
			return snap
		}
	}
	t.Fatalf("expected state not observed")
	return domain.Snapshot{}
}

func TestWebSocketGameFlow(t *testing.T) {
	server, pin := newGameServer(t)

	host := dialWS(t, server, "pin="+pin+"&role=host")
	player := dialWS(t, server, "pin="+pin+"&role=player&name=Ava")

	joined := readEnvelope(t, player)
	if joined.Type != "joined" {
		t.Fatalf("expected joined, got %s", joined.Type)
	}
	var joinedPayload struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(joined.Payload, &joinedPayload); err != nil {
		t.Fatalf("unmarshal joined: %v", err)
	}
	if joinedPayload.PlayerID == "" {
		t.Fatalf("expected player id in joined payload")
	}

	if err := host.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	readState(t, player, func(s domain.Snapshot) bool {
		return s.Status == domain.StatusInProgress && s.QuestionIndex == 0
	})

	answer := map[string]any{
		"type": "answer",
		"payload": map[string]any{
			"questionIndex":  0,
			"optionIndex":    2,
			"elapsedSeconds": 5,
		},
	}
	if err := player.WriteJSON(answer); err != nil {
		t.Fatalf("write answer: %v", err)
	}

	sawAck := false
	for i := 0; i < 5 && !sawAck; i++ {
		msg := readEnvelope(t, player)
		if msg.Type == "answerResult" {
			sawAck = true
		}
	}
	if !sawAck {
		t.Fatalf("expected answerResult")
	}

	if err := host.WriteJSON(map[string]any{"type": "reveal"}); err != nil {
		t.Fatalf("write reveal: %v", err)
	}
	revealed := readState(t, player, func(s domain.Snapshot) bool {
		return s.Status == domain.StatusRevealing
	})
	if revealed.Question == nil || revealed.Question.CorrectOption != 2 {
		t.Fatalf("expected revealed correct option, got %+v", revealed.Question)
	}
	if len(revealed.Players) != 1 || revealed.Players[0].Score != 875 {
		t.Fatalf("expected Ava at 875, got %+v", revealed.Players)
	}

	if err := host.WriteJSON(map[string]any{"type": "advance"}); err != nil {
		t.Fatalf("write advance: %v", err)
	}
	readState(t, player, func(s domain.Snapshot) bool {
		return s.Status == domain.StatusFinished
	})
}

func TestWebSocketPlayerCannotControlGame(t *testing.T) {
	server, pin := newGameServer(t)
	player := dialWS(t, server, "pin="+pin+"&role=player&name=Ava")

	if msg := readEnvelope(t, player); msg.Type != "joined" {
		t.Fatalf("expected joined, got %s", msg.Type)
	}
	if err := player.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write start: %v", err)
	}
	sawError := false
	for i := 0; i < 5 && !sawError; i++ {
		if msg := readEnvelope(t, player); msg.Type == "error" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected error for player control message")
	}
}

func TestWebSocketUnknownPin(t *testing.T) {
	server, _ := newGameServer(t)
	conn := dialWS(t, server, "pin=unknown&role=player&name=Ava")

	msg := readEnvelope(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error for unknown pin, got %s", msg.Type)
	}
}
