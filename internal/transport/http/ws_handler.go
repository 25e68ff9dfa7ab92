package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quizmaster-service/internal/app"

	"github.com/gorilla/websocket"
)

// WSHandler attaches hosts and players to a game over a websocket: commands
// in, session snapshots out.
type WSHandler struct {
	games    *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(games *app.GameService) *WSHandler {
	return &WSHandler{
		games: games,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex  int     `json:"questionIndex"`
	OptionIndex    int     `json:"optionIndex"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
}

type joinedPayload struct {
	PlayerID string      `json:"playerId"`
	Game     interface{} `json:"game"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the connection until the client
// leaves. Players join the lobby on connect; a host leaving an unfinished
// game aborts it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	pin := r.URL.Query().Get("pin")
	role := r.URL.Query().Get("role")
	name := r.URL.Query().Get("name")
	if pin == "" || (role != "host" && role != "player") {
		http.Error(w, "missing pin or role (host|player)", http.StatusBadRequest)
		return
	}
	if role == "player" && name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var playerID string
	if role == "player" {
		id, snap, err := h.games.Join(r.Context(), pin, name)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
			return
		}
		playerID = id
		_ = conn.WriteJSON(outboundMessage{Type: "joined", Payload: joinedPayload{PlayerID: id, Game: snap}})
	}

	updates, cancel, err := h.games.Subscribe(r.Context(), pin)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	if role == "host" {
		// The host walking away must not strand the players.
		defer func() {
			if _, err := h.games.Abort(r.Context(), pin); err != nil {
				log.Printf("abort game %s on host disconnect: %v", pin, err)
			}
		}()
	}

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleMessage(r, pin, role, playerID, inbound, send)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(r *http.Request, pin, role, playerID string, inbound inboundMessage, send chan<- outboundMessage) {
	fail := func(msg string) {
		send <- outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
	}

	switch inbound.Type {
	case "start", "reveal", "advance", "end":
		if role != "host" {
			fail("only the host can control the game")
			return
		}
		var err error
		switch inbound.Type {
		case "start":
			_, err = h.games.Start(r.Context(), pin)
		case "reveal":
			_, err = h.games.Reveal(r.Context(), pin)
		case "advance":
			_, err = h.games.Advance(r.Context(), pin)
		case "end":
			_, err = h.games.Abort(r.Context(), pin)
		}
		if err != nil {
			fail(err.Error())
		}
	case "answer":
		if role != "player" {
			fail("only players can answer")
			return
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid answer payload")
			return
		}
		ack, err := h.games.SubmitAnswer(r.Context(), pin, playerID, payload.QuestionIndex, payload.OptionIndex, payload.ElapsedSeconds)
		if err != nil {
			fail(err.Error())
			return
		}
		send <- outboundMessage{Type: "answerResult", Payload: ack}
	default:
		fail("unsupported message type")
	}
}
