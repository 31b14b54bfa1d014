package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"practice-quiz-service/internal/app"
	"practice-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSHandler streams attempt snapshots to a client and accepts its commands.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// command is a client message: start, answer, next, previous or submit.
type command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int           `json:"questionId"`
	Answer     domain.Answer `json:"answer"`
}

type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

var errUnknownCommand = errors.New("unsupported message type")

// ServeWS upgrades the request and binds it to an existing attempt. Closing the socket
// while the attempt is unfinished abandons it, which also stops its timer.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}
	if _, err := h.service.Session(sessionID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID)
	if err != nil {
		_ = conn.WriteJSON(event{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.abandonUnfinished(sessionID)

	client := newWSClient(conn, sessionID)
	go client.writeLoop()
	go client.forward(updates)

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}
		if err := h.dispatch(client, sessionID, cmd); err != nil {
			client.push("error", errorPayload{Message: err.Error()})
		}
	}
	client.close()
}

// dispatch applies one command. Snapshots reach the client through the subscription,
// so only the result of a submit is pushed directly.
func (h *WSHandler) dispatch(client *wsClient, sessionID string, cmd command) error {
	var err error
	switch cmd.Type {
	case "start":
		_, err = h.service.Start(sessionID)
	case "next":
		_, err = h.service.Next(sessionID)
	case "previous":
		_, err = h.service.Previous(sessionID)
	case "answer":
		var p answerPayload
		if json.Unmarshal(cmd.Payload, &p) != nil || !p.Answer.IsSet() {
			return errors.New("invalid answer payload")
		}
		_, err = h.service.SelectAnswer(sessionID, p.QuestionID, p.Answer)
	case "submit":
		if _, err = h.service.Submit(sessionID); err == nil {
			if result, rerr := h.service.Result(sessionID); rerr == nil {
				client.push("result", result)
			}
		}
	default:
		return errUnknownCommand
	}
	return err
}

func (h *WSHandler) abandonUnfinished(sessionID string) {
	session, err := h.service.Session(sessionID)
	if err != nil || session.State() == domain.StateCompleted {
		return
	}
	h.service.Abandon(sessionID)
	log.Info().Str("session_id", sessionID).Msg("quiz attempt abandoned on disconnect")
}

// wsClient serializes writes to one connection through a single goroutine.
type wsClient struct {
	conn       *websocket.Conn
	sessionID  string
	send       chan event
	quit       chan struct{}
	writerDone chan struct{}
	fwdDone    chan struct{}
}

func newWSClient(conn *websocket.Conn, sessionID string) *wsClient {
	return &wsClient{
		conn:       conn,
		sessionID:  sessionID,
		send:       make(chan event, 16),
		quit:       make(chan struct{}),
		writerDone: make(chan struct{}),
		fwdDone:    make(chan struct{}),
	}
}

func (c *wsClient) writeLoop() {
	defer close(c.writerDone)
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Str("session_id", c.sessionID).Msg("ws write error")
			return
		}
	}
}

// forward relays snapshots until the subscription ends or the client goes away.
func (c *wsClient) forward(updates <-chan domain.SessionSnapshot) {
	defer close(c.fwdDone)
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				c.enqueue(event{Type: "closed", Payload: errorPayload{Message: "session ended"}})
				return
			}
			if !c.enqueue(event{Type: "snapshot", Payload: snap}) {
				return
			}
		case <-c.quit:
			return
		}
	}
}

// push is used by the read loop; it gives up once the writer has stopped.
func (c *wsClient) push(typ string, payload any) {
	select {
	case c.send <- event{Type: typ, Payload: payload}:
	case <-c.writerDone:
	}
}

func (c *wsClient) enqueue(ev event) bool {
	select {
	case c.send <- ev:
		return true
	case <-c.quit:
		return false
	}
}

// close stops the forwarder, then drains and stops the writer.
func (c *wsClient) close() {
	close(c.quit)
	<-c.fwdDone
	close(c.send)
	<-c.writerDone
}
