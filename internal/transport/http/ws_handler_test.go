package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"practice-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dialSession(t *testing.T, env *testEnv, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

// readUntil reads messages until one matches, returning its snapshot payload when it is one.
func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage, domain.SessionSnapshot) bool) (wsMessage, domain.SessionSnapshot) {
	t.Helper()
	for i := 0; i < 200; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		var snap domain.SessionSnapshot
		if msg.Type == "snapshot" {
			if err := json.Unmarshal(msg.Payload, &snap); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
		}
		if match(msg, snap) {
			return msg, snap
		}
	}
	t.Fatalf("no matching message")
	return wsMessage{}, domain.SessionSnapshot{}
}

func TestWebSocketAnswerFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	snap, err := env.service.Begin(context.Background(), "quiz-1", "u1")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	conn := dialSession(t, env, snap.SessionID)
	defer conn.Close()

	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool {
		return m.Type == "snapshot" && s.State == domain.StateNotStarted
	})

	send := func(v any) {
		if err := conn.WriteJSON(v); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	send(map[string]any{"type": "start"})
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return s.State == domain.StateInProgress })

	send(map[string]any{"type": "answer", "payload": map[string]any{"questionId": 1, "answer": 1}})
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return len(s.Answers) == 1 })

	send(map[string]any{"type": "answer", "payload": map[string]any{"questionId": 42, "answer": 1}})
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return m.Type == "error" })

	send(map[string]any{"type": "submit"})
	msg, _ := readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return m.Type == "result" })
	var result domain.QuizResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Score != 10 || result.Percentage != 67 || result.TimedOut {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestWebSocketTimerForcesSubmission(t *testing.T) {
	env := newTestEnv(t, nil)
	snap, _ := env.service.Begin(context.Background(), "quiz-1", "u1")
	conn := dialSession(t, env, snap.SessionID)
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return s.State == domain.StateInProgress })

	env.ticker.Advance(1)
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return s.TimeRemaining == "0:59" })

	env.ticker.Advance(59)
	_, done := readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return s.State == domain.StateCompleted })
	if done.Result == nil || !done.Result.TimedOut || done.TimeRemainingSeconds != 0 {
		t.Fatalf("unexpected completed snapshot %+v", done)
	}
	if env.ticker.Active() != 0 {
		t.Fatalf("timer still armed after forced submission")
	}
}

func TestWebSocketDisconnectAbandonsUnfinishedAttempt(t *testing.T) {
	env := newTestEnv(t, nil)
	snap, _ := env.service.Begin(context.Background(), "quiz-1", "u1")
	conn := dialSession(t, env, snap.SessionID)

	if err := conn.WriteJSON(map[string]any{"type": "start"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(m wsMessage, s domain.SessionSnapshot) bool { return s.State == domain.StateInProgress })
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for env.ticker.Active() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("timer not cancelled after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := env.service.Session(snap.SessionID); err == nil {
		t.Fatalf("attempt should be gone after disconnect")
	}
}

func TestWebSocketRequiresKnownSession(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, err := http.Get(env.server.URL + "/ws?sessionId=missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
