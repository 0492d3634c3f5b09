package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"netexam/internal/app"
	"netexam/internal/domain"
	"netexam/internal/infra/memory"
)

func newTestCoordinator() *app.Coordinator {
	directory := memory.NewDirectory([]domain.Credential{{ID: "alice", Secret: "s1"}})
	state := app.NewSharedState(memory.NewStateStore(), time.Minute)
	return app.NewCoordinator(directory, memory.NewScoreStore(), state, nil, sampleExam(), app.Options{})
}

func TestWebSocketExamFlow(t *testing.T) {
	coordinator := newTestCoordinator()
	wsHandler := NewWSHandler(context.Background(), coordinator)

	server := httptest.NewServer(wsHandler.Routes())
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_, payload := readNext(conn, t, domain.MsgPrompt)
	if payload["field"] != domain.FieldID {
		t.Fatalf("expected id prompt, got %v", payload)
	}
	send(conn, t, domain.MsgCredential, map[string]any{"value": "alice"})
	readNext(conn, t, domain.MsgPrompt)
	send(conn, t, domain.MsgCredential, map[string]any{"value": "s1"})

	_, payload = readNext(conn, t, domain.MsgAuthResult)
	if payload["ok"] != true {
		t.Fatalf("expected successful auth, got %v", payload)
	}
	readNext(conn, t, domain.MsgWaiting)

	if !coordinator.TriggerStart(context.Background()) {
		t.Fatalf("expected gate to open")
	}
	_, payload = readNext(conn, t, domain.MsgStart)
	if payload["total"] != float64(2) {
		t.Fatalf("expected 2 questions, got %v", payload)
	}

	readNext(conn, t, domain.MsgQuestion)
	// Unknown message types get an error reply and do not consume the question.
	send(conn, t, "ping", nil)
	readNext(conn, t, domain.MsgError)
	send(conn, t, domain.MsgAnswer, map[string]any{"option": 2})
	readNext(conn, t, domain.MsgQuestion)
	send(conn, t, domain.MsgAnswer, map[string]any{"option": 1})

	_, payload = readNext(conn, t, domain.MsgResult)
	if payload["percent"] != float64(50) {
		t.Fatalf("expected 50 percent, got %v", payload)
	}
	readNext(conn, t, domain.MsgComplete)
}

func TestWebSocketRejectsBadCredentials(t *testing.T) {
	coordinator := newTestCoordinator()
	wsHandler := NewWSHandler(context.Background(), coordinator)
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, domain.MsgPrompt)
	send(conn, t, domain.MsgCredential, map[string]any{"value": "alice"})
	readNext(conn, t, domain.MsgPrompt)
	send(conn, t, domain.MsgCredential, map[string]any{"value": "nope"})
	_, payload := readNext(conn, t, domain.MsgAuthResult)
	if payload["ok"] != false {
		t.Fatalf("expected rejection, got %v", payload)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected connection to be closed after rejection")
	}
	if n := coordinator.ConnectedCount(context.Background()); n != 0 {
		t.Fatalf("expected 0 connected, got %d", n)
	}
}

func send(conn *websocket.Conn, t *testing.T, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func sampleExam() domain.Exam {
	return domain.Exam{
		ID: "exam-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, Correct: 2},
			{ID: "q2", Prompt: "Pick the vowel", Options: []string{"b", "c", "e"}, Correct: 3},
		},
	}
}
