package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tarunlokjeet/historia/internal/model/chat"
	"github.com/tarunlokjeet/historia/internal/service/ollama"
	"github.com/tarunlokjeet/historia/internal/store"
)

type stubGenerator struct {
	resp   *chat.Response
	err    error
	events []chat.StreamEvent
}

func (s *stubGenerator) Generate(_ context.Context, req chat.Request) (*chat.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	resp := *s.resp
	resp.ChatID = req.ChatID
	return &resp, nil
}

func (s *stubGenerator) GenerateStream(_ context.Context, _ chat.Request) <-chan chat.StreamEvent {
	out := make(chan chat.StreamEvent)
	go func() {
		defer close(out)
		for _, ev := range s.events {
			out <- ev
		}
	}()
	return out
}

func setupRouter(gen Generator) (*chi.Mux, *store.MemoryStore) {
	messages := store.NewMemoryStore()
	handler := New(gen, messages)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, messages
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestChatSuccessPersistsBothTurns(t *testing.T) {
	gen := &stubGenerator{resp: &chat.Response{
		Response:  "an answer",
		Category:  "general",
		Timestamp: time.Now().UTC(),
	}}
	r, messages := setupRouter(gen)

	resp := postJSON(t, r, "/chat", chat.Request{Message: "a question"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body chat.Response
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Response != "an answer" {
		t.Fatalf("unexpected response %q", body.Response)
	}
	if body.ChatID == "" {
		t.Fatal("expected a generated chat_id when none was supplied")
	}

	turns, _ := messages.ListBySession(context.Background(), body.ChatID)
	if len(turns) != 2 {
		t.Fatalf("expected user and assistant turns persisted, got %d", len(turns))
	}
	if turns[0].Role != chat.RoleUser || turns[1].Role != chat.RoleAssistant {
		t.Fatalf("unexpected turn roles: %s, %s", turns[0].Role, turns[1].Role)
	}
}

func TestChatMissingMessage(t *testing.T) {
	r, _ := setupRouter(&stubGenerator{})

	resp := postJSON(t, r, "/chat", map[string]string{"category": "history"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestChatUpstreamErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ollama.ErrUpstreamTimeout, http.StatusGatewayTimeout},
		{ollama.ErrUpstreamUnreachable, http.StatusServiceUnavailable},
		{ollama.ErrEmptyGeneration, http.StatusInternalServerError},
		{ollama.ErrBadStatus, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		r, _ := setupRouter(&stubGenerator{err: tc.err})
		resp := postJSON(t, r, "/chat", chat.Request{Message: "hi"})
		if resp.Code != tc.want {
			t.Fatalf("for %v expected %d, got %d", tc.err, tc.want, resp.Code)
		}
	}
}

func TestChatStreamWritesSSEFrames(t *testing.T) {
	gen := &stubGenerator{events: []chat.StreamEvent{
		chat.ContentEvent("a"),
		chat.ContentEvent("b"),
		{Done: true},
	}}
	r, _ := setupRouter(gen)

	resp := postJSON(t, r, "/chat/stream", chat.Request{Message: "hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("expected SSE content type, got %q", ct)
	}

	body := resp.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d: %q", len(frames), body)
	}

	var events []chat.StreamEvent
	for _, frame := range frames {
		data, ok := strings.CutPrefix(frame, "data: ")
		if !ok {
			t.Fatalf("frame missing data prefix: %q", frame)
		}
		var ev chat.StreamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			t.Fatalf("decode frame %q: %v", frame, err)
		}
		events = append(events, ev)
	}

	if events[0].Content == nil || *events[0].Content != "a" {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Content == nil || *events[1].Content != "b" || !events[2].Done {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestChatStreamEmptyTokenKeepsContentKey(t *testing.T) {
	gen := &stubGenerator{events: []chat.StreamEvent{
		chat.ContentEvent(""),
		{Done: true},
	}}
	r, _ := setupRouter(gen)

	resp := postJSON(t, r, "/chat/stream", chat.Request{Message: "hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `data: {"content":""}`) {
		t.Fatalf("expected empty-token frame with content key, got %q", resp.Body.String())
	}
}

func TestChatStreamErrorEvent(t *testing.T) {
	gen := &stubGenerator{events: []chat.StreamEvent{{Error: "Ollama API error"}}}
	r, _ := setupRouter(gen)

	resp := postJSON(t, r, "/chat/stream", chat.Request{Message: "hi"})
	if resp.Code != http.StatusOK {
		t.Fatalf("streaming errors are in-band; expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"error":"Ollama API error"`) {
		t.Fatalf("expected error frame, got %q", resp.Body.String())
	}
}

func TestHistoryEndpoints(t *testing.T) {
	r, messages := setupRouter(&stubGenerator{})
	ctx := context.Background()
	messages.Append(ctx, "s1", chat.RoleUser, "hello")
	messages.Append(ctx, "s2", chat.RoleUser, "hi")

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var all struct {
		Messages []chat.Turn `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(all.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(all.Messages))
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var sessions struct {
		Sessions []string `json:"sessions"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %v", sessions.Sessions)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/s1/messages", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	var bySession struct {
		Messages []chat.Turn `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &bySession); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(bySession.Messages) != 1 || bySession.Messages[0].SessionID != "s1" {
		t.Fatalf("unexpected session filter result: %+v", bySession.Messages)
	}
}
