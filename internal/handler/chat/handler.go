package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tarunlokjeet/historia/internal/model/chat"
	"github.com/tarunlokjeet/historia/internal/service/ollama"
	"github.com/tarunlokjeet/historia/internal/store"
	"github.com/tarunlokjeet/historia/pkg/utils"
)

// Generator abstracts the inference gateway so handlers can be tested
// against stub implementations.
type Generator interface {
	Generate(ctx context.Context, req chat.Request) (*chat.Response, error)
	GenerateStream(ctx context.Context, req chat.Request) <-chan chat.StreamEvent
}

// Handler serves the chat endpoints and the stored message history.
type Handler struct {
	llm      Generator
	messages store.MessageStore
}

func New(llm Generator, messages store.MessageStore) *Handler {
	return &Handler{llm: llm, messages: messages}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/chat/stream", h.handleChatStream)
	r.Get("/messages", h.handleListMessages)
	r.Get("/sessions", h.handleListSessions)
	r.Get("/sessions/{sessionID}/messages", h.handleSessionMessages)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	if req.ChatID == "" {
		req.ChatID = uuid.NewString()
	}

	h.persistTurn(r.Context(), req.ChatID, chat.RoleUser, req.Message)

	resp, err := h.llm.Generate(r.Context(), req)
	if err != nil {
		log.Error("chat generation failed", "error", err)
		utils.RespondError(w, chatErrorStatus(err), err.Error())
		return
	}

	h.persistTurn(r.Context(), req.ChatID, chat.RoleAssistant, resp.Response)

	utils.RespondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)

	// Once the first frame is written, failures are reported inside the
	// stream itself rather than as an HTTP status.
	for event := range h.llm.GenerateStream(r.Context(), req) {
		utils.SendSSEChunk(w, flusher, event)
	}
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	turns, err := h.messages.ListAll(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.messages.ListSessions(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (h *Handler) handleSessionMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := h.messages.ListBySession(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"messages": turns})
}

// persistTurn records a turn without failing the exchange when the store is
// unavailable.
func (h *Handler) persistTurn(ctx context.Context, sessionID, role, content string) {
	if _, err := h.messages.Append(ctx, sessionID, role, content); err != nil {
		log.Error("failed to persist chat turn", "role", role, "error", err)
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chat.Request, bool) {
	var req chat.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return chat.Request{}, false
	}
	if req.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return chat.Request{}, false
	}
	return req, true
}

func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, ollama.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ollama.ErrUpstreamUnreachable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
