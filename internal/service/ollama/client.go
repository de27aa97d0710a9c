package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

// Failure classes for calls against the inference backend. Handlers map these
// onto HTTP statuses with errors.Is.
var (
	ErrUpstreamTimeout     = errors.New("ollama request timed out")
	ErrUpstreamUnreachable = errors.New("cannot connect to ollama")
	ErrBadStatus           = errors.New("ollama returned an error status")
	ErrEmptyGeneration     = errors.New("empty response from ollama")
)

const (
	chatTimeout = 120 * time.Second
	tagsTimeout = 10 * time.Second
)

// Client talks to a local Ollama server over its generate/tags API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(baseURL, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: chatTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options options `json:"options"`
}

type options struct {
	Temperature   float64  `json:"temperature"`
	TopP          float64  `json:"top_p"`
	TopK          int      `json:"top_k,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	NumPredict    int      `json:"num_predict"`
	Stop          []string `json:"stop,omitempty"`
}

func blockingOptions() options {
	return options{
		Temperature:   0.8,
		TopP:          0.9,
		TopK:          40,
		RepeatPenalty: 1.1,
		NumPredict:    800,
		Stop:          []string{"<|user|>", "<|system|>"},
	}
}

func streamingOptions() options {
	return options{
		Temperature: 0.8,
		TopP:        0.9,
		NumPredict:  800,
	}
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a single blocking generation call and returns the full reply.
func (c *Client) Generate(ctx context.Context, req chat.Request) (*chat.Response, error) {
	category := ParseCategory(req.Category)
	payload := generateRequest{
		Model:   c.model,
		Prompt:  category.ChatPrompt(req.Message),
		Stream:  false,
		Options: blockingOptions(),
	}

	log.Info("sending request to ollama", "category", category.String(), "model", c.model)

	resp, err := c.postGenerate(ctx, payload)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrBadStatus, resp.Status, string(body))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	text := cleanResponse(gr.Response)
	if text == "" {
		return nil, ErrEmptyGeneration
	}

	log.Info("generated response", "chars", len(text))

	// The category echoes back as the caller sent it; normalization only
	// picks the prompt.
	echoed := req.Category
	if echoed == "" {
		echoed = CategoryGeneral.String()
	}

	return &chat.Response{
		Response:  text,
		Category:  echoed,
		Timestamp: time.Now().UTC(),
		ChatID:    req.ChatID,
	}, nil
}

// Tags returns the backend's model listing verbatim.
func (c *Client) Tags(ctx context.Context) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, tagsTimeout)
	defer cancel()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create tags request: %w", err)
	}

	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tags response: %w", err)
	}
	return json.RawMessage(body), nil
}

// CountModels parses a tags listing and returns the number of models.
func CountModels(tags json.RawMessage) int {
	var listing struct {
		Models []json.RawMessage `json:"models"`
	}
	if err := json.Unmarshal(tags, &listing); err != nil {
		return 0
	}
	return len(listing.Models)
}

func (c *Client) postGenerate(ctx context.Context, payload generateRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(hreq)
}

// cleanResponse strips residual role-delimiter tags from generated text.
func cleanResponse(s string) string {
	s = strings.ReplaceAll(s, "<|assistant|>", "")
	s = strings.ReplaceAll(s, "<|user|>", "")
	return strings.TrimSpace(s)
}

// classify maps transport-level failures onto the error taxonomy so callers
// can distinguish a timeout from an unreachable backend.
func classify(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
}
