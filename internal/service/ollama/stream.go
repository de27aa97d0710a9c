package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/tarunlokjeet/historia/internal/model/chat"
)

// streamFragment is one newline-delimited JSON object from the backend.
// Response is a pointer so that an empty token is still forwarded.
type streamFragment struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// GenerateStream opens a streaming generation call and forwards the backend's
// output as it arrives. The returned channel is closed after a Done or Error
// event, or once ctx is cancelled; cancelling ctx also closes the upstream
// connection.
func (c *Client) GenerateStream(ctx context.Context, req chat.Request) <-chan chat.StreamEvent {
	events := make(chan chat.StreamEvent)

	category := ParseCategory(req.Category)
	payload := generateRequest{
		Model:   c.model,
		Prompt:  category.StreamPrompt(req.Message),
		Stream:  true,
		Options: streamingOptions(),
	}

	go func() {
		defer close(events)

		resp, err := c.postGenerate(ctx, payload)
		if err != nil {
			log.Error("ollama stream request failed", "error", err)
			send(ctx, events, chat.StreamEvent{Error: classify(err).Error()})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			send(ctx, events, chat.StreamEvent{Error: "Ollama API error"})
			return
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				// Partial lines across read boundaries unmarshal badly;
				// skip them rather than aborting the stream.
				var frag streamFragment
				if json.Unmarshal(line, &frag) == nil {
					if frag.Response != nil {
						if !send(ctx, events, chat.ContentEvent(*frag.Response)) {
							return
						}
					}
					if frag.Done {
						send(ctx, events, chat.StreamEvent{Done: true})
						return
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()

	return events
}

// send delivers an event unless the consumer has gone away.
func send(ctx context.Context, events chan<- chat.StreamEvent, ev chat.StreamEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
