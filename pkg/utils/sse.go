package utils

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
)

// SetupSSEHeaders sets the response headers for a Server-Sent Events stream.
func SetupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// SendSSEChunk writes one `data: <json>` frame and flushes it to the client.
func SendSSEChunk(w http.ResponseWriter, flusher http.Flusher, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal sse payload", "error", err)
		return
	}

	if _, err := w.Write([]byte("data: ")); err != nil {
		log.Error("failed to write sse prefix", "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Error("failed to write sse payload", "error", err)
		return
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		log.Error("failed to write sse terminator", "error", err)
		return
	}
	flusher.Flush()
}
