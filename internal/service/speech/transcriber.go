package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultLanguage = "en"

// Transcription is the file-in/text-out result of the speech-to-text adapter.
type Transcription struct {
	Text       string  `json:"transcription"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Transcriber wraps a recognition engine that is expensive to construct. The
// engine is initialized on first use and reused; a failed initialization is
// retried on the next call instead of being treated as fatal.
type Transcriber struct {
	mu        sync.Mutex
	engine    RecognitionEngine
	newEngine func() (RecognitionEngine, error)
}

func NewTranscriber(newEngine func() (RecognitionEngine, error)) *Transcriber {
	return &Transcriber{newEngine: newEngine}
}

func (t *Transcriber) engineHandle() (RecognitionEngine, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.engine != nil {
		return t.engine, nil
	}

	log.Info("loading transcription engine")
	eng, err := t.newEngine()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	t.engine = eng
	return eng, nil
}

// Loaded reports whether the engine has been initialized.
func (t *Transcriber) Loaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine != nil
}

// Transcribe writes the upload to a temporary file, runs the engine once, and
// removes the file on every exit path.
func (t *Transcriber) Transcribe(ctx context.Context, contentType string, audio []byte) (*Transcription, error) {
	if !strings.HasPrefix(contentType, "audio/") {
		return nil, fmt.Errorf("%w: file must be an audio file", ErrInvalidInput)
	}

	eng, err := t.engineHandle()
	if err != nil {
		return nil, err
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("historia_upload_%s.wav", uuid.NewString()))
	if err := os.WriteFile(tmpPath, audio, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write temp audio: %v", ErrTranscription, err)
	}
	defer os.Remove(tmpPath)

	result, err := eng.Transcribe(ctx, tmpPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	language := result.Language
	if language == "" {
		language = defaultLanguage
	}

	text := strings.TrimSpace(result.Text)
	log.Info("transcription successful", "chars", len(text), "language", language)

	return &Transcription{
		Text:       text,
		Confidence: result.Confidence,
		Language:   language,
	}, nil
}
