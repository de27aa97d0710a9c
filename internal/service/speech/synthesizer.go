package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const (
	// MaxTextLength is the longest input accepted for synthesis.
	MaxTextLength = 1000

	defaultSynthesisTimeout = 30 * time.Second
)

// Synthesizer wraps a synthesis engine behind a text-in/audio-file-out
// contract. Engine initialization is serialized; the engine itself is not
// safe to construct concurrently.
type Synthesizer struct {
	mu        sync.Mutex
	engine    SynthesisEngine
	newEngine func() (SynthesisEngine, error)
	dir       string
	timeout   time.Duration
}

func NewSynthesizer(dir string, newEngine func() (SynthesisEngine, error)) *Synthesizer {
	return &Synthesizer{
		newEngine: newEngine,
		dir:       dir,
		timeout:   defaultSynthesisTimeout,
	}
}

func (s *Synthesizer) engineHandle() (SynthesisEngine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		return s.engine, nil
	}

	log.Info("initializing synthesis engine")
	eng, err := s.newEngine()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	s.engine = eng
	return eng, nil
}

// Loaded reports whether the engine has been initialized.
func (s *Synthesizer) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine != nil
}

// Synthesize renders text into a uniquely named WAV file in the audio
// directory and returns the file's name. The engine runs on its own
// goroutine bounded by a wall-clock timeout; on timeout the worker is
// abandoned, since the engine offers no cancellation primitive.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (string, error) {
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", fmt.Errorf("%w: text too long (max %d characters)", ErrInvalidInput, MaxTextLength)
	}

	eng, err := s.engineHandle()
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("historia_tts_%s.wav", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	done := make(chan error, 1)
	go func() {
		done <- eng.Synthesize(ctx, text, path)
	}()

	select {
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
		}
	case <-time.After(s.timeout):
		log.Warn("synthesis worker abandoned after timeout", "timeout", s.timeout)
		return "", ErrSynthesisTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		return "", fmt.Errorf("%w: engine produced no output file", ErrSynthesis)
	}

	log.Info("speech generated", "file", name)
	return name, nil
}
