package speech

import (
	"context"
	"errors"
)

// Failure classes for the local speech engines.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrModelUnavailable = errors.New("speech engine unavailable")
	ErrTranscription    = errors.New("transcription failed")
	ErrSynthesis        = errors.New("speech synthesis failed")
	ErrSynthesisTimeout = errors.New("speech synthesis timed out")
)

// RecognitionResult is the raw output of a transcription engine.
type RecognitionResult struct {
	Text       string
	Confidence float64
	Language   string
}

// RecognitionEngine turns an audio file on disk into text.
type RecognitionEngine interface {
	Transcribe(ctx context.Context, audioPath string) (RecognitionResult, error)
}

// SynthesisEngine renders text as a WAV file at outPath.
type SynthesisEngine interface {
	Synthesize(ctx context.Context, text, outPath string) error
}
