package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// WhisperEngine runs a local whisper.cpp binary against an audio file.
type WhisperEngine struct {
	binDir    string
	modelPath string
}

// NewWhisperEngine resolves the whisper binary and model up front so that a
// missing installation surfaces at initialization rather than mid-request.
func NewWhisperEngine(binDir, modelDir, modelSize string) (*WhisperEngine, error) {
	if _, err := pickBinary(binDir, whisperBinaryNames); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(modelDir, fmt.Sprintf("ggml-%s.bin", modelSize))
	if info, err := os.Stat(modelPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("whisper model not found at %s", modelPath)
	}

	return &WhisperEngine{binDir: binDir, modelPath: modelPath}, nil
}

var whisperBinaryNames = []string{"whisper", "whisper-cli", "main", "whisper.exe", "whisper-cli.exe", "main.exe"}

func (e *WhisperEngine) Transcribe(ctx context.Context, audioPath string) (RecognitionResult, error) {
	bin, err := pickBinary(e.binDir, whisperBinaryNames)
	if err != nil {
		return RecognitionResult{}, err
	}

	outPrefix := filepath.Join(os.TempDir(), fmt.Sprintf("whisper_out_%d", time.Now().UnixNano()))
	args := []string{"-m", e.modelPath, "-f", audioPath, "-otxt", "-of", outPrefix, "-nt", "-l", "auto"}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = e.binDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return RecognitionResult{}, fmt.Errorf("whisper execution failed: %v: %s", err, stderr.String())
	}

	txtPath := outPrefix + ".txt"
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return RecognitionResult{}, fmt.Errorf("reading transcript: %w", err)
	}
	_ = os.Remove(txtPath)

	return RecognitionResult{
		Text:     strings.TrimSpace(string(data)),
		Language: detectLanguage(stderr.String()),
	}, nil
}

// detectLanguage pulls the auto-detected language out of whisper's progress
// output. Whisper prints a line like "auto-detected language: en".
func detectLanguage(progress string) string {
	for _, line := range strings.Split(progress, "\n") {
		if idx := strings.Index(line, "auto-detected language:"); idx != -1 {
			rest := strings.TrimSpace(line[idx+len("auto-detected language:"):])
			if fields := strings.Fields(rest); len(fields) > 0 {
				return strings.Trim(fields[0], "(),")
			}
		}
	}
	return ""
}

func pickBinary(dir string, candidates []string) (string, error) {
	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", errors.New("engine binary not found in " + dir)
}
