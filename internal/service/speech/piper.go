package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// PiperEngine runs a local piper binary to render text into a WAV file.
type PiperEngine struct {
	binDir    string
	modelPath string
}

func NewPiperEngine(binDir, modelDir, voice string) (*PiperEngine, error) {
	if _, err := pickBinary(binDir, piperBinaryNames); err != nil {
		return nil, err
	}

	modelPath := filepath.Join(modelDir, voice, voice+".onnx")
	if info, err := os.Stat(modelPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("piper voice model not found at %s", modelPath)
	}

	return &PiperEngine{binDir: binDir, modelPath: modelPath}, nil
}

var piperBinaryNames = []string{"piper", "piper.exe"}

func (e *PiperEngine) Synthesize(ctx context.Context, text, outPath string) error {
	bin, err := pickBinary(e.binDir, piperBinaryNames)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, bin, "--model", e.modelPath, "--output-file", outPath)
	cmd.Dir = e.binDir
	cmd.Stdin = bytes.NewBufferString(text)
	cmd.Env = append(os.Environ(), "ESPEAK_DATA_PATH="+filepath.Join(e.binDir, "espeak-ng-data"))

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("piper failed: %v: %s", err, stderr.String())
	}
	return nil
}
