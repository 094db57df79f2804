// Package artifact persists the captured test-runner output of a finished run
// as a zstd-compressed transcript. Artifacts are write-only outputs; no run
// ever reads an artifact from a previous one.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/programme-lv/harness/api"
)

// WriteTranscript stores the outcome's stdout and stderr under dir, named by
// the run uuid, and returns the artifact's path.
func WriteTranscript(dir string, runUuid string, outcome api.TestOutcome) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.transcript.zst", runUuid))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}

	header := fmt.Sprintf("run %s exit code %d\n--- stdout ---\n", runUuid, outcome.ExitCode)
	if _, err := enc.Write([]byte(header)); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if _, err := enc.Write(outcome.Stdout); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if _, err := enc.Write([]byte("\n--- stderr ---\n")); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if _, err := enc.Write(outcome.Stderr); err != nil {
		enc.Close()
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finish transcript: %w", err)
	}
	return path, nil
}

// ReadTranscript decompresses an artifact written by WriteTranscript. It
// exists for tooling and tests; the harness itself never reads artifacts.
func ReadTranscript(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec.IOReadCloser())
	if err != nil {
		return nil, fmt.Errorf("failed to decompress artifact: %w", err)
	}
	return data, nil
}
