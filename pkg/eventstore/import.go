package eventstore

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lepinkainen/nsite-directory/pkg/nostr"
)

// ImportResult summarizes an import run
type ImportResult struct {
	Read    int `json:"read"`
	Stored  int `json:"stored"`
	Skipped int `json:"skipped"`
}

// ImportFile loads events from a JSON array or newline-delimited JSON file
func (s *Store) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	result, err := s.Import(ctx, file)
	if err != nil {
		return result, fmt.Errorf("failed to import %s: %w", path, err)
	}
	return result, nil
}

// Import loads events from r. The input is either a JSON array of events or a
// stream of events, one per line. Invalid events are skipped with a warning.
func (s *Store) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var result ImportResult

	reader := bufio.NewReader(r)
	first, err := firstByte(reader)
	if errors.Is(err, io.EOF) {
		return result, nil
	}
	if err != nil {
		return result, err
	}

	decoder := json.NewDecoder(reader)
	if first == '[' {
		if _, err := decoder.Token(); err != nil {
			return result, fmt.Errorf("failed to read array start: %w", err)
		}
	}

	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		var event nostr.Event
		if err := decoder.Decode(&event); err != nil {
			return result, fmt.Errorf("failed to decode event %d: %w", result.Read+1, err)
		}
		result.Read++

		stored, err := s.Add(ctx, &event)
		switch {
		case errors.Is(err, ErrInvalidEvent):
			slog.Warn("Skipping invalid event", "index", result.Read, "error", err)
			result.Skipped++
		case err != nil:
			return result, err
		case stored:
			result.Stored++
		default:
			result.Skipped++
		}
	}

	slog.Info("Imported events", "read", result.Read, "stored", result.Stored, "skipped", result.Skipped)
	return result, nil
}

// firstByte returns the first non-whitespace byte without consuming it
func firstByte(reader *bufio.Reader) (byte, error) {
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := reader.UnreadByte(); err != nil {
			return 0, err
		}
		return b, nil
	}
}
