// Package sink delivers normalized records to their destinations.
package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"tweetnorm/internal/models"
	"tweetnorm/pkg/utils"
)

// Sink receives normalized records one at a time.
type Sink interface {
	Write(ctx context.Context, rec *models.NormalizedRecord) error
	Close() error
}

// Multi fans every record out to all sinks in order, stopping at the first
// failure.
type Multi []Sink

// Write implements Sink.
func (m Multi) Write(ctx context.Context, rec *models.NormalizedRecord) error {
	for _, s := range m {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

// Close closes every sink and returns the joined errors.
func (m Multi) Close() error {
	var errs []error

	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// NDJSON writes one JSON object per line.
type NDJSON struct {
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewNDJSON writes to w. Close flushes but does not close w.
func NewNDJSON(w io.Writer) *NDJSON {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)

	return &NDJSON{w: bw, enc: enc}
}

// CreateFile creates path exclusively and writes records to it. An existing
// file yields utils.ErrOutputExists.
func CreateFile(path string) (*NDJSON, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", utils.ErrOutputExists, path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}

	s := NewNDJSON(f)
	s.closer = f

	return s, nil
}

// Write implements Sink.
func (s *NDJSON) Write(_ context.Context, rec *models.NormalizedRecord) error {
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}

	return nil
}

// Close flushes buffered records and closes the file, if any.
func (s *NDJSON) Close() error {
	err := s.w.Flush()

	if s.closer != nil {
		if closeErr := s.closer.Close(); err == nil {
			err = closeErr
		}
	}

	if err != nil {
		return fmt.Errorf("failed to close record file: %w", err)
	}

	return nil
}
