// Package metadata provides the run metadata header written at the top of
// every collected tweet file.
package metadata

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// HeaderLines is the number of lines the header occupies: the JSON object and
// one blank separator line. Readers skip this many rows before the tweets.
const HeaderLines = 2

// Metadata errors.
var (
	ErrNoHeader     = errors.New("no metadata header found")
	ErrHashMismatch = errors.New("query hash mismatch")
)

// Header describes the query that produced a collected file.
type Header struct {
	QueryFile  string    `json:"query_file"`
	Query      string    `json:"query"`
	StartTime  string    `json:"start_time"`
	EndDate    string    `json:"end_date"`
	MaxPerPage int       `json:"max_per_page"`
	MaxPages   int       `json:"max_pages"`
	QueryHash  string    `json:"query_hash"`
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewHeader builds a header for one collection window. runID groups the files
// of one run; an empty runID generates a new one.
func NewHeader(queryFile, query string, start, end time.Time, maxPerPage, maxPages int, runID string) *Header {
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Header{
		QueryFile:  queryFile,
		Query:      query,
		StartTime:  start.UTC().Format(time.RFC3339),
		EndDate:    end.UTC().Format(time.RFC3339),
		MaxPerPage: maxPerPage,
		MaxPages:   maxPages,
		QueryHash:  CalculateHash(query),
		RunID:      runID,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// CalculateHash computes the SHA-256 hash of the whitespace-normalized query.
func CalculateHash(query string) string {
	hash := sha256.Sum256([]byte(strings.Join(strings.Fields(query), " ")))

	return hex.EncodeToString(hash[:])
}

// Write emits the header line followed by a blank line.
func (h *Header) Write(w io.Writer) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	data = append(data, '\n', '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	return nil
}

// Read parses the header from the first line of r.
func Read(r io.Reader) (*Header, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return nil, ErrNoHeader
	}

	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoHeader, err)
	}

	if h.Query == "" && h.QueryHash == "" {
		return nil, ErrNoHeader
	}

	return &h, nil
}

// Verify checks that the stored hash matches the stored query.
func (h *Header) Verify() error {
	calculated := CalculateHash(h.Query)
	if calculated != h.QueryHash {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, h.QueryHash, calculated)
	}

	return nil
}
