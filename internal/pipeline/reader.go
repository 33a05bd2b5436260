// Package pipeline streams raw tweet files through the normalizer into sinks.
package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// MaxLineBytes bounds a single NDJSON line. Full tweets with expansions stay
// well below it.
const MaxLineBytes = 16 * 1024 * 1024

// ErrMalformedLine is returned for a line that is not a JSON object.
var ErrMalformedLine = errors.New("malformed line")

// LineReader yields the non-blank lines of an NDJSON stream after skipping a
// fixed number of leading rows.
type LineReader struct {
	scanner *bufio.Scanner
	skip    int
	line    int
}

// NewLineReader wraps r. The first skipRows lines are discarded unread.
func NewLineReader(r io.Reader, skipRows int) *LineReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	return &LineReader{scanner: sc, skip: skipRows}
}

// Next returns the next non-blank line and its 1-based line number in the
// underlying stream. It returns io.EOF at the end of input. The returned slice
// is only valid until the following call.
func (lr *LineReader) Next() ([]byte, int, error) {
	for lr.scanner.Scan() {
		lr.line++

		if lr.line <= lr.skip {
			continue
		}

		line := bytes.TrimSpace(lr.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		return line, lr.line, nil
	}

	if err := lr.scanner.Err(); err != nil {
		return nil, lr.line, fmt.Errorf("failed to read line %d: %w", lr.line+1, err)
	}

	return nil, lr.line, io.EOF
}

// CheckObject returns ErrMalformedLine unless line looks like a JSON object.
func CheckObject(line []byte, lineNo int) error {
	if len(line) == 0 || line[0] != '{' {
		return fmt.Errorf("%w %d: not a JSON object", ErrMalformedLine, lineNo)
	}

	return nil
}
