package news

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"tweetnorm/internal/logger"
	"tweetnorm/internal/models"
	"tweetnorm/internal/pipeline"
)

// ErrUnknownAttribute is returned for a keep attribute that normalized records
// do not carry.
var ErrUnknownAttribute = errors.New("unknown attribute")

// Record is a normalized record decoded attribute by attribute, so reduction
// does not depend on every field being present.
type Record map[string]json.RawMessage

// Domains decodes the domain attribute. Absent, null or undecodable values
// yield nil.
func (r Record) Domains() []string {
	raw, ok := r["domain"]
	if !ok {
		return nil
	}

	var domains []string
	if err := json.Unmarshal(raw, &domains); err != nil {
		return nil
	}

	return domains
}

// Sentiment decodes the sentiment attribute; empty when absent.
func (r Record) Sentiment() models.Sentiment {
	var s models.Sentiment

	if raw, ok := r["sentiment"]; ok {
		_ = json.Unmarshal(raw, &s)
	}

	return s
}

// Field is one attribute of a reduced record.
type Field struct {
	Name  string
	Value json.RawMessage
}

// ReducedRecord keeps its attributes in the order they were requested.
type ReducedRecord []Field

// MarshalJSON implements json.Marshaler.
func (r ReducedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')

		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Get returns the value of the named attribute.
func (r ReducedRecord) Get(name string) (json.RawMessage, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}

	return nil, false
}

// Stats counts the records seen and kept by a reduction.
type Stats struct {
	Read int
	Kept int
}

// Filter keeps records whose domains hit the news table and projects them to
// a fixed attribute list.
type Filter struct {
	table      *Table
	attributes []string
	logger     *logger.Logger
}

// NewFilter validates attributes against the normalized record attributes.
func NewFilter(table *Table, attributes []string, log *logger.Logger) (*Filter, error) {
	if err := ValidateAttributes(attributes); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Filter{
		table:      table,
		attributes: slices.Clone(attributes),
		logger:     log,
	}, nil
}

// ValidateAttributes returns ErrUnknownAttribute for the first name that is
// not a normalized record attribute.
func ValidateAttributes(attributes []string) error {
	for _, a := range attributes {
		if !slices.Contains(models.RecordAttributes, a) {
			return fmt.Errorf("%w: %q", ErrUnknownAttribute, a)
		}
	}

	return nil
}

// Matches reports whether any of domains is in the news table.
func (f *Filter) Matches(domains []string) bool {
	return f.table.Matches(domains)
}

// Project reduces rec to the keep attributes, followed by the augmented
// attributes whenever rec carries them. Missing keep attributes become null.
func (f *Filter) Project(rec Record) ReducedRecord {
	out := make(ReducedRecord, 0, len(f.attributes)+2)

	for _, a := range f.attributes {
		out = append(out, Field{Name: a, Value: rec[a]})
	}

	for _, a := range []string{models.AttrRetweetFrom, models.AttrEffectiveCategory} {
		if slices.Contains(f.attributes, a) {
			continue
		}

		if v, ok := rec[a]; ok {
			out = append(out, Field{Name: a, Value: v})
		}
	}

	return out
}

// Apply returns the projection of rec and true when rec matches.
func (f *Filter) Apply(rec Record) (ReducedRecord, bool) {
	if !f.Matches(rec.Domains()) {
		return nil, false
	}

	return f.Project(rec), true
}

// Filter keeps the matching records in order.
func (f *Filter) Filter(records []Record) []ReducedRecord {
	var out []ReducedRecord

	for _, rec := range records {
		if reduced, ok := f.Apply(rec); ok {
			out = append(out, reduced)
		}
	}

	return out
}

// Reduce streams NDJSON records from r to w, one reduced record per line.
func (f *Filter) Reduce(r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	err := EachRecord(r, func(rec Record) error {
		stats.Read++

		reduced, ok := f.Apply(rec)
		if !ok {
			return nil
		}

		if err := enc.Encode(reduced); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}

		stats.Kept++

		return nil
	})

	return stats, err
}

// EachRecord decodes the NDJSON records of r and calls fn on each, stopping at
// the first error.
func EachRecord(r io.Reader, fn func(Record) error) error {
	lines := pipeline.NewLineReader(r, 0)

	for {
		line, lineNo, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if err := pipeline.CheckObject(line, lineNo); err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("%w %d: %w", pipeline.ErrMalformedLine, lineNo, err)
		}

		if err := fn(rec); err != nil {
			return err
		}
	}
}
