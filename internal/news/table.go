// Package news holds the news-outlet table and the filter that keeps records
// pointing at known outlets.
package news

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table errors.
var (
	ErrMissingColumn    = errors.New("missing column")
	ErrUnsupportedTable = errors.New("unsupported table format")
	ErrEmptyTable       = errors.New("news table has no domains")
)

// Outlet is one row of the news-outlet table.
type Outlet struct {
	Domain string
	Label  string
}

// Table maps outlet domains to their classification label. It is read-only
// once built.
type Table struct {
	labels  map[string]string
	domains []string
}

// NewTable builds a table from outlets, keeping the first row of every domain.
// Rows with an empty domain are ignored.
func NewTable(outlets []Outlet) *Table {
	t := &Table{labels: make(map[string]string, len(outlets))}

	for _, o := range outlets {
		if o.Domain == "" {
			continue
		}

		if _, dup := t.labels[o.Domain]; dup {
			continue
		}

		t.labels[o.Domain] = o.Label
		t.domains = append(t.domains, o.Domain)
	}

	return t
}

// LoadTable reads a .csv or .xlsx table. domainColumn is required; a missing
// labelColumn leaves every label empty.
func LoadTable(path, domainColumn, labelColumn string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTable, path)
	}

	if err != nil {
		return nil, err
	}

	outlets, err := parseRows(rows, domainColumn, labelColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	t := NewTable(outlets)
	if t.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	return t, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open news table: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV reads every record of a comma-separated table.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse news table: %w", err)
	}

	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open news workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return rows, nil
}

func parseRows(rows [][]string, domainColumn, labelColumn string) ([]Outlet, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	domainIdx, labelIdx := -1, -1

	for i, name := range rows[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))

		switch name {
		case domainColumn:
			domainIdx = i
		case labelColumn:
			labelIdx = i
		}
	}

	if domainIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, domainColumn)
	}

	outlets := make([]Outlet, 0, len(rows)-1)

	for _, row := range rows[1:] {
		o := Outlet{Domain: cell(row, domainIdx)}
		if labelIdx >= 0 {
			o.Label = cell(row, labelIdx)
		}

		outlets = append(outlets, o)
	}

	return outlets, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// Len returns the number of distinct domains.
func (t *Table) Len() int {
	return len(t.domains)
}

// Contains reports whether domain is a known outlet. Matching is exact.
func (t *Table) Contains(domain string) bool {
	_, ok := t.labels[domain]

	return ok
}

// Label returns the classification of domain.
func (t *Table) Label(domain string) (string, bool) {
	label, ok := t.labels[domain]

	return label, ok
}

// Matches reports whether at least one of domains is a known outlet. A nil or
// empty list never matches.
func (t *Table) Matches(domains []string) bool {
	for _, d := range domains {
		if t.Contains(d) {
			return true
		}
	}

	return false
}

// Domains returns the known domains in sorted order.
func (t *Table) Domains() []string {
	out := append([]string(nil), t.domains...)
	sort.Strings(out)

	return out
}
