package formatter

import (
	"cmp"
	"slices"
	"strconv"

	"tweetnorm/internal/models"
)

// Labeler maps a registrable domain to its news-outlet label.
type Labeler interface {
	Label(domain string) (string, bool)
}

// DomainTally counts the records citing one domain, per sentiment.
type DomainTally struct {
	Domain   string
	Label    string
	Records  int
	Positive int
	Neutral  int
	Negative int
}

// Report tallies records by cited domain. With a labeler, only domains the
// labeler knows are counted.
type Report struct {
	labeler Labeler
	tallies map[string]*DomainTally
	total   int
}

// NewReport creates an empty report. labeler may be nil.
func NewReport(labeler Labeler) *Report {
	return &Report{labeler: labeler, tallies: make(map[string]*DomainTally)}
}

// Add counts one record. A domain cited several times by the same record is
// counted once.
func (r *Report) Add(domains []string, sentiment models.Sentiment) {
	r.total++

	seen := make(map[string]bool, len(domains))

	for _, d := range domains {
		if d == "" || seen[d] {
			continue
		}

		seen[d] = true

		label := ""

		if r.labeler != nil {
			l, ok := r.labeler.Label(d)
			if !ok {
				continue
			}

			label = l
		}

		tally, ok := r.tallies[d]
		if !ok {
			tally = &DomainTally{Domain: d, Label: label}
			r.tallies[d] = tally
		}

		tally.Records++

		switch sentiment {
		case models.SentimentPositive:
			tally.Positive++
		case models.SentimentNegative:
			tally.Negative++
		case models.SentimentNeutral:
			tally.Neutral++
		}
	}
}

// Total is the number of records added.
func (r *Report) Total() int {
	return r.total
}

// Tallies returns the tallies by record count, descending, then domain.
func (r *Report) Tallies() []DomainTally {
	out := make([]DomainTally, 0, len(r.tallies))
	for _, t := range r.tallies {
		out = append(out, *t)
	}

	slices.SortFunc(out, func(a, b DomainTally) int {
		if c := cmp.Compare(b.Records, a.Records); c != 0 {
			return c
		}

		return cmp.Compare(a.Domain, b.Domain)
	})

	return out
}

// Table renders the tallies as a markdown table.
func (r *Report) Table() *Table {
	t := NewTable("domain", "label", "records", "positive", "neutral", "negative")
	for i := 2; i < 6; i++ {
		t.SetAlign(i, AlignRight)
	}

	for _, tally := range r.Tallies() {
		t.AddRow(
			tally.Domain,
			tally.Label,
			strconv.Itoa(tally.Records),
			strconv.Itoa(tally.Positive),
			strconv.Itoa(tally.Neutral),
			strconv.Itoa(tally.Negative),
		)
	}

	return t
}
