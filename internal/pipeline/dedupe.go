package pipeline

import "github.com/bits-and-blooms/bloom/v3"

// DedupeFalsePositiveRate is the target false-positive rate of the filter.
const DedupeFalsePositiveRate = 0.0001

// Deduplicator remembers tweet ids in a Bloom filter. Overlapping collection
// windows repeat tweets; a false positive drops a unique tweet with
// probability DedupeFalsePositiveRate.
type Deduplicator struct {
	filter *bloom.BloomFilter
}

// NewDeduplicator sizes the filter for capacity ids.
func NewDeduplicator(capacity uint) *Deduplicator {
	if capacity == 0 {
		capacity = 1
	}

	return &Deduplicator{filter: bloom.NewWithEstimates(capacity, DedupeFalsePositiveRate)}
}

// Seen reports whether id was (probably) added before.
func (d *Deduplicator) Seen(id string) bool {
	return d.filter.TestString(id)
}

// Add records id.
func (d *Deduplicator) Add(id string) {
	d.filter.AddString(id)
}
