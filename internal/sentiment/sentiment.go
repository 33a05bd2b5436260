// Package sentiment assigns coarse polarity labels to tweet text.
package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"tweetnorm/internal/models"
)

// Label thresholds on the compound score. Both bounds are exclusive: a score of
// exactly 0.05 or -0.05 is neutral.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// Scorer labels a text. Implementations must be deterministic.
type Scorer interface {
	Score(text string) models.Sentiment
}

// VaderScorer scores text with the VADER lexicon. It is built once and shared;
// the analyzer holds only read-only lexicon tables after construction.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the normalized compound score in [-1, 1].
func (v *VaderScorer) Compound(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}

	return v.analyzer.PolarityScores(text).Compound
}

// Score implements Scorer.
func (v *VaderScorer) Score(text string) models.Sentiment {
	return Label(v.Compound(text))
}

// Label maps a compound score to a sentiment label.
func Label(compound float64) models.Sentiment {
	switch {
	case compound > PositiveThreshold:
		return models.SentimentPositive
	case compound < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// ScorerFunc adapts a compound-score function into a Scorer.
type ScorerFunc func(text string) float64

// Score implements Scorer.
func (f ScorerFunc) Score(text string) models.Sentiment {
	return Label(f(text))
}
