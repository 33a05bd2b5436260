package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tweetnorm/internal/models"
)

func TestLabel_Thresholds(t *testing.T) {
	tests := []struct {
		score float64
		want  models.Sentiment
	}{
		{0.05, models.SentimentNeutral},
		{0.0501, models.SentimentPositive},
		{-0.05, models.SentimentNeutral},
		{-0.0501, models.SentimentNegative},
		{0, models.SentimentNeutral},
		{1, models.SentimentPositive},
		{-1, models.SentimentNegative},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Label(tt.score), "score %v", tt.score)
	}
}

func TestVaderScorer_Polarity(t *testing.T) {
	s := NewVaderScorer()

	assert.Equal(t, models.SentimentPositive, s.Score("I love this, it is wonderful and great!"))
	assert.Equal(t, models.SentimentNegative, s.Score("This is a terrible, horrible disaster."))
	assert.Equal(t, models.SentimentNeutral, s.Score("The meeting is on Tuesday."))
	assert.Equal(t, models.SentimentNeutral, s.Score(""))
}

func TestVaderScorer_Deterministic(t *testing.T) {
	s := NewVaderScorer()
	text := "Climate policy is a hoax, but the report is excellent"

	first := s.Compound(text)
	for range 5 {
		assert.Equal(t, first, s.Compound(text))
	}

	assert.GreaterOrEqual(t, first, -1.0)
	assert.LessOrEqual(t, first, 1.0)
}

func TestScorerFunc(t *testing.T) {
	var s Scorer = ScorerFunc(func(string) float64 { return 0.2 })
	assert.Equal(t, models.SentimentPositive, s.Score("anything"))
}
