// Package emotion maps free text to an emotion, display color and theme
// using a compound sentiment score.
package emotion

import (
	"github.com/jonreiter/govader"

	"github.com/kimhsiao/timecapsule/internal/models"
)

// Scorer returns a compound polarity score in [-1, 1].
type Scorer interface {
	Compound(text string) float64
}

// VaderScorer scores text with the VADER sentiment lexicon.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the lexicon. Build it once at startup and share it;
// the analyzer is read-only after construction.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound implements Scorer.
func (s *VaderScorer) Compound(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}

// Theme palette, keyed by emotion.
var palette = map[models.Emotion]models.EmotionData{
	models.EmotionJoyful:     {Emotion: models.EmotionJoyful, Color: "#fde047", Theme: "Uplifting"},
	models.EmotionPositive:   {Emotion: models.EmotionPositive, Color: "#86efac", Theme: "Peaceful"},
	models.EmotionSorrowful:  {Emotion: models.EmotionSorrowful, Color: "#60a5fa", Theme: "Somber"},
	models.EmotionReflective: {Emotion: models.EmotionReflective, Color: "#c084fc", Theme: "Contemplative"},
	models.EmotionNeutral:    {Emotion: models.EmotionNeutral, Color: "#e5e7eb", Theme: "Calm"},
}

// Classify applies the fixed thresholds; the first match wins.
func Classify(score float64) models.EmotionData {
	switch {
	case score > 0.5:
		return palette[models.EmotionJoyful]
	case score > 0.05:
		return palette[models.EmotionPositive]
	case score < -0.5:
		return palette[models.EmotionSorrowful]
	case score < -0.05:
		return palette[models.EmotionReflective]
	default:
		return palette[models.EmotionNeutral]
	}
}

// Classifier turns text into EmotionData.
type Classifier struct {
	scorer Scorer
}

// NewClassifier creates a Classifier backed by scorer.
func NewClassifier(scorer Scorer) *Classifier {
	return &Classifier{scorer: scorer}
}

// Analyze scores text and classifies the result, returning the compound
// score alongside. It never fails.
func (c *Classifier) Analyze(text string) (models.EmotionData, float64) {
	score := c.scorer.Compound(text)
	return Classify(score), score
}
