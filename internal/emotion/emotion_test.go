package emotion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kimhsiao/timecapsule/internal/models"
)

// fixedScorer returns the same score for any text.
type fixedScorer float64

func (f fixedScorer) Compound(string) float64 { return float64(f) }

func TestClassify_thresholds(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  models.Emotion
		color string
		theme string
	}{
		{"max positive", 1.0, models.EmotionJoyful, "#fde047", "Uplifting"},
		{"just above 0.5", 0.5001, models.EmotionJoyful, "#fde047", "Uplifting"},
		{"exactly 0.5", 0.5, models.EmotionPositive, "#86efac", "Peaceful"},
		{"just above 0.05", 0.0501, models.EmotionPositive, "#86efac", "Peaceful"},
		{"exactly 0.05", 0.05, models.EmotionNeutral, "#e5e7eb", "Calm"},
		{"zero", 0, models.EmotionNeutral, "#e5e7eb", "Calm"},
		{"exactly -0.05", -0.05, models.EmotionNeutral, "#e5e7eb", "Calm"},
		{"just below -0.05", -0.0501, models.EmotionReflective, "#c084fc", "Contemplative"},
		{"exactly -0.5", -0.5, models.EmotionReflective, "#c084fc", "Contemplative"},
		{"just below -0.5", -0.5001, models.EmotionSorrowful, "#60a5fa", "Somber"},
		{"max negative", -1.0, models.EmotionSorrowful, "#60a5fa", "Somber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.score)
			assert.Equal(t, tt.want, got.Emotion)
			assert.Equal(t, tt.color, got.Color)
			assert.Equal(t, tt.theme, got.Theme)
		})
	}
}

func TestClassifier_Analyze_usesScorer(t *testing.T) {
	c := NewClassifier(fixedScorer(-0.7))

	got, score := c.Analyze("anything")

	assert.Equal(t, models.EmotionSorrowful, got.Emotion)
	assert.Equal(t, -0.7, score)
}

func TestVaderScorer_strongPositive(t *testing.T) {
	scorer := NewVaderScorer()

	score := scorer.Compound("I am so happy today!!")

	assert.Greater(t, score, 0.5)
	got, _ := NewClassifier(scorer).Analyze("I am so happy today!!")
	assert.Equal(t, models.EmotionJoyful, got.Emotion)
}

func TestVaderScorer_strongNegative(t *testing.T) {
	scorer := NewVaderScorer()

	assert.Less(t, scorer.Compound("This is a terrible, horrible, awful day. I hate it."), -0.5)
}

func TestVaderScorer_range(t *testing.T) {
	scorer := NewVaderScorer()

	for _, text := range []string{"", "ok", "the table is brown", "WOW!!! amazing :)"} {
		score := scorer.Compound(text)
		assert.GreaterOrEqual(t, score, -1.0, text)
		assert.LessOrEqual(t, score, 1.0, text)
	}
}
