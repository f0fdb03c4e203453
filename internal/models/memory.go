// Package models provides data model definitions for the capsule service.
package models

import "time"

// Emotion is the category derived from a memory's text.
type Emotion string

const (
	EmotionJoyful     Emotion = "Joyful"
	EmotionPositive   Emotion = "Positive"
	EmotionReflective Emotion = "Reflective"
	EmotionNeutral    Emotion = "Neutral"
	EmotionSorrowful  Emotion = "Sorrowful"
)

// EmotionData pairs an emotion with its display color and theme label.
type EmotionData struct {
	Emotion Emotion `json:"emotion"`
	Color   string  `json:"color"` // #rrggbb
	Theme   string  `json:"theme"`
}

// Memory is the metadata record stored at memories/<id>/metadata.
// Records are written once and never updated.
type Memory struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	UnlockDate  string      `json:"unlock_date"`
	EmotionData EmotionData `json:"emotion_data"`
	ImageURLs   []string    `json:"image_urls"`
	CollageURL  string      `json:"collage_url,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// HasCollage reports whether a collage was stored for the memory.
func (m *Memory) HasCollage() bool {
	return m.CollageURL != ""
}
