package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/tsync/internal/transcript"
)

// Session is a saved editing session: the working copy of one video's
// timeline plus where playback was left.
type Session struct {
	ID           string              `json:"id"`
	VideoID      string              `json:"video_id"`
	URL          string              `json:"url"`
	TimeFormat   string              `json:"time_format"`
	Timeline     transcript.Timeline `json:"timeline"`
	LastPosition float64             `json:"last_position"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// New starts a session for videoID with a fresh id.
func New(videoID, url, timeFormat string, tl transcript.Timeline) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         uuid.NewString(),
		VideoID:    videoID,
		URL:        url,
		TimeFormat: timeFormat,
		Timeline:   tl.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch records a new timeline and position.
func (s *Session) Touch(tl transcript.Timeline, position float64) {
	s.Timeline = tl.Clone()
	s.LastPosition = position
	s.UpdatedAt = time.Now().UTC()
}
