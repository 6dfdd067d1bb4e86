package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session identifies one review of one video, from open to export.
type Session struct {
	ID         uuid.UUID
	VideoPath  string
	VideoKey   string
	StartFrame FrameID
	StartedAt  time.Time
	FinishedAt *time.Time
}

func NewSession(videoPath string, start FrameID) *Session {
	return &Session{
		ID:         uuid.New(),
		VideoPath:  videoPath,
		StartFrame: start,
		StartedAt:  time.Now().UTC(),
	}
}

func (s *Session) MarkFinished() {
	now := time.Now().UTC()
	s.FinishedAt = &now
}
