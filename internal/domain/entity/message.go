package entity

import (
	"time"

	"github.com/google/uuid"
)

// LabelsExportedMessage is published once a session's intervals are exported.
type LabelsExportedMessage struct {
	SessionID      uuid.UUID          `json:"session_id"`
	VideoPath      string             `json:"video_path"`
	VideoKey       string             `json:"video_key,omitempty"`
	EventCount     int                `json:"event_count"`
	UncertainCount int                `json:"uncertain_count"`
	Intervals      []ExportedInterval `json:"intervals"`
	FinishedAt     time.Time          `json:"finished_at"`
}

type ExportedInterval struct {
	Kind  string  `json:"kind"`
	Index int     `json:"index"`
	Start FrameID `json:"start"`
	End   FrameID `json:"end"`
}

func NewLabelsExportedMessage(s *Session, records []Record) LabelsExportedMessage {
	msg := LabelsExportedMessage{
		SessionID:  s.ID,
		VideoPath:  s.VideoPath,
		VideoKey:   s.VideoKey,
		Intervals:  make([]ExportedInterval, 0, len(records)),
		FinishedAt: time.Now().UTC(),
	}
	if s.FinishedAt != nil {
		msg.FinishedAt = *s.FinishedAt
	}
	for _, r := range records {
		switch r.Kind {
		case KindEvent:
			msg.EventCount++
		case KindUncertain:
			msg.UncertainCount++
		}
		msg.Intervals = append(msg.Intervals, ExportedInterval{
			Kind:  r.Kind.String(),
			Index: r.Index,
			Start: r.Start,
			End:   r.End,
		})
	}
	return msg
}
