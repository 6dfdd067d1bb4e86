package port

import "github.com/viscloud/labeler/internal/domain/entity"

// Overlay is the text drawn over a frame.
type Overlay struct {
	Frame  entity.FrameID
	FPS    float64
	Status string
}

type Display interface {
	ShowFrame(frame Frame, overlay Overlay)
	ShowStatus(status string)
	// ShowOverlay shows a transient message such as a warning.
	ShowOverlay(msg string)
}
