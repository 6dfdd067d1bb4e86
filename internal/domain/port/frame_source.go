package port

import (
	"context"
	"errors"

	"github.com/viscloud/labeler/internal/domain/entity"
)

// ErrEndOfStream is returned by ReadNext once the source has no more frames.
var ErrEndOfStream = errors.New("end of stream")

// Frame is one decoded picture in packed RGB24.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

func (f Frame) Empty() bool {
	return len(f.Data) == 0
}

type FrameSource interface {
	// SeekTo positions the source so the next ReadNext yields frame.
	SeekTo(ctx context.Context, frame entity.FrameID) error
	ReadNext(ctx context.Context) (Frame, error)
	Close() error
}
