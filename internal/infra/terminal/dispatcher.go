package terminal

import (
	"bufio"
	"context"
	"io"

	"github.com/viscloud/labeler/internal/domain/port"
	"github.com/viscloud/labeler/internal/usecase"
	"go.uber.org/zap"
)

// Dispatcher turns input lines into review commands.
type Dispatcher struct {
	in      io.Reader
	display port.Display
	logger  *zap.Logger
}

func NewDispatcher(in io.Reader, display port.Display, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{in: in, display: display, logger: logger}
}

// Run reads until EOF or cancellation and closes out when done. Lines that do
// not parse are reported on the display and skipped.
func (d *Dispatcher) Run(ctx context.Context, out chan<- usecase.Command) {
	defer close(out)

	scanner := bufio.NewScanner(d.in)
	for scanner.Scan() {
		cmd, err := usecase.ParseCommand(scanner.Text())
		if err != nil {
			d.display.ShowOverlay(err.Error())
			continue
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		d.logger.Warn("input read failed", zap.Error(err))
	}
}
