package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/viscloud/labeler/internal/domain/port"
	"github.com/viscloud/labeler/internal/usecase"
)

func TestDispatcherParsesLines(t *testing.T) {
	var buf bytes.Buffer
	display := NewDisplay(&buf)
	in := strings.NewReader("s\n\nbogus\nskip 15\nq\n")

	out := make(chan usecase.Command, 8)
	NewDispatcher(in, display, zap.NewNop()).Run(context.Background(), out)

	var got []usecase.Command
	for cmd := range out {
		got = append(got, cmd)
	}
	assert.Equal(t, []usecase.Command{
		{Type: usecase.CmdEventStart},
		{Type: usecase.CmdTogglePlay},
		{Type: usecase.CmdSkipRate, Value: 15},
		{Type: usecase.CmdQuit},
	}, got)
	assert.Contains(t, buf.String(), "unknown command")
}

func TestDispatcherStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan usecase.Command)
	NewDispatcher(strings.NewReader("p\np\n"), NewDisplay(&bytes.Buffer{}), zap.NewNop()).Run(ctx, out)

	_, ok := <-out
	assert.False(t, ok)
}

func TestStatusLine(t *testing.T) {
	line := StatusLine(port.Overlay{Frame: 42, FPS: 29.97, Status: "No tags open"})
	assert.Equal(t, "Frame 42 | 30.0 fps | No tags open", line)
}

func TestDisplayRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)

	d.ShowFrame(port.Frame{}, port.Overlay{Frame: 1, Status: "Event tag start: 1."})
	d.ShowStatus("No tags open")
	d.ShowOverlay("No events.")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\rFrame 1 | 0.0 fps | Event tag start: 1."))
	assert.Contains(t, out, "\rFrame 1 | 0.0 fps | No tags open ")
	assert.Contains(t, out, "\nNo events.\n")
	assert.True(t, strings.HasSuffix(out, "\rFrame 1 | 0.0 fps | No tags open"))
}
