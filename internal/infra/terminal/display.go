package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/viscloud/labeler/internal/domain/port"
)

// Display renders the review state as text. The frame line is redrawn in
// place; overlays are printed on their own lines.
type Display struct {
	mu       sync.Mutex
	out      io.Writer
	overlay  port.Overlay
	lastLine int
}

func NewDisplay(out io.Writer) *Display {
	return &Display{out: out}
}

func (d *Display) ShowFrame(_ port.Frame, overlay port.Overlay) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay = overlay
	d.redraw()
}

func (d *Display) ShowStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overlay.Status = status
	d.redraw()
}

// ShowOverlay is called from the input goroutine as well as the control loop.
func (d *Display) ShowOverlay(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lastLine > 0 {
		fmt.Fprint(d.out, "\n")
		d.lastLine = 0
	}
	fmt.Fprintln(d.out, strings.TrimRight(msg, "\n"))
	d.redraw()
}

func (d *Display) redraw() {
	line := StatusLine(d.overlay)
	pad := ""
	if n := d.lastLine - len(line); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(d.out, "\r%s%s", line, pad)
	d.lastLine = len(line)
}

// StatusLine formats the single line shown for the current frame.
func StatusLine(o port.Overlay) string {
	return fmt.Sprintf("Frame %d | %.1f fps | %s", o.Frame, o.FPS, o.Status)
}
