package entity

import (
	"math"
	"time"
)

const (
	MaxSkipRate         = 900
	MaxSeekInterval     = 900
	DefaultSeekInterval = 30

	// skip rate is expressed per this many played frames
	skipRateBase = 30.0
)

type SeekOp int

const (
	// SeekHold keeps the buffered frame.
	SeekHold SeekOp = iota
	// SeekReadNext reads the next frame sequentially from the source.
	SeekReadNext
	// SeekJump repositions the source at Frame before reading.
	SeekJump
)

func (op SeekOp) String() string {
	switch op {
	case SeekHold:
		return "hold"
	case SeekReadNext:
		return "read_next"
	case SeekJump:
		return "jump"
	default:
		return "unknown"
	}
}

// SeekAction is what the caller must do against the frame source after a
// tick. Frame is the position the controller now considers current.
type SeekAction struct {
	Op    SeekOp
	Frame FrameID
}

// SeekController turns a target frame and a skip rate into one frame move per
// tick. Fractional skip rates are realized by carrying the remainder between
// ticks.
type SeekController struct {
	current         FrameID
	target          FrameID
	skipRate        int
	skipAccumulator float64
	seekInterval    int
	buffered        bool

	lastFrame     FrameID
	lastTimestamp time.Time
}

// NewSeekController starts paused at start with nothing buffered.
func NewSeekController(start FrameID) *SeekController {
	if start < 0 {
		start = 0
	}
	return &SeekController{
		current:      start,
		target:       start,
		seekInterval: DefaultSeekInterval,
		lastFrame:    start,
	}
}

func (c *SeekController) Current() FrameID  { return c.current }
func (c *SeekController) Target() FrameID   { return c.target }
func (c *SeekController) SkipRate() int     { return c.skipRate }
func (c *SeekController) SeekInterval() int { return c.seekInterval }
func (c *SeekController) Playing() bool     { return c.target == PlayForever }

// SetTarget sets the frame to move toward. Negative frames clamp to 0.
func (c *SeekController) SetTarget(frame FrameID) {
	if frame < 0 {
		frame = 0
	}
	c.target = frame
}

// SetSkipRate stores rate clamped to [0, MaxSkipRate] and returns the stored value.
func (c *SeekController) SetSkipRate(rate int) int {
	c.skipRate = clamp(rate, 0, MaxSkipRate)
	return c.skipRate
}

// SetSeekInterval stores n clamped to [0, MaxSeekInterval] and returns the stored value.
func (c *SeekController) SetSeekInterval(n int) int {
	c.seekInterval = clamp(n, 0, MaxSeekInterval)
	return c.seekInterval
}

func (c *SeekController) Play()  { c.target = PlayForever }
func (c *SeekController) Pause() { c.target = c.current }

func (c *SeekController) TogglePlay() {
	if c.Playing() {
		c.Pause()
		return
	}
	c.Play()
}

// Step moves the target by delta frames. While playing, the step is taken
// from the current frame, which also stops playback.
func (c *SeekController) Step(delta FrameID) {
	base := c.target
	if c.Playing() {
		base = c.current
	}
	c.SetTarget(base + delta)
}

func (c *SeekController) SeekForward() {
	c.SetTarget(c.current + FrameID(clamp(c.seekInterval, 0, MaxSeekInterval)))
}

func (c *SeekController) SeekBackward() {
	c.SetTarget(c.current - FrameID(clamp(c.seekInterval, 0, MaxSeekInterval)))
}

// Tick advances the current frame one step toward the target.
//
// A SeekReadNext assumes the source is positioned just after current. With a
// zero skip rate a single forward step reads sequentially even when nothing
// is buffered, so the caller must position the source at current and consume
// the held frame (the first Tick's SeekReadNext) before playing. Otherwise
// every delivered frame is labeled one position early.
func (c *SeekController) Tick() SeekAction {
	switch {
	case c.current < c.target:
		step := c.advance()
		next := c.current + step
		if next > c.target || next < c.current {
			next = c.target
		}
		// a single step lands on the frame the source yields next
		sequential := next-c.current == 1 && (c.skipRate == 0 || c.buffered)
		c.current = next
		if sequential {
			return SeekAction{Op: SeekReadNext, Frame: next}
		}
		return SeekAction{Op: SeekJump, Frame: next}
	case c.current > c.target:
		step := c.advance()
		next := c.current - step
		if next < c.target {
			next = c.target
		}
		c.current = next
		return SeekAction{Op: SeekJump, Frame: next}
	default:
		if c.buffered {
			return SeekAction{Op: SeekHold, Frame: c.current}
		}
		return SeekAction{Op: SeekReadNext, Frame: c.current}
	}
}

func (c *SeekController) advance() FrameID {
	rate := clamp(c.skipRate, 0, MaxSkipRate)
	if rate == 0 {
		return 1
	}
	c.skipAccumulator += float64(rate) / skipRateBase
	if c.skipAccumulator >= 1 {
		step := 1 + FrameID(math.Floor(c.skipAccumulator))
		c.skipAccumulator = 0
		return step
	}
	return 1
}

// FrameDelivered records that the source produced the frame for the last
// non-hold action.
func (c *SeekController) FrameDelivered() {
	c.buffered = true
}

// EndOfStream records that the source ran out of frames. The target moves
// back to the last frame that could have been decoded.
func (c *SeekController) EndOfStream() {
	c.buffered = false
	c.SetTarget(c.current - 1)
}

// ReportFps measures frames moved per second of wall clock since the previous
// call. The first call returns 0.
func (c *SeekController) ReportFps(frame FrameID, now time.Time) float64 {
	frames := frame - c.lastFrame
	if frames < 0 {
		frames = -frames
	}
	prev := c.lastTimestamp
	c.lastFrame, c.lastTimestamp = frame, now
	if prev.IsZero() {
		return 0
	}
	elapsed := now.Sub(prev).Microseconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(frames) / float64(elapsed) * 1e6
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
