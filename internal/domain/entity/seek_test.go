package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeekSequentialWithoutSkip(t *testing.T) {
	c := NewSeekController(0)
	c.SetTarget(5)

	for i := 1; i <= 5; i++ {
		action := c.Tick()
		assert.Equal(t, SeekReadNext, action.Op, "tick %d", i)
		assert.Equal(t, FrameID(i), action.Frame)
		assert.Equal(t, FrameID(i), c.Current())
	}
	assert.Equal(t, FrameID(5), c.Current())
}

func TestSeekHalfSkipAlternates(t *testing.T) {
	c := NewSeekController(0)
	c.SetSkipRate(15)
	c.SetTarget(100)

	var steps []FrameID
	prev := c.Current()
	for c.Current() < 100 {
		c.Tick()
		assert.LessOrEqual(t, c.Current(), FrameID(100))
		steps = append(steps, c.Current()-prev)
		prev = c.Current()
	}
	require.GreaterOrEqual(t, len(steps), 4)
	assert.Equal(t, []FrameID{1, 2, 1, 2}, steps[:4])

	// 100 frames covered in 2/3 of the ticks
	assert.InDelta(t, 67, len(steps), 1)
	assert.Equal(t, FrameID(100), c.Current())
}

func TestSeekSkipUsesJumpsForMultiFrameSteps(t *testing.T) {
	c := NewSeekController(0)
	c.SetSkipRate(30)
	c.SetTarget(10)

	action := c.Tick()
	assert.Equal(t, SeekJump, action.Op)
	assert.Equal(t, FrameID(2), action.Frame)
}

func TestSeekSingleStepWithSkipReadsWhenBuffered(t *testing.T) {
	c := NewSeekController(0)
	c.SetSkipRate(15)
	c.SetTarget(10)
	c.FrameDelivered()

	action := c.Tick()
	assert.Equal(t, SeekReadNext, action.Op)
	assert.Equal(t, FrameID(1), action.Frame)
}

func TestSeekClampsForward(t *testing.T) {
	c := NewSeekController(0)
	c.SetSkipRate(900)
	c.SetTarget(7)

	action := c.Tick()
	assert.Equal(t, SeekJump, action.Op)
	assert.Equal(t, FrameID(7), c.Current())
}

func TestSeekReverseNeverBelowTarget(t *testing.T) {
	for _, rate := range []int{0, 1, 15, 30, 299, 900} {
		c := NewSeekController(10)
		c.SetSkipRate(rate)
		c.SetTarget(8)
		for i := 0; i < 10; i++ {
			action := c.Tick()
			assert.GreaterOrEqual(t, c.Current(), FrameID(8), "rate %d", rate)
			if action.Op != SeekHold && action.Op != SeekReadNext {
				assert.Equal(t, SeekJump, action.Op)
			}
		}
		assert.Equal(t, FrameID(8), c.Current(), "rate %d", rate)
	}
}

func TestSeekReverseAlwaysJumps(t *testing.T) {
	c := NewSeekController(20)
	c.FrameDelivered()
	c.SetTarget(15)

	action := c.Tick()
	assert.Equal(t, SeekAction{Op: SeekJump, Frame: 19}, action)
}

func TestSeekHold(t *testing.T) {
	c := NewSeekController(4)

	action := c.Tick()
	assert.Equal(t, SeekAction{Op: SeekReadNext, Frame: 4}, action)

	c.FrameDelivered()
	action = c.Tick()
	assert.Equal(t, SeekAction{Op: SeekHold, Frame: 4}, action)
}

func TestSeekEndOfStream(t *testing.T) {
	c := NewSeekController(0)
	c.Play()
	for i := 0; i < 3; i++ {
		c.Tick()
		c.FrameDelivered()
	}
	c.Tick()
	c.EndOfStream()

	assert.Equal(t, FrameID(3), c.Target())
	assert.False(t, c.Playing())

	action := c.Tick()
	assert.Equal(t, SeekAction{Op: SeekJump, Frame: 3}, action)
}

func TestSeekEndOfStreamAtZero(t *testing.T) {
	c := NewSeekController(0)
	c.EndOfStream()
	assert.Equal(t, FrameID(0), c.Target())
}

func TestSeekNegativeTargetClamps(t *testing.T) {
	c := NewSeekController(3)
	c.SetTarget(-40)
	assert.Equal(t, FrameID(0), c.Target())

	c.SetSeekInterval(30)
	c.SeekBackward()
	assert.Equal(t, FrameID(0), c.Target())
}

func TestSeekSettingsClamp(t *testing.T) {
	c := NewSeekController(0)
	assert.Equal(t, 900, c.SetSkipRate(5000))
	assert.Equal(t, 0, c.SetSkipRate(-3))
	assert.Equal(t, 900, c.SetSeekInterval(901))
	assert.Equal(t, 0, c.SetSeekInterval(-1))
	assert.Equal(t, DefaultSeekInterval, NewSeekController(0).SeekInterval())
}

func TestSeekIntents(t *testing.T) {
	c := NewSeekController(100)

	c.SeekForward()
	assert.Equal(t, FrameID(130), c.Target())
	c.SeekBackward()
	assert.Equal(t, FrameID(70), c.Target())

	c.Pause()
	assert.Equal(t, FrameID(100), c.Target())
	c.Step(1)
	c.Step(1)
	assert.Equal(t, FrameID(102), c.Target())
	c.Step(-1)
	assert.Equal(t, FrameID(101), c.Target())

	c.TogglePlay()
	assert.True(t, c.Playing())
	c.Step(-1)
	assert.Equal(t, FrameID(99), c.Target())

	c.Play()
	c.TogglePlay()
	assert.Equal(t, FrameID(100), c.Target())
}

func TestSeekReportFps(t *testing.T) {
	c := NewSeekController(0)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Zero(t, c.ReportFps(0, base))
	assert.InDelta(t, 30.0, c.ReportFps(30, base.Add(time.Second)), 1e-9)
	// reverse moves count as positive
	assert.InDelta(t, 20.0, c.ReportFps(20, base.Add(1500*time.Millisecond)), 1e-9)
	assert.Zero(t, c.ReportFps(25, base.Add(1500*time.Millisecond)))
}
