package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
	"github.com/viscloud/labeler/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type ReviewConfig struct {
	SkipRate      int
	SeekInterval  int
	TickInterval  time.Duration
	ExportTimeout time.Duration
}

// ReviewSession drives one labeling pass over a video. All state is owned by
// the goroutine that calls Run.
type ReviewSession struct {
	session *entity.Session
	seek    *entity.SeekController
	ledger  *entity.IntervalLedger
	source  port.FrameSource
	display port.Display
	sinks   []port.ExportSink
	logger  *zap.Logger
	now     func() time.Time

	tickInterval  time.Duration
	exportTimeout time.Duration

	saved    entity.FrameID
	hasSaved bool
	exported bool
}

func NewReviewSession(
	session *entity.Session,
	source port.FrameSource,
	display port.Display,
	sinks []port.ExportSink,
	logger *zap.Logger,
	cfg ReviewConfig,
) *ReviewSession {
	seek := entity.NewSeekController(session.StartFrame)
	seek.SetSkipRate(cfg.SkipRate)
	seek.SetSeekInterval(cfg.SeekInterval)

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Millisecond
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = 10 * time.Second
	}

	return &ReviewSession{
		session:       session,
		seek:          seek,
		ledger:        entity.NewIntervalLedger(),
		source:        source,
		display:       display,
		sinks:         sinks,
		logger:        logger.With(zap.String("session_id", session.ID.String())),
		now:           time.Now,
		tickInterval:  cfg.TickInterval,
		exportTimeout: cfg.ExportTimeout,
	}
}

func (rs *ReviewSession) Seek() *entity.SeekController   { return rs.seek }
func (rs *ReviewSession) Ledger() *entity.IntervalLedger { return rs.ledger }

// Step runs one tick of the seek controller against the frame source and
// renders the result.
func (rs *ReviewSession) Step(ctx context.Context) (entity.SeekAction, error) {
	action := rs.seek.Tick()
	metrics.TicksTotal.WithLabelValues(action.Op.String()).Inc()

	switch action.Op {
	case entity.SeekHold:
		return action, nil
	case entity.SeekJump:
		if err := rs.source.SeekTo(ctx, action.Frame); err != nil {
			return action, fmt.Errorf("seek to frame %d: %w", action.Frame, err)
		}
	}

	frame, err := rs.source.ReadNext(ctx)
	if errors.Is(err, port.ErrEndOfStream) {
		metrics.EndOfStreamTotal.Inc()
		rs.seek.EndOfStream()
		rs.logger.Debug("end of stream", zap.Int64("frame", int64(action.Frame)))
		return action, nil
	}
	if err != nil {
		return action, fmt.Errorf("read frame %d: %w", action.Frame, err)
	}

	rs.seek.FrameDelivered()
	metrics.FramesDecodedTotal.Inc()

	fps := rs.seek.ReportFps(action.Frame, rs.now())
	metrics.PlaybackFPS.Set(fps)
	rs.display.ShowFrame(frame, port.Overlay{
		Frame:  action.Frame,
		FPS:    fps,
		Status: rs.ledger.Status(action.Frame),
	})
	return action, nil
}

// Dispatch applies one command and reports whether the session should end.
func (rs *ReviewSession) Dispatch(cmd Command) bool {
	current := rs.seek.Current()

	switch cmd.Type {
	case CmdQuit:
		return true
	case CmdPlay:
		rs.seek.Play()
	case CmdPause:
		rs.seek.Pause()
	case CmdTogglePlay:
		rs.seek.TogglePlay()
	case CmdStepForward:
		rs.seek.Step(1)
	case CmdStepBackward:
		rs.seek.Step(-1)
	case CmdSeekForward:
		rs.seek.SeekForward()
	case CmdSeekBackward:
		rs.seek.SeekBackward()
	case CmdEventStart:
		rs.startInterval(entity.KindEvent, current)
	case CmdEventEnd:
		rs.endInterval(entity.KindEvent, current)
	case CmdUncertainStart:
		rs.startInterval(entity.KindUncertain, current)
	case CmdUncertainEnd:
		rs.endInterval(entity.KindUncertain, current)
	case CmdDiscardEvent:
		rs.discardOpen(entity.KindEvent)
	case CmdDiscardUncertain:
		rs.discardOpen(entity.KindUncertain)
	case CmdPrevEvent:
		rs.gotoNearest(entity.KindEvent, current, false)
	case CmdNextEvent:
		rs.gotoNearest(entity.KindEvent, current, true)
	case CmdPrevUncertain:
		rs.gotoNearest(entity.KindUncertain, current, false)
	case CmdNextUncertain:
		rs.gotoNearest(entity.KindUncertain, current, true)
	case CmdSavePosition:
		rs.saved, rs.hasSaved = current, true
		rs.display.ShowOverlay(fmt.Sprintf("Saved position: %d", current))
	case CmdReturnPosition:
		if !rs.hasSaved {
			rs.warn("no_saved_position", "No saved position.")
			break
		}
		rs.seek.SetTarget(rs.saved)
	case CmdHelp:
		rs.display.ShowOverlay(Controls())
	case CmdSkipRate:
		rate := rs.seek.SetSkipRate(cmd.Value)
		rs.display.ShowOverlay(fmt.Sprintf("Skip rate: %d", rate))
	case CmdSeekInterval:
		n := rs.seek.SetSeekInterval(cmd.Value)
		rs.display.ShowOverlay(fmt.Sprintf("Seek interval: %d", n))
	default:
		rs.logger.Warn("unhandled command", zap.Int("type", int(cmd.Type)))
	}

	rs.display.ShowStatus(rs.ledger.Status(current))
	return false
}

// Run ticks the session until quit, the end of input or cancellation, then
// exports. While paused with a frame on screen it waits for input only.
func (rs *ReviewSession) Run(ctx context.Context, commands <-chan Command) error {
	if err := rs.source.SeekTo(ctx, rs.seek.Current()); err != nil {
		return fmt.Errorf("position source at frame %d: %w", rs.seek.Current(), err)
	}
	rs.logger.Info("review started",
		zap.String("video", rs.session.VideoPath),
		zap.Int64("start_frame", int64(rs.session.StartFrame)),
	)

	ticker := time.NewTicker(rs.tickInterval)
	defer ticker.Stop()

	var runErr error
loop:
	for {
		action, err := rs.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				rs.logger.Info("review interrupted")
				break
			}
			runErr = err
			break
		}

		var tick <-chan time.Time
		if action.Op != entity.SeekHold {
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			rs.logger.Info("review interrupted")
			break loop
		case cmd, ok := <-commands:
			if !ok {
				rs.logger.Info("input closed")
				break loop
			}
			if rs.Dispatch(cmd) {
				rs.logger.Info("quit requested")
				break loop
			}
		case <-tick:
		}
	}

	if err := rs.Export(ctx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

// Export writes the closed intervals to every sink once. A cancelled parent
// context does not abort the export.
func (rs *ReviewSession) Export(ctx context.Context) error {
	if rs.exported {
		return nil
	}
	rs.exported = true

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rs.exportTimeout)
	defer cancel()

	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ReviewSession.Export")
	defer span.End()

	rs.session.MarkFinished()
	records := rs.ledger.Export()
	span.SetAttributes(
		attribute.String("session.id", rs.session.ID.String()),
		attribute.Int("export.records", len(records)),
	)

	var errs []error
	for _, sink := range rs.sinks {
		sinkCtx, sinkSpan := tracer.Start(ctx, "export."+sink.Name())
		start := time.Now()
		err := sink.WriteExport(sinkCtx, rs.session, records)
		metrics.ExportDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.ExportFailuresTotal.WithLabelValues(sink.Name()).Inc()
			sinkSpan.RecordError(err)
			sinkSpan.SetStatus(codes.Error, err.Error())
			rs.logger.Error("export failed", zap.String("sink", sink.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("export to %s: %w", sink.Name(), err))
		}
		sinkSpan.End()
	}

	rs.logger.Info("review exported",
		zap.Int("records", len(records)),
		zap.Int("sinks", len(rs.sinks)),
		zap.Int("failed", len(errs)),
	)
	return errors.Join(errs...)
}

func (rs *ReviewSession) startInterval(kind entity.Kind, frame entity.FrameID) {
	if err := rs.ledger.Start(kind, frame); err != nil {
		rs.warn("already_open", fmt.Sprintf("Please close the existing %s interval before starting a new one", lower(kind)))
		return
	}
	rs.logger.Debug("interval started", zap.Stringer("kind", kind), zap.Int64("frame", int64(frame)))
}

func (rs *ReviewSession) endInterval(kind entity.Kind, frame entity.FrameID) {
	iv, err := rs.ledger.End(kind, frame)
	if err != nil {
		rs.warn("no_open_start", fmt.Sprintf("Cannot end %s interval: start not specified", lower(kind)))
		return
	}
	metrics.IntervalsClosedTotal.WithLabelValues(lower(kind)).Inc()
	rs.logger.Debug("interval closed",
		zap.Stringer("kind", kind),
		zap.Int64("start", int64(iv.Start)),
		zap.Int64("end", int64(iv.End)),
	)
}

func (rs *ReviewSession) discardOpen(kind entity.Kind) {
	frame, err := rs.ledger.DiscardOpen(kind)
	if err != nil {
		rs.warn("no_open_start", fmt.Sprintf("No open %s interval to discard", lower(kind)))
		return
	}
	rs.display.ShowOverlay(fmt.Sprintf("Discarded %s start at frame %d", lower(kind), frame))
}

func (rs *ReviewSession) gotoNearest(kind entity.Kind, frame entity.FrameID, after bool) {
	var (
		target entity.FrameID
		err    error
	)
	if after {
		target, err = rs.ledger.NearestAfter(kind, frame)
	} else {
		target, err = rs.ledger.NearestBefore(kind, frame)
	}

	switch {
	case errors.Is(err, entity.ErrNoIntervals):
		rs.warn("no_intervals", fmt.Sprintf("No %s.", plural(kind)))
	case errors.Is(err, entity.ErrNotFound):
		edge := "first"
		if after {
			edge = "last"
		}
		rs.warn("not_found", fmt.Sprintf("You are at the %s %s.", edge, singular(kind)))
	case err != nil:
		rs.logger.Error("nearest interval lookup failed", zap.Error(err))
	default:
		rs.seek.SetTarget(target)
	}
}

func (rs *ReviewSession) warn(reason, msg string) {
	metrics.LedgerWarningsTotal.WithLabelValues(reason).Inc()
	rs.display.ShowOverlay(msg)
}

func lower(kind entity.Kind) string {
	return strings.ToLower(kind.String())
}

func singular(kind entity.Kind) string {
	if kind == entity.KindUncertain {
		return "uncertainty"
	}
	return lower(kind)
}

func plural(kind entity.Kind) string {
	if kind == entity.KindUncertain {
		return "uncertainties"
	}
	return lower(kind) + "s"
}
