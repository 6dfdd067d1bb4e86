package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"strconv"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
	"go.uber.org/zap"
)

// Forward seeks up to this many frames are served by discarding frames from
// the running decoder instead of restarting it.
const maxForwardDiscard = 60

type SourceConfig struct {
	FFmpegPath    string
	FFprobePath   string
	DisplayHeight int
}

// Source decodes a video through an ffmpeg child process that streams rgb24
// rawvideo on stdout. Sequential reads consume the pipe; a seek restarts the
// process at the requested frame.
type Source struct {
	cfg       SourceConfig
	path      string
	info      *VideoInfo
	width     int
	height    int
	frameSize int
	logger    *zap.Logger

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader

	// frame the next ReadNext yields
	next entity.FrameID
	eos  bool
}

var _ port.FrameSource = (*Source)(nil)

func Open(ctx context.Context, cfg SourceConfig, videoPath string, logger *zap.Logger) (*Source, error) {
	info, err := Probe(ctx, cfg.FFprobePath, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", videoPath, err)
	}
	w, h := scaledSize(info.Width, info.Height, cfg.DisplayHeight)

	logger.Info("video opened",
		zap.String("path", videoPath),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float64("fps", info.FPS),
		zap.Int64("frames", info.FrameCount),
	)

	return &Source{
		cfg:       cfg,
		path:      videoPath,
		info:      info,
		width:     w,
		height:    h,
		frameSize: w * h * 3,
		logger:    logger,
	}, nil
}

func (s *Source) Info() VideoInfo { return *s.info }

func (s *Source) SeekTo(_ context.Context, frame entity.FrameID) error {
	if frame < 0 {
		frame = 0
	}
	if frame == s.next && (s.cmd != nil || !s.eos) {
		return nil
	}
	if s.cmd != nil && frame > s.next && frame-s.next <= maxForwardDiscard {
		return s.discard(frame)
	}
	s.stop()
	s.next = frame
	s.eos = false
	return nil
}

func (s *Source) ReadNext(ctx context.Context) (port.Frame, error) {
	if s.eos {
		return port.Frame{}, port.ErrEndOfStream
	}
	if s.cmd == nil {
		if err := s.start(ctx); err != nil {
			return port.Frame{}, err
		}
	}

	buf := make([]byte, s.frameSize)
	if _, err := io.ReadFull(s.reader, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.stop()
			s.eos = true
			return port.Frame{}, port.ErrEndOfStream
		}
		s.stop()
		return port.Frame{}, fmt.Errorf("read frame %d: %w", s.next, err)
	}
	s.next++
	return port.Frame{Data: buf, Width: s.width, Height: s.height}, nil
}

func (s *Source) discard(frame entity.FrameID) error {
	n := int64(frame-s.next) * int64(s.frameSize)
	if _, err := io.CopyN(io.Discard, s.reader, n); err != nil {
		s.stop()
		s.next = frame
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.eos = true
			return nil
		}
		return fmt.Errorf("skip to frame %d: %w", frame, err)
	}
	s.next = frame
	return nil
}

func (s *Source) Close() error {
	s.stop()
	return nil
}

func (s *Source) start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, s.cfg.FFmpegPath, decoderArgs(s.path, s.next, s.info.FPS, s.width, s.height)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	s.logger.Debug("decoder started", zap.Int64("frame", int64(s.next)))
	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, s.frameSize)
	return nil
}

func (s *Source) stop() {
	if s.cmd == nil {
		return
	}
	_ = s.stdout.Close()
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.cmd.Wait()
	s.cmd, s.stdout, s.reader = nil, nil, nil
}

func decoderArgs(videoPath string, frame entity.FrameID, fps float64, width, height int) []string {
	args := []string{"-v", "error", "-nostdin"}
	if frame > 0 && fps > 0 {
		args = append(args, "-ss", strconv.FormatFloat(float64(frame)/fps, 'f', 6, 64))
	}
	return append(args,
		"-i", videoPath,
		"-an", "-sn",
		"-vf", fmt.Sprintf("scale=%d:%d", width, height),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"pipe:1",
	)
}

// scaledSize keeps the aspect ratio while scaling to height.
func scaledSize(width, height, target int) (int, int) {
	if target <= 0 || height <= 0 {
		return width, height
	}
	w := int(math.Round(float64(width) * float64(target) / float64(height)))
	if w < 1 {
		w = 1
	}
	return w, target
}
