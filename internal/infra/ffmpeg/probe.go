package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// VideoInfo is the subset of ffprobe output the frame source needs.
type VideoInfo struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int64
	Duration   float64
}

type probeOutput struct {
	Streams []struct {
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the first video stream's geometry, rate and length.
func Probe(ctx context.Context, ffprobePath, videoPath string) (*VideoInfo, error) {
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,avg_frame_rate,nb_frames:format=duration",
		"-of", "json",
		videoPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return parseProbeOutput(output)
}

func parseProbeOutput(data []byte) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("no video stream found")
	}
	st := out.Streams[0]
	if st.Width <= 0 || st.Height <= 0 {
		return nil, fmt.Errorf("invalid video size %dx%d", st.Width, st.Height)
	}

	fps, err := parseRate(st.AvgFrameRate)
	if err != nil || fps <= 0 {
		if fps, err = parseRate(st.RFrameRate); err != nil {
			return nil, fmt.Errorf("parse frame rate: %w", err)
		}
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid frame rate %q", st.RFrameRate)
	}

	info := &VideoInfo{Width: st.Width, Height: st.Height, FPS: fps}
	if d, err := strconv.ParseFloat(strings.TrimSpace(out.Format.Duration), 64); err == nil {
		info.Duration = d
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(st.NbFrames), 10, 64); err == nil {
		info.FrameCount = n
	} else if info.Duration > 0 {
		info.FrameCount = int64(math.Round(info.Duration * fps))
	}
	return info, nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or plain numbers.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if !ok {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil {
		return 0, fmt.Errorf("parse rate %q: %w", s, err)
	}
	if d == 0 {
		return 0, nil
	}
	return n / d, nil
}
