package textfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/viscloud/labeler/internal/domain/entity"
)

// Label vectors are stored one label per line, frame 0 first.

func WriteVector(w io.Writer, vec []entity.FrameLabel) error {
	bw := bufio.NewWriter(w)
	for _, l := range vec {
		if _, err := fmt.Fprintln(bw, int(l)); err != nil {
			return fmt.Errorf("write label: %w", err)
		}
	}
	return bw.Flush()
}

func ReadVector(r io.Reader) ([]entity.FrameLabel, error) {
	var vec []entity.FrameLabel
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse label %q: %w", line, text, err)
		}
		l := entity.FrameLabel(n)
		if l != entity.LabelEvent && l != entity.LabelNone && l != entity.LabelUncertain {
			return nil, fmt.Errorf("line %d: invalid label %d", line, n)
		}
		vec = append(vec, l)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vector: %w", err)
	}
	return vec, nil
}

func WriteVectorFile(path string, vec []entity.FrameLabel) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create vector file: %w", err)
	}
	if err := WriteVector(f, vec); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadVectorFile(path string) ([]entity.FrameLabel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vector file: %w", err)
	}
	defer f.Close()
	return ReadVector(f)
}

// WriteFrames writes one frame id per line.
func WriteFrames(w io.Writer, frames []entity.FrameID) error {
	bw := bufio.NewWriter(w)
	for _, f := range frames {
		if _, err := fmt.Fprintln(bw, int64(f)); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
	return bw.Flush()
}
