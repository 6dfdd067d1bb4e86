package usecase

import (
	"fmt"

	"github.com/viscloud/labeler/internal/domain/entity"
)

// BuildFrameVector labels every frame in [0, numFrames). Intervals are
// inclusive on both ends, an event wins over an uncertain label on overlap and
// frames outside the range are ignored.
func BuildFrameVector(records []entity.Record, numFrames int) ([]entity.FrameLabel, error) {
	if numFrames < 0 {
		return nil, fmt.Errorf("invalid frame count %d", numFrames)
	}
	vec := make([]entity.FrameLabel, numFrames)
	for _, r := range records {
		label := entity.LabelUncertain
		if r.Kind == entity.KindEvent {
			label = entity.LabelEvent
		}
		lo := max(r.Start, 0)
		hi := min(r.End, entity.FrameID(numFrames-1))
		for f := lo; f <= hi; f++ {
			if vec[f] == entity.LabelNone || label == entity.LabelEvent {
				vec[f] = label
			}
		}
	}
	return vec, nil
}

// PositiveFrames lists the frames labeled as events.
func PositiveFrames(vec []entity.FrameLabel) []entity.FrameID {
	var out []entity.FrameID
	for i, l := range vec {
		if l == entity.LabelEvent {
			out = append(out, entity.FrameID(i))
		}
	}
	return out
}

// SampleEvery keeps frames 0, n, 2n, ...
func SampleEvery(vec []entity.FrameLabel, n int) ([]entity.FrameLabel, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid sampling step %d", n)
	}
	out := make([]entity.FrameLabel, 0, (len(vec)+n-1)/n)
	for i := 0; i < len(vec); i += n {
		out = append(out, vec[i])
	}
	return out, nil
}

// SplitAt returns the first n frames as train and the rest as test.
func SplitAt(vec []entity.FrameLabel, n int) (train, test []entity.FrameLabel, err error) {
	if n < 0 || n > len(vec) {
		return nil, nil, fmt.Errorf("split point %d outside [0, %d]", n, len(vec))
	}
	train = append([]entity.FrameLabel(nil), vec[:n]...)
	test = append([]entity.FrameLabel(nil), vec[n:]...)
	return train, test, nil
}
