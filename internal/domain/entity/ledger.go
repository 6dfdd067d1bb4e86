package entity

import (
	"fmt"
	"strings"
)

type track struct {
	closed  []Interval
	open    FrameID
	hasOpen bool
}

// IntervalLedger records closed event and uncertain intervals plus at most one
// open start per kind. Closed intervals are append-only.
type IntervalLedger struct {
	tracks [kindCount]track
	labels map[FrameID][]string
}

func NewIntervalLedger() *IntervalLedger {
	return &IntervalLedger{labels: make(map[FrameID][]string)}
}

func (l *IntervalLedger) trackOf(kind Kind) (*track, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	return &l.tracks[kind], nil
}

// Start opens an interval of the given kind at frame.
func (l *IntervalLedger) Start(kind Kind, frame FrameID) error {
	t, err := l.trackOf(kind)
	if err != nil {
		return err
	}
	if t.hasOpen {
		return fmt.Errorf("start %s interval at %d: %w", kind, frame, ErrAlreadyOpen)
	}
	t.open, t.hasOpen = frame, true
	l.addLabel(frame, startLabel(kind, len(t.closed)))
	return nil
}

// End closes the open interval of the given kind at frame. An end before the
// start is accepted as-is.
func (l *IntervalLedger) End(kind Kind, frame FrameID) (Interval, error) {
	t, err := l.trackOf(kind)
	if err != nil {
		return Interval{}, err
	}
	if !t.hasOpen {
		return Interval{}, fmt.Errorf("end %s interval at %d: %w", kind, frame, ErrNoOpenStart)
	}
	iv := Interval{Start: t.open, End: frame}
	t.closed = append(t.closed, iv)
	t.open, t.hasOpen = 0, false
	l.addLabel(frame, endLabel(kind, len(t.closed)-1))
	return iv, nil
}

// DiscardOpen drops the open start of the given kind and returns its frame.
func (l *IntervalLedger) DiscardOpen(kind Kind) (FrameID, error) {
	t, err := l.trackOf(kind)
	if err != nil {
		return 0, err
	}
	if !t.hasOpen {
		return 0, fmt.Errorf("discard open %s interval: %w", kind, ErrNoOpenStart)
	}
	frame := t.open
	t.open, t.hasOpen = 0, false
	l.removeLabel(frame, startLabel(kind, len(t.closed)))
	return frame, nil
}

// Open reports the open start of the given kind, if any.
func (l *IntervalLedger) Open(kind Kind) (FrameID, bool) {
	if !kind.Valid() {
		return 0, false
	}
	t := &l.tracks[kind]
	return t.open, t.hasOpen
}

// Closed returns a copy of the closed intervals of the given kind in
// insertion order.
func (l *IntervalLedger) Closed(kind Kind) []Interval {
	if !kind.Valid() {
		return nil
	}
	return append([]Interval(nil), l.tracks[kind].closed...)
}

// NearestBefore returns the largest closed start that is <= frame.
func (l *IntervalLedger) NearestBefore(kind Kind, frame FrameID) (FrameID, error) {
	return l.nearest(kind, frame, func(start FrameID) (FrameID, bool) {
		return frame - start, start <= frame
	})
}

// NearestAfter returns the smallest closed start that is >= frame.
func (l *IntervalLedger) NearestAfter(kind Kind, frame FrameID) (FrameID, error) {
	return l.nearest(kind, frame, func(start FrameID) (FrameID, bool) {
		return start - frame, start >= frame
	})
}

// nearest scans in insertion order; the first start at the minimum distance wins.
func (l *IntervalLedger) nearest(kind Kind, frame FrameID, distance func(FrameID) (FrameID, bool)) (FrameID, error) {
	t, err := l.trackOf(kind)
	if err != nil {
		return 0, err
	}
	if len(t.closed) == 0 {
		return 0, fmt.Errorf("nearest %s from %d: %w", kind, frame, ErrNoIntervals)
	}
	var (
		best     FrameID
		bestDist FrameID
		found    bool
	)
	for _, iv := range t.closed {
		d, ok := distance(iv.Start)
		if !ok {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = iv.Start, d, true
		}
	}
	if !found {
		return 0, fmt.Errorf("nearest %s from %d: %w", kind, frame, ErrNotFound)
	}
	return best, nil
}

// Labels returns the annotations recorded at frame.
func (l *IntervalLedger) Labels(frame FrameID) []string {
	return append([]string(nil), l.labels[frame]...)
}

// Status summarizes the open starts and the annotations at frame.
func (l *IntervalLedger) Status(frame FrameID) string {
	var parts []string
	if start, ok := l.Open(KindUncertain); ok {
		parts = append(parts, fmt.Sprintf("Uncertain tag start: %d.", start))
	}
	if start, ok := l.Open(KindEvent); ok {
		parts = append(parts, fmt.Sprintf("Event tag start: %d.", start))
	}
	if len(parts) == 0 {
		parts = append(parts, "No tags open")
	}
	parts = append(parts, l.labels[frame]...)
	return strings.Join(parts, " ")
}

// Export lists closed intervals, events first, each kind in insertion order.
func (l *IntervalLedger) Export() []Record {
	var out []Record
	for _, kind := range Kinds {
		for i, iv := range l.tracks[kind].closed {
			out = append(out, Record{Kind: kind, Index: i, Interval: iv})
		}
	}
	return out
}

func (l *IntervalLedger) addLabel(frame FrameID, label string) {
	l.labels[frame] = append(l.labels[frame], label)
}

func (l *IntervalLedger) removeLabel(frame FrameID, label string) {
	labels := l.labels[frame]
	for i := len(labels) - 1; i >= 0; i-- {
		if labels[i] == label {
			labels = append(labels[:i], labels[i+1:]...)
			break
		}
	}
	if len(labels) == 0 {
		delete(l.labels, frame)
		return
	}
	l.labels[frame] = labels
}

func startLabel(kind Kind, n int) string {
	return fmt.Sprintf("%s interval #%d start.", kind, n)
}

func endLabel(kind Kind, n int) string {
	return fmt.Sprintf("%s interval #%d end.", kind, n)
}
