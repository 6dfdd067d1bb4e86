package entity

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FrameID is the index of a video frame.
type FrameID int64

// PlayForever is the target frame used while playing until the end of the stream.
const PlayForever = FrameID(math.MaxInt64)

type Kind int

const (
	KindEvent Kind = iota
	KindUncertain
	kindCount
)

// Kinds lists every interval kind in export order.
var Kinds = []Kind{KindEvent, KindUncertain}

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "Event"
	case KindUncertain:
		return "Uncertain"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

// ParseKind accepts "Event" or "Uncertain", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "event":
		return KindEvent, nil
	case "uncertain":
		return KindUncertain, nil
	}
	return 0, fmt.Errorf("parse kind %q: %w", s, ErrUnknownKind)
}

type Interval struct {
	Start FrameID
	End   FrameID
}

// Record is one exported closed interval. Index is the position of the
// interval within its kind, or -1 when it was read from a line without one.
type Record struct {
	Kind  Kind
	Index int
	Interval
}

// String renders the record as a line of the flat export, e.g.
// "(10, 20) - Event 0".
func (r Record) String() string {
	return fmt.Sprintf("(%d, %d) - %s %d", r.Start, r.End, r.Kind, r.Index)
}

var recordLine = regexp.MustCompile(`^\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*-\s*([A-Za-z]+)(?:\s+(\d+))?$`)

// ParseRecord parses one export line. Older exports wrote uncertain
// intervals without an index; those parse with Index -1.
func ParseRecord(line string) (Record, error) {
	m := recordLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Record{}, fmt.Errorf("parse record %q: malformed line", line)
	}
	start, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse record start: %w", err)
	}
	end, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse record end: %w", err)
	}
	kind, err := ParseKind(m[3])
	if err != nil {
		return Record{}, err
	}
	index := -1
	if m[4] != "" {
		if index, err = strconv.Atoi(m[4]); err != nil {
			return Record{}, fmt.Errorf("parse record index: %w", err)
		}
	}
	return Record{
		Kind:     kind,
		Index:    index,
		Interval: Interval{Start: FrameID(start), End: FrameID(end)},
	}, nil
}

// FrameLabel is the per-frame classification derived from an export.
type FrameLabel int8

const (
	LabelUncertain FrameLabel = -1
	LabelNone      FrameLabel = 0
	LabelEvent     FrameLabel = 1
)
