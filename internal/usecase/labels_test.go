package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viscloud/labeler/internal/domain/entity"
)

func rec(kind entity.Kind, start, end entity.FrameID) entity.Record {
	return entity.Record{Kind: kind, Interval: entity.Interval{Start: start, End: end}}
}

func TestBuildFrameVector(t *testing.T) {
	records := []entity.Record{
		rec(entity.KindEvent, 2, 4),
		rec(entity.KindUncertain, 3, 6),
		rec(entity.KindUncertain, 8, 20),
		rec(entity.KindEvent, -3, 0),
	}

	vec, err := BuildFrameVector(records, 10)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameLabel{1, 0, 1, 1, 1, -1, -1, 0, -1, -1}, vec)
}

func TestBuildFrameVectorEventOverridesEitherOrder(t *testing.T) {
	a, err := BuildFrameVector([]entity.Record{rec(entity.KindUncertain, 0, 2), rec(entity.KindEvent, 1, 1)}, 3)
	require.NoError(t, err)
	b, err := BuildFrameVector([]entity.Record{rec(entity.KindEvent, 1, 1), rec(entity.KindUncertain, 0, 2)}, 3)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameLabel{-1, 1, -1}, a)
	assert.Equal(t, a, b)
}

func TestBuildFrameVectorIgnoresReversedInterval(t *testing.T) {
	vec, err := BuildFrameVector([]entity.Record{rec(entity.KindEvent, 5, 3)}, 8)
	require.NoError(t, err)
	assert.Empty(t, PositiveFrames(vec))

	_, err = BuildFrameVector(nil, -1)
	assert.Error(t, err)
}

func TestPositiveFrames(t *testing.T) {
	vec := []entity.FrameLabel{0, 1, -1, 1, 1}
	assert.Equal(t, []entity.FrameID{1, 3, 4}, PositiveFrames(vec))
}

func TestSampleEvery(t *testing.T) {
	vec := []entity.FrameLabel{1, 0, -1, 1, 0, 0, 1}
	got, err := SampleEvery(vec, 3)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameLabel{1, 1, 1}, got)

	_, err = SampleEvery(vec, 0)
	assert.Error(t, err)
}

func TestSplitAt(t *testing.T) {
	vec := []entity.FrameLabel{1, 0, -1, 1}
	train, test, err := SplitAt(vec, 3)
	require.NoError(t, err)
	assert.Equal(t, []entity.FrameLabel{1, 0, -1}, train)
	assert.Equal(t, []entity.FrameLabel{1}, test)

	_, _, err = SplitAt(vec, 5)
	assert.Error(t, err)
}
