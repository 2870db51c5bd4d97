package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.EqualValues(t, 5, GetBreadth())
	assert.EqualValues(t, 5, GetMaxDepth())
	assert.EqualValues(t, 0, GetDepthLimit())
	assert.EqualValues(t, 100, GetLoopTimes())
	assert.EqualValues(t, 1, GetWorkers())

	assert.EqualValues(t, 0, GetStepInterval())
	assert.EqualValues(t, 1.5, GetReadyMeanRank())
	assert.EqualValues(t, 4, GetMaxPreferences())
	assert.EqualValues(t, time.Second, GetMetricsInterval())
}

func TestUpdate(t *testing.T) {
	defer Reset()

	Update(
		WithBreadth(3),
		WithMaxDepth(2),
		WithDepthLimit(7),
		WithLoopTimes(42),
		WithWorkers(4),

		WithStepInterval(10*time.Millisecond),
		WithReadyMeanRank(1.25),
		WithMaxPreferences(6),
		WithMetricsInterval(5*time.Second),
	)

	assert.EqualValues(t, 3, GetBreadth())
	assert.EqualValues(t, 2, GetMaxDepth())
	assert.EqualValues(t, 7, GetDepthLimit())
	assert.EqualValues(t, 42, GetLoopTimes())
	assert.EqualValues(t, 4, GetWorkers())

	assert.EqualValues(t, 10*time.Millisecond, GetStepInterval())
	assert.EqualValues(t, 1.25, GetReadyMeanRank())
	assert.EqualValues(t, 6, GetMaxPreferences())
	assert.EqualValues(t, 5*time.Second, GetMetricsInterval())
}

func TestUpdateClampsWorkers(t *testing.T) {
	defer Reset()

	Update(WithWorkers(0))
	assert.EqualValues(t, 1, GetWorkers())
}

func TestReset(t *testing.T) {
	Update(WithBreadth(9))
	Reset()

	assert.EqualValues(t, 5, GetBreadth())
	assert.Contains(t, Stringify(), "breadth:5")
}
