package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockOnlyAdvancesWhileRunning(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	first := c.Elapsed()
	assert.GreaterOrEqual(t, first, 2*time.Millisecond)

	c.Stop()
	time.Sleep(time.Millisecond)
	c.Update()
	assert.Equal(t, first, c.Elapsed())
}

func TestProfilerLap(t *testing.T) {
	p := NewProfiler("test")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, p.Lap(), time.Millisecond)
	p.LogTime("done")
}

func TestMetricsAverage(t *testing.T) {
	MetricsReset()
	for i := 0; i < int(AVG_COUNT); i++ {
		MetricsUpdate(10 * time.Millisecond)
	}
	_, avg := MetricsFrame()
	assert.InDelta(t, 10.0, avg, 1e-9)
	assert.Equal(t, uint64(AVG_COUNT), MetricsTotalFrames())
}
