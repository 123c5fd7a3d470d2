package core

import (
	"sync"
	"time"
)

const AVG_COUNT uint8 = 30

// MetricsState keeps a rolling frame time average and the frame count of the
// last full second.
type MetricsState struct {
	frameAVGCounter uint8
	msTimes         [AVG_COUNT]float64
	msAvg           float64
	frames          int32
	accumulatedMS   float64
	fps             float64
	totalFrames     uint64
}

var metricsMu sync.Mutex
var metricsState = &MetricsState{}

func MetricsReset() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	metricsState = &MetricsState{}
}

func MetricsUpdate(frameElapsed time.Duration) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	frameMS := float64(frameElapsed) / float64(time.Millisecond)
	s := metricsState
	s.msTimes[s.frameAVGCounter] = frameMS
	if s.frameAVGCounter == AVG_COUNT-1 {
		sum := 0.0
		for i := uint8(0); i < AVG_COUNT; i++ {
			sum += s.msTimes[i]
		}
		s.msAvg = sum / float64(AVG_COUNT)
	}
	s.frameAVGCounter = (s.frameAVGCounter + 1) % AVG_COUNT

	s.accumulatedMS += frameMS
	if s.accumulatedMS > 1000 {
		s.fps = float64(s.frames)
		s.accumulatedMS -= 1000
		s.frames = 0
	}

	s.frames++
	s.totalFrames++
}

// MetricsFrame returns the frames per second and the average frame time in ms.
func MetricsFrame() (float64, float64) {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return metricsState.fps, metricsState.msAvg
}

func MetricsTotalFrames() uint64 {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return metricsState.totalFrames
}
