package loop

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCognitiveInterval_ScalesWithFailuresAndClampsAtCeiling(t *testing.T) {
	assert.Equal(t, BaseCognitiveInterval, CognitiveInterval(0))
	assert.Equal(t, BaseCognitiveInterval+2*time.Second, CognitiveInterval(1))
	assert.Equal(t, CognitiveIntervalCeiling, CognitiveInterval(100))
}

func TestLoop_RunDrivesAllThreeAccumulatorsAndStops(t *testing.T) {
	l := New()
	var renders, simTicks, cogTicks int64

	l.OnRender = func(time.Duration) { atomic.AddInt64(&renders, 1) }
	l.OnSimTick = func(time.Duration) { atomic.AddInt64(&simTicks, 1) }
	l.OnCognitiveTick = func(time.Duration) { atomic.AddInt64(&cogTicks, 1) }
	l.RecentFailures = func() int { return 0 }

	done := make(chan struct{})
	go func() {
		l.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	l.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop in time")
	}

	assert.Greater(t, atomic.LoadInt64(&renders), int64(0))
}
