// Package loop drives the simulation forward: a fixed-cadence game loop
// with three cooperative accumulators — render, sim-tick, and an
// adaptive cognitive-tick — all running on a single logical thread
// (spec.md §5).
package loop

import (
	"log/slog"
	"time"
)

// FrameRate is the render accumulator's target cadence.
const FrameRate = 60

// FrameInterval is the wall-clock period of one render frame.
const FrameInterval = time.Second / FrameRate

// SimTickInterval advances the simulation by one game-minute per tick.
const SimTickInterval = time.Second

const (
	// BaseCognitiveInterval is the cognitive-tick cadence with no recent
	// failures (spec.md §5, "adaptive interval, default 3.5s").
	BaseCognitiveInterval = 3500 * time.Millisecond
	// FailurePenalty is added per recent oracle failure.
	FailurePenalty = 2 * time.Second
	// CognitiveIntervalCeiling bounds the adaptive interval.
	CognitiveIntervalCeiling = 15 * time.Second
)

// CognitiveInterval computes the adaptive cognitive-tick period from
// the count of recent oracle failures (spec.md §5).
func CognitiveInterval(recentFailures int) time.Duration {
	interval := BaseCognitiveInterval + time.Duration(recentFailures)*FailurePenalty
	if interval > CognitiveIntervalCeiling {
		return CognitiveIntervalCeiling
	}
	return interval
}

// Loop drives the three accumulators. Render and simulation hooks run
// on fixed cadences; the cognitive hook runs on the adaptive cadence
// reported by RecentFailures, mirroring the tick-layer callback style
// of a traditional tick-counter engine but keyed to wall-clock
// accumulators instead of a tick counter (spec.md §5).
type Loop struct {
	// OnRender fires every frame.
	OnRender func(dt time.Duration)
	// OnSimTick fires every game-minute.
	OnSimTick func(dt time.Duration)
	// OnCognitiveTick fires on the adaptive cognitive cadence.
	OnCognitiveTick func(dt time.Duration)
	// RecentFailures reports the current oracle failure count, consulted
	// once per cognitive tick to recompute the interval.
	RecentFailures func() int

	running bool
	stop    chan struct{}
}

// New constructs a stopped Loop.
func New() *Loop {
	return &Loop{stop: make(chan struct{}, 1)}
}

// Run blocks, driving the three accumulators until Stop is called.
func (l *Loop) Run() {
	l.running = true
	slog.Info("simulation loop started")

	renderAccum := time.Duration(0)
	simAccum := time.Duration(0)
	cogAccum := time.Duration(0)

	last := time.Now()
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()

	for l.running {
		select {
		case <-l.stop:
			l.running = false
			continue
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			renderAccum += dt
			simAccum += dt
			cogAccum += dt

			if renderAccum >= FrameInterval {
				if l.OnRender != nil {
					l.OnRender(renderAccum)
				}
				renderAccum = 0
			}
			if simAccum >= SimTickInterval {
				if l.OnSimTick != nil {
					l.OnSimTick(simAccum)
				}
				simAccum = 0
			}

			failures := 0
			if l.RecentFailures != nil {
				failures = l.RecentFailures()
			}
			cogInterval := CognitiveInterval(failures)
			if cogAccum >= cogInterval {
				if l.OnCognitiveTick != nil {
					l.OnCognitiveTick(cogAccum)
				}
				cogAccum = 0
			}
		}
	}

	slog.Info("simulation loop stopped")
}

// Stop halts Run.
func (l *Loop) Stop() {
	select {
	case l.stop <- struct{}{}:
	default:
	}
}
