package game

import "time"

// tickStats keeps a rolling one-second window of tick and LOS timing and
// republishes the aggregate once per second. The published values ride
// the UPDATE frame's stats tail; they inform dashboards, not control.
type tickStats struct {
	windowStart time.Time
	tickAccum   float64 // ms of tick work this window
	losAccum    float64 // ms of LOS work this window
	ticks       int

	TickTimeMsAvg    float32
	TickTimeMsPerSec float32
	LosTimeMsAvg     float32
	LosTimeMsPerSec  float32
}

func (s *tickStats) record(now time.Time, tickMs, losMs float64) {
	if s.windowStart.IsZero() {
		s.windowStart = now
	}
	s.tickAccum += tickMs
	s.losAccum += losMs
	s.ticks++

	if now.Sub(s.windowStart) < time.Second {
		return
	}

	s.TickTimeMsPerSec = float32(s.tickAccum)
	s.LosTimeMsPerSec = float32(s.losAccum)
	s.TickTimeMsAvg = float32(s.tickAccum / float64(s.ticks))
	s.LosTimeMsAvg = float32(s.losAccum / float64(s.ticks))

	s.windowStart = now
	s.tickAccum = 0
	s.losAccum = 0
	s.ticks = 0
}
