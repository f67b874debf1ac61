package session

import "time"

// Timer is the part of time.Timer and time.Ticker the session uses.
type Timer interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Timer
	NewTimer(d time.Duration) Timer
}

// WallClock is the real-time Clock.
type WallClock struct{}

func (WallClock) NewTicker(d time.Duration) Timer { return wallTicker{time.NewTicker(d)} }
func (WallClock) NewTimer(d time.Duration) Timer  { return wallTimer{time.NewTimer(d)} }

type wallTicker struct{ t *time.Ticker }

func (w wallTicker) C() <-chan time.Time { return w.t.C }
func (w wallTicker) Stop()               { w.t.Stop() }

type wallTimer struct{ t *time.Timer }

func (w wallTimer) C() <-chan time.Time { return w.t.C }
func (w wallTimer) Stop()               { w.t.Stop() }
