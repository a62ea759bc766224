// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"math"
	"time"

	"github.com/loov/hrtime"
)

// Clock returns a monotonic time since an arbitrary origin
type Clock interface {
	Now() time.Duration
}

// HRClock is the high resolution clock used outside of tests
type HRClock struct{}

// Now returns the time elapsed since the process started
func (HRClock) Now() time.Duration {
	return hrtime.Now()
}

// FrameTimer is the animation timer. It advances by speed per second
// and wraps within [-1, 1].
type FrameTimer struct {
	Speed float32
	Value float32
}

// Advance moves the timer by dt seconds
func (t *FrameTimer) Advance(dt float32) {
	t.Value += t.Speed * dt
	if t.Value > 1 {
		// wrap into (-1, 1] in one step so huge deltas stay cheap
		r := math.Mod(float64(t.Value)+1, 2)
		if r == 0 {
			r = 2
		}
		t.Value = float32(r - 1)
	}
}

// FPSCounter counts frames and publishes the count once per second
type FPSCounter struct {
	frames  uint32
	elapsed time.Duration
	last    uint32
}

// Frame records one frame that took dt. It reports true when a second
// boundary was crossed and Last was updated.
func (f *FPSCounter) Frame(dt time.Duration) bool {
	f.frames++
	f.elapsed += dt
	if f.elapsed < time.Second {
		return false
	}
	f.last = f.frames
	f.frames = 0
	f.elapsed = 0
	return true
}

// Last returns the frame count of the last full second
func (f *FPSCounter) Last() uint32 {
	return f.last
}

// Pending returns the frames counted since the last boundary
func (f *FPSCounter) Pending() uint32 {
	return f.frames
}

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	t := &Time{
		fps:            cfg.FramesPerSecond,
		eventPollDelay: cfg.EventPollDelay,
	}
	if cfg.FramesPerSecond > 0 {
		t.fpsTicker = time.NewTicker(time.Second / time.Duration(cfg.FramesPerSecond))
	}
	delay := cfg.EventPollDelay
	if delay <= 0 {
		delay = 10
	}
	t.eventTicker = time.NewTicker(time.Duration(delay) * time.Millisecond)
	return t
}

// Time contains the pacing tickers
type Time struct {
	fps       int
	fpsTicker *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the frame pacing ticker, nil when frames are not capped
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Stop stops the tickers
func (t *Time) Stop() {
	if t.fpsTicker != nil {
		t.fpsTicker.Stop()
	}
	t.eventTicker.Stop()
}
