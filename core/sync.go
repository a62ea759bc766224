// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
)

// SemaphoreSet holds the binary semaphores ordering one frame.
// They are created once and reused every frame.
type SemaphoreSet struct {
	PresentComplete     Handle
	RenderComplete      Handle
	TextOverlayComplete Handle
}

// NewSemaphoreSet creates the three frame semaphores
func NewSemaphoreSet(driver Driver) (SemaphoreSet, error) {
	var (
		set SemaphoreSet
		err error
	)
	for _, s := range []*Handle{&set.PresentComplete, &set.RenderComplete, &set.TextOverlayComplete} {
		if *s, err = driver.CreateSemaphore(); err != nil {
			set.Destroy(driver)
			return SemaphoreSet{}, errors.Wrap(err, "create semaphore")
		}
	}
	return set, nil
}

// Destroy releases the semaphores
func (s *SemaphoreSet) Destroy(driver Driver) {
	for _, h := range []*Handle{&s.PresentComplete, &s.RenderComplete, &s.TextOverlayComplete} {
		if *h != NullHandle {
			driver.DestroySemaphore(*h)
			*h = NullHandle
		}
	}
}

// FrameChain is the wait/signal plan for one frame.
// Acquire signals PresentComplete, the main submission waits it and signals
// RenderComplete, the overlay submission waits RenderComplete and signals
// TextOverlayComplete, present waits whichever was signaled last.
type FrameChain struct {
	Acquire Handle

	RenderWait   Handle
	RenderSignal Handle

	// Overlay is false when no overlay submission happens this frame
	Overlay       bool
	OverlayWait   Handle
	OverlaySignal Handle

	PresentWait Handle
}

// Chain returns the frame plan with or without the overlay submission
func (s SemaphoreSet) Chain(overlay bool) FrameChain {
	c := FrameChain{
		Acquire:      s.PresentComplete,
		RenderWait:   s.PresentComplete,
		RenderSignal: s.RenderComplete,
		PresentWait:  s.RenderComplete,
	}
	if overlay {
		c.Overlay = true
		c.OverlayWait = s.RenderComplete
		c.OverlaySignal = s.TextOverlayComplete
		c.PresentWait = s.TextOverlayComplete
	}
	return c
}

// RenderSubmission builds the main graphics submission
func (c FrameChain) RenderSubmission(buffer Handle) Submission {
	return Submission{
		Wait:           []Handle{c.RenderWait},
		WaitStages:     []PipelineStage{StageColorAttachmentOutput},
		CommandBuffers: []Handle{buffer},
		Signal:         []Handle{c.RenderSignal},
	}
}

// OverlaySubmission builds the overlay submission
func (c FrameChain) OverlaySubmission(buffer Handle) Submission {
	return Submission{
		Wait:           []Handle{c.OverlayWait},
		WaitStages:     []PipelineStage{StageColorAttachmentOutput},
		CommandBuffers: []Handle{buffer},
		Signal:         []Handle{c.OverlaySignal},
	}
}
