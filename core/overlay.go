// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "fmt"

// OverlayFont is the asset the text overlay needs
const OverlayFont = "fonts/overlay.ttf"

// Overlay renders text on top of the frame in its own submission
type Overlay interface {
	// Prepare (re)creates the overlay resources for the swapchain
	Prepare(sc SwapchainState) error

	// Update replaces the displayed text
	Update(lines []string) error

	// CommandBuffer returns the recorded overlay buffer for the image
	CommandBuffer(index uint32) (Handle, error)

	Destroy()
}

// OverlayText collects the lines shown by the overlay
type OverlayText struct {
	lines []string
}

// AddLine appends a line of text
func (o *OverlayText) AddLine(line string) {
	o.lines = append(o.lines, line)
}

// AddLinef appends a formatted line of text
func (o *OverlayText) AddLinef(format string, args ...interface{}) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

// Lines returns the collected lines
func (o *OverlayText) Lines() []string {
	return o.lines
}
