// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import "time"

// Application is the derived application driven by Base.
// Prepare runs once after the render targets exist,
// BuildCommandBuffers whenever the command buffers are stale.
type Application interface {
	// Prepare creates the application's pipelines and resources
	Prepare(b *Base) error

	// BuildCommandBuffers records one command buffer per swapchain image
	BuildCommandBuffers(b *Base) error
}

// FeatureSelector lets the application pick the features to enable
// from what the selected device offers
type FeatureSelector interface {
	EnabledFeatures(available Features) Features
}

// FrameUpdater is called every frame after the image is acquired
// and before the frame is submitted
type FrameUpdater interface {
	Update(b *Base, frame FrameInfo) error
}

// KeyHandler receives key presses the engine did not consume
type KeyHandler interface {
	KeyPressed(b *Base, key Key)
}

// ResizeHandler is notified after the render targets were rebuilt
type ResizeHandler interface {
	WindowResized(b *Base)
}

// ViewHandler is notified when the view needs to be recomputed
type ViewHandler interface {
	ViewChanged(b *Base)
}

// OverlayTextProvider adds lines to the text overlay
type OverlayTextProvider interface {
	OverlayText(o *OverlayText)
}

// Destroyer is implemented by applications owning GPU resources,
// it runs while the device is still alive
type Destroyer interface {
	Destroy(b *Base)
}

// FrameInfo is handed to FrameUpdater every frame
type FrameInfo struct {
	Index      uint32
	Frame      uint64
	Timer      float32
	FrameTimer float32
	Delta      time.Duration
}

// Key is a platform independent key code
type Key int

// Keys the engine knows about, everything else is KeyUnknown
// or a printable rune value
const (
	KeyUnknown Key = -1 - iota
	KeyEscape
	KeyF1
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeySpace
)

// EventKind tells what happened to the window
type EventKind int

// Window events
const (
	EventNone EventKind = iota
	EventQuit
	EventResize
	EventKey
	EventMinimized
	EventRestored
)

// Event is a window event
type Event struct {
	Kind   EventKind
	Key    Key
	Width  uint32
	Height uint32
}

// Window is the platform layer the engine consumes
type Window interface {
	// Poll returns all pending events without blocking
	Poll() []Event

	// FramebufferSize returns the drawable size in pixels
	FramebufferSize() (uint32, uint32)

	SetTitle(title string)
	Destroy()
}

// AssetSource loads named assets
type AssetSource interface {
	ReadFile(name string) ([]byte, error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	}
	return "unknown"
}
