// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkbase/core"
)

// SDLWindow is a Vulkan capable SDL2 window
type SDLWindow struct {
	window *sdl.Window
}

// NewSDLWindow initialises SDL video and opens the window
func NewSDLWindow(cfg core.WindowConfiguration, fullscreen bool) (*SDLWindow, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, errors.Wrap(err, "sdl.Init()")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}

	flags := uint32(sdl.WINDOW_VULKAN | sdl.WINDOW_RESIZABLE)
	if fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	window, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.Width),
		int32(cfg.Height),
		flags)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "sdl.CreateWindow()")
	}
	return &SDLWindow{window: window}, nil
}

// Poll implements core.Window
func (w *SDLWindow) Poll() []core.Event {
	var events []core.Event
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch et := event.(type) {
		case *sdl.QuitEvent:
			events = append(events, core.Event{Kind: core.EventQuit})
		case *sdl.WindowEvent:
			switch et.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				width, height := w.FramebufferSize()
				events = append(events, core.Event{Kind: core.EventResize, Width: width, Height: height})
			case sdl.WINDOWEVENT_MINIMIZED:
				events = append(events, core.Event{Kind: core.EventMinimized})
			case sdl.WINDOWEVENT_RESTORED:
				events = append(events, core.Event{Kind: core.EventRestored})
			}
		case *sdl.KeyboardEvent:
			if et.Type == sdl.KEYDOWN {
				events = append(events, core.Event{Kind: core.EventKey, Key: sdlKey(et.Keysym.Sym)})
			}
		}
	}
	return events
}

func sdlKey(sym sdl.Keycode) core.Key {
	switch sym {
	case sdl.K_ESCAPE:
		return core.KeyEscape
	case sdl.K_F1:
		return core.KeyF1
	case sdl.K_UP:
		return core.KeyUp
	case sdl.K_DOWN:
		return core.KeyDown
	case sdl.K_LEFT:
		return core.KeyLeft
	case sdl.K_RIGHT:
		return core.KeyRight
	case sdl.K_PAGEUP:
		return core.KeyPageUp
	case sdl.K_PAGEDOWN:
		return core.KeyPageDown
	case sdl.K_SPACE:
		return core.KeySpace
	}
	return printable(int(sym))
}

// FramebufferSize implements core.Window
func (w *SDLWindow) FramebufferSize() (uint32, uint32) {
	width, height := w.window.VulkanGetDrawableSize()
	return uint32(width), uint32(height)
}

// SetTitle implements core.Window
func (w *SDLWindow) SetTitle(title string) {
	w.window.SetTitle(title)
}

// InstanceProcAddr implements device.SurfaceProvider
func (w *SDLWindow) InstanceProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// InstanceExtensions implements device.SurfaceProvider
func (w *SDLWindow) InstanceExtensions() []string {
	return w.window.VulkanGetInstanceExtensions()
}

// CreateSurface implements device.SurfaceProvider
func (w *SDLWindow) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := w.window.VulkanCreateSurface(instance)
	if err != nil {
		return 0, errors.Wrap(err, "sdl.VulkanCreateSurface()")
	}
	return uintptr(surface), nil
}

// Destroy implements core.Window
func (w *SDLWindow) Destroy() {
	w.window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
