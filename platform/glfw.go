// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	"github.com/devblok/vkbase/core"
)

// GLFWWindow is a GLFW window without a client API, presenting through Vulkan
type GLFWWindow struct {
	window *glfw.Window
	events []core.Event
}

// NewGLFWWindow initialises GLFW and opens the window
func NewGLFWWindow(cfg core.WindowConfiguration, fullscreen bool) (*GLFWWindow, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init()")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)

	var monitor *glfw.Monitor
	if fullscreen {
		monitor = glfw.GetPrimaryMonitor()
	}
	window, err := glfw.CreateWindow(int(cfg.Width), int(cfg.Height), cfg.Title, monitor, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "glfw.CreateWindow()")
	}

	w := &GLFWWindow{window: window}
	window.SetCloseCallback(func(*glfw.Window) {
		w.push(core.Event{Kind: core.EventQuit})
	})
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.push(core.Event{Kind: core.EventResize, Width: uint32(width), Height: uint32(height)})
	})
	window.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if iconified {
			w.push(core.Event{Kind: core.EventMinimized})
		} else {
			w.push(core.Event{Kind: core.EventRestored})
		}
	})
	window.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Press {
			w.push(core.Event{Kind: core.EventKey, Key: glfwKey(key, mods)})
		}
	})
	return w, nil
}

func (w *GLFWWindow) push(e core.Event) {
	w.events = append(w.events, e)
}

// Poll implements core.Window
func (w *GLFWWindow) Poll() []core.Event {
	glfw.PollEvents()
	events := w.events
	w.events = nil
	return events
}

func glfwKey(key glfw.Key, mods glfw.ModifierKey) core.Key {
	switch key {
	case glfw.KeyEscape:
		return core.KeyEscape
	case glfw.KeyF1:
		return core.KeyF1
	case glfw.KeyUp:
		return core.KeyUp
	case glfw.KeyDown:
		return core.KeyDown
	case glfw.KeyLeft:
		return core.KeyLeft
	case glfw.KeyRight:
		return core.KeyRight
	case glfw.KeyPageUp:
		return core.KeyPageUp
	case glfw.KeyPageDown:
		return core.KeyPageDown
	case glfw.KeySpace:
		return core.KeySpace
	}
	// GLFW reports letters as upper case ASCII
	if key >= glfw.KeyA && key <= glfw.KeyZ && mods&glfw.ModShift == 0 {
		return core.Key(key - glfw.KeyA + 'a')
	}
	return printable(int(key))
}

// FramebufferSize implements core.Window
func (w *GLFWWindow) FramebufferSize() (uint32, uint32) {
	width, height := w.window.GetFramebufferSize()
	return uint32(width), uint32(height)
}

// SetTitle implements core.Window
func (w *GLFWWindow) SetTitle(title string) {
	w.window.SetTitle(title)
}

// InstanceProcAddr implements device.SurfaceProvider
func (w *GLFWWindow) InstanceProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

// InstanceExtensions implements device.SurfaceProvider
func (w *GLFWWindow) InstanceExtensions() []string {
	return w.window.GetRequiredInstanceExtensions()
}

// CreateSurface implements device.SurfaceProvider
func (w *GLFWWindow) CreateSurface(instance interface{}) (uintptr, error) {
	surface, err := w.window.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, errors.Wrap(err, "glfw.CreateWindowSurface()")
	}
	return surface, nil
}

// Destroy implements core.Window
func (w *GLFWWindow) Destroy() {
	w.window.Destroy()
	glfw.Terminate()
}
