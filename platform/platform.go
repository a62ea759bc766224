// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package platform provides the windows the engine presents to.
package platform

import (
	"github.com/pkg/errors"

	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/device"
)

// Window is a presentable window
type Window interface {
	core.Window
	device.SurfaceProvider
}

// Window backends
const (
	SDL  = "sdl"
	GLFW = "glfw"
)

// Open creates a window with the named backend. It must be called from
// the thread that will poll the window.
func Open(backend string, cfg core.Configuration) (Window, error) {
	switch backend {
	case "", SDL:
		return NewSDLWindow(cfg.Window, cfg.Settings.Fullscreen)
	case GLFW:
		return NewGLFWWindow(cfg.Window, cfg.Settings.Fullscreen)
	}
	return nil, errors.Errorf("unknown window backend %q", backend)
}

// printable maps ASCII printable key codes onto core keys
func printable(code int) core.Key {
	if code > 0x20 && code < 0x7f {
		return core.Key(code)
	}
	return core.KeyUnknown
}
