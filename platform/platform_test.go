// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package platform

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/vkbase/core"
)

func TestSDLKeys(t *testing.T) {
	c := qt.New(t)
	c.Assert(sdlKey(sdl.K_ESCAPE), qt.Equals, core.KeyEscape)
	c.Assert(sdlKey(sdl.K_F1), qt.Equals, core.KeyF1)
	c.Assert(sdlKey(sdl.K_SPACE), qt.Equals, core.KeySpace)
	c.Assert(sdlKey(sdl.K_p), qt.Equals, core.Key('p'))
	c.Assert(sdlKey(sdl.K_F12), qt.Equals, core.KeyUnknown)
}

func TestGLFWKeys(t *testing.T) {
	c := qt.New(t)
	c.Assert(glfwKey(glfw.KeyEscape, 0), qt.Equals, core.KeyEscape)
	c.Assert(glfwKey(glfw.KeyPageDown, 0), qt.Equals, core.KeyPageDown)
	c.Assert(glfwKey(glfw.KeyP, 0), qt.Equals, core.Key('p'))
	c.Assert(glfwKey(glfw.KeyP, glfw.ModShift), qt.Equals, core.Key('P'))
	c.Assert(glfwKey(glfw.Key1, 0), qt.Equals, core.Key('1'))
	c.Assert(glfwKey(glfw.KeyF12, 0), qt.Equals, core.KeyUnknown)
}

func TestOpenUnknownBackend(t *testing.T) {
	c := qt.New(t)
	_, err := Open("wayland-direct", core.DefaultConfiguration())
	c.Assert(err, qt.ErrorMatches, `unknown window backend "wayland-direct"`)
}
