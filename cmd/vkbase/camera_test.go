// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vkbase/core"
)

func TestCameraKeys(t *testing.T) {
	c := qt.New(t)
	cam := newCamera()

	c.Assert(cam.key(core.KeyUp), qt.Equals, true)
	c.Assert(cam.key(core.KeyRight), qt.Equals, true)
	c.Assert(cam.rotation, qt.Equals, glm.Vec2{rotateStep, rotateStep})

	c.Assert(cam.key(core.Key('x')), qt.Equals, false)
	c.Assert(cam.key(core.KeyEscape), qt.Equals, false)

	for i := 0; i < 10; i++ {
		cam.key(core.KeyPageUp)
	}
	c.Assert(cam.zoom, qt.Equals, float32(maxZoom))
	for i := 0; i < 100; i++ {
		cam.key(core.KeyPageDown)
	}
	c.Assert(cam.zoom, qt.Equals, float32(minZoom))

	c.Assert(cam.key(core.Key('r')), qt.Equals, true)
	c.Assert(cam, qt.Equals, newCamera())
}

func TestCameraProjection(t *testing.T) {
	c := qt.New(t)
	cam := newCamera()
	p := cam.projection(core.Extent{Width: 1280, Height: 720})
	c.Assert(p[5] < 0, qt.Equals, true)

	square := cam.projection(core.Extent{})
	c.Assert(square[0], qt.Equals, -square[5])
}

func TestCameraView(t *testing.T) {
	c := qt.New(t)
	cam := newCamera()
	c.Assert(cam.view(), qt.Equals, glm.Translate3D(0, 0, cam.zoom))
}
