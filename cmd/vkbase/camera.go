// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vkbase/core"
)

const (
	rotateStep = 5.0
	zoomStep   = 0.5
	minZoom    = -20.0
	maxZoom    = -0.5
	fov        = 60.0
)

// camera orbits the origin
type camera struct {
	rotation glm.Vec2
	zoom     float32
}

func newCamera() camera {
	return camera{zoom: -2.5}
}

func (c *camera) view() glm.Mat4 {
	return glm.Translate3D(0, 0, c.zoom).
		Mul4(glm.HomogRotate3DX(glm.DegToRad(c.rotation.X()))).
		Mul4(glm.HomogRotate3DY(glm.DegToRad(c.rotation.Y())))
}

// projection flips Y, Vulkan clip space points down
func (c *camera) projection(extent core.Extent) glm.Mat4 {
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	p := glm.Perspective(glm.DegToRad(fov), aspect, 0.1, 256)
	p[5] *= -1
	return p
}

// key applies a view key and reports whether the view changed
func (c *camera) key(k core.Key) bool {
	switch k {
	case core.KeyUp:
		c.rotation[0] += rotateStep
	case core.KeyDown:
		c.rotation[0] -= rotateStep
	case core.KeyLeft:
		c.rotation[1] -= rotateStep
	case core.KeyRight:
		c.rotation[1] += rotateStep
	case core.KeyPageUp:
		c.zoom = clampZoom(c.zoom + zoomStep)
	case core.KeyPageDown:
		c.zoom = clampZoom(c.zoom - zoomStep)
	case core.Key('r'):
		*c = newCamera()
	default:
		return false
	}
	return true
}

func clampZoom(z float32) float32 {
	if z < minZoom {
		return minZoom
	}
	if z > maxZoom {
		return maxZoom
	}
	return z
}
