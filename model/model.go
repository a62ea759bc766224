// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the meshes the demo draws and their vertex layout.
package model

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Object represents a drawable model
type Object interface {
	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for upload,
	// so it has to match the descriptors exactly
	Vertices() []Vertex
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// VertexSize is the stride of Vertex in a vertex buffer
const VertexSize = uint32(unsafe.Sizeof(Vertex{}))

// VertexBytes lays vertices out the way VertexAttributeDescriptions describe them
func VertexBytes(vertices []Vertex) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(vertices)*int(VertexSize)))
	// writes to a bytes.Buffer do not fail
	_ = binary.Write(buf, binary.LittleEndian, vertices)
	return buf.Bytes()
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// MVP is the combined clip space transform
func (u Uniform) MVP() glm.Mat4 {
	return u.Projection.Mul4(u.View).Mul4(u.Model)
}

// MatrixBytes returns m in column major order, as push constants expect it
func MatrixBytes(m glm.Mat4) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, 64))
	_ = binary.Write(buf, binary.LittleEndian, m)
	return buf.Bytes()
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    VertexSize,
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
