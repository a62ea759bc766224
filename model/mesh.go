// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/devblok/vkbase/util/collada"
)

// DefaultColor is given to imported vertices, Collada colours are not read
var DefaultColor = glm.Vec4{1.0, 1.0, 0.0, 1.0}

// Mesh is a triangle list held in memory
type Mesh struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

var _ Object = (*Mesh)(nil)

// NewMesh creates a mesh at the origin
func NewMesh(vertices []Vertex) *Mesh {
	return &Mesh{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}
}

// ImportCollada converts the first geometry of a Collada (.dae) document
func ImportCollada(data []byte) (*Mesh, error) {
	doc, err := collada.Decode(data)
	if err != nil {
		return nil, err
	}
	if len(doc.Geometries) == 0 {
		return nil, errors.New("collada document has no geometry")
	}
	mesh := doc.Geometries[0].Mesh
	source, err := mesh.FindSource("positions")
	if err != nil {
		return nil, err
	}
	input, ok := mesh.Triangles.Input(collada.SemanticVertex)
	if !ok {
		return nil, errors.New("triangles have no vertex input")
	}

	positions := source.Floats.Data
	stride := mesh.Triangles.Stride()
	index := mesh.Triangles.Index
	vertices := make([]Vertex, 0, len(index)/stride)
	for idx := 0; idx+stride <= len(index); idx += stride {
		p := index[idx+int(input.Offset)] * 3
		if p < 0 || p+3 > len(positions) {
			return nil, errors.Errorf("position index %d out of range", p/3)
		}
		vertices = append(vertices, Vertex{
			Pos:   glm.Vec3{positions[p], positions[p+1], positions[p+2]},
			Color: DefaultColor,
		})
	}
	return NewMesh(vertices), nil
}

// Triangle is the mesh drawn when no model asset is available
func Triangle() *Mesh {
	return NewMesh([]Vertex{
		{Pos: glm.Vec3{1.0, 1.0, 0.0}, Color: glm.Vec4{1.0, 0.0, 0.0, 1.0}},
		{Pos: glm.Vec3{-1.0, 1.0, 0.0}, Color: glm.Vec4{0.0, 1.0, 0.0, 1.0}},
		{Pos: glm.Vec3{0.0, -1.0, 0.0}, Color: glm.Vec4{0.0, 0.0, 1.0, 1.0}},
	})
}

// SetPosition implements Object
func (m *Mesh) SetPosition(pos glm.Mat4) {
	m.mutex.Lock()
	m.position = pos
	m.mutex.Unlock()
}

// Position implements Object
func (m *Mesh) Position() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.position
}

// SetRotation implements Object
func (m *Mesh) SetRotation(rot glm.Mat4) {
	m.mutex.Lock()
	m.rotation = rot
	m.mutex.Unlock()
}

// Rotation implements Object
func (m *Mesh) Rotation() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.rotation
}

// Transform is the model matrix, rotation applied before translation
func (m *Mesh) Transform() glm.Mat4 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.position.Mul4(m.rotation)
}

// Vertices implements Object
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}
