// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package collada_test

import (
	"encoding/xml"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkbase/util/collada"
)

const cube = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_geometries>
    <geometry id="Tri-mesh" name="Tri">
      <mesh>
        <source id="Tri-mesh-positions">
          <float_array id="Tri-mesh-positions-array" count="9">0 0 0
            1 0 0
            0 1 0</float_array>
        </source>
        <source id="Tri-mesh-normals">
          <float_array id="Tri-mesh-normals-array" count="3">0 0 1</float_array>
        </source>
        <vertices id="Tri-mesh-vertices">
          <input semantic="POSITION" source="#Tri-mesh-positions"/>
        </vertices>
        <triangles material="Material-material" count="1">
          <input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Tri-mesh-normals" offset="1"/>
          <p>0 0 1 0 2 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestTrianglesDecode(t *testing.T) {
	c := qt.New(t)
	data := `
		<triangles material="Material-material" count="12">
		<input semantic="VERTEX" source="#Cube-mesh-vertices" offset="0"/>
		<input semantic="NORMAL" source="#Cube-mesh-normals" offset="1"/>
		<p>0 0 2 0 3 0 7 1 5 1 4 1 4 2 1 2 0 2 5 3 2 3 1 3 2 4 7 4 3 4 0 5 7 5 4 5 0 6 1 6 2 6 7 7 6 7 5 7 4 8 5 8 1 8 5 9 6 9 2 9 2 10 6 10 7 10 0 11 3 11 7 11</p>
		</triangles>
	`
	var triangles collada.Triangles
	c.Assert(xml.Unmarshal([]byte(data), &triangles), qt.IsNil)
	c.Assert(triangles.Material, qt.Equals, "Material-material")
	c.Assert(triangles.Count, qt.Equals, 12)
	c.Assert(len(triangles.Inputs), qt.Equals, 2)
	c.Assert(len(triangles.Index), qt.Equals, 12*6)
	c.Assert(triangles.Stride(), qt.Equals, 2)

	normal, ok := triangles.Input(collada.SemanticNormal)
	c.Assert(ok, qt.Equals, true)
	c.Assert(normal.Offset, qt.Equals, uint(1))
	_, ok = triangles.Input("TEXCOORD")
	c.Assert(ok, qt.Equals, false)
}

func TestTrianglesBadIndex(t *testing.T) {
	c := qt.New(t)
	var triangles collada.Triangles
	err := xml.Unmarshal([]byte(`<triangles count="1"><p>0 x 2</p></triangles>`), &triangles)
	c.Assert(err, qt.ErrorMatches, "triangles index: .*")
}

func TestInputDecode(t *testing.T) {
	c := qt.New(t)
	data := `
	<object>
		<input semantic="VERTEX" source="#Cube-mesh-vertices" offset="0" />
		<input semantic="NORMAL" source="#Cube-mesh-normals" offset="1" />
		<input semantic="TEXTUR" source="#Cube-mesh-textures" offset="2" />
	</object>
	`

	type Object struct {
		XMLName xml.Name        `xml:"object"`
		Inputs  []collada.Input `xml:"input"`
	}

	var obj Object
	c.Assert(xml.Unmarshal([]byte(data), &obj), qt.IsNil)
	c.Assert(obj.Inputs, qt.DeepEquals, []collada.Input{
		{Semantic: "VERTEX", Source: "#Cube-mesh-vertices", Offset: 0},
		{Semantic: "NORMAL", Source: "#Cube-mesh-normals", Offset: 1},
		{Semantic: "TEXTUR", Source: "#Cube-mesh-textures", Offset: 2},
	})
}

func TestFloatsDecode(t *testing.T) {
	c := qt.New(t)
	data := `<float_array id="Cube-mesh-normals-array" count="36">0 0 -1 0 0 1 1 0 -2.38419e-7 0 -1 -4.76837e-7 -1 2.38419e-7 -1.49012e-7 2.68221e-7 1 2.38419e-7 0 0 -1 0 0 1 1 -5.96046e-7 3.27825e-7 -4.76837e-7 -1 0 -1 2.38419e-7 -1.19209e-7 2.08616e-7 1 0</float_array>`

	var floats collada.Floats
	c.Assert(xml.Unmarshal([]byte(data), &floats), qt.IsNil)
	c.Assert(len(floats.Data), qt.Equals, 36)
	c.Assert(floats.ID, qt.Equals, "Cube-mesh-normals-array")
}

func TestDecode(t *testing.T) {
	c := qt.New(t)
	doc, err := collada.Decode([]byte(cube))
	c.Assert(err, qt.IsNil)
	c.Assert(len(doc.Geometries), qt.Equals, 1)

	mesh := doc.Geometries[0].Mesh
	pos, err := mesh.FindSource("positions")
	c.Assert(err, qt.IsNil)
	c.Assert(pos.Floats.Data, qt.DeepEquals, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	c.Assert(mesh.Triangles.Index, qt.DeepEquals, []int{0, 0, 1, 0, 2, 0})

	_, err = mesh.FindSource("uvs")
	c.Assert(err, qt.ErrorMatches, `source "uvs" not found`)

	_, err = collada.Decode([]byte("<COLLADA>"))
	c.Assert(err, qt.ErrorMatches, "decoding collada document: .*")
}
