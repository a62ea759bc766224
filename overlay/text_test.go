// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package overlay

import (
	"image"
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

func litPixels(img *image.RGBA, rect image.Rectangle) int {
	var lit int
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if img.RGBAAt(x, y).R > 0x80 {
				lit++
			}
		}
	}
	return lit
}

func TestRasterizeBasicFace(t *testing.T) {
	c := qt.New(t)
	text := NewTextFace(basicfont.Face7x13)
	img := text.Rasterize([]string{"Vulkan Example", "16.67ms (60 fps)"}, 200, 40)

	c.Assert(img.Bounds(), qt.Equals, image.Rect(0, 0, 200, 40))
	c.Assert(img.RGBAAt(199, 39), qt.Equals, Background)
	first := image.Rect(0, 0, 200, 4+text.LineHeight())
	second := image.Rect(0, first.Max.Y, 200, 40)
	c.Assert(litPixels(img, first) > 0, qt.Equals, true)
	c.Assert(litPixels(img, second) > 0, qt.Equals, true)
}

func TestRasterizeDropsOverflow(t *testing.T) {
	c := qt.New(t)
	text := NewTextFace(basicfont.Face7x13)
	img := text.Rasterize([]string{"one", "two", "three"}, 64, 20)
	c.Assert(litPixels(img, img.Bounds()) > 0, qt.Equals, true)

	empty := text.Rasterize(nil, 64, 20)
	c.Assert(litPixels(empty, empty.Bounds()), qt.Equals, 0)
}

func TestNewText(t *testing.T) {
	c := qt.New(t)
	text, err := NewText(goregular.TTF, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(text.LineHeight() > 0, qt.Equals, true)

	img := text.Rasterize([]string{"fps"}, 80, 30)
	c.Assert(litPixels(img, img.Bounds()) > 0, qt.Equals, true)

	_, err = NewText([]byte("not a font"), 12)
	c.Assert(err, qt.ErrorMatches, "parsing overlay font: .*")
}
