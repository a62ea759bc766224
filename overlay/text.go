// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package overlay rasterizes the text overlay on the CPU.
package overlay

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Defaults used by NewText
const (
	DefaultSize = 14
	DefaultDPI  = 72
)

// Background is the panel color behind the text
var Background = color.RGBA{A: 0xc0}

// Text draws lines of text with a single font face
type Text struct {
	face       font.Face
	foreground image.Image
	background image.Image
	margin     int
}

// NewText parses a TrueType or OpenType font and creates a face of the given size
func NewText(fontData []byte, size float64) (*Text, error) {
	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, errors.Wrap(err, "parsing overlay font")
	}
	if size <= 0 {
		size = DefaultSize
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     DefaultDPI,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating overlay font face")
	}
	return NewTextFace(face), nil
}

// NewTextFace uses an already created face
func NewTextFace(face font.Face) *Text {
	return &Text{
		face:       face,
		foreground: image.White,
		background: image.NewUniform(Background),
		margin:     4,
	}
}

// LineHeight returns the distance between two baselines in pixels
func (t *Text) LineHeight() int {
	return t.face.Metrics().Height.Ceil()
}

// Rasterize draws the lines top to bottom onto a width x height panel.
// Lines that do not fit are dropped.
func (t *Text) Rasterize(lines []string, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), t.background, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  t.foreground,
		Face: t.face,
	}
	metrics := t.face.Metrics()
	lineHeight := metrics.Height.Ceil()
	y := t.margin + metrics.Ascent.Ceil()
	for _, line := range lines {
		if y+metrics.Descent.Ceil() > height {
			break
		}
		drawer.Dot = fixed.P(t.margin, y)
		drawer.DrawString(line)
		y += lineHeight
	}
	return img
}
