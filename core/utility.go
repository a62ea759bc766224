// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"image"
	"image/draw"
	"unsafe"
)

type sliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}

// SliceUint32 reslices bytes into a uint32, that is used
// to sumbit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	const m = 0x7fffffff
	return (*[m / 4]uint32)(unsafe.Pointer((*sliceHeader)(unsafe.Pointer(&data)).Data))[:len(data)/4]
}

// SafeString null terminates s for the C side
func SafeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

// SafeStrings null terminates every string
func SafeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, SafeString(s))
	}
	return safe
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas
func GetPixels(img image.Image, rowPitch int) []uint8 {
	newImg := image.NewRGBA(img.Bounds())
	if rowPitch >= 4*img.Bounds().Dx() && rowPitch != newImg.Stride {
		newImg.Pix = make([]uint8, rowPitch*img.Bounds().Dy())
		newImg.Stride = rowPitch
	}
	draw.Draw(newImg, newImg.Bounds(), img, img.Bounds().Min, draw.Src)
	return newImg.Pix
}

func windowTitle(title, device string, fps uint32) string {
	return fmt.Sprintf("%s - %s - %d fps", title, device, fps)
}
