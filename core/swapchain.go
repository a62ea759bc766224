// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/pkg/errors"
)

// undefinedExtent is reported by surfaces whose size follows the swapchain
const undefinedExtent = 0xFFFFFFFF

// SwapchainState is the ring of presentable images and their views
type SwapchainState struct {
	Handle      Handle
	Images      []Handle
	Views       []Handle
	Format      Format
	ColorSpace  ColorSpace
	Extent      Extent
	PresentMode PresentMode
	ImageCount  uint32
}

// Swapchain manages the presentable images of the window surface
type Swapchain struct {
	driver Driver
	size   uint32

	state SwapchainState
}

// NewSwapchain creates a swapchain manager. size is the desired image count,
// zero picks one above the surface minimum.
func NewSwapchain(driver Driver, size uint32) *Swapchain {
	return &Swapchain{driver: driver, size: size}
}

// State returns the current swapchain state
func (s *Swapchain) State() SwapchainState {
	return s.state
}

// Create builds the swapchain for the desired size. When a swapchain already
// exists it is passed as the old swapchain and destroyed together with its
// views afterwards, the device must be idle.
func (s *Swapchain) Create(width, height uint32, vsync bool) error {
	caps, err := s.driver.SurfaceCapabilities()
	if err != nil {
		return errors.Wrap(err, "surface capabilities")
	}
	formats, err := s.driver.SurfaceFormats()
	if err != nil {
		return errors.Wrap(err, "surface formats")
	}
	modes, err := s.driver.PresentModes()
	if err != nil {
		return errors.Wrap(err, "present modes")
	}

	format := chooseSurfaceFormat(formats)
	usage := ImageUsageColorAttachment
	if caps.SupportedUsage&ImageUsageTransferDst != 0 {
		usage |= ImageUsageTransferDst
	}
	transform := caps.CurrentTransform
	if caps.SupportedTransforms&TransformIdentity != 0 {
		transform = TransformIdentity
	}

	desc := SwapchainDescriptor{
		MinImageCount:  chooseImageCount(s.size, caps),
		Format:         format.Format,
		ColorSpace:     format.ColorSpace,
		Extent:         chooseExtent(width, height, caps),
		Usage:          usage,
		Transform:      transform,
		CompositeAlpha: chooseCompositeAlpha(caps.SupportedCompositeAlpha),
		PresentMode:    choosePresentMode(modes, vsync),
		Old:            s.state.Handle,
	}

	handle, images, err := s.driver.CreateSwapchain(desc)
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	if len(images) == 0 {
		s.driver.DestroySwapchain(handle)
		return errors.New("swapchain has no images")
	}

	views := make([]Handle, 0, len(images))
	for _, img := range images {
		view, err := s.driver.CreateImageView(ImageViewDescriptor{
			Image:  img,
			Format: desc.Format,
			Aspect: AspectColor,
		})
		if err != nil {
			for _, v := range views {
				s.driver.DestroyImageView(v)
			}
			s.driver.DestroySwapchain(handle)
			return errors.Wrap(err, "swapchain image view")
		}
		views = append(views, view)
	}

	s.destroyState()
	s.state = SwapchainState{
		Handle:      handle,
		Images:      images,
		Views:       views,
		Format:      desc.Format,
		ColorSpace:  desc.ColorSpace,
		Extent:      desc.Extent,
		PresentMode: desc.PresentMode,
		ImageCount:  uint32(len(images)),
	}
	return nil
}

// Recreate rebuilds the swapchain in place, the logical device is preserved
func (s *Swapchain) Recreate(width, height uint32, vsync bool) error {
	return s.Create(width, height, vsync)
}

// AcquireNextImage acquires the next image, signaling semaphore when it is ready
func (s *Swapchain) AcquireNextImage(semaphore Handle, timeout time.Duration) (uint32, bool, error) {
	return s.driver.AcquireNextImage(s.state.Handle, timeout, semaphore)
}

// Present queues the image for presentation once wait is signaled
func (s *Swapchain) Present(index uint32, wait Handle) error {
	return s.driver.Present(PresentDescriptor{
		Swapchain:  s.state.Handle,
		ImageIndex: index,
		Wait:       []Handle{wait},
	})
}

// Destroy releases the views and the swapchain
func (s *Swapchain) Destroy() {
	s.destroyState()
	s.state = SwapchainState{}
}

func (s *Swapchain) destroyState() {
	for _, v := range s.state.Views {
		s.driver.DestroyImageView(v)
	}
	if s.state.Handle != NullHandle {
		s.driver.DestroySwapchain(s.state.Handle)
	}
}

func chooseImageCount(desired uint32, caps SurfaceCapabilities) uint32 {
	if desired == 0 {
		desired = caps.MinImageCount + 1
	}
	if desired < caps.MinImageCount {
		desired = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && desired > caps.MaxImageCount {
		desired = caps.MaxImageCount
	}
	if desired == 0 {
		desired = 1
	}
	return desired
}

func choosePresentMode(modes []PresentMode, vsync bool) PresentMode {
	if vsync {
		return PresentModeFifo
	}
	has := func(m PresentMode) bool {
		for _, mode := range modes {
			if mode == m {
				return true
			}
		}
		return false
	}
	if has(PresentModeMailbox) {
		return PresentModeMailbox
	}
	if has(PresentModeImmediate) {
		return PresentModeImmediate
	}
	return PresentModeFifo
}

func chooseExtent(width, height uint32, caps SurfaceCapabilities) Extent {
	if caps.CurrentExtent.Width != undefinedExtent {
		return caps.CurrentExtent
	}
	return Extent{
		Width:  clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseSurfaceFormat(formats []SurfaceFormat) SurfaceFormat {
	if len(formats) == 0 || (len(formats) == 1 && formats[0].Format == FormatUndefined) {
		cs := ColorSpaceSrgbNonlinear
		if len(formats) == 1 {
			cs = formats[0].ColorSpace
		}
		return SurfaceFormat{Format: FormatB8g8r8a8Unorm, ColorSpace: cs}
	}
	for _, f := range formats {
		if f.Format == FormatB8g8r8a8Unorm {
			return f
		}
	}
	return formats[0]
}

func chooseCompositeAlpha(supported CompositeAlpha) CompositeAlpha {
	for _, a := range []CompositeAlpha{
		CompositeAlphaOpaque,
		CompositeAlphaPreMultiplied,
		CompositeAlphaPostMultiplied,
		CompositeAlphaInherit,
	} {
		if supported&a != 0 {
			return a
		}
	}
	return CompositeAlphaOpaque
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
