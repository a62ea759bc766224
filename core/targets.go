// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
)

// DepthStencil is the shared depth/stencil attachment
type DepthStencil struct {
	Image  Handle
	Memory Handle
	View   Handle
	Format Format
}

// TargetBuilder creates the render targets. Replace DefaultTargets to
// change the attachment layout, e.g. for multisampling.
type TargetBuilder interface {
	DepthStencil(d Driver, format Format, extent Extent) (DepthStencil, error)
	RenderPass(d Driver, colorFormat, depthFormat Format) (Handle, error)
	Framebuffers(d Driver, pass Handle, views []Handle, depth DepthStencil, extent Extent) ([]Handle, error)
}

// DefaultTargets is one cleared and presented colour attachment plus one
// cleared depth/stencil attachment in a single subpass.
type DefaultTargets struct{}

// DepthStencil creates a device local depth image and its view
func (DefaultTargets) DepthStencil(d Driver, format Format, extent Extent) (DepthStencil, error) {
	image, memory, err := d.CreateImage(ImageDescriptor{
		Format:  format,
		Extent:  extent,
		Usage:   ImageUsageDepthStencilAttachment | ImageUsageTransferSrc,
		Samples: 1,
	})
	if err != nil {
		return DepthStencil{}, errors.Wrap(err, "depth image")
	}
	aspect := AspectDepth
	if format.HasStencil() {
		aspect |= AspectStencil
	}
	view, err := d.CreateImageView(ImageViewDescriptor{Image: image, Format: format, Aspect: aspect})
	if err != nil {
		d.DestroyImage(image, memory)
		return DepthStencil{}, errors.Wrap(err, "depth image view")
	}
	return DepthStencil{Image: image, Memory: memory, View: view, Format: format}, nil
}

// RenderPass creates the default colour + depth render pass
func (DefaultTargets) RenderPass(d Driver, colorFormat, depthFormat Format) (Handle, error) {
	pass, err := d.CreateRenderPass(RenderPassDescriptor{
		Attachments: []Attachment{
			{Kind: AttachmentColor, Format: colorFormat, Samples: 1, Clear: true, Store: true, Present: true},
			{Kind: AttachmentDepthStencil, Format: depthFormat, Samples: 1, Clear: true},
		},
	})
	return pass, errors.Wrap(err, "render pass")
}

// Framebuffers creates one framebuffer per swapchain view sharing the depth view
func (DefaultTargets) Framebuffers(d Driver, pass Handle, views []Handle, depth DepthStencil, extent Extent) ([]Handle, error) {
	framebuffers := make([]Handle, 0, len(views))
	for _, view := range views {
		fb, err := d.CreateFramebuffer(FramebufferDescriptor{
			RenderPass:  pass,
			Attachments: []Handle{view, depth.View},
			Extent:      extent,
		})
		if err != nil {
			for _, f := range framebuffers {
				d.DestroyFramebuffer(f)
			}
			return nil, errors.Wrap(err, "framebuffer")
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

// RenderTargets owns the depth/stencil attachment, the render pass
// and the framebuffers
type RenderTargets struct {
	driver  Driver
	builder TargetBuilder

	depthFormat Format
	colorFormat Format

	Depth        DepthStencil
	RenderPass   Handle
	Framebuffers []Handle
}

// NewRenderTargets creates an empty target set
func NewRenderTargets(driver Driver, builder TargetBuilder, depthFormat Format) *RenderTargets {
	if builder == nil {
		builder = DefaultTargets{}
	}
	return &RenderTargets{driver: driver, builder: builder, depthFormat: depthFormat}
}

// SetupDepthStencil allocates the depth/stencil attachment for extent
func (r *RenderTargets) SetupDepthStencil(extent Extent) error {
	depth, err := r.builder.DepthStencil(r.driver, r.depthFormat, extent)
	if err != nil {
		return err
	}
	r.Depth = depth
	return nil
}

// SetupRenderPass creates the render pass when it does not exist yet
// or the colour format changed. It reports whether a new pass was created.
func (r *RenderTargets) SetupRenderPass(colorFormat Format) (bool, error) {
	if r.RenderPass != NullHandle && colorFormat == r.colorFormat {
		return false, nil
	}
	pass, err := r.builder.RenderPass(r.driver, colorFormat, r.depthFormat)
	if err != nil {
		return false, err
	}
	if r.RenderPass != NullHandle {
		r.driver.DestroyRenderPass(r.RenderPass)
	}
	r.RenderPass = pass
	r.colorFormat = colorFormat
	return true, nil
}

// SetupFramebuffers creates one framebuffer per swapchain image view
func (r *RenderTargets) SetupFramebuffers(sc SwapchainState) error {
	fbs, err := r.builder.Framebuffers(r.driver, r.RenderPass, sc.Views, r.Depth, sc.Extent)
	if err != nil {
		return err
	}
	if len(fbs) != len(sc.Views) {
		for _, fb := range fbs {
			r.driver.DestroyFramebuffer(fb)
		}
		return errors.Errorf("%d framebuffers for %d swapchain images", len(fbs), len(sc.Views))
	}
	r.Framebuffers = fbs
	return nil
}

// DestroyFramebuffers releases the framebuffers
func (r *RenderTargets) DestroyFramebuffers() {
	for _, fb := range r.Framebuffers {
		r.driver.DestroyFramebuffer(fb)
	}
	r.Framebuffers = nil
}

// DestroyDepthStencil releases the depth/stencil attachment
func (r *RenderTargets) DestroyDepthStencil() {
	if r.Depth.View != NullHandle {
		r.driver.DestroyImageView(r.Depth.View)
	}
	if r.Depth.Image != NullHandle {
		r.driver.DestroyImage(r.Depth.Image, r.Depth.Memory)
	}
	r.Depth = DepthStencil{}
}

// Destroy releases everything in reverse creation order
func (r *RenderTargets) Destroy() {
	r.DestroyFramebuffers()
	r.DestroyDepthStencil()
	if r.RenderPass != NullHandle {
		r.driver.DestroyRenderPass(r.RenderPass)
		r.RenderPass = NullHandle
	}
}
