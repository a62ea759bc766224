// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"image"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
)

// TextRasterizer draws overlay lines into an image of the given size
type TextRasterizer interface {
	Rasterize(lines []string, width, height int) *image.RGBA
}

// TextOverlay implements core.Overlay by copying rasterized text from a
// staging buffer into the top left corner of each swapchain image.
type TextOverlay struct {
	v          *Vulkan
	rasterizer TextRasterizer
	size       image.Point

	pool    core.Handle
	buffers []core.Handle
	staging *Buffer
	panel   image.Point
	bgra    bool
}

var _ core.Overlay = (*TextOverlay)(nil)

// NewTextOverlay creates an overlay panel of at most size pixels.
func NewTextOverlay(v *Vulkan, queueFamily uint32, r TextRasterizer, size image.Point) (*TextOverlay, error) {
	pool, err := v.CreateCommandPool(queueFamily)
	if err != nil {
		return nil, err
	}
	return &TextOverlay{
		v:          v,
		rasterizer: r,
		size:       size,
		pool:       pool,
	}, nil
}

// panelSize clamps the requested panel to the swapchain extent
func panelSize(size image.Point, extent core.Extent) image.Point {
	p := size
	if w := int(extent.Width); p.X > w {
		p.X = w
	}
	if h := int(extent.Height); p.Y > h {
		p.Y = h
	}
	return p
}

// Prepare implements core.Overlay
func (o *TextOverlay) Prepare(sc core.SwapchainState) error {
	o.release()

	o.panel = panelSize(o.size, sc.Extent)
	o.bgra = sc.Format == core.FormatB8g8r8a8Unorm || sc.Format == core.FormatB8g8r8a8Srgb
	if o.panel.X <= 0 || o.panel.Y <= 0 {
		return nil
	}

	staging, err := NewBuffer(o.v.device, uint(o.panel.X*o.panel.Y*4), vk.BufferUsageTransferSrcBit, o.v.allocator)
	if err != nil {
		return errors.Wrap(err, "overlay staging buffer")
	}
	o.staging = staging

	buffers, err := o.v.AllocateCommandBuffers(o.pool, len(sc.Images), core.CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	o.buffers = buffers

	for idx, h := range buffers {
		img, err := o.v.Image(sc.Images[idx])
		if err != nil {
			return err
		}
		if err := o.record(h, img); err != nil {
			return errors.Wrapf(err, "overlay command buffer %d", idx)
		}
	}
	return nil
}

func (o *TextOverlay) record(h core.Handle, img vk.Image) error {
	cmd, err := o.v.CommandBuffer(h)
	if err != nil {
		return err
	}
	if err := o.v.BeginCommandBuffer(h, false); err != nil {
		return err
	}

	subresource := vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
	toTransfer := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		OldLayout:           vk.ImageLayoutPresentSrc,
		NewLayout:           vk.ImageLayoutTransferDstOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange:    subresource,
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toTransfer})

	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{
			Width:  uint32(o.panel.X),
			Height: uint32(o.panel.Y),
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, o.staging.Get(), img, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	toPresent := toTransfer
	toPresent.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	toPresent.DstAccessMask = vk.AccessFlags(vk.AccessMemoryReadBit)
	toPresent.OldLayout = vk.ImageLayoutTransferDstOptimal
	toPresent.NewLayout = vk.ImageLayoutPresentSrc
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toPresent})

	return o.v.EndCommandBuffer(h)
}

// Update implements core.Overlay. The queue is drained first since the
// staging buffer may still be read by an earlier copy.
func (o *TextOverlay) Update(lines []string) error {
	if o.staging == nil {
		return nil
	}
	if err := o.v.QueueWaitIdle(); err != nil {
		return err
	}
	img := o.rasterizer.Rasterize(lines, o.panel.X, o.panel.Y)
	pixels := core.GetPixels(img, 0)
	if o.bgra {
		swizzleBGRA(pixels)
	}
	return o.staging.Mem().Write(pixels)
}

// CommandBuffer implements core.Overlay
func (o *TextOverlay) CommandBuffer(index uint32) (core.Handle, error) {
	if int(index) >= len(o.buffers) {
		return core.NullHandle, errors.Errorf("no overlay command buffer for image %d", index)
	}
	return o.buffers[index], nil
}

func (o *TextOverlay) release() {
	if len(o.buffers) > 0 {
		o.v.FreeCommandBuffers(o.pool, o.buffers)
		o.buffers = nil
	}
	if o.staging != nil {
		o.staging.Release()
		o.staging = nil
	}
}

// Destroy implements core.Overlay
func (o *TextOverlay) Destroy() {
	o.release()
	o.v.DestroyCommandPool(o.pool)
}

// swizzleBGRA converts RGBA pixels to BGRA in place
func swizzleBGRA(pix []uint8) {
	for idx := 0; idx+3 < len(pix); idx += 4 {
		pix[idx], pix[idx+2] = pix[idx+2], pix[idx]
	}
}
