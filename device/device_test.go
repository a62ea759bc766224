// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"image"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
)

func TestRegistry(t *testing.T) {
	c := qt.New(t)
	r := newRegistry()
	a := r.put("a")
	b := r.put("b")
	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(a, qt.Not(qt.Equals), core.NullHandle)

	obj, ok := r.get(b)
	c.Assert(ok, qt.Equals, true)
	c.Assert(obj, qt.Equals, "b")

	_, ok = r.get(core.NullHandle)
	c.Assert(ok, qt.Equals, false)

	_, ok = r.drop(a)
	c.Assert(ok, qt.Equals, true)
	_, ok = r.drop(a)
	c.Assert(ok, qt.Equals, false)
	c.Assert(r.len(), qt.Equals, 1)
	c.Assert(r.put("c"), qt.Not(qt.Equals), a)
}

func TestImageLookup(t *testing.T) {
	c := qt.New(t)
	v := &Vulkan{handles: newRegistry()}
	h := v.handles.put(&vkImage{image: vk.NullImage})
	other := v.handles.put(vk.NullShaderModule)

	img, err := v.Image(h)
	c.Assert(err, qt.IsNil)
	c.Assert(img, qt.Equals, vk.NullImage)

	_, err = v.Image(other)
	c.Assert(errors.Is(err, core.ErrInvalidState), qt.Equals, true)
	c.Assert(err, qt.ErrorMatches, `handle \d+ is not an image: .*`)

	_, err = v.Image(core.NullHandle)
	c.Assert(err, qt.ErrorMatches, `unknown image 0: .*`)
}

func TestResultError(t *testing.T) {
	c := qt.New(t)
	c.Assert(resultError("vk.QueuePresent()", vk.Success), qt.IsNil)
	for _, test := range []struct {
		ret  vk.Result
		want error
	}{
		{vk.ErrorOutOfDate, core.ErrSurfaceStale},
		{vk.Suboptimal, core.ErrSurfaceStale},
		{vk.Timeout, core.ErrSurfaceStale},
		{vk.NotReady, core.ErrSurfaceStale},
		{vk.ErrorSurfaceLost, core.ErrSurfaceLost},
		{vk.ErrorDeviceLost, core.ErrDeviceLost},
	} {
		err := resultError("vk.QueuePresent()", test.ret)
		c.Assert(errors.Is(err, test.want), qt.Equals, true, qt.Commentf("%d", test.ret))
		c.Assert(err, qt.ErrorMatches, `vk\.QueuePresent\(\): .*`)
	}
	c.Assert(core.IsRecoverable(resultError("vk.AcquireNextImage()", vk.ErrorOutOfDate)), qt.Equals, true)
	c.Assert(core.IsRecoverable(resultError("vk.QueueSubmit()", vk.ErrorDeviceLost)), qt.Equals, false)
}

func TestFeatures(t *testing.T) {
	c := qt.New(t)
	want := core.Features{SamplerAnisotropy: true, DepthClamp: true, TextureCompressionBC: true}
	vf := vkFeatures(want)
	c.Assert(vf.SamplerAnisotropy, qt.Equals, vk.Bool32(vk.True))
	c.Assert(vf.WideLines, qt.Equals, vk.Bool32(vk.False))
	c.Assert(featuresFrom(vf), qt.Equals, want)
}

func TestQueueFamilyFrom(t *testing.T) {
	c := qt.New(t)
	qf := queueFamilyFrom(2, vk.QueueFamilyProperties{
		QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit),
		QueueCount: 4,
	})
	c.Assert(qf, qt.Equals, core.QueueFamily{Index: 2, Count: 4, Graphics: true, Transfer: true})
}

func TestRenderPassInfo(t *testing.T) {
	c := qt.New(t)
	info := renderPassInfo(core.RenderPassDescriptor{Attachments: []core.Attachment{
		{Kind: core.AttachmentColor, Format: core.FormatB8g8r8a8Unorm, Clear: true, Store: true, Present: true},
		{Kind: core.AttachmentDepthStencil, Format: core.FormatD24UnormS8Uint, Clear: true},
	}})

	c.Assert(info.AttachmentCount, qt.Equals, uint32(2))
	color, depth := info.PAttachments[0], info.PAttachments[1]
	c.Assert(color.FinalLayout, qt.Equals, vk.ImageLayoutPresentSrc)
	c.Assert(color.LoadOp, qt.Equals, vk.AttachmentLoadOpClear)
	c.Assert(color.StoreOp, qt.Equals, vk.AttachmentStoreOpStore)
	c.Assert(color.Samples, qt.Equals, vk.SampleCount1Bit)
	c.Assert(depth.FinalLayout, qt.Equals, vk.ImageLayoutDepthStencilAttachmentOptimal)
	c.Assert(depth.StoreOp, qt.Equals, vk.AttachmentStoreOpDontCare)
	c.Assert(depth.StencilLoadOp, qt.Equals, vk.AttachmentLoadOpClear)

	subpass := info.PSubpasses[0]
	c.Assert(subpass.ColorAttachmentCount, qt.Equals, uint32(1))
	c.Assert(subpass.PDepthStencilAttachment.Attachment, qt.Equals, uint32(1))
	c.Assert(info.DependencyCount, qt.Equals, uint32(2))

	noDepth := renderPassInfo(core.RenderPassDescriptor{Attachments: []core.Attachment{
		{Kind: core.AttachmentColor, Format: core.FormatB8g8r8a8Unorm},
	}})
	c.Assert(noDepth.PSubpasses[0].PDepthStencilAttachment == nil, qt.Equals, true)
	c.Assert(noDepth.PAttachments[0].FinalLayout, qt.Equals, vk.ImageLayoutColorAttachmentOptimal)
	c.Assert(noDepth.DependencyCount, qt.Equals, uint32(1))
}

func TestFindMemoryType(t *testing.T) {
	c := qt.New(t)
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 3
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	props.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	idx, err := findMemoryType(props, 0x7, hostCoherent)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(2))

	idx, err = findMemoryType(props, 0x7, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(0))

	_, err = findMemoryType(props, 0x3, hostCoherent)
	c.Assert(err, qt.Equals, ErrNoMemoryType)
}

func TestPanelSize(t *testing.T) {
	c := qt.New(t)
	c.Assert(panelSize(image.Pt(320, 120), core.Extent{Width: 1280, Height: 720}), qt.Equals, image.Pt(320, 120))
	c.Assert(panelSize(image.Pt(320, 120), core.Extent{Width: 200, Height: 100}), qt.Equals, image.Pt(200, 100))
}

func TestSwizzleBGRA(t *testing.T) {
	c := qt.New(t)
	pix := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	swizzleBGRA(pix)
	c.Assert(pix, qt.DeepEquals, []uint8{3, 2, 1, 4, 7, 6, 5, 8})
}
