// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
)

// resultError maps a Vulkan result onto the engine's error taxonomy.
func resultError(call string, ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal, vk.Timeout, vk.NotReady:
		return errors.Wrap(core.ErrSurfaceStale, call)
	case vk.ErrorSurfaceLost:
		return errors.Wrap(core.ErrSurfaceLost, call)
	case vk.ErrorDeviceLost:
		return errors.Wrap(core.ErrDeviceLost, call)
	}
	if err := vk.Error(ret); err != nil {
		return errors.Wrap(err, call)
	}
	return nil
}

func bool32(b bool) vk.Bool32 {
	if b {
		return vk.Bool32(vk.True)
	}
	return vk.Bool32(vk.False)
}

func featuresFrom(f vk.PhysicalDeviceFeatures) core.Features {
	return core.Features{
		SamplerAnisotropy:    f.SamplerAnisotropy == vk.Bool32(vk.True),
		FillModeNonSolid:     f.FillModeNonSolid == vk.Bool32(vk.True),
		WideLines:            f.WideLines == vk.Bool32(vk.True),
		GeometryShader:       f.GeometryShader == vk.Bool32(vk.True),
		TessellationShader:   f.TessellationShader == vk.Bool32(vk.True),
		MultiViewport:        f.MultiViewport == vk.Bool32(vk.True),
		DepthClamp:           f.DepthClamp == vk.Bool32(vk.True),
		TextureCompressionBC: f.TextureCompressionBC == vk.Bool32(vk.True),
	}
}

func vkFeatures(f core.Features) vk.PhysicalDeviceFeatures {
	return vk.PhysicalDeviceFeatures{
		SamplerAnisotropy:    bool32(f.SamplerAnisotropy),
		FillModeNonSolid:     bool32(f.FillModeNonSolid),
		WideLines:            bool32(f.WideLines),
		GeometryShader:       bool32(f.GeometryShader),
		TessellationShader:   bool32(f.TessellationShader),
		MultiViewport:        bool32(f.MultiViewport),
		DepthClamp:           bool32(f.DepthClamp),
		TextureCompressionBC: bool32(f.TextureCompressionBC),
	}
}

func limitsFrom(l vk.PhysicalDeviceLimits) core.Limits {
	return core.Limits{
		MaxImageDimension2D:       l.MaxImageDimension2D,
		MaxPushConstantsSize:      l.MaxPushConstantsSize,
		MaxBoundDescriptorSets:    l.MaxBoundDescriptorSets,
		MaxFramebufferWidth:       l.MaxFramebufferWidth,
		MaxFramebufferHeight:      l.MaxFramebufferHeight,
		MinUniformBufferAlignment: uint64(l.MinUniformBufferOffsetAlignment),
		NonCoherentAtomSize:       uint64(l.NonCoherentAtomSize),
		MaxSamplerAnisotropy:      l.MaxSamplerAnisotropy,
		TimestampPeriod:           l.TimestampPeriod,
		FramebufferColorSamples:   uint32(l.FramebufferColorSampleCounts),
		FramebufferDepthSamples:   uint32(l.FramebufferDepthSampleCounts),
	}
}

func queueFamilyFrom(index uint32, p vk.QueueFamilyProperties) core.QueueFamily {
	return core.QueueFamily{
		Index:    index,
		Count:    p.QueueCount,
		Graphics: p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
		Compute:  p.QueueFlags&vk.QueueFlags(vk.QueueComputeBit) != 0,
		Transfer: p.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0,
	}
}

func capabilitiesFrom(c vk.SurfaceCapabilities) core.SurfaceCapabilities {
	c.CurrentExtent.Deref()
	c.MinImageExtent.Deref()
	c.MaxImageExtent.Deref()
	return core.SurfaceCapabilities{
		MinImageCount:           c.MinImageCount,
		MaxImageCount:           c.MaxImageCount,
		CurrentExtent:           core.Extent{Width: c.CurrentExtent.Width, Height: c.CurrentExtent.Height},
		MinImageExtent:          core.Extent{Width: c.MinImageExtent.Width, Height: c.MinImageExtent.Height},
		MaxImageExtent:          core.Extent{Width: c.MaxImageExtent.Width, Height: c.MaxImageExtent.Height},
		SupportedTransforms:     core.Transform(c.SupportedTransforms),
		CurrentTransform:        core.Transform(c.CurrentTransform),
		SupportedCompositeAlpha: core.CompositeAlpha(c.SupportedCompositeAlpha),
		SupportedUsage:          core.ImageUsage(c.SupportedUsageFlags),
	}
}

func samples(n uint32) vk.SampleCountFlagBits {
	if n == 0 {
		return vk.SampleCount1Bit
	}
	return vk.SampleCountFlagBits(n)
}

func loadOp(clear bool) vk.AttachmentLoadOp {
	if clear {
		return vk.AttachmentLoadOpClear
	}
	return vk.AttachmentLoadOpDontCare
}

func storeOp(store bool) vk.AttachmentStoreOp {
	if store {
		return vk.AttachmentStoreOpStore
	}
	return vk.AttachmentStoreOpDontCare
}

// renderPassInfo translates a single subpass render pass description.
func renderPassInfo(desc core.RenderPassDescriptor) vk.RenderPassCreateInfo {
	var (
		attachments []vk.AttachmentDescription
		colorRefs   []vk.AttachmentReference
		resolveRefs []vk.AttachmentReference
		depthRef    *vk.AttachmentReference
	)

	for idx, a := range desc.Attachments {
		ad := vk.AttachmentDescription{
			Format:         vk.Format(a.Format),
			Samples:        samples(a.Samples),
			LoadOp:         loadOp(a.Clear),
			StoreOp:        storeOp(a.Store),
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
		}
		ref := vk.AttachmentReference{Attachment: uint32(idx)}

		switch a.Kind {
		case core.AttachmentDepthStencil:
			if a.Format.HasStencil() {
				ad.StencilLoadOp = loadOp(a.Clear)
			}
			ad.FinalLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
			ref.Layout = vk.ImageLayoutDepthStencilAttachmentOptimal
			depthRef = &ref
		case core.AttachmentResolve:
			ad.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
			ref.Layout = vk.ImageLayoutColorAttachmentOptimal
			resolveRefs = append(resolveRefs, ref)
		default:
			ad.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
			ref.Layout = vk.ImageLayoutColorAttachmentOptimal
			colorRefs = append(colorRefs, ref)
		}
		if a.Present {
			ad.FinalLayout = vk.ImageLayoutPresentSrc
		}
		attachments = append(attachments, ad)
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	if len(resolveRefs) == len(colorRefs) && len(resolveRefs) > 0 {
		subpass.PResolveAttachments = resolveRefs
	}
	if depthRef != nil {
		subpass.PDepthStencilAttachment = depthRef
	}

	dependencies := []vk.SubpassDependency{{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}}
	if depthRef != nil {
		dependencies = append(dependencies, vk.SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
		})
	}

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}
}

func stageMasks(stages []core.PipelineStage) []vk.PipelineStageFlags {
	if len(stages) == 0 {
		return nil
	}
	masks := make([]vk.PipelineStageFlags, len(stages))
	for idx, s := range stages {
		masks[idx] = vk.PipelineStageFlags(s)
	}
	return masks
}
