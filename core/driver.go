// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/pkg/errors"
)

// Handle is an opaque reference to an object owned by a Driver.
type Handle uint64

// NullHandle never refers to a live object.
const NullHandle Handle = 0

// Format identifies a pixel format. Values match the Vulkan enumeration,
// so drivers can convert them with a plain cast.
type Format int32

// Formats the engine reasons about directly
const (
	FormatUndefined       Format = 0
	FormatR8g8b8a8Unorm   Format = 37
	FormatB8g8r8a8Unorm   Format = 44
	FormatB8g8r8a8Srgb    Format = 50
	FormatD16Unorm        Format = 124
	FormatD32Sfloat       Format = 126
	FormatD16UnormS8Uint  Format = 128
	FormatD24UnormS8Uint  Format = 129
	FormatD32SfloatS8Uint Format = 130
)

// HasStencil reports whether the depth format carries a stencil component.
func (f Format) HasStencil() bool {
	switch f {
	case FormatD16UnormS8Uint, FormatD24UnormS8Uint, FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// ColorSpace identifies a presentation color space.
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the only color space every surface must support.
const ColorSpaceSrgbNonlinear ColorSpace = 0

// PresentMode values match the Vulkan enumeration.
type PresentMode int32

// Present modes
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// Transform is a surface transform bit.
type Transform uint32

// Surface transforms used by the swapchain manager
const (
	TransformIdentity Transform = 0x1
)

// CompositeAlpha is a composite alpha bit.
type CompositeAlpha uint32

// Composite alpha modes in preference order
const (
	CompositeAlphaOpaque         CompositeAlpha = 0x1
	CompositeAlphaPreMultiplied  CompositeAlpha = 0x2
	CompositeAlphaPostMultiplied CompositeAlpha = 0x4
	CompositeAlphaInherit        CompositeAlpha = 0x8
)

// ImageUsage is a set of image usage bits.
type ImageUsage uint32

// Image usages
const (
	ImageUsageTransferSrc            ImageUsage = 0x1
	ImageUsageTransferDst            ImageUsage = 0x2
	ImageUsageSampled                ImageUsage = 0x4
	ImageUsageColorAttachment        ImageUsage = 0x10
	ImageUsageDepthStencilAttachment ImageUsage = 0x20
)

// CommandBufferLevel selects primary or secondary command buffers.
type CommandBufferLevel int32

// Command buffer levels
const (
	CommandBufferLevelPrimary   CommandBufferLevel = 0
	CommandBufferLevelSecondary CommandBufferLevel = 1
)

// Extent is a two dimensional size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// QueueFamily describes the capabilities of one queue family.
type QueueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	Compute  bool
	Transfer bool
	Present  bool
}

// DeviceType classifies physical devices.
type DeviceType int

// Device types, values match Vulkan
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegrated
	DeviceTypeDiscrete
	DeviceTypeVirtual
	DeviceTypeCPU
)

var deviceTypeNames = []string{"other", "integrated", "discrete", "virtual", "cpu"}

func (t DeviceType) String() string {
	if t < 0 || int(t) >= len(deviceTypeNames) {
		return deviceTypeNames[DeviceTypeOther]
	}
	return deviceTypeNames[t]
}

// MarshalText implements encoding.TextMarshaler
func (t DeviceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *DeviceType) UnmarshalText(text []byte) error {
	for idx, name := range deviceTypeNames {
		if name == string(text) {
			*t = DeviceType(idx)
			return nil
		}
	}
	return errors.Errorf("unknown device type %q", text)
}

// Limits is a snapshot of the device limits the engine and applications
// commonly make decisions on.
type Limits struct {
	MaxImageDimension2D       uint32
	MaxPushConstantsSize      uint32
	MaxBoundDescriptorSets    uint32
	MaxFramebufferWidth       uint32
	MaxFramebufferHeight      uint32
	MinUniformBufferAlignment uint64
	NonCoherentAtomSize       uint64
	MaxSamplerAnisotropy      float32
	TimestampPeriod           float32
	FramebufferColorSamples   uint32
	FramebufferDepthSamples   uint32
}

// PhysicalDevice describes an enumerated rendering device.
type PhysicalDevice struct {
	Index         int
	ID            int
	VendorID      int
	DriverVersion int
	APIVersion    uint32
	Name          string
	Type          DeviceType
	Extensions    []string
	Layers        []string
	QueueFamilies []QueueFamily
	Features      Features
	Limits        Limits
	Memory        uint64
}

// GraphicsPresentFamily returns the first queue family that can both render
// and present to the surface.
func (p PhysicalDevice) GraphicsPresentFamily() (uint32, bool) {
	for _, qf := range p.QueueFamilies {
		if qf.Graphics && qf.Present {
			return qf.Index, true
		}
	}
	return 0, false
}

// HasExtension reports whether the device exposes the named extension.
func (p PhysicalDevice) HasExtension(name string) bool {
	for _, e := range p.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// LogicalDeviceDescriptor is everything needed to open a logical device.
type LogicalDeviceDescriptor struct {
	PhysicalDevice int
	QueueFamily    uint32
	Extensions     []string
	Layers         []string
	Features       Features
}

// SurfaceCapabilities mirrors what the presentation surface reports.
type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32
	CurrentExtent           Extent
	MinImageExtent          Extent
	MaxImageExtent          Extent
	SupportedTransforms     Transform
	CurrentTransform        Transform
	SupportedCompositeAlpha CompositeAlpha
	SupportedUsage          ImageUsage
}

// SurfaceFormat pairs a format with its color space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// SwapchainDescriptor is a fully resolved swapchain request.
type SwapchainDescriptor struct {
	MinImageCount  uint32
	Format         Format
	ColorSpace     ColorSpace
	Extent         Extent
	Usage          ImageUsage
	Transform      Transform
	CompositeAlpha CompositeAlpha
	PresentMode    PresentMode
	Old            Handle
}

// PresentDescriptor hands an acquired image back to the surface.
type PresentDescriptor struct {
	Swapchain  Handle
	ImageIndex uint32
	Wait       []Handle
}

// ImageDescriptor describes a device local 2D image.
type ImageDescriptor struct {
	Format  Format
	Extent  Extent
	Usage   ImageUsage
	Samples uint32
}

// ImageAspect selects the aspects an image view covers.
type ImageAspect uint32

// Image aspects
const (
	AspectColor   ImageAspect = 0x1
	AspectDepth   ImageAspect = 0x2
	AspectStencil ImageAspect = 0x4
)

// ImageViewDescriptor describes a 2D view of an image.
type ImageViewDescriptor struct {
	Image  Handle
	Format Format
	Aspect ImageAspect
}

// AttachmentKind tells how an attachment is used by the render pass.
type AttachmentKind int

// Attachment kinds
const (
	AttachmentColor AttachmentKind = iota
	AttachmentDepthStencil
	AttachmentResolve
)

// Attachment is one render pass attachment.
type Attachment struct {
	Kind    AttachmentKind
	Format  Format
	Samples uint32
	Clear   bool
	Store   bool
	// Present transitions the attachment to the presentable layout at the end of the pass.
	Present bool
}

// RenderPassDescriptor is a single subpass render pass.
type RenderPassDescriptor struct {
	Attachments []Attachment
}

// FramebufferDescriptor binds concrete views to a render pass.
type FramebufferDescriptor struct {
	RenderPass  Handle
	Attachments []Handle
	Extent      Extent
}

// PipelineStage is a set of pipeline stage bits used for semaphore waits.
type PipelineStage uint32

// Pipeline stages
const (
	StageTopOfPipe             PipelineStage = 0x1
	StageTransfer              PipelineStage = 0x1000
	StageColorAttachmentOutput PipelineStage = 0x400
	StageBottomOfPipe          PipelineStage = 0x2000
)

// Submission is one queue submission.
type Submission struct {
	Wait           []Handle
	WaitStages     []PipelineStage
	CommandBuffers []Handle
	Signal         []Handle
}

// Driver is the contract between the engine and a graphics API.
// All calls are issued from the control thread.
type Driver interface {
	// PhysicalDevices enumerates devices in the order the API reports them.
	PhysicalDevices() ([]PhysicalDevice, error)

	// SupportsDepthStencil reports whether the format can back a depth/stencil
	// attachment with optimal tiling on the given device.
	SupportsDepthStencil(device int, format Format) bool

	// CreateLogicalDevice opens the logical device and its queue.
	CreateLogicalDevice(desc LogicalDeviceDescriptor) error

	// WaitIdle blocks until the device finished all submitted work.
	WaitIdle() error

	// QueueWaitIdle blocks until the queue finished all submitted work.
	QueueWaitIdle() error

	SurfaceCapabilities() (SurfaceCapabilities, error)
	SurfaceFormats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)

	// CreateSwapchain returns the swapchain and its presentable images.
	CreateSwapchain(desc SwapchainDescriptor) (Handle, []Handle, error)
	DestroySwapchain(swapchain Handle)

	// AcquireNextImage returns the next presentable image. When suboptimal is
	// set the image was still acquired and the semaphore will be signaled.
	AcquireNextImage(swapchain Handle, timeout time.Duration, semaphore Handle) (index uint32, suboptimal bool, err error)
	Present(desc PresentDescriptor) error

	// CreateImage creates an image backed by device local memory.
	CreateImage(desc ImageDescriptor) (image, memory Handle, err error)
	DestroyImage(image, memory Handle)
	CreateImageView(desc ImageViewDescriptor) (Handle, error)
	DestroyImageView(view Handle)

	CreateRenderPass(desc RenderPassDescriptor) (Handle, error)
	DestroyRenderPass(pass Handle)
	CreateFramebuffer(desc FramebufferDescriptor) (Handle, error)
	DestroyFramebuffer(framebuffer Handle)
	CreatePipelineCache() (Handle, error)
	DestroyPipelineCache(cache Handle)

	CreateCommandPool(queueFamily uint32) (Handle, error)
	DestroyCommandPool(pool Handle)
	AllocateCommandBuffers(pool Handle, count int, level CommandBufferLevel) ([]Handle, error)
	FreeCommandBuffers(pool Handle, buffers []Handle)
	ResetCommandBuffer(buffer Handle) error
	BeginCommandBuffer(buffer Handle, oneTime bool) error
	EndCommandBuffer(buffer Handle) error

	CreateSemaphore() (Handle, error)
	DestroySemaphore(semaphore Handle)
	Submit(submission Submission) error

	CreateShaderModule(code []byte) (Handle, error)
	DestroyShaderModule(module Handle)

	// Destroy releases the logical device, the surface and the instance.
	Destroy()
}
