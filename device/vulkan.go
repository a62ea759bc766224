// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
)

// Vulkan drives a Vulkan instance, its presentation surface and one
// logical device.
type Vulkan struct {
	log    logrus.FieldLogger
	layers []string

	instance vk.Instance
	surface  vk.Surface
	physical []vk.PhysicalDevice

	gpu       vk.PhysicalDevice
	device    vk.Device
	queue     vk.Queue
	allocator *MemoryAllocator

	handles         *registry
	swapchainImages map[core.Handle][]core.Handle
	commandPools    map[core.Handle]core.Handle
	destroyed       bool
}

var _ core.Driver = (*Vulkan)(nil)

type vkImage struct {
	image  vk.Image
	memory *Memory
}

// PhysicalDevices implements core.Driver
func (v *Vulkan) PhysicalDevices() ([]core.PhysicalDevice, error) {
	pdi := make([]core.PhysicalDevice, len(v.physical))
	for idx, gpu := range v.physical {
		info := &pdi[idx]
		info.Index = idx

		var numExtensions uint32
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &numExtensions, nil)); err != nil {
			return nil, errors.Wrapf(err, "vk.EnumerateDeviceExtensionProperties(%d)", idx)
		}
		extensions := make([]vk.ExtensionProperties, numExtensions)
		if err := vk.Error(vk.EnumerateDeviceExtensionProperties(gpu, "", &numExtensions, extensions)); err != nil {
			return nil, errors.Wrapf(err, "vk.EnumerateDeviceExtensionProperties(%d)", idx)
		}
		for _, ext := range extensions[:numExtensions] {
			ext.Deref()
			info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
		}

		var numLayers uint32
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(gpu, &numLayers, nil)); err != nil {
			return nil, errors.Wrapf(err, "vk.EnumerateDeviceLayerProperties(%d)", idx)
		}
		layers := make([]vk.LayerProperties, numLayers)
		if err := vk.Error(vk.EnumerateDeviceLayerProperties(gpu, &numLayers, layers)); err != nil {
			return nil, errors.Wrapf(err, "vk.EnumerateDeviceLayerProperties(%d)", idx)
		}
		for _, layer := range layers[:numLayers] {
			layer.Deref()
			info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
		}

		var memoryProperties vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(gpu, &memoryProperties)
		memoryProperties.Deref()
		for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
			memoryProperties.MemoryHeaps[iMem].Deref()
			info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
		}

		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(gpu, &properties)
		properties.Deref()
		properties.Limits.Deref()
		info.ID = int(properties.DeviceID)
		info.VendorID = int(properties.VendorID)
		info.DriverVersion = int(properties.DriverVersion)
		info.APIVersion = properties.ApiVersion
		info.Name = vk.ToString(properties.DeviceName[:])
		info.Type = core.DeviceType(properties.DeviceType)
		info.Limits = limitsFrom(properties.Limits)

		var features vk.PhysicalDeviceFeatures
		vk.GetPhysicalDeviceFeatures(gpu, &features)
		features.Deref()
		info.Features = featuresFrom(features)

		var numFamilies uint32
		vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &numFamilies, nil)
		families := make([]vk.QueueFamilyProperties, numFamilies)
		vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &numFamilies, families)
		for fIdx := uint32(0); fIdx < numFamilies; fIdx++ {
			families[fIdx].Deref()
			qf := queueFamilyFrom(fIdx, families[fIdx])
			if v.surface != vk.NullSurface {
				var supported vk.Bool32
				vk.GetPhysicalDeviceSurfaceSupport(gpu, fIdx, v.surface, &supported)
				qf.Present = supported.B()
			}
			info.QueueFamilies = append(info.QueueFamilies, qf)
		}
	}
	return pdi, nil
}

// SupportsDepthStencil implements core.Driver
func (v *Vulkan) SupportsDepthStencil(device int, format core.Format) bool {
	if device < 0 || device >= len(v.physical) {
		return false
	}
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(v.physical[device], vk.Format(format), &props)
	props.Deref()
	want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	return props.OptimalTilingFeatures&want == want
}

// CreateLogicalDevice implements core.Driver
func (v *Vulkan) CreateLogicalDevice(desc core.LogicalDeviceDescriptor) error {
	if desc.PhysicalDevice < 0 || desc.PhysicalDevice >= len(v.physical) {
		return errors.Wrapf(core.ErrDeviceUnavailable, "physical device %d", desc.PhysicalDevice)
	}
	gpu := v.physical[desc.PhysicalDevice]

	features := vkFeatures(desc.Features)
	dci := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: desc.QueueFamily,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(desc.Extensions)),
		PpEnabledExtensionNames: core.SafeStrings(desc.Extensions),
		EnabledLayerCount:       uint32(len(desc.Layers)),
		PpEnabledLayerNames:     core.SafeStrings(desc.Layers),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}

	var device vk.Device
	if err := resultError("vk.CreateDevice()", vk.CreateDevice(gpu, &dci, nil, &device)); err != nil {
		return err
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, desc.QueueFamily, 0, &queue)

	v.gpu = gpu
	v.device = device
	v.queue = queue
	v.allocator = NewMemoryAllocator(device, gpu)
	v.swapchainImages = make(map[core.Handle][]core.Handle)
	v.commandPools = make(map[core.Handle]core.Handle)
	return nil
}

// WaitIdle implements core.Driver
func (v *Vulkan) WaitIdle() error {
	if v.device == nil {
		return nil
	}
	return resultError("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(v.device))
}

// QueueWaitIdle implements core.Driver
func (v *Vulkan) QueueWaitIdle() error {
	return resultError("vk.QueueWaitIdle()", vk.QueueWaitIdle(v.queue))
}

// SurfaceCapabilities implements core.Driver
func (v *Vulkan) SurfaceCapabilities() (core.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := resultError("vk.GetPhysicalDeviceSurfaceCapabilities()", vk.GetPhysicalDeviceSurfaceCapabilities(v.gpu, v.surface, &caps)); err != nil {
		return core.SurfaceCapabilities{}, err
	}
	caps.Deref()
	return capabilitiesFrom(caps), nil
}

// SurfaceFormats implements core.Driver
func (v *Vulkan) SurfaceFormats() ([]core.SurfaceFormat, error) {
	var count uint32
	if err := resultError("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(v.gpu, v.surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := resultError("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(v.gpu, v.surface, &count, formats)); err != nil {
		return nil, err
	}
	out := make([]core.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, core.SurfaceFormat{Format: core.Format(f.Format), ColorSpace: core.ColorSpace(f.ColorSpace)})
	}
	return out, nil
}

// PresentModes implements core.Driver
func (v *Vulkan) PresentModes() ([]core.PresentMode, error) {
	var count uint32
	if err := resultError("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(v.gpu, v.surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := resultError("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(v.gpu, v.surface, &count, modes)); err != nil {
		return nil, err
	}
	out := make([]core.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, core.PresentMode(m))
	}
	return out, nil
}

// CreateSwapchain implements core.Driver
func (v *Vulkan) CreateSwapchain(desc core.SwapchainDescriptor) (core.Handle, []core.Handle, error) {
	old := vk.NullSwapchain
	if obj, ok := v.handles.get(desc.Old); ok {
		old = obj.(vk.Swapchain)
	}

	sci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         v.surface,
		MinImageCount:   desc.MinImageCount,
		ImageFormat:     vk.Format(desc.Format),
		ImageColorSpace: vk.ColorSpace(desc.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(desc.Usage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(desc.Transform),
		CompositeAlpha:   vk.CompositeAlphaFlagBits(desc.CompositeAlpha),
		PresentMode:      vk.PresentMode(desc.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}

	var swapchain vk.Swapchain
	if err := resultError("vk.CreateSwapchain()", vk.CreateSwapchain(v.device, &sci, nil, &swapchain)); err != nil {
		return core.NullHandle, nil, err
	}

	var count uint32
	if err := resultError("vk.GetSwapchainImages()", vk.GetSwapchainImages(v.device, swapchain, &count, nil)); err != nil {
		vk.DestroySwapchain(v.device, swapchain, nil)
		return core.NullHandle, nil, err
	}
	images := make([]vk.Image, count)
	if err := resultError("vk.GetSwapchainImages()", vk.GetSwapchainImages(v.device, swapchain, &count, images)); err != nil {
		vk.DestroySwapchain(v.device, swapchain, nil)
		return core.NullHandle, nil, err
	}

	h := v.handles.put(swapchain)
	imageHandles := make([]core.Handle, count)
	for idx, img := range images[:count] {
		imageHandles[idx] = v.handles.put(&vkImage{image: img})
	}
	v.swapchainImages[h] = imageHandles
	return h, imageHandles, nil
}

// DestroySwapchain implements core.Driver
func (v *Vulkan) DestroySwapchain(swapchain core.Handle) {
	obj, ok := v.handles.drop(swapchain)
	if !ok {
		return
	}
	for _, img := range v.swapchainImages[swapchain] {
		v.handles.drop(img)
	}
	delete(v.swapchainImages, swapchain)
	vk.DestroySwapchain(v.device, obj.(vk.Swapchain), nil)
}

// AcquireNextImage implements core.Driver. A zero timeout waits forever.
func (v *Vulkan) AcquireNextImage(swapchain core.Handle, timeout time.Duration, semaphore core.Handle) (uint32, bool, error) {
	sc, ok := v.handles.get(swapchain)
	if !ok {
		return 0, false, errors.Wrap(core.ErrInvalidState, "acquire from unknown swapchain")
	}
	sem, err := v.semaphore(semaphore)
	if err != nil {
		return 0, false, err
	}

	wait := uint64(vk.MaxUint64)
	if timeout > 0 {
		wait = uint64(timeout.Nanoseconds())
	}

	var index uint32
	ret := vk.AcquireNextImage(v.device, sc.(vk.Swapchain), wait, sem, vk.NullFence, &index)
	if ret == vk.Suboptimal {
		return index, true, nil
	}
	if err := resultError("vk.AcquireNextImage()", ret); err != nil {
		return 0, false, err
	}
	return index, false, nil
}

// Present implements core.Driver
func (v *Vulkan) Present(desc core.PresentDescriptor) error {
	sc, ok := v.handles.get(desc.Swapchain)
	if !ok {
		return errors.Wrap(core.ErrInvalidState, "present to unknown swapchain")
	}
	wait, err := v.semaphores(desc.Wait)
	if err != nil {
		return err
	}

	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(wait)),
		PWaitSemaphores:    wait,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.(vk.Swapchain)},
		PImageIndices:      []uint32{desc.ImageIndex},
	}
	return resultError("vk.QueuePresent()", vk.QueuePresent(v.queue, &info))
}

// CreateImage implements core.Driver
func (v *Vulkan) CreateImage(desc core.ImageDescriptor) (core.Handle, core.Handle, error) {
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       samples(desc.Samples),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	var img vk.Image
	if err := resultError("vk.CreateImage()", vk.CreateImage(v.device, &ici, nil, &img)); err != nil {
		return core.NullHandle, core.NullHandle, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(v.device, img, &req)
	req.Deref()

	memory, err := v.allocator.Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(v.device, img, nil)
		return core.NullHandle, core.NullHandle, err
	}
	if err := resultError("vk.BindImageMemory()", vk.BindImageMemory(v.device, img, memory.Get(), 0)); err != nil {
		memory.Release()
		vk.DestroyImage(v.device, img, nil)
		return core.NullHandle, core.NullHandle, err
	}

	return v.handles.put(&vkImage{image: img, memory: memory}), v.handles.put(memory), nil
}

// DestroyImage implements core.Driver
func (v *Vulkan) DestroyImage(img, memory core.Handle) {
	if obj, ok := v.handles.drop(img); ok {
		vk.DestroyImage(v.device, obj.(*vkImage).image, nil)
	}
	if obj, ok := v.handles.drop(memory); ok {
		obj.(*Memory).Release()
	}
}

// CreateImageView implements core.Driver
func (v *Vulkan) CreateImageView(desc core.ImageViewDescriptor) (core.Handle, error) {
	obj, ok := v.handles.get(desc.Image)
	if !ok {
		return core.NullHandle, errors.Wrap(core.ErrInvalidState, "view of unknown image")
	}

	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    obj.(*vkImage).image,
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(desc.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(desc.Aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := resultError("vk.CreateImageView()", vk.CreateImageView(v.device, &ivci, nil, &view)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(view), nil
}

// DestroyImageView implements core.Driver
func (v *Vulkan) DestroyImageView(view core.Handle) {
	if obj, ok := v.handles.drop(view); ok {
		vk.DestroyImageView(v.device, obj.(vk.ImageView), nil)
	}
}

// CreateRenderPass implements core.Driver
func (v *Vulkan) CreateRenderPass(desc core.RenderPassDescriptor) (core.Handle, error) {
	rpci := renderPassInfo(desc)
	var pass vk.RenderPass
	if err := resultError("vk.CreateRenderPass()", vk.CreateRenderPass(v.device, &rpci, nil, &pass)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(pass), nil
}

// DestroyRenderPass implements core.Driver
func (v *Vulkan) DestroyRenderPass(pass core.Handle) {
	if obj, ok := v.handles.drop(pass); ok {
		vk.DestroyRenderPass(v.device, obj.(vk.RenderPass), nil)
	}
}

// CreateFramebuffer implements core.Driver
func (v *Vulkan) CreateFramebuffer(desc core.FramebufferDescriptor) (core.Handle, error) {
	pass, err := v.RenderPass(desc.RenderPass)
	if err != nil {
		return core.NullHandle, err
	}
	views := make([]vk.ImageView, len(desc.Attachments))
	for idx, h := range desc.Attachments {
		obj, ok := v.handles.get(h)
		if !ok {
			return core.NullHandle, errors.Wrapf(core.ErrInvalidState, "framebuffer attachment %d", idx)
		}
		views[idx] = obj.(vk.ImageView)
	}

	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           desc.Extent.Width,
		Height:          desc.Extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := resultError("vk.CreateFramebuffer()", vk.CreateFramebuffer(v.device, &fci, nil, &framebuffer)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(framebuffer), nil
}

// DestroyFramebuffer implements core.Driver
func (v *Vulkan) DestroyFramebuffer(framebuffer core.Handle) {
	if obj, ok := v.handles.drop(framebuffer); ok {
		vk.DestroyFramebuffer(v.device, obj.(vk.Framebuffer), nil)
	}
}

// CreatePipelineCache implements core.Driver
func (v *Vulkan) CreatePipelineCache() (core.Handle, error) {
	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var cache vk.PipelineCache
	if err := resultError("vk.CreatePipelineCache()", vk.CreatePipelineCache(v.device, &pcci, nil, &cache)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(cache), nil
}

// DestroyPipelineCache implements core.Driver
func (v *Vulkan) DestroyPipelineCache(cache core.Handle) {
	if obj, ok := v.handles.drop(cache); ok {
		vk.DestroyPipelineCache(v.device, obj.(vk.PipelineCache), nil)
	}
}

// CreateCommandPool implements core.Driver
func (v *Vulkan) CreateCommandPool(queueFamily uint32) (core.Handle, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily,
	}
	var pool vk.CommandPool
	if err := resultError("vk.CreateCommandPool()", vk.CreateCommandPool(v.device, &cpci, nil, &pool)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(pool), nil
}

// DestroyCommandPool implements core.Driver. Buffers still allocated
// from the pool are released with it.
func (v *Vulkan) DestroyCommandPool(pool core.Handle) {
	obj, ok := v.handles.drop(pool)
	if !ok {
		return
	}
	for buf, owner := range v.commandPools {
		if owner == pool {
			v.handles.drop(buf)
			delete(v.commandPools, buf)
		}
	}
	vk.DestroyCommandPool(v.device, obj.(vk.CommandPool), nil)
}

// AllocateCommandBuffers implements core.Driver
func (v *Vulkan) AllocateCommandBuffers(pool core.Handle, count int, level core.CommandBufferLevel) ([]core.Handle, error) {
	obj, ok := v.handles.get(pool)
	if !ok {
		return nil, errors.Wrap(core.ErrInvalidState, "allocate from unknown command pool")
	}
	if count == 0 {
		return nil, nil
	}

	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        obj.(vk.CommandPool),
		Level:              vk.CommandBufferLevel(level),
		CommandBufferCount: uint32(count),
	}
	buffers := make([]vk.CommandBuffer, count)
	if err := resultError("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(v.device, &cbai, buffers)); err != nil {
		return nil, err
	}

	handles := make([]core.Handle, count)
	for idx, buf := range buffers {
		handles[idx] = v.handles.put(buf)
		v.commandPools[handles[idx]] = pool
	}
	return handles, nil
}

// FreeCommandBuffers implements core.Driver
func (v *Vulkan) FreeCommandBuffers(pool core.Handle, buffers []core.Handle) {
	obj, ok := v.handles.get(pool)
	if !ok {
		return
	}
	var free []vk.CommandBuffer
	for _, h := range buffers {
		if buf, ok := v.handles.drop(h); ok {
			free = append(free, buf.(vk.CommandBuffer))
			delete(v.commandPools, h)
		}
	}
	if len(free) > 0 {
		vk.FreeCommandBuffers(v.device, obj.(vk.CommandPool), uint32(len(free)), free)
	}
}

// ResetCommandBuffer implements core.Driver
func (v *Vulkan) ResetCommandBuffer(buffer core.Handle) error {
	cmd, err := v.CommandBuffer(buffer)
	if err != nil {
		return err
	}
	return resultError("vk.ResetCommandBuffer()", vk.ResetCommandBuffer(cmd, 0))
}

// BeginCommandBuffer implements core.Driver
func (v *Vulkan) BeginCommandBuffer(buffer core.Handle, oneTime bool) error {
	cmd, err := v.CommandBuffer(buffer)
	if err != nil {
		return err
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if oneTime {
		cbbi.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return resultError("vk.BeginCommandBuffer()", vk.BeginCommandBuffer(cmd, &cbbi))
}

// EndCommandBuffer implements core.Driver
func (v *Vulkan) EndCommandBuffer(buffer core.Handle) error {
	cmd, err := v.CommandBuffer(buffer)
	if err != nil {
		return err
	}
	return resultError("vk.EndCommandBuffer()", vk.EndCommandBuffer(cmd))
}

// CreateSemaphore implements core.Driver
func (v *Vulkan) CreateSemaphore() (core.Handle, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sem vk.Semaphore
	if err := resultError("vk.CreateSemaphore()", vk.CreateSemaphore(v.device, &sci, nil, &sem)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(sem), nil
}

// DestroySemaphore implements core.Driver
func (v *Vulkan) DestroySemaphore(semaphore core.Handle) {
	if obj, ok := v.handles.drop(semaphore); ok {
		vk.DestroySemaphore(v.device, obj.(vk.Semaphore), nil)
	}
}

// Submit implements core.Driver
func (v *Vulkan) Submit(s core.Submission) error {
	wait, err := v.semaphores(s.Wait)
	if err != nil {
		return err
	}
	signal, err := v.semaphores(s.Signal)
	if err != nil {
		return err
	}
	buffers := make([]vk.CommandBuffer, len(s.CommandBuffers))
	for idx, h := range s.CommandBuffers {
		if buffers[idx], err = v.CommandBuffer(h); err != nil {
			return err
		}
	}

	info := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(wait)),
		PWaitSemaphores:      wait,
		PWaitDstStageMask:    stageMasks(s.WaitStages),
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signal)),
		PSignalSemaphores:    signal,
	}
	return resultError("vk.QueueSubmit()", vk.QueueSubmit(v.queue, 1, []vk.SubmitInfo{info}, vk.NullFence))
}

// CreateShaderModule implements core.Driver
func (v *Vulkan) CreateShaderModule(code []byte) (core.Handle, error) {
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    core.SliceUint32(code),
	}
	var module vk.ShaderModule
	if err := resultError("vk.CreateShaderModule()", vk.CreateShaderModule(v.device, &smci, nil, &module)); err != nil {
		return core.NullHandle, err
	}
	return v.handles.put(module), nil
}

// DestroyShaderModule implements core.Driver
func (v *Vulkan) DestroyShaderModule(module core.Handle) {
	if obj, ok := v.handles.drop(module); ok {
		vk.DestroyShaderModule(v.device, obj.(vk.ShaderModule), nil)
	}
}

// Destroy implements core.Driver. Objects the engine leaked are logged,
// the device, the surface and the instance are released last.
func (v *Vulkan) Destroy() {
	if v == nil || v.destroyed {
		return
	}
	v.destroyed = true

	if v.device != nil {
		vk.DeviceWaitIdle(v.device)
		if n := v.handles.len(); n > 0 {
			v.log.WithField("handles", n).Warn("device destroyed with live objects")
		}
		vk.DestroyDevice(v.device, nil)
		v.device = nil
	}
	if v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = vk.NullSurface
	}
	vk.DestroyInstance(v.instance, nil)
	v.physical = nil
}

func (v *Vulkan) semaphore(h core.Handle) (vk.Semaphore, error) {
	obj, ok := v.handles.get(h)
	if !ok {
		return vk.NullSemaphore, errors.Wrapf(core.ErrInvalidState, "unknown semaphore %d", h)
	}
	return obj.(vk.Semaphore), nil
}

func (v *Vulkan) semaphores(handles []core.Handle) ([]vk.Semaphore, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	out := make([]vk.Semaphore, len(handles))
	for idx, h := range handles {
		sem, err := v.semaphore(h)
		if err != nil {
			return nil, err
		}
		out[idx] = sem
	}
	return out, nil
}
