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

// Instance returns internal vk.Instance
func (v *Vulkan) Instance() vk.Instance {
	return v.instance
}

// Device returns the logical device
func (v *Vulkan) Device() vk.Device {
	return v.device
}

// PhysicalDevice returns the physical device the logical device runs on
func (v *Vulkan) PhysicalDevice() vk.PhysicalDevice {
	return v.gpu
}

// Queue returns the graphics and present queue
func (v *Vulkan) Queue() vk.Queue {
	return v.queue
}

// Allocator returns the device memory allocator
func (v *Vulkan) Allocator() *MemoryAllocator {
	return v.allocator
}

func (v *Vulkan) lookup(h core.Handle, kind string) (interface{}, error) {
	obj, ok := v.handles.get(h)
	if !ok {
		return nil, errors.Wrapf(core.ErrInvalidState, "unknown %s %d", kind, h)
	}
	return obj, nil
}

// CommandBuffer returns the command buffer behind the handle
func (v *Vulkan) CommandBuffer(h core.Handle) (vk.CommandBuffer, error) {
	obj, err := v.lookup(h, "command buffer")
	if err != nil {
		return nil, err
	}
	cmd, ok := obj.(vk.CommandBuffer)
	if !ok {
		return nil, errors.Wrapf(core.ErrInvalidState, "handle %d is not a command buffer", h)
	}
	return cmd, nil
}

// RenderPass returns the render pass behind the handle
func (v *Vulkan) RenderPass(h core.Handle) (vk.RenderPass, error) {
	obj, err := v.lookup(h, "render pass")
	if err != nil {
		return vk.NullRenderPass, err
	}
	pass, ok := obj.(vk.RenderPass)
	if !ok {
		return vk.NullRenderPass, errors.Wrapf(core.ErrInvalidState, "handle %d is not a render pass", h)
	}
	return pass, nil
}

// Framebuffer returns the framebuffer behind the handle
func (v *Vulkan) Framebuffer(h core.Handle) (vk.Framebuffer, error) {
	obj, err := v.lookup(h, "framebuffer")
	if err != nil {
		return vk.NullFramebuffer, err
	}
	fb, ok := obj.(vk.Framebuffer)
	if !ok {
		return vk.NullFramebuffer, errors.Wrapf(core.ErrInvalidState, "handle %d is not a framebuffer", h)
	}
	return fb, nil
}

// PipelineCache returns the pipeline cache behind the handle
func (v *Vulkan) PipelineCache(h core.Handle) (vk.PipelineCache, error) {
	obj, err := v.lookup(h, "pipeline cache")
	if err != nil {
		return nil, err
	}
	cache, ok := obj.(vk.PipelineCache)
	if !ok {
		return nil, errors.Wrapf(core.ErrInvalidState, "handle %d is not a pipeline cache", h)
	}
	return cache, nil
}

// ShaderModule returns the shader module behind the handle
func (v *Vulkan) ShaderModule(h core.Handle) (vk.ShaderModule, error) {
	obj, err := v.lookup(h, "shader module")
	if err != nil {
		return vk.NullShaderModule, err
	}
	module, ok := obj.(vk.ShaderModule)
	if !ok {
		return vk.NullShaderModule, errors.Wrapf(core.ErrInvalidState, "handle %d is not a shader module", h)
	}
	return module, nil
}

// Image returns the image behind the handle, swapchain images included
func (v *Vulkan) Image(h core.Handle) (vk.Image, error) {
	obj, err := v.lookup(h, "image")
	if err != nil {
		return vk.NullImage, err
	}
	img, ok := obj.(*vkImage)
	if !ok {
		return vk.NullImage, errors.Wrapf(core.ErrInvalidState, "handle %d is not an image", h)
	}
	return img.image, nil
}

// NewBuffer creates a host visible buffer and fills it with data.
func (v *Vulkan) NewBuffer(usage vk.BufferUsageFlagBits, data []byte) (*Buffer, error) {
	buf, err := NewBuffer(v.device, uint(len(data)), usage, v.allocator)
	if err != nil {
		return nil, err
	}
	if err := buf.Mem().Write(data); err != nil {
		buf.Release()
		return nil, err
	}
	return buf, nil
}
