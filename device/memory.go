// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNoMemoryType is returned when no memory type satisfies a request
var ErrNoMemoryType = errors.New("suitable memory type not found")

// Memory defines a usable memory region.
type Memory struct {
	mapped bool
	size   uint
	device vk.Device
	memory vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.size
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Map maps the entire region and returns a pointer to it.
func (m *Memory) Map() (unsafe.Pointer, error) {
	var ptr unsafe.Pointer
	if err := vk.Error(vk.MapMemory(m.device, m.memory, 0, vk.DeviceSize(m.size), 0, &ptr)); err != nil {
		return nil, errors.Wrap(err, "vk.MapMemory()")
	}
	m.mapped = true
	return ptr, nil
}

// Write maps the region, copies data to its start and unmaps it again.
func (m *Memory) Write(data []byte) error {
	if uint(len(data)) > m.size {
		return errors.Errorf("writing %d bytes into %d bytes of memory", len(data), m.size)
	}
	ptr, err := m.Map()
	if err != nil {
		return err
	}
	vk.Memcopy(ptr, data)
	m.Unmap()
	return nil
}

// Unmap removes the memory mapping if it was mapped.
func (m *Memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device, m.memory)
		m.mapped = false
	}
}

// Release frees memory after unmapping it if previously mapped.
func (m *Memory) Release() {
	m.Unmap()
	vk.FreeMemory(m.device, m.memory, nil)
}

// NewMemoryAllocator creates an allocator for the logical device that
// picks memory types from the physical device's memory properties.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk ready for use.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (*Memory, error) {
	memTypeIdx, err := findMemoryType(ma.memProperties, req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return nil, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateMemory()")
	}
	return &Memory{
		size:   uint(req.Size),
		device: ma.device,
		memory: memory,
	}, nil
}

func findMemoryType(props vk.PhysicalDeviceMemoryProperties, filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < props.MemoryTypeCount; idx++ {
		props.MemoryTypes[idx].Deref()
		if filter&(1<<idx) != 0 && (props.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, ErrNoMemoryType
}

// Buffer implements a host visible vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	memory *Memory
}

// NewBuffer creates, allocates and binds a host visible buffer.
func NewBuffer(dev vk.Device, size uint, usage vk.BufferUsageFlagBits, ma *MemoryAllocator) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &createInfo, nil, &buffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateBuffer()")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &req)
	req.Deref()

	memory, err := ma.Malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		return nil, err
	}
	if err := vk.Error(vk.BindBufferMemory(dev, buffer, memory.Get(), 0)); err != nil {
		memory.Release()
		vk.DestroyBuffer(dev, buffer, nil)
		return nil, errors.Wrap(err, "vk.BindBufferMemory()")
	}

	return &Buffer{
		device: dev,
		buffer: buffer,
		memory: memory,
	}, nil
}

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return b.memory
}

// Get returns the vulkan Buffer handle.
func (b *Buffer) Get() vk.Buffer {
	return b.buffer
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
}
