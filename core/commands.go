// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
)

// SlotState is the lifecycle state of a per image command buffer
type SlotState int

// Command buffer slot states
const (
	SlotUnallocated SlotState = iota
	SlotFree
	SlotRecorded
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotFree:
		return "free"
	case SlotRecorded:
		return "recorded"
	case SlotSubmitted:
		return "submitted"
	}
	return "unallocated"
}

type commandSlot struct {
	buffer Handle
	state  SlotState
}

// CommandPool owns the command pool and one primary command buffer per
// swapchain image. Buffers start stale and have to be recorded before
// they can be submitted.
type CommandPool struct {
	driver Driver

	pool  Handle
	slots []commandSlot
	stale bool
}

// NewCommandPool creates the pool on the given queue family
func NewCommandPool(driver Driver, queueFamily uint32) (*CommandPool, error) {
	pool, err := driver.CreateCommandPool(queueFamily)
	if err != nil {
		return nil, errors.Wrap(err, "create command pool")
	}
	return &CommandPool{driver: driver, pool: pool, stale: true}, nil
}

// Handle returns the pool handle
func (c *CommandPool) Handle() Handle {
	return c.pool
}

// Allocate allocates count command buffers of the given level from the pool.
// The caller owns them and must Free them.
func (c *CommandPool) Allocate(count int, level CommandBufferLevel) ([]Handle, error) {
	buffers, err := c.driver.AllocateCommandBuffers(c.pool, count, level)
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffers")
	}
	return buffers, nil
}

// Free returns buffers to the pool
func (c *CommandPool) Free(buffers []Handle) {
	if len(buffers) == 0 {
		return
	}
	c.driver.FreeCommandBuffers(c.pool, buffers)
}

// Reset resets a single buffer so it can be recorded again
func (c *CommandPool) Reset(buffer Handle) error {
	if err := c.driver.ResetCommandBuffer(buffer); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}
	for i := range c.slots {
		if c.slots[i].buffer == buffer {
			c.slots[i].state = SlotFree
		}
	}
	return nil
}

// CheckValid reports whether all handles are non null
func CheckValid(buffers []Handle) bool {
	for _, b := range buffers {
		if b == NullHandle {
			return false
		}
	}
	return true
}

// Resize makes sure there is exactly one primary buffer per image.
// Buffers are reallocated only when the count changes, all slots become stale.
func (c *CommandPool) Resize(count int) error {
	if count == len(c.slots) {
		c.MarkStale()
		return nil
	}
	c.release()
	buffers, err := c.Allocate(count, CommandBufferLevelPrimary)
	if err != nil {
		return err
	}
	c.slots = make([]commandSlot, len(buffers))
	for i, b := range buffers {
		c.slots[i] = commandSlot{buffer: b, state: SlotFree}
	}
	c.stale = true
	return nil
}

// Buffers returns the per image buffers, for recording
func (c *CommandPool) Buffers() []Handle {
	buffers := make([]Handle, len(c.slots))
	for i, s := range c.slots {
		buffers[i] = s.buffer
	}
	return buffers
}

// Len returns the number of per image buffers
func (c *CommandPool) Len() int {
	return len(c.slots)
}

// State returns the state of the slot at index
func (c *CommandPool) State(index int) SlotState {
	if index < 0 || index >= len(c.slots) {
		return SlotUnallocated
	}
	return c.slots[index].state
}

// MarkStale flags every buffer for re-recording
func (c *CommandPool) MarkStale() {
	c.stale = true
}

// Stale reports whether the buffers need to be rebuilt
func (c *CommandPool) Stale() bool {
	return c.stale
}

// MarkRecorded clears the stale flag after all buffers were rebuilt
func (c *CommandPool) MarkRecorded() {
	for i := range c.slots {
		c.slots[i].state = SlotRecorded
	}
	c.stale = false
}

// MarkSubmitted records that the buffer at index was handed to the queue
func (c *CommandPool) MarkSubmitted(index uint32) {
	if int(index) < len(c.slots) {
		c.slots[index].state = SlotSubmitted
	}
}

// Buffer returns the buffer for the image at index if it can be submitted
func (c *CommandPool) Buffer(index uint32) (Handle, error) {
	if int(index) >= len(c.slots) {
		return NullHandle, errors.Errorf("no command buffer for image %d", index)
	}
	slot := c.slots[index]
	if c.stale || slot.state < SlotRecorded || slot.buffer == NullHandle {
		return NullHandle, errors.Wrapf(ErrStaleCommandBuffer, "image %d", index)
	}
	return slot.buffer, nil
}

// CreateCommandBuffer allocates a single buffer, optionally beginning it for one time use
func (c *CommandPool) CreateCommandBuffer(level CommandBufferLevel, begin bool) (Handle, error) {
	buffers, err := c.Allocate(1, level)
	if err != nil {
		return NullHandle, err
	}
	if begin {
		if err := c.driver.BeginCommandBuffer(buffers[0], true); err != nil {
			c.Free(buffers)
			return NullHandle, errors.Wrap(err, "begin command buffer")
		}
	}
	return buffers[0], nil
}

// FlushCommandBuffer ends buffer, submits it and waits for the queue to drain.
// The buffer is freed when free is set.
func (c *CommandPool) FlushCommandBuffer(buffer Handle, free bool) error {
	if buffer == NullHandle {
		return nil
	}
	if free {
		defer c.Free([]Handle{buffer})
	}
	if err := c.driver.EndCommandBuffer(buffer); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	if err := c.driver.Submit(Submission{CommandBuffers: []Handle{buffer}}); err != nil {
		return errors.Wrap(err, "submit command buffer")
	}
	return errors.Wrap(c.driver.QueueWaitIdle(), "queue wait idle")
}

// Destroy frees every buffer and destroys the pool
func (c *CommandPool) Destroy() {
	c.release()
	if c.pool != NullHandle {
		c.driver.DestroyCommandPool(c.pool)
		c.pool = NullHandle
	}
}

func (c *CommandPool) release() {
	c.Free(c.Buffers())
	c.slots = nil
}
