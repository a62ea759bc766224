// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device implements the core.Driver contract on top of Vulkan.
package device

import (
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
)

// DefaultApplicationInfo describes the engine to the Vulkan loader
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "vkbase\x00",
	PEngineName:        "vkbase\x00",
}

// SurfaceProvider is the window side of presentation. It supplies the
// loader entry point, the instance extensions it needs and creates the
// surface once the instance exists.
type SurfaceProvider interface {
	InstanceProcAddr() unsafe.Pointer
	InstanceExtensions() []string
	CreateSurface(instance interface{}) (uintptr, error)
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	Validation bool
	Extensions []string
	Layers     []string
}

// New creates an instance, a presentation surface from the provider and
// enumerates the physical devices. A nil provider creates a headless
// instance that can only be used for enumeration.
func New(appInfo *vk.ApplicationInfo, provider SurfaceProvider, cfg InstanceConfiguration, log logrus.FieldLogger) (*Vulkan, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if appInfo == nil {
		appInfo = DefaultApplicationInfo
	}

	if provider == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(provider.InstanceProcAddr())
		cfg.Extensions = append(cfg.Extensions, provider.InstanceExtensions()...)
	}
	if cfg.Validation {
		cfg.Layers = append(cfg.Layers, core.ValidationLayer)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: core.SafeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     core.SafeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateInstance()")
	}
	vk.InitInstance(instance)

	v := &Vulkan{
		log:      log,
		layers:   cfg.Layers,
		instance: instance,
		surface:  vk.NullSurface,
		handles:  newRegistry(),
	}

	if provider != nil {
		ptr, err := provider.CreateSurface(instance)
		if err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, errors.Wrap(err, "create surface")
		}
		v.surface = vk.SurfaceFromPointer(ptr)
	}

	physical, err := enumerateDevices(instance)
	if err != nil {
		v.Destroy()
		return nil, err
	}
	v.physical = physical

	log.WithFields(logrus.Fields{
		"devices":    len(physical),
		"extensions": cfg.Extensions,
		"layers":     cfg.Layers,
	}).Debug("vulkan instance created")
	return v, nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, devices)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	return devices[:deviceCount], nil
}
