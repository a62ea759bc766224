// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SwapchainExtension is required on every device
const SwapchainExtension = "VK_KHR_swapchain"

// ValidationLayer is enabled when validation is requested
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// DepthFormats lists depth formats in preference order, first supported wins
var DepthFormats = []Format{
	FormatD32SfloatS8Uint,
	FormatD32Sfloat,
	FormatD24UnormS8Uint,
	FormatD16UnormS8Uint,
	FormatD16Unorm,
}

// DeviceOptions is the declarative device request
type DeviceOptions struct {
	Validation bool
	Extensions []string
	Features   Features
	Preference DevicePreference
	// SelectFeatures narrows the enabled features, may be nil
	SelectFeatures func(available Features) Features
	// Log receives the reasons devices were passed over, may be nil
	Log logrus.FieldLogger
}

// DeviceContext is the selected physical device and the logical device opened on it
type DeviceContext struct {
	Physical    PhysicalDevice
	QueueFamily uint32
	Extensions  []string
	Features    Features
	DepthFormat Format
}

// NewDeviceContext selects a physical device and opens a logical device on it.
func NewDeviceContext(driver Driver, opts DeviceOptions) (*DeviceContext, error) {
	devices, err := driver.PhysicalDevices()
	if err != nil {
		return nil, initError("enumerate devices", err)
	}

	dev, family, err := selectDevice(devices, opts)
	if err != nil {
		return nil, initError("select device", err)
	}

	features := opts.Features
	if opts.SelectFeatures != nil {
		features = opts.SelectFeatures(dev.Features)
	}
	if missing := features.Missing(dev.Features); len(missing) > 0 {
		return nil, initError("select features", errors.Wrapf(ErrFeatureUnsupported, "%s: %v", dev.Name, missing))
	}

	depth, err := chooseDepthFormat(driver, dev.Index)
	if err != nil {
		return nil, initError("depth format", err)
	}

	extensions := requiredExtensions(opts.Extensions)
	var layers []string
	if opts.Validation {
		layers = []string{ValidationLayer}
	}
	if err := driver.CreateLogicalDevice(LogicalDeviceDescriptor{
		PhysicalDevice: dev.Index,
		QueueFamily:    family,
		Extensions:     extensions,
		Layers:         layers,
		Features:       features,
	}); err != nil {
		return nil, initError("logical device", err)
	}

	return &DeviceContext{
		Physical:    dev,
		QueueFamily: family,
		Extensions:  extensions,
		Features:    features,
		DepthFormat: depth,
	}, nil
}

// Limits returns the device limits snapshot
func (d *DeviceContext) Limits() Limits {
	return d.Physical.Limits
}

func requiredExtensions(configured []string) []string {
	exts := []string{SwapchainExtension}
	for _, e := range configured {
		if e != SwapchainExtension {
			exts = append(exts, e)
		}
	}
	return exts
}

// selectDevice returns the first device, by preference, that has a queue family
// able to render and present. Missing extensions on every otherwise usable
// device yield ErrExtensionUnsupported instead of ErrDeviceUnavailable.
func selectDevice(devices []PhysicalDevice, opts DeviceOptions) (PhysicalDevice, uint32, error) {
	candidates := make([]PhysicalDevice, len(devices))
	copy(candidates, devices)
	if opts.Preference == DiscreteFirst {
		sort.SliceStable(candidates, func(i, j int) bool {
			return typeRank(candidates[i].Type) < typeRank(candidates[j].Type)
		})
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	required := requiredExtensions(opts.Extensions)
	var extErr error
	for _, dev := range candidates {
		family, ok := dev.GraphicsPresentFamily()
		if !ok {
			log.WithField("device", dev.Name).Debug("no queue family with graphics and present support")
			continue
		}
		var missing []string
		for _, e := range required {
			if !dev.HasExtension(e) {
				missing = append(missing, e)
			}
		}
		if len(missing) > 0 {
			log.WithFields(logrus.Fields{
				"device":  dev.Name,
				"missing": missing,
			}).Debug("device lacks required extensions")
			if extErr == nil {
				extErr = &ExtensionError{Device: dev.Name, Missing: missing}
			}
			continue
		}
		return dev, family, nil
	}
	if extErr != nil {
		return PhysicalDevice{}, 0, extErr
	}
	return PhysicalDevice{}, 0, ErrDeviceUnavailable
}

func typeRank(t DeviceType) int {
	switch t {
	case DeviceTypeDiscrete:
		return 0
	case DeviceTypeIntegrated:
		return 1
	case DeviceTypeVirtual:
		return 2
	case DeviceTypeCPU:
		return 3
	}
	return 4
}

func chooseDepthFormat(driver Driver, device int) (Format, error) {
	for _, f := range DepthFormats {
		if driver.SupportsDepthStencil(device, f) {
			return f, nil
		}
	}
	return FormatUndefined, errors.Wrap(ErrFeatureUnsupported, "no depth/stencil format")
}
