// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// package errors
var (
	ErrDeviceUnavailable    = errors.New("no physical device with graphics and present support")
	ErrExtensionUnsupported = errors.New("required device extension is not supported")
	ErrFeatureUnsupported   = errors.New("required device feature is not supported")
	ErrSurfaceStale         = errors.New("presentation surface is out of date")
	ErrSurfaceLost          = errors.New("presentation surface lost")
	ErrDeviceLost           = errors.New("device lost")
	ErrStaleCommandBuffer   = errors.New("command buffer must be rebuilt before submission")
	ErrInvalidState         = errors.New("operation not valid in the current state")
)

// InitError reports which initialisation stage failed. It is fatal,
// no degraded rendering mode is attempted after it.
type InitError struct {
	Stage string
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialisation failed at %s: %s", e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *InitError) Unwrap() error {
	return e.Err
}

// Cause implements the pkg/errors causer.
func (e *InitError) Cause() error {
	return e.Err
}

func initError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InitError
	if errors.As(err, &ie) {
		return err
	}
	return &InitError{Stage: stage, Err: err}
}

// AssetLoadError is returned when an asset is missing or corrupt.
type AssetLoadError struct {
	Asset string
	Err   error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("loading asset %q: %s", e.Asset, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AssetLoadError) Unwrap() error {
	return e.Err
}

// Cause implements the pkg/errors causer.
func (e *AssetLoadError) Cause() error {
	return e.Err
}

// ExtensionError lists the required extensions a device lacks.
type ExtensionError struct {
	Device  string
	Missing []string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrExtensionUnsupported, e.Device, e.Missing)
}

// Unwrap makes errors.Is match ErrExtensionUnsupported.
func (e *ExtensionError) Unwrap() error {
	return ErrExtensionUnsupported
}

// IsRecoverable reports whether the frame loop can recover from err
// by rebuilding the swapchain.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSurfaceStale)
}
