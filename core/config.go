// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvPrefix prefixes every environment key the configuration reads
const EnvPrefix = "VKBASE_"

// Configuration defines a global engine configuration setting.
// It is built once at startup and handed to the engine.
type Configuration struct {
	Settings Settings
	Window   WindowConfiguration
	Renderer RendererConfiguration
	Time     TimeConfiguration
}

// Settings are the user facing switches
type Settings struct {
	// Validation enables the validation layers
	Validation bool
	Fullscreen bool
	// VSync forces the FIFO present mode
	VSync bool
	// Overlay shows the text overlay, it requires a font asset
	Overlay bool
}

// WindowConfiguration describes the initial window
type WindowConfiguration struct {
	Title  string
	Name   string
	Width  uint32
	Height uint32
}

// DevicePreference decides between multiple qualifying devices
type DevicePreference int

// Device preferences
const (
	FirstEnumerated DevicePreference = iota
	DiscreteFirst
)

func (d DevicePreference) String() string {
	switch d {
	case DiscreteFirst:
		return "discrete"
	}
	return "first"
}

// ParseDevicePreference turns "first" or "discrete" into a DevicePreference
func ParseDevicePreference(s string) (DevicePreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first":
		return FirstEnumerated, nil
	case "discrete":
		return DiscreteFirst, nil
	}
	return FirstEnumerated, errors.Errorf("unknown device preference %q", s)
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// SwapchainSize is the desired presentable image count,
	// 0 picks one above the surface minimum
	SwapchainSize    uint32
	DeviceExtensions []string
	Features         Features
	DevicePreference DevicePreference

	// AcquireTimeout bounds image acquisition, expiry counts as a stale surface
	AcquireTimeout time.Duration

	// TimerSpeed scales the animation timer
	TimerSpeed float32
	ClearColor [4]float32
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay in milliseconds between event
	// polls while rendering is suspended
	EventPollDelay int
}

// Features is the set of optional device features the engine knows how to request
type Features struct {
	SamplerAnisotropy    bool
	FillModeNonSolid     bool
	WideLines            bool
	GeometryShader       bool
	TessellationShader   bool
	MultiViewport        bool
	DepthClamp           bool
	TextureCompressionBC bool
}

// Missing lists the features requested in f that avail does not provide
func (f Features) Missing(avail Features) []string {
	var missing []string
	check := func(name string, want, have bool) {
		if want && !have {
			missing = append(missing, name)
		}
	}
	check("samplerAnisotropy", f.SamplerAnisotropy, avail.SamplerAnisotropy)
	check("fillModeNonSolid", f.FillModeNonSolid, avail.FillModeNonSolid)
	check("wideLines", f.WideLines, avail.WideLines)
	check("geometryShader", f.GeometryShader, avail.GeometryShader)
	check("tessellationShader", f.TessellationShader, avail.TessellationShader)
	check("multiViewport", f.MultiViewport, avail.MultiViewport)
	check("depthClamp", f.DepthClamp, avail.DepthClamp)
	check("textureCompressionBC", f.TextureCompressionBC, avail.TextureCompressionBC)
	return missing
}

// DefaultConfiguration returns the configuration the demo starts from
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:  "Vulkan Example",
			Name:   "vulkanExample",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfiguration{
			SwapchainSize:  2,
			AcquireTimeout: time.Second,
			TimerSpeed:     0.25,
			ClearColor:     [4]float32{0.025, 0.025, 0.025, 1.0},
		},
		Time: TimeConfiguration{
			EventPollDelay: 10,
		},
	}
}

// Validate checks the configuration for values the engine cannot work with
func (c Configuration) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return errors.Errorf("window size %dx%d is invalid", c.Window.Width, c.Window.Height)
	}
	if c.Renderer.TimerSpeed < 0 {
		return errors.Errorf("timer speed %v is negative", c.Renderer.TimerSpeed)
	}
	if c.Renderer.AcquireTimeout < 0 {
		return errors.Errorf("acquire timeout %s is negative", c.Renderer.AcquireTimeout)
	}
	if c.Time.FramesPerSecond < 0 {
		return errors.Errorf("frames per second %d is negative", c.Time.FramesPerSecond)
	}
	if c.Time.EventPollDelay < 0 {
		return errors.Errorf("event poll delay %d is negative", c.Time.EventPollDelay)
	}
	return nil
}

// LoadEnv reads the given .env files, missing files are ignored,
// and overlays VKBASE_* variables onto cfg.
func LoadEnv(cfg *Configuration, files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "godotenv.Load(%s)", f)
		}
	}
	envy.Reload()
	return applyEnv(cfg, envy.Get)
}

func applyEnv(cfg *Configuration, get func(key, def string) string) error {
	var err error
	boolean := func(key string, dst *bool) {
		v := get(EnvPrefix+key, "")
		if v == "" || err != nil {
			return
		}
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
			return
		}
		*dst = b
	}
	integer := func(key string, bits int, set func(int64)) {
		v := get(EnvPrefix+key, "")
		if v == "" || err != nil {
			return
		}
		n, perr := strconv.ParseInt(v, 10, bits)
		if perr != nil {
			err = errors.Wrapf(perr, "%s%s", EnvPrefix, key)
			return
		}
		set(n)
	}

	boolean("VALIDATION", &cfg.Settings.Validation)
	boolean("FULLSCREEN", &cfg.Settings.Fullscreen)
	boolean("VSYNC", &cfg.Settings.VSync)
	boolean("OVERLAY", &cfg.Settings.Overlay)
	integer("WIDTH", 32, func(n int64) { cfg.Window.Width = uint32(n) })
	integer("HEIGHT", 32, func(n int64) { cfg.Window.Height = uint32(n) })
	integer("SWAPCHAIN_SIZE", 32, func(n int64) { cfg.Renderer.SwapchainSize = uint32(n) })
	integer("FPS", 32, func(n int64) { cfg.Time.FramesPerSecond = int(n) })
	if err != nil {
		return err
	}

	if v := get(EnvPrefix+"TITLE", ""); v != "" {
		cfg.Window.Title = v
	}
	if v := get(EnvPrefix+"DEVICE_EXTENSIONS", ""); v != "" {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.Renderer.DeviceExtensions = append(cfg.Renderer.DeviceExtensions, e)
			}
		}
	}
	if v := get(EnvPrefix+"DEVICE", ""); v != "" {
		p, perr := ParseDevicePreference(v)
		if perr != nil {
			return perr
		}
		cfg.Renderer.DevicePreference = p
	}
	if v := get(EnvPrefix+"ACQUIRE_TIMEOUT", ""); v != "" {
		d, perr := time.ParseDuration(v)
		if perr != nil {
			return errors.Wrapf(perr, "%sACQUIRE_TIMEOUT", EnvPrefix)
		}
		cfg.Renderer.AcquireTimeout = d
	}
	return nil
}
