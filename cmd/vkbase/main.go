// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

//go:generate glslangValidator -V -o assets/shaders/mesh.vert.spv assets/shaders/mesh.vert
//go:generate glslangValidator -V -o assets/shaders/mesh.frag.spv assets/shaders/mesh.frag

package main

import (
	"context"
	"flag"
	"image"
	"runtime"
	"sync"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/xlab/closer"

	"github.com/devblok/vkbase/assets"
	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/device"
	"github.com/devblok/vkbase/overlay"
	"github.com/devblok/vkbase/platform"
)

func init() {
	runtime.LockOSThread()
}

var (
	envFile    = flag.String("env", ".env", "Environment file overlaid on the defaults")
	backend    = flag.String("window", platform.SDL, "Window backend, sdl or glfw")
	validation = flag.Bool("validation", false, "Enable the validation layers")
	vsync      = flag.Bool("vsync", false, "Force the FIFO present mode")
	fullscreen = flag.Bool("fullscreen", false, "Fullscreen window")
	showText   = flag.Bool("overlay", true, "Show the text overlay")
	width      = flag.Uint("width", 1280, "Window width")
	height     = flag.Uint("height", 720, "Window height")
	fps        = flag.Int("fps", 0, "Frames per second cap, 0 is unlimited")
	preference = flag.String("device", "first", "Device choice between qualifying devices, first or discrete")
	assetDir   = flag.String("assets", "assets", "Asset directory")
	archive    = flag.String("archive", "", "Optional kar archive searched after the asset directory")
	modelName  = flag.String("model", "models/model.dae", "Collada model asset, a triangle is drawn when missing")
	verbose    = flag.Bool("v", false, "Debug logging")
)

// configuration starts from the defaults, overlays the environment and
// then the flags given on the command line
func configuration() (core.Configuration, error) {
	cfg := core.DefaultConfiguration()
	cfg.Settings.Overlay = *showText
	if err := core.LoadEnv(&cfg, *envFile); err != nil {
		return cfg, err
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "validation":
			cfg.Settings.Validation = *validation
		case "vsync":
			cfg.Settings.VSync = *vsync
		case "fullscreen":
			cfg.Settings.Fullscreen = *fullscreen
		case "overlay":
			cfg.Settings.Overlay = *showText
		case "width":
			cfg.Window.Width = uint32(*width)
		case "height":
			cfg.Window.Height = uint32(*height)
		case "fps":
			cfg.Time.FramesPerSecond = *fps
		case "device":
			var p core.DevicePreference
			if p, err = core.ParseDevicePreference(*preference); err == nil {
				cfg.Renderer.DevicePreference = p
			}
		}
	})
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func assetSources() (core.AssetSource, func(), error) {
	chain := assets.Chain{
		assets.Dir(*assetDir),
		assets.FromBox(packr.NewBox("./assets")),
	}
	if *archive == "" {
		return chain, func() {}, nil
	}
	ar, err := assets.OpenArchive(*archive)
	if err != nil {
		return nil, nil, err
	}
	return append(chain, ar), func() { ar.Close() }, nil
}

func overlayFactory(v *device.Vulkan) core.OverlayFactory {
	return func(b *core.Base, font []byte) (core.Overlay, error) {
		text, err := overlay.NewText(font, overlay.DefaultSize)
		if err != nil {
			return nil, err
		}
		return device.NewTextOverlay(v, b.Device().QueueFamily, text, image.Pt(360, 6*text.LineHeight()))
	}
}

func main() {
	flag.Parse()
	defer closer.Close()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := configuration()
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		closer.Exit(1)
	}

	source, closeAssets, err := assetSources()
	if err != nil {
		log.WithError(err).Error("asset sources")
		closer.Exit(1)
	}
	closer.Bind(closeAssets)

	window, err := platform.Open(*backend, cfg)
	if err != nil {
		log.WithError(err).Error("window")
		closer.Exit(1)
	}

	driver, err := device.New(device.DefaultApplicationInfo, window, device.InstanceConfiguration{
		Validation: cfg.Settings.Validation,
	}, log.StandardLogger())
	if err != nil {
		window.Destroy()
		log.WithError(err).Error("vulkan")
		closer.Exit(1)
	}

	app := newMeshApp(driver, source, *modelName)
	base, err := core.New(cfg, driver, window, app,
		core.WithLogger(log.StandardLogger()),
		core.WithAssets(source),
		core.WithOverlay(overlayFactory(driver)),
	)
	if err != nil {
		driver.Destroy()
		window.Destroy()
		log.WithError(err).Error("engine")
		closer.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	stop := newShutdown(cancel)
	closer.Bind(stop.request)
	defer stop.finish(base.Destroy, window.Destroy)

	err = run(ctx, base)
	stop.finish(base.Destroy, window.Destroy)
	if err != nil {
		log.WithError(err).Error("render loop stopped")
		closer.Exit(1)
	}
}

// shutdown lets a signal stop the render loop while the teardown stays on
// the locked main thread. request runs on the closer goroutine and blocks
// until finish has run.
type shutdown struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newShutdown(cancel context.CancelFunc) *shutdown {
	return &shutdown{cancel: cancel, done: make(chan struct{})}
}

func (s *shutdown) request() {
	s.cancel()
	<-s.done
}

func (s *shutdown) finish(teardown ...func()) {
	s.once.Do(func() {
		for _, fn := range teardown {
			fn()
		}
		close(s.done)
	})
}

func run(ctx context.Context, base *core.Base) error {
	if err := base.Initialize(); err != nil {
		return err
	}
	if err := base.Prepare(); err != nil {
		return err
	}
	log.WithField("device", base.Device().Physical.Name).Info("rendering")
	return base.RenderLoop(ctx)
}
