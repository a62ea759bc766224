// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of Base
type State int

// Lifecycle states
const (
	Uninitialized State = iota
	Initialized
	Prepared
	Running
	Resizing
	Suspended
	ShuttingDown
	Destroyed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case Prepared:
		return "prepared"
	case Running:
		return "running"
	case Resizing:
		return "resizing"
	case Suspended:
		return "suspended"
	case ShuttingDown:
		return "shutting down"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// FrameState is the per frame bookkeeping of Base
type FrameState struct {
	// Frame counts presented frames
	Frame         uint64
	CurrentBuffer uint32
	// Timer is the animation timer in [-1, 1]
	Timer float32
	// FrameTimer is the duration of the last frame in seconds
	FrameTimer float32
	LastFPS    uint32
	Paused     bool
}

// OverlayFactory creates the text overlay from the overlay font
type OverlayFactory func(b *Base, font []byte) (Overlay, error)

// Option configures Base
type Option func(*Base)

// WithLogger sets the logger, the standard logrus logger is used otherwise
func WithLogger(log logrus.FieldLogger) Option {
	return func(b *Base) {
		b.log = log
	}
}

// WithClock replaces the high resolution clock
func WithClock(c Clock) Option {
	return func(b *Base) {
		b.clock = c
	}
}

// WithTargetBuilder replaces DefaultTargets
func WithTargetBuilder(t TargetBuilder) Option {
	return func(b *Base) {
		b.builder = t
	}
}

// WithOverlay enables the text overlay when Settings.Overlay is set
func WithOverlay(f OverlayFactory) Option {
	return func(b *Base) {
		b.overlayFactory = f
	}
}

// WithAssets sets the source shaders and the overlay font are read from
func WithAssets(a AssetSource) Option {
	return func(b *Base) {
		b.assets = a
	}
}

// Base owns the device, the swapchain, the command buffers, the render
// targets and the frame semaphores, and drives the frame loop of an Application.
// All methods must be called from the same goroutine.
type Base struct {
	cfg    Configuration
	driver Driver
	window Window
	app    Application

	log            logrus.FieldLogger
	clock          Clock
	builder        TargetBuilder
	assets         AssetSource
	overlayFactory OverlayFactory

	state         State
	device        *DeviceContext
	swapchain     *Swapchain
	commands      *CommandPool
	targets       *RenderTargets
	semaphores    SemaphoreSet
	pipelineCache Handle
	shaders       *ShaderCache

	overlay        Overlay
	overlayVisible bool

	destWidth     uint32
	destHeight    uint32
	resizePending bool
	quit          bool

	timer    FrameTimer
	fps      FPSCounter
	frame    FrameState
	lastTick time.Duration
}

// New creates an uninitialised Base for app
func New(cfg Configuration, driver Driver, window Window, app Application, opts ...Option) (*Base, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	if driver == nil || window == nil || app == nil {
		return nil, errors.New("driver, window and application are required")
	}
	b := &Base{
		cfg:            cfg,
		driver:         driver,
		window:         window,
		app:            app,
		log:            logrus.StandardLogger(),
		clock:          HRClock{},
		builder:        DefaultTargets{},
		destWidth:      cfg.Window.Width,
		destHeight:     cfg.Window.Height,
		overlayVisible: cfg.Settings.Overlay,
		timer:          FrameTimer{Speed: cfg.Renderer.TimerSpeed},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Initialize selects the device and creates the swapchain, the command
// buffers and the frame semaphores
func (b *Base) Initialize() error {
	if b.state != Uninitialized {
		return errors.Wrapf(ErrInvalidState, "initialize in state %s", b.state)
	}

	opts := DeviceOptions{
		Validation: b.cfg.Settings.Validation,
		Extensions: b.cfg.Renderer.DeviceExtensions,
		Features:   b.cfg.Renderer.Features,
		Preference: b.cfg.Renderer.DevicePreference,
		Log:        b.log,
	}
	if fs, ok := b.app.(FeatureSelector); ok {
		opts.SelectFeatures = fs.EnabledFeatures
	}
	device, err := NewDeviceContext(b.driver, opts)
	if err != nil {
		return err
	}
	b.device = device
	b.log.WithFields(logrus.Fields{
		"device": device.Physical.Name,
		"depth":  device.DepthFormat,
	}).Info("device selected")

	if w, h := b.window.FramebufferSize(); w > 0 && h > 0 {
		b.destWidth, b.destHeight = w, h
	}
	b.swapchain = NewSwapchain(b.driver, b.cfg.Renderer.SwapchainSize)
	if err := b.swapchain.Create(b.destWidth, b.destHeight, b.cfg.Settings.VSync); err != nil {
		return initError("swapchain", err)
	}

	if b.commands, err = NewCommandPool(b.driver, device.QueueFamily); err != nil {
		return initError("command pool", err)
	}
	if err := b.commands.Resize(int(b.swapchain.State().ImageCount)); err != nil {
		return initError("command buffers", err)
	}

	if b.semaphores, err = NewSemaphoreSet(b.driver); err != nil {
		return initError("semaphores", err)
	}

	b.shaders = NewShaderCache(b.driver, b.assets)
	b.setState(Initialized)
	return nil
}

// Prepare builds the render targets and the pipeline cache, runs the
// application's Prepare and records the first command buffers
func (b *Base) Prepare() error {
	if b.state != Initialized {
		return errors.Wrapf(ErrInvalidState, "prepare in state %s", b.state)
	}

	sc := b.swapchain.State()
	b.targets = NewRenderTargets(b.driver, b.builder, b.device.DepthFormat)
	if err := b.targets.SetupDepthStencil(sc.Extent); err != nil {
		return initError("depth stencil", err)
	}
	if _, err := b.targets.SetupRenderPass(sc.Format); err != nil {
		return initError("render pass", err)
	}
	if err := b.targets.SetupFramebuffers(sc); err != nil {
		return initError("framebuffers", err)
	}

	cache, err := b.driver.CreatePipelineCache()
	if err != nil {
		return initError("pipeline cache", err)
	}
	b.pipelineCache = cache

	if err := b.prepareOverlay(); err != nil {
		return initError("overlay", err)
	}

	if err := b.app.Prepare(b); err != nil {
		return errors.Wrap(err, "application prepare")
	}
	if err := b.rebuildCommandBuffers(); err != nil {
		return errors.Wrap(err, "application prepare")
	}
	b.updateOverlay()
	b.setState(Prepared)
	return nil
}

func (b *Base) prepareOverlay() error {
	if !b.cfg.Settings.Overlay {
		return nil
	}
	if b.overlayFactory == nil {
		b.log.Warn("overlay requested but no overlay is configured, overlay disabled")
		return nil
	}
	if b.assets == nil {
		b.log.Warn("overlay requested without an asset source, overlay disabled")
		return nil
	}
	font, err := b.assets.ReadFile(OverlayFont)
	if err != nil {
		b.log.WithError(err).WithField("asset", OverlayFont).Warn("overlay font missing, overlay disabled")
		return nil
	}
	overlay, err := b.overlayFactory(b, font)
	if err != nil {
		return err
	}
	if err := overlay.Prepare(b.swapchain.State()); err != nil {
		overlay.Destroy()
		return err
	}
	b.overlay = overlay
	return nil
}

// RenderLoop renders frames until the window is closed, Escape is pressed
// or ctx is done. Recoverable surface errors are handled internally,
// everything else stops the loop and is returned.
func (b *Base) RenderLoop(ctx context.Context) error {
	if b.state != Prepared {
		return errors.Wrapf(ErrInvalidState, "render loop in state %s", b.state)
	}
	b.setState(Running)
	b.lastTick = b.clock.Now()

	t := NewTime(b.cfg.Time)
	defer t.Stop()
	b.log.WithField("fps", t.Fps()).Debug("render loop started")

	for {
		select {
		case <-ctx.Done():
			return b.stopLoop()
		default:
		}

		b.handleEvents(b.window.Poll())
		if b.quit {
			return b.stopLoop()
		}

		if b.resizePending {
			if err := b.resize(); err != nil {
				return err
			}
		}

		if b.state == Suspended {
			select {
			case <-ctx.Done():
				return b.stopLoop()
			case <-t.EventTicker().C:
			}
			continue
		}

		if tk := t.FpsTicker(); tk != nil {
			select {
			case <-ctx.Done():
				return b.stopLoop()
			case <-tk.C:
			}
		}

		if err := b.RenderFrame(); err != nil {
			b.log.WithError(err).Error("frame failed")
			return err
		}
	}
}

func (b *Base) stopLoop() error {
	return errors.Wrap(b.driver.WaitIdle(), "wait idle")
}

// RenderFrame runs one acquire, record, submit, present cycle. A stale
// surface on acquire rebuilds the swapchain and skips the frame.
func (b *Base) RenderFrame() error {
	if b.state != Running {
		return errors.Wrapf(ErrInvalidState, "render frame in state %s", b.state)
	}

	now := b.clock.Now()
	delta := now - b.lastTick
	b.lastTick = now
	if !b.frame.Paused {
		b.timer.Advance(float32(delta.Seconds()))
	}

	chain := b.semaphores.Chain(b.overlayActive())
	index, suboptimal, err := b.swapchain.AcquireNextImage(chain.Acquire, b.cfg.Renderer.AcquireTimeout)
	if err != nil {
		if IsRecoverable(err) {
			b.log.WithError(err).Debug("acquire: surface stale")
			if w, h := b.window.FramebufferSize(); !b.resizePending {
				b.destWidth, b.destHeight = w, h
			}
			return b.resize()
		}
		return errors.Wrap(err, "acquire next image")
	}
	b.frame.CurrentBuffer = index

	if u, ok := b.app.(FrameUpdater); ok {
		if err := u.Update(b, FrameInfo{
			Index:      index,
			Frame:      b.frame.Frame,
			Timer:      b.timer.Value,
			FrameTimer: float32(delta.Seconds()),
			Delta:      delta,
		}); err != nil {
			return errors.Wrap(err, "frame update")
		}
	}

	if b.commands.Stale() {
		if err := b.rebuildCommandBuffers(); err != nil {
			return err
		}
	}

	buffer, err := b.commands.Buffer(index)
	if err != nil {
		return err
	}
	var overlayBuffer Handle
	if chain.Overlay {
		if overlayBuffer, err = b.overlay.CommandBuffer(index); err != nil {
			return errors.Wrap(err, "overlay command buffer")
		}
	}

	if err := b.driver.Submit(chain.RenderSubmission(buffer)); err != nil {
		return errors.Wrap(err, "submit")
	}
	b.commands.MarkSubmitted(index)
	if chain.Overlay {
		if err := b.driver.Submit(chain.OverlaySubmission(overlayBuffer)); err != nil {
			return errors.Wrap(err, "overlay submit")
		}
	}

	if err := b.swapchain.Present(index, chain.PresentWait); err != nil {
		if !IsRecoverable(err) {
			return errors.Wrap(err, "present")
		}
		b.log.WithError(err).Debug("present: surface stale")
		b.resizePending = true
	}
	if suboptimal {
		b.resizePending = true
	}

	b.frame.Frame++
	b.frame.FrameTimer = float32(delta.Seconds())
	b.frame.Timer = b.timer.Value
	if b.fps.Frame(delta) {
		b.frame.LastFPS = b.fps.Last()
		b.window.SetTitle(windowTitle(b.cfg.Window.Title, b.device.Physical.Name, b.frame.LastFPS))
		b.updateOverlay()
	}
	return nil
}

func (b *Base) overlayActive() bool {
	return b.overlay != nil && b.overlayVisible
}

// rebuildCommandBuffers waits for the device to drain, then has the
// application record every per image buffer
func (b *Base) rebuildCommandBuffers() error {
	if err := b.driver.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait idle")
	}
	if !CheckValid(b.commands.Buffers()) {
		return errors.Wrap(ErrInvalidState, "null command buffer")
	}
	if err := b.app.BuildCommandBuffers(b); err != nil {
		return errors.Wrap(err, "build command buffers")
	}
	b.commands.MarkRecorded()
	return nil
}

func (b *Base) updateOverlay() {
	if b.overlay == nil {
		return
	}
	text := &OverlayText{}
	text.AddLine(b.cfg.Window.Title)
	text.AddLine(b.device.Physical.Name)
	text.AddLinef("%.2fms (%d fps)", b.frame.FrameTimer*1000, b.frame.LastFPS)
	if p, ok := b.app.(OverlayTextProvider); ok {
		p.OverlayText(text)
	}
	if err := b.overlay.Update(text.Lines()); err != nil {
		b.log.WithError(err).Warn("overlay update failed")
	}
}

// Resize requests new render target dimensions. The request is honored
// at the next loop boundary, a zero dimension suspends rendering.
func (b *Base) Resize(width, height uint32) {
	b.destWidth, b.destHeight = width, height
	b.resizePending = true
}

// resize waits for the device, rebuilds the swapchain and the render
// targets and marks the command buffers stale
func (b *Base) resize() error {
	if b.state < Prepared || b.state >= ShuttingDown {
		return nil
	}
	b.resizePending = false
	if b.destWidth == 0 || b.destHeight == 0 {
		if b.state != Suspended {
			b.log.Info("window minimized, rendering suspended")
			b.setState(Suspended)
		}
		return nil
	}

	resume := b.state
	if resume == Suspended || resume == Resizing {
		resume = Running
	}
	b.setState(Resizing)

	if err := b.driver.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait idle")
	}

	b.targets.DestroyFramebuffers()
	b.targets.DestroyDepthStencil()

	if err := b.swapchain.Recreate(b.destWidth, b.destHeight, b.cfg.Settings.VSync); err != nil {
		return errors.Wrap(err, "recreate swapchain")
	}
	sc := b.swapchain.State()

	if err := b.targets.SetupDepthStencil(sc.Extent); err != nil {
		return err
	}
	if created, err := b.targets.SetupRenderPass(sc.Format); err != nil {
		return err
	} else if created {
		b.log.WithField("format", sc.Format).Debug("render pass recreated")
	}
	if err := b.targets.SetupFramebuffers(sc); err != nil {
		return err
	}
	if err := b.commands.Resize(int(sc.ImageCount)); err != nil {
		return err
	}
	b.commands.MarkStale()

	if b.overlay != nil {
		if err := b.overlay.Prepare(sc); err != nil {
			return errors.Wrap(err, "overlay")
		}
		b.updateOverlay()
	}

	if h, ok := b.app.(ResizeHandler); ok {
		h.WindowResized(b)
	}
	if h, ok := b.app.(ViewHandler); ok {
		h.ViewChanged(b)
	}

	b.log.WithFields(logrus.Fields{
		"width":  sc.Extent.Width,
		"height": sc.Extent.Height,
		"images": sc.ImageCount,
	}).Debug("swapchain resized")
	b.setState(resume)
	return nil
}

func (b *Base) handleEvents(events []Event) {
	for _, e := range events {
		switch e.Kind {
		case EventQuit:
			b.quit = true
		case EventResize:
			b.Resize(e.Width, e.Height)
		case EventMinimized:
			b.Resize(0, 0)
		case EventRestored:
			w, h := b.window.FramebufferSize()
			b.Resize(w, h)
		case EventKey:
			b.keyPressed(e.Key)
		}
	}
}

func (b *Base) keyPressed(key Key) {
	switch key {
	case KeyEscape:
		b.quit = true
	case Key('p'), Key('P'):
		b.frame.Paused = !b.frame.Paused
	case KeyF1:
		if b.overlay != nil {
			b.overlayVisible = !b.overlayVisible
		}
	}
	if h, ok := b.app.(KeyHandler); ok {
		h.KeyPressed(b, key)
	}
}

// Quit stops the render loop at the next boundary
func (b *Base) Quit() {
	b.quit = true
}

// MarkCommandBuffersStale forces the command buffers to be rebuilt before
// the next submission
func (b *Base) MarkCommandBuffersStale() {
	if b.commands != nil {
		b.commands.MarkStale()
	}
}

// LoadShader creates a shader module from the asset source,
// it is destroyed together with Base
func (b *Base) LoadShader(name string, stage ShaderType) (Shader, error) {
	if b.shaders == nil {
		return Shader{}, errors.Wrapf(ErrInvalidState, "load shader in state %s", b.state)
	}
	return b.shaders.Load(name, stage)
}

// Destroy waits for the device and releases everything in reverse
// creation order, the logical device last
func (b *Base) Destroy() {
	if b.state == Destroyed {
		return
	}
	b.setState(ShuttingDown)
	if err := b.driver.WaitIdle(); err != nil {
		b.log.WithError(err).Error("wait idle before shutdown")
	}

	if d, ok := b.app.(Destroyer); ok && b.device != nil {
		d.Destroy(b)
	}
	if b.overlay != nil {
		b.overlay.Destroy()
		b.overlay = nil
	}
	if b.shaders != nil {
		b.shaders.Destroy()
	}
	if b.pipelineCache != NullHandle {
		b.driver.DestroyPipelineCache(b.pipelineCache)
		b.pipelineCache = NullHandle
	}
	b.semaphores.Destroy(b.driver)
	if b.targets != nil {
		b.targets.Destroy()
	}
	if b.commands != nil {
		b.commands.Destroy()
	}
	if b.swapchain != nil {
		b.swapchain.Destroy()
	}
	b.driver.Destroy()
	b.setState(Destroyed)
}

func (b *Base) setState(s State) {
	if s == b.state {
		return
	}
	b.log.WithFields(logrus.Fields{"from": b.state, "to": s}).Debug("state change")
	b.state = s
}

// State returns the lifecycle state
func (b *Base) State() State {
	return b.state
}

// Config returns the configuration Base was created with
func (b *Base) Config() Configuration {
	return b.cfg
}

// Log returns the logger
func (b *Base) Log() logrus.FieldLogger {
	return b.log
}

// Driver returns the GPU driver
func (b *Base) Driver() Driver {
	return b.driver
}

// Device returns the device context
func (b *Base) Device() *DeviceContext {
	return b.device
}

// Swapchain returns the current swapchain state
func (b *Base) Swapchain() SwapchainState {
	if b.swapchain == nil {
		return SwapchainState{}
	}
	return b.swapchain.State()
}

// Targets returns the render targets
func (b *Base) Targets() *RenderTargets {
	return b.targets
}

// Commands returns the command pool
func (b *Base) Commands() *CommandPool {
	return b.commands
}

// CommandBuffers returns the per image command buffers for recording
func (b *Base) CommandBuffers() []Handle {
	if b.commands == nil {
		return nil
	}
	return b.commands.Buffers()
}

// PipelineCache returns the pipeline cache
func (b *Base) PipelineCache() Handle {
	return b.pipelineCache
}

// Frame returns the frame bookkeeping
func (b *Base) Frame() FrameState {
	return b.frame
}

// OverlayVisible reports whether the overlay is submitted this frame
func (b *Base) OverlayVisible() bool {
	return b.overlayActive()
}
