// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type semEvent struct {
	signal bool
	sem    Handle
}

type acquireResult struct {
	err        error
	suboptimal bool
}

// fakeDriver records everything the engine asks of the GPU
type fakeDriver struct {
	next Handle
	live map[Handle]string

	devices []PhysicalDevice
	depth   map[Format]bool
	caps    SurfaceCapabilities
	formats []SurfaceFormat
	modes   []PresentMode

	logical    *LogicalDeviceDescriptor
	swapchains []SwapchainDescriptor
	images     map[Handle][]Handle
	acquires   []acquireResult
	presentErr []error
	nextImage  uint32

	calls       []string
	events      []semEvent
	submissions []Submission
	presents    []PresentDescriptor
	viewDescs   []ImageViewDescriptor
	problems    []string
	destroyed   bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		live: map[Handle]string{},
		devices: []PhysicalDevice{{
			Index:      0,
			Name:       "fake gpu",
			Type:       DeviceTypeIntegrated,
			Extensions: []string{SwapchainExtension},
			QueueFamilies: []QueueFamily{
				{Index: 0, Count: 1, Graphics: true, Present: true},
			},
			Features: Features{SamplerAnisotropy: true},
		}},
		depth: map[Format]bool{FormatD24UnormS8Uint: true, FormatD16Unorm: true},
		caps: SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           3,
			CurrentExtent:           Extent{Width: undefinedExtent, Height: undefinedExtent},
			MinImageExtent:          Extent{Width: 1, Height: 1},
			MaxImageExtent:          Extent{Width: 4096, Height: 4096},
			SupportedTransforms:     TransformIdentity,
			CurrentTransform:        TransformIdentity,
			SupportedCompositeAlpha: CompositeAlphaOpaque,
			SupportedUsage:          ImageUsageColorAttachment | ImageUsageTransferDst,
		},
		formats: []SurfaceFormat{{Format: FormatB8g8r8a8Unorm}},
		modes:   []PresentMode{PresentModeFifo, PresentModeMailbox},
		images:  map[Handle][]Handle{},
	}
}

func (f *fakeDriver) create(kind string) Handle {
	f.next++
	f.live[f.next] = kind
	return f.next
}

func (f *fakeDriver) release(h Handle, kind string) {
	if got, ok := f.live[h]; !ok || got != kind {
		f.problems = append(f.problems, fmt.Sprintf("destroy %s %d: live as %q", kind, h, got))
		return
	}
	delete(f.live, h)
}

func (f *fakeDriver) count(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeDriver) call(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeDriver) PhysicalDevices() ([]PhysicalDevice, error) {
	return f.devices, nil
}

func (f *fakeDriver) SupportsDepthStencil(device int, format Format) bool {
	return f.depth[format]
}

func (f *fakeDriver) CreateLogicalDevice(desc LogicalDeviceDescriptor) error {
	f.logical = &desc
	return nil
}

func (f *fakeDriver) WaitIdle() error {
	f.call("waitIdle")
	return nil
}

func (f *fakeDriver) QueueWaitIdle() error {
	f.call("queueWaitIdle")
	return nil
}

func (f *fakeDriver) SurfaceCapabilities() (SurfaceCapabilities, error) {
	return f.caps, nil
}

func (f *fakeDriver) SurfaceFormats() ([]SurfaceFormat, error) {
	return f.formats, nil
}

func (f *fakeDriver) PresentModes() ([]PresentMode, error) {
	return f.modes, nil
}

func (f *fakeDriver) CreateSwapchain(desc SwapchainDescriptor) (Handle, []Handle, error) {
	f.call("createSwapchain")
	f.swapchains = append(f.swapchains, desc)
	sc := f.create("swapchain")
	images := make([]Handle, desc.MinImageCount)
	for i := range images {
		f.next++
		images[i] = f.next
	}
	f.images[sc] = images
	return sc, images, nil
}

func (f *fakeDriver) DestroySwapchain(swapchain Handle) {
	f.release(swapchain, "swapchain")
	delete(f.images, swapchain)
}

func (f *fakeDriver) AcquireNextImage(swapchain Handle, timeout time.Duration, semaphore Handle) (uint32, bool, error) {
	f.call("acquire")
	var res acquireResult
	if len(f.acquires) > 0 {
		res, f.acquires = f.acquires[0], f.acquires[1:]
	}
	if res.err != nil {
		return 0, false, res.err
	}
	f.events = append(f.events, semEvent{signal: true, sem: semaphore})
	n := uint32(len(f.images[swapchain]))
	index := f.nextImage % n
	f.nextImage++
	return index, res.suboptimal, nil
}

func (f *fakeDriver) Present(desc PresentDescriptor) error {
	f.call("present")
	for _, w := range desc.Wait {
		f.events = append(f.events, semEvent{sem: w})
	}
	f.presents = append(f.presents, desc)
	if len(f.presentErr) > 0 {
		var err error
		err, f.presentErr = f.presentErr[0], f.presentErr[1:]
		return err
	}
	return nil
}

func (f *fakeDriver) CreateImage(desc ImageDescriptor) (Handle, Handle, error) {
	return f.create("image"), f.create("memory"), nil
}

func (f *fakeDriver) DestroyImage(image, memory Handle) {
	f.release(image, "image")
	f.release(memory, "memory")
}

func (f *fakeDriver) CreateImageView(desc ImageViewDescriptor) (Handle, error) {
	f.viewDescs = append(f.viewDescs, desc)
	return f.create("view"), nil
}

func (f *fakeDriver) DestroyImageView(view Handle) {
	f.release(view, "view")
}

func (f *fakeDriver) CreateRenderPass(desc RenderPassDescriptor) (Handle, error) {
	f.call("createRenderPass")
	return f.create("renderPass"), nil
}

func (f *fakeDriver) DestroyRenderPass(pass Handle) {
	f.release(pass, "renderPass")
}

func (f *fakeDriver) CreateFramebuffer(desc FramebufferDescriptor) (Handle, error) {
	if _, ok := f.live[desc.RenderPass]; !ok {
		f.problems = append(f.problems, "framebuffer without render pass")
	}
	return f.create("framebuffer"), nil
}

func (f *fakeDriver) DestroyFramebuffer(framebuffer Handle) {
	f.release(framebuffer, "framebuffer")
}

func (f *fakeDriver) CreatePipelineCache() (Handle, error) {
	return f.create("pipelineCache"), nil
}

func (f *fakeDriver) DestroyPipelineCache(cache Handle) {
	f.release(cache, "pipelineCache")
}

func (f *fakeDriver) CreateCommandPool(queueFamily uint32) (Handle, error) {
	return f.create("commandPool"), nil
}

func (f *fakeDriver) DestroyCommandPool(pool Handle) {
	f.release(pool, "commandPool")
}

func (f *fakeDriver) AllocateCommandBuffers(pool Handle, count int, level CommandBufferLevel) ([]Handle, error) {
	buffers := make([]Handle, count)
	for i := range buffers {
		buffers[i] = f.create("commandBuffer")
	}
	return buffers, nil
}

func (f *fakeDriver) FreeCommandBuffers(pool Handle, buffers []Handle) {
	for _, b := range buffers {
		f.release(b, "commandBuffer")
	}
}

func (f *fakeDriver) ResetCommandBuffer(buffer Handle) error {
	return nil
}

func (f *fakeDriver) BeginCommandBuffer(buffer Handle, oneTime bool) error {
	f.call("begin")
	return nil
}

func (f *fakeDriver) EndCommandBuffer(buffer Handle) error {
	f.call("end")
	return nil
}

func (f *fakeDriver) CreateSemaphore() (Handle, error) {
	return f.create("semaphore"), nil
}

func (f *fakeDriver) DestroySemaphore(semaphore Handle) {
	f.release(semaphore, "semaphore")
}

func (f *fakeDriver) Submit(s Submission) error {
	f.call("submit")
	for _, w := range s.Wait {
		f.events = append(f.events, semEvent{sem: w})
	}
	for _, sig := range s.Signal {
		f.events = append(f.events, semEvent{signal: true, sem: sig})
	}
	f.submissions = append(f.submissions, s)
	return nil
}

func (f *fakeDriver) CreateShaderModule(code []byte) (Handle, error) {
	return f.create("shader"), nil
}

func (f *fakeDriver) DestroyShaderModule(module Handle) {
	f.release(module, "shader")
}

func (f *fakeDriver) Destroy() {
	f.destroyed = true
}

// checkSemaphores replays the signal/wait events and reports any
// double signal or wait on an unsignaled semaphore
func (f *fakeDriver) checkSemaphores() error {
	pending := map[Handle]bool{}
	for i, e := range f.events {
		if e.signal {
			if pending[e.sem] {
				return errors.Errorf("event %d: semaphore %d signaled twice", i, e.sem)
			}
			pending[e.sem] = true
			continue
		}
		if !pending[e.sem] {
			return errors.Errorf("event %d: semaphore %d waited without signal", i, e.sem)
		}
		pending[e.sem] = false
	}
	for sem, p := range pending {
		if p {
			return errors.Errorf("semaphore %d left signaled", sem)
		}
	}
	return nil
}

type fakeWindow struct {
	width, height uint32
	events        [][]Event
	title         string
	titles        int
}

func (w *fakeWindow) Poll() []Event {
	if len(w.events) == 0 {
		return nil
	}
	e := w.events[0]
	w.events = w.events[1:]
	return e
}

func (w *fakeWindow) FramebufferSize() (uint32, uint32) {
	return w.width, w.height
}

func (w *fakeWindow) SetTitle(title string) {
	w.title = title
	w.titles++
}

func (w *fakeWindow) Destroy() {}

type fakeApp struct {
	driver   *fakeDriver
	prepared int
	builds   int
	resized  int
	viewed   int
	updates  int
	keys     []Key
	features *Features
	// staleUpdates is how many upcoming Update calls mark the buffers stale
	staleUpdates int
}

func (a *fakeApp) Prepare(b *Base) error {
	a.prepared++
	return nil
}

func (a *fakeApp) BuildCommandBuffers(b *Base) error {
	a.builds++
	a.driver.call("build")
	for _, cmd := range b.CommandBuffers() {
		if err := b.Driver().BeginCommandBuffer(cmd, false); err != nil {
			return err
		}
		if err := b.Driver().EndCommandBuffer(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (a *fakeApp) Update(b *Base, frame FrameInfo) error {
	a.updates++
	if a.staleUpdates > 0 {
		a.staleUpdates--
		b.MarkCommandBuffersStale()
	}
	return nil
}

func (a *fakeApp) KeyPressed(b *Base, key Key) {
	a.keys = append(a.keys, key)
}

func (a *fakeApp) WindowResized(b *Base) {
	a.resized++
}

func (a *fakeApp) ViewChanged(b *Base) {
	a.viewed++
}

func (a *fakeApp) OverlayText(o *OverlayText) {
	o.AddLine("fake app")
}

type fakeOverlay struct {
	driver   *fakeDriver
	prepares int
	lines    []string
	buffer   Handle
}

func (o *fakeOverlay) Prepare(sc SwapchainState) error {
	o.prepares++
	if o.buffer == NullHandle {
		o.buffer = o.driver.create("overlayBuffer")
	}
	return nil
}

func (o *fakeOverlay) Update(lines []string) error {
	o.lines = lines
	return nil
}

func (o *fakeOverlay) CommandBuffer(index uint32) (Handle, error) {
	return o.buffer, nil
}

func (o *fakeOverlay) Destroy() {
	o.driver.release(o.buffer, "overlayBuffer")
}

type mapAssets map[string][]byte

func (m mapAssets) ReadFile(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

// stepClock advances by step on every reading
type stepClock struct {
	now, step time.Duration
}

func (c *stepClock) Now() time.Duration {
	c.now += c.step
	return c.now
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

type fixture struct {
	driver  *fakeDriver
	window  *fakeWindow
	app     *fakeApp
	overlay *fakeOverlay
	clock   *stepClock
	base    *Base
}

func newFixture(cfg Configuration, opts ...Option) *fixture {
	d := newFakeDriver()
	f := &fixture{
		driver:  d,
		window:  &fakeWindow{width: 800, height: 600},
		app:     &fakeApp{driver: d},
		overlay: &fakeOverlay{driver: d},
		clock:   &stepClock{step: 100 * time.Millisecond},
	}
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithClock(f.clock),
		WithAssets(mapAssets{OverlayFont: []byte("font")}),
		WithOverlay(func(b *Base, font []byte) (Overlay, error) {
			return f.overlay, nil
		}),
	}, opts...)
	b, err := New(cfg, f.driver, f.window, f.app, opts...)
	if err != nil {
		panic(err)
	}
	f.base = b
	return f
}

// start initializes and prepares the base and puts it in the running state
// without entering the blocking loop
func (f *fixture) start() error {
	if err := f.base.Initialize(); err != nil {
		return err
	}
	if err := f.base.Prepare(); err != nil {
		return err
	}
	f.base.setState(Running)
	f.base.lastTick = f.clock.Now()
	return nil
}
