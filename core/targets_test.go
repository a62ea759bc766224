// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDepthStencilAspect(t *testing.T) {
	c := qt.New(t)
	for _, test := range []struct {
		format Format
		aspect ImageAspect
	}{
		{FormatD24UnormS8Uint, AspectDepth | AspectStencil},
		{FormatD32Sfloat, AspectDepth},
		{FormatD16Unorm, AspectDepth},
	} {
		d := newFakeDriver()
		targets := NewRenderTargets(d, nil, test.format)
		c.Assert(targets.SetupDepthStencil(Extent{Width: 64, Height: 64}), qt.IsNil)
		c.Assert(d.viewDescs[0].Aspect, qt.Equals, test.aspect)
		targets.Destroy()
		c.Assert(len(d.live), qt.Equals, 0)
	}
}

type countingTargets struct {
	DefaultTargets
	passes int
}

func (t *countingTargets) RenderPass(d Driver, color, depth Format) (Handle, error) {
	t.passes++
	return t.DefaultTargets.RenderPass(d, color, depth)
}

func TestTargetBuilderIsReplaceable(t *testing.T) {
	c := qt.New(t)
	builder := &countingTargets{}
	f := newFixture(DefaultConfiguration(), WithTargetBuilder(builder))
	c.Assert(f.start(), qt.IsNil)
	c.Assert(builder.passes, qt.Equals, 1)

	f.base.Resize(100, 100)
	c.Assert(f.base.resize(), qt.IsNil)
	c.Assert(builder.passes, qt.Equals, 1)
}

func TestFramebufferPerImage(t *testing.T) {
	c := qt.New(t)
	d := newFakeDriver()
	sc := NewSwapchain(d, 3)
	c.Assert(sc.Create(64, 64, false), qt.IsNil)

	targets := NewRenderTargets(d, DefaultTargets{}, FormatD16Unorm)
	c.Assert(targets.SetupDepthStencil(sc.State().Extent), qt.IsNil)
	created, err := targets.SetupRenderPass(sc.State().Format)
	c.Assert(err, qt.IsNil)
	c.Assert(created, qt.Equals, true)
	created, err = targets.SetupRenderPass(sc.State().Format)
	c.Assert(err, qt.IsNil)
	c.Assert(created, qt.Equals, false)
	c.Assert(targets.SetupFramebuffers(sc.State()), qt.IsNil)
	c.Assert(len(targets.Framebuffers), qt.Equals, 3)
	c.Assert(d.problems, qt.DeepEquals, []string(nil))
}
