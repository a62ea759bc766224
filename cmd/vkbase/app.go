// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/device"
	"github.com/devblok/vkbase/model"
)

const (
	vertexShader   = "shaders/mesh.vert.spv"
	fragmentShader = "shaders/mesh.frag.spv"
	mvpSize        = 64
)

// meshApp draws a single mesh with a push constant transform
type meshApp struct {
	vk     *device.Vulkan
	assets core.AssetSource
	model  string

	mesh     *model.Mesh
	vertices *device.Buffer
	shaders  []core.Shader

	pass     core.Handle
	layout   vk.PipelineLayout
	pipeline vk.Pipeline

	camera camera
}

func newMeshApp(v *device.Vulkan, assets core.AssetSource, modelName string) *meshApp {
	return &meshApp{
		vk:     v,
		assets: assets,
		model:  modelName,
		camera: newCamera(),
	}
}

// Prepare implements core.Application
func (a *meshApp) Prepare(b *core.Base) error {
	if max := b.Device().Limits().MaxPushConstantsSize; max < mvpSize {
		return errors.Errorf("device allows %d bytes of push constants, %d needed", max, mvpSize)
	}
	a.mesh = a.loadMesh(b.Log())

	buf, err := a.vk.NewBuffer(vk.BufferUsageVertexBufferBit, model.VertexBytes(a.mesh.Vertices()))
	if err != nil {
		return errors.Wrap(err, "vertex buffer")
	}
	a.vertices = buf

	for _, name := range []string{vertexShader, fragmentShader} {
		shader, err := b.LoadShader(name, core.UnknownShaderType)
		if err != nil {
			return err
		}
		a.shaders = append(a.shaders, shader)
	}

	if err := a.createPipelineLayout(); err != nil {
		return err
	}
	return a.createPipeline(b)
}

func (a *meshApp) loadMesh(logger log.FieldLogger) *model.Mesh {
	if a.model == "" {
		return model.Triangle()
	}
	data, err := a.assets.ReadFile(a.model)
	if err != nil {
		logger.WithError(err).WithField("asset", a.model).Warn("model not loaded, drawing a triangle")
		return model.Triangle()
	}
	mesh, err := model.ImportCollada(data)
	if err != nil {
		logger.WithError(err).WithField("asset", a.model).Warn("model not imported, drawing a triangle")
		return model.Triangle()
	}
	return mesh
}

func (a *meshApp) createPipelineLayout() error {
	info := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Size:       mvpSize,
		}},
	}
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(a.vk.Device(), &info, nil, &layout)); err != nil {
		return errors.Wrap(err, "vk.CreatePipelineLayout()")
	}
	a.layout = layout
	return nil
}

func shaderStage(t core.ShaderType) (vk.ShaderStageFlagBits, error) {
	switch t {
	case core.VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case core.FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	}
	return 0, errors.Errorf("unsupported shader type %s", t)
}

func (a *meshApp) createPipeline(b *core.Base) error {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(a.shaders))
	for idx, shader := range a.shaders {
		stage, err := shaderStage(shader.Type)
		if err != nil {
			return err
		}
		module, err := a.vk.ShaderModule(shader.Module)
		if err != nil {
			return err
		}
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: module,
			PName:  "main\x00",
		}
	}

	pass, err := a.vk.RenderPass(b.Targets().RenderPass)
	if err != nil {
		return err
	}
	cache, err := a.vk.PipelineCache(b.PipelineCache())
	if err != nil {
		return err
	}

	bindings := model.VertexBindingDescriptions()
	attributes := model.VertexAttributeDescriptions()
	info := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeNone),
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:  vk.True,
			DepthWriteEnable: vk.True,
			DepthCompareOp:   vk.CompareOpLessOrEqual,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:     a.layout,
		RenderPass: pass,
	}}

	pipelines := make([]vk.Pipeline, len(info))
	if err := vk.Error(vk.CreateGraphicsPipelines(a.vk.Device(), cache, uint32(len(info)), info, nil, pipelines)); err != nil {
		return errors.Wrap(err, "vk.CreateGraphicsPipelines()")
	}
	a.pipeline = pipelines[0]
	a.pass = b.Targets().RenderPass
	return nil
}

// BuildCommandBuffers implements core.Application
func (a *meshApp) BuildCommandBuffers(b *core.Base) error {
	// a colour format change brings a new render pass
	if a.pass != b.Targets().RenderPass {
		vk.DestroyPipeline(a.vk.Device(), a.pipeline, nil)
		if err := a.createPipeline(b); err != nil {
			return err
		}
	}

	extent := b.Swapchain().Extent
	cfg := b.Config().Renderer
	pass, err := a.vk.RenderPass(b.Targets().RenderPass)
	if err != nil {
		return err
	}

	mvp := model.Uniform{
		Model:      a.mesh.Transform(),
		View:       a.camera.view(),
		Projection: a.camera.projection(extent),
	}
	constants := model.MatrixBytes(mvp.MVP())

	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(cfg.ClearColor[:])
	clearValues[1].SetDepthStencil(1, 0)

	framebuffers := b.Targets().Framebuffers
	for idx, h := range b.CommandBuffers() {
		cmd, err := a.vk.CommandBuffer(h)
		if err != nil {
			return err
		}
		fb, err := a.vk.Framebuffer(framebuffers[idx])
		if err != nil {
			return err
		}
		if err := b.Driver().BeginCommandBuffer(h, false); err != nil {
			return errors.Wrapf(err, "begin command buffer %d", idx)
		}

		vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
			SType:       vk.StructureTypeRenderPassBeginInfo,
			RenderPass:  pass,
			Framebuffer: fb,
			RenderArea: vk.Rect2D{
				Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
			},
			ClearValueCount: uint32(len(clearValues)),
			PClearValues:    clearValues,
		}, vk.SubpassContentsInline)
		vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, a.pipeline)
		vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
			Width:    float32(extent.Width),
			Height:   float32(extent.Height),
			MinDepth: 0,
			MaxDepth: 1,
		}})
		vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		}})
		vk.CmdPushConstants(cmd, a.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, mvpSize, unsafe.Pointer(&constants[0]))
		vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{a.vertices.Get()}, []vk.DeviceSize{0})
		vk.CmdDraw(cmd, uint32(len(a.mesh.Vertices())), 1, 0, 0)
		vk.CmdEndRenderPass(cmd)

		if err := b.Driver().EndCommandBuffer(h); err != nil {
			return errors.Wrapf(err, "end command buffer %d", idx)
		}
	}
	return nil
}

// KeyPressed implements core.KeyHandler
func (a *meshApp) KeyPressed(b *core.Base, key core.Key) {
	if a.camera.key(key) {
		b.MarkCommandBuffersStale()
	}
}

// ViewChanged implements core.ViewHandler. The projection is taken from the
// extent when the stale buffers are recorded again.
func (a *meshApp) ViewChanged(b *core.Base) {
	extent := b.Swapchain().Extent
	b.Log().WithFields(log.Fields{
		"width":  extent.Width,
		"height": extent.Height,
	}).Debug("view changed")
}

// OverlayText implements core.OverlayTextProvider
func (a *meshApp) OverlayText(o *core.OverlayText) {
	o.AddLinef("rotation %.0f %.0f, zoom %.1f", a.camera.rotation.X(), a.camera.rotation.Y(), a.camera.zoom)
	o.AddLine("arrows rotate, page up/down zoom, r resets")
}

// Destroy implements core.Destroyer
func (a *meshApp) Destroy(b *core.Base) {
	dev := a.vk.Device()
	if a.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(dev, a.pipeline, nil)
	}
	if a.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev, a.layout, nil)
	}
	if a.vertices != nil {
		a.vertices.Release()
	}
}
