// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"path"
	"strings"

	"github.com/pkg/errors"
)

const shaderSuffix = ".spv"

// Shader is a loaded shader module
type Shader struct {
	Name   string
	Type   ShaderType
	Module Handle
}

// ShaderTypeOf derives the stage from a file name of the form
// <name>.<vert|frag>.spv
func ShaderTypeOf(name string) ShaderType {
	base := strings.TrimSuffix(path.Base(name), shaderSuffix)
	if base == path.Base(name) {
		return UnknownShaderType
	}
	nodes := strings.Split(base, ".")
	if len(nodes) != 2 {
		return UnknownShaderType
	}
	switch nodes[1] {
	case "vert":
		return VertexShaderType
	case "frag":
		return FragmentShaderType
	}
	return UnknownShaderType
}

// ShaderCache creates shader modules from an asset source and keeps
// them until Destroy
type ShaderCache struct {
	driver  Driver
	assets  AssetSource
	modules []Shader
}

// NewShaderCache returns a cache reading from assets
func NewShaderCache(driver Driver, assets AssetSource) *ShaderCache {
	return &ShaderCache{driver: driver, assets: assets}
}

// Load reads a compiled SPIR-V file and creates a module for it.
// Missing or malformed files yield an AssetLoadError.
func (s *ShaderCache) Load(name string, stage ShaderType) (Shader, error) {
	if s.assets == nil {
		return Shader{}, &AssetLoadError{Asset: name, Err: errors.New("no asset source")}
	}
	if stage == UnknownShaderType {
		stage = ShaderTypeOf(name)
	}
	if stage == UnknownShaderType {
		return Shader{}, &AssetLoadError{Asset: name, Err: errors.New("unknown shader stage")}
	}
	code, err := s.assets.ReadFile(name)
	if err != nil {
		return Shader{}, &AssetLoadError{Asset: name, Err: err}
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return Shader{}, &AssetLoadError{Asset: name, Err: errors.Errorf("invalid SPIR-V size %d", len(code))}
	}
	module, err := s.driver.CreateShaderModule(code)
	if err != nil {
		return Shader{}, &AssetLoadError{Asset: name, Err: err}
	}
	shader := Shader{Name: name, Type: stage, Module: module}
	s.modules = append(s.modules, shader)
	return shader, nil
}

// Destroy releases every module created by the cache
func (s *ShaderCache) Destroy() {
	for _, m := range s.modules {
		s.driver.DestroyShaderModule(m.Module)
	}
	s.modules = nil
}
