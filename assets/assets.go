// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package assets provides the sources shaders, fonts and meshes are read from.
package assets

import (
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"

	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/utility/kar"
)

// ErrNotFound is returned when a source does not hold the asset
var ErrNotFound = errors.New("asset not found")

// Dir reads assets from a directory on disk
type Dir string

// ReadFile implements core.AssetSource
func (d Dir) ReadFile(name string) ([]byte, error) {
	data, err := ioutil.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return data, err
}

// Box reads assets from a packr box, embedded when the binary is built with packr
type Box struct {
	box packr.Box
}

// FromBox wraps a packr box
func FromBox(box packr.Box) Box {
	return Box{box: box}
}

// ReadFile implements core.AssetSource
func (b Box) ReadFile(name string) ([]byte, error) {
	if !b.box.Has(name) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return b.box.Find(name)
}

// Archive reads assets from a kar archive
type Archive struct {
	ar *kar.Archive
}

// FromArchive wraps an opened kar archive
func FromArchive(ar *kar.Archive) *Archive {
	return &Archive{ar: ar}
}

// OpenArchive memory maps the kar archive at path
func OpenArchive(path string) (*Archive, error) {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening archive %s", path)
	}
	return FromArchive(ar), nil
}

// ReadFile implements core.AssetSource
func (a *Archive) ReadFile(name string) ([]byte, error) {
	data, err := a.ar.ReadAll(name)
	if errors.Is(err, kar.ErrNotFound) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return data, err
}

// Close releases the archive
func (a *Archive) Close() error {
	return a.ar.Close()
}

// Chain looks an asset up in every source in order
type Chain []core.AssetSource

// ReadFile implements core.AssetSource. Sources that do not hold the
// asset are skipped, any other failure stops the lookup.
func (c Chain) ReadFile(name string) ([]byte, error) {
	for _, src := range c {
		data, err := src.ReadFile(name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, errors.Wrap(ErrNotFound, name)
}
