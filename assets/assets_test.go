// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/packr"
	"github.com/pkg/errors"

	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/utility/kar"
)

type failingSource struct{}

func (failingSource) ReadFile(name string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func tempDir(c *qt.C) (string, func()) {
	dir, err := ioutil.TempDir("", "assets")
	c.Assert(err, qt.IsNil)
	return dir, func() { os.RemoveAll(dir) }
}

func TestDir(t *testing.T) {
	c := qt.New(t)
	dir, cleanup := tempDir(c)
	defer cleanup()
	c.Assert(os.MkdirAll(filepath.Join(dir, "fonts"), 0755), qt.IsNil)
	c.Assert(ioutil.WriteFile(filepath.Join(dir, "fonts", "overlay.ttf"), []byte("ttf"), 0644), qt.IsNil)

	data, err := Dir(dir).ReadFile(core.OverlayFont)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "ttf")

	_, err = Dir(dir).ReadFile("shaders/missing.vert.spv")
	c.Assert(errors.Is(err, ErrNotFound), qt.Equals, true)
}

func TestBox(t *testing.T) {
	c := qt.New(t)
	box := FromBox(packr.NewBox("./testdata"))
	data, err := box.ReadFile("shaders/box.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "from the box\n")

	_, err = box.ReadFile("shaders/none.txt")
	c.Assert(errors.Is(err, ErrNotFound), qt.Equals, true)
}

func TestArchive(t *testing.T) {
	c := qt.New(t)
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	c.Assert(err, qt.IsNil)
	defer builder.Close()
	c.Assert(builder.Add("shaders/mesh.vert.spv", strings.NewReader("\x03\x02\x23\x07")), qt.IsNil)

	dir, cleanup := tempDir(c)
	defer cleanup()
	path := filepath.Join(dir, "assets.kar")
	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	c.Assert(ioutil.WriteFile(path, buf.Bytes(), 0644), qt.IsNil)

	ar, err := OpenArchive(path)
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	data, err := ar.ReadFile("shaders/mesh.vert.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(data, qt.DeepEquals, []byte("\x03\x02\x23\x07"))

	_, err = ar.ReadFile(core.OverlayFont)
	c.Assert(errors.Is(err, ErrNotFound), qt.Equals, true)

	_, err = OpenArchive(filepath.Join(dir, "missing.kar"))
	c.Assert(err, qt.ErrorMatches, "opening archive .*")
}

func TestChain(t *testing.T) {
	c := qt.New(t)
	dir, cleanup := tempDir(c)
	defer cleanup()
	c.Assert(ioutil.WriteFile(filepath.Join(dir, "a.txt"), []byte("dir"), 0644), qt.IsNil)

	chain := Chain{Dir(filepath.Join(dir, "empty")), Dir(dir), FromBox(packr.NewBox("./testdata"))}
	data, err := chain.ReadFile("a.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "dir")

	data, err = chain.ReadFile("shaders/box.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "from the box\n")

	_, err = chain.ReadFile("nothing")
	c.Assert(errors.Is(err, ErrNotFound), qt.Equals, true)

	_, err = Chain{failingSource{}, Dir(dir)}.ReadFile("a.txt")
	c.Assert(err, qt.ErrorMatches, "disk on fire")
}
