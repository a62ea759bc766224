// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/vkbase/core"
)

func TestPrintDevices(t *testing.T) {
	c := qt.New(t)
	devices := []core.PhysicalDevice{
		{Index: 0, Name: "llvmpipe", Type: core.DeviceTypeCPU},
		{Index: 1, Name: "Radeon", Type: core.DeviceTypeDiscrete},
	}

	var buf bytes.Buffer
	c.Assert(printDevices(&buf, devices, false), qt.IsNil)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	c.Assert(len(lines), qt.Equals, 2)

	var got core.PhysicalDevice
	c.Assert(json.Unmarshal([]byte(lines[1]), &got), qt.IsNil)
	c.Assert(got.Name, qt.Equals, "Radeon")
	c.Assert(got.Type, qt.Equals, core.DeviceTypeDiscrete)

	buf.Reset()
	c.Assert(printDevices(&buf, devices[:1], true), qt.IsNil)
	c.Assert(strings.Contains(buf.String(), "\n  "), qt.Equals, true)
}
