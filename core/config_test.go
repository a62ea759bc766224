// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func envMap(m map[string]string) func(key, def string) string {
	return func(key, def string) string {
		if v, ok := m[key]; ok {
			return v
		}
		return def
	}
}

func TestDefaultConfigurationIsValid(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfiguration()
	c.Assert(cfg.Validate(), qt.IsNil)
	c.Assert(cfg.Renderer.TimerSpeed, qt.Equals, float32(0.25))
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	for _, test := range []struct {
		mutate func(*Configuration)
		err    string
	}{
		{func(c *Configuration) { c.Window.Height = 0 }, "window size 1280x0 is invalid"},
		{func(c *Configuration) { c.Renderer.TimerSpeed = -1 }, "timer speed -1 is negative"},
		{func(c *Configuration) { c.Renderer.AcquireTimeout = -time.Second }, "acquire timeout -1s is negative"},
		{func(c *Configuration) { c.Time.FramesPerSecond = -1 }, "frames per second -1 is negative"},
	} {
		cfg := DefaultConfiguration()
		test.mutate(&cfg)
		c.Assert(cfg.Validate(), qt.ErrorMatches, test.err)
	}
}

func TestApplyEnv(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfiguration()
	err := applyEnv(&cfg, envMap(map[string]string{
		"VKBASE_VALIDATION":        "true",
		"VKBASE_VSYNC":             "1",
		"VKBASE_OVERLAY":           "true",
		"VKBASE_WIDTH":             "640",
		"VKBASE_HEIGHT":            "480",
		"VKBASE_SWAPCHAIN_SIZE":    "3",
		"VKBASE_FPS":               "30",
		"VKBASE_TITLE":             "triangle",
		"VKBASE_DEVICE_EXTENSIONS": "VK_KHR_maintenance1, VK_KHR_maintenance2",
		"VKBASE_DEVICE":            "discrete",
		"VKBASE_ACQUIRE_TIMEOUT":   "250ms",
	}))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Settings, qt.Equals, Settings{Validation: true, VSync: true, Overlay: true})
	c.Assert(cfg.Window.Width, qt.Equals, uint32(640))
	c.Assert(cfg.Window.Height, qt.Equals, uint32(480))
	c.Assert(cfg.Window.Title, qt.Equals, "triangle")
	c.Assert(cfg.Renderer.SwapchainSize, qt.Equals, uint32(3))
	c.Assert(cfg.Renderer.DeviceExtensions, qt.DeepEquals, []string{"VK_KHR_maintenance1", "VK_KHR_maintenance2"})
	c.Assert(cfg.Renderer.DevicePreference, qt.Equals, DiscreteFirst)
	c.Assert(cfg.Renderer.AcquireTimeout, qt.Equals, 250*time.Millisecond)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 30)
}

func TestApplyEnvErrors(t *testing.T) {
	c := qt.New(t)
	cfg := DefaultConfiguration()
	c.Assert(applyEnv(&cfg, envMap(map[string]string{"VKBASE_VSYNC": "maybe"})), qt.ErrorMatches, `VKBASE_VSYNC: .*`)
	c.Assert(applyEnv(&cfg, envMap(map[string]string{"VKBASE_WIDTH": "-"})), qt.ErrorMatches, `VKBASE_WIDTH: .*`)
	c.Assert(applyEnv(&cfg, envMap(map[string]string{"VKBASE_DEVICE": "fastest"})), qt.ErrorMatches, `unknown device preference "fastest"`)
}

func TestLoadEnvFile(t *testing.T) {
	c := qt.New(t)
	dir, err := ioutil.TempDir("", "vkbase")
	c.Assert(err, qt.IsNil)
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, ".env")
	c.Assert(ioutil.WriteFile(file, []byte("VKBASE_TITLE=from env file\n"), 0644), qt.IsNil)
	defer os.Unsetenv("VKBASE_TITLE")

	cfg := DefaultConfiguration()
	c.Assert(LoadEnv(&cfg, file, filepath.Join(dir, "missing.env")), qt.IsNil)
	c.Assert(cfg.Window.Title, qt.Equals, "from env file")
}

func TestParseDevicePreference(t *testing.T) {
	c := qt.New(t)
	p, err := ParseDevicePreference(" Discrete ")
	c.Assert(err, qt.IsNil)
	c.Assert(p, qt.Equals, DiscreteFirst)
	c.Assert(p.String(), qt.Equals, "discrete")

	p, err = ParseDevicePreference("")
	c.Assert(err, qt.IsNil)
	c.Assert(p, qt.Equals, FirstEnumerated)
}
