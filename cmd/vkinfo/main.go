// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/vkbase/core"
	"github.com/devblok/vkbase/device"
)

func init() {
	runtime.LockOSThread()
}

var (
	validation = flag.Bool("validation", false, "Enable the validation layers")
	compact    = flag.Bool("compact", false, "Print one device per line")
)

func main() {
	flag.Parse()

	driver, err := device.New(nil, nil, device.InstanceConfiguration{Validation: *validation}, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("vulkan")
	}
	defer driver.Destroy()

	devices, err := driver.PhysicalDevices()
	if err != nil {
		log.WithError(err).Error("enumerating devices")
		return
	}
	if err := printDevices(os.Stdout, devices, !*compact); err != nil {
		log.WithError(err).Error("printing devices")
	}
}

func printDevices(w io.Writer, devices []core.PhysicalDevice, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	for _, d := range devices {
		if err := enc.Encode(d); err != nil {
			return err
		}
	}
	return nil
}
