// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestShutdownWaitsForTeardown(t *testing.T) {
	c := qt.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	stop := newShutdown(cancel)

	requested := make(chan struct{})
	go func() {
		stop.request()
		close(requested)
	}()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		c.Fatal("request did not cancel the loop context")
	}
	select {
	case <-requested:
		c.Fatal("request returned before teardown")
	case <-time.After(20 * time.Millisecond):
	}

	var order []string
	stop.finish(func() { order = append(order, "base") }, func() { order = append(order, "window") })
	stop.finish(func() { order = append(order, "again") })
	c.Assert(order, qt.DeepEquals, []string{"base", "window"})

	select {
	case <-requested:
	case <-time.After(time.Second):
		c.Fatal("request still blocked after teardown")
	}
}

func TestShutdownAfterTeardown(t *testing.T) {
	c := qt.New(t)
	cancelled := false
	stop := newShutdown(func() { cancelled = true })
	stop.finish()
	stop.request()
	c.Assert(cancelled, qt.Equals, true)
}
