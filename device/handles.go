// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/devblok/vkbase/core"
)

// registry maps opaque engine handles to the Vulkan objects behind them.
type registry struct {
	next    core.Handle
	objects map[core.Handle]interface{}
}

func newRegistry() *registry {
	return &registry{objects: make(map[core.Handle]interface{})}
}

func (r *registry) put(obj interface{}) core.Handle {
	r.next++
	r.objects[r.next] = obj
	return r.next
}

func (r *registry) get(h core.Handle) (interface{}, bool) {
	if h == core.NullHandle {
		return nil, false
	}
	obj, ok := r.objects[h]
	return obj, ok
}

func (r *registry) drop(h core.Handle) (interface{}, bool) {
	obj, ok := r.get(h)
	if ok {
		delete(r.objects, h)
	}
	return obj, ok
}

func (r *registry) len() int {
	return len(r.objects)
}
