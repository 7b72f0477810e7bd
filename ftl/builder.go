package ftl

import (
	"github.com/sarchlab/flashftl/address"
	"github.com/sarchlab/flashftl/device"
	"github.com/sarchlab/flashftl/diagnostics"
)

// Builder builds a Comp.
type Builder struct {
	geometry address.Geometry
	dev      device.Device
	hooks    []diagnostics.Hook
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithGeometry sets the SSD geometry the FTL is parameterized over.
func (b Builder) WithGeometry(g address.Geometry) Builder {
	b.geometry = g
	return b
}

// WithDevice sets the device the FTL issues resolved events against.
func (b Builder) WithDevice(dev device.Device) Builder {
	b.dev = dev
	return b
}

// WithHook registers a diagnostics hook on the built Comp.
func (b Builder) WithHook(h diagnostics.Hook) Builder {
	b.hooks = append(b.hooks, h)
	return b
}

// Build returns a newly created Comp.
func (b Builder) Build() *Comp {
	c := New(b.geometry, b.dev)
	for _, h := range b.hooks {
		c.AcceptHook(h)
	}
	return c
}
