// Package compiler wires the build pipeline together: parse → module
// resolution → type resolution → wire plan. The pipeline runs once per
// compilation; the resulting Compiled pair is immutable and shared by every
// subsequent encode/decode call.
package compiler

import (
	packetc "github.com/reoring/packetc"
	"github.com/reoring/packetc/ir"
	"github.com/reoring/packetc/modules"
	"github.com/reoring/packetc/schema"
	"github.com/reoring/packetc/wire"
)

// Option configures Compile.
type Option func(*options)

type options struct {
	failFast bool
}

// WithFailFast stops at the first diagnostic instead of collecting one per
// declaration.
func WithFailFast(enabled bool) Option {
	return func(o *options) { o.failFast = enabled }
}

// Compiled is an immutable schema + wire plan pair. It has no internal
// mutability and is safe for unsynchronized concurrent use from any number
// of goroutines.
type Compiled struct {
	schema *schema.Schema
	plan   *wire.Plan
}

// Compile loads entries and their transitive imports through the loader and
// builds the closed schema and its wire plan. The build is all-or-nothing:
// any diagnostic aborts with Issues and nothing is committed.
func Compile(entries []string, loader packetc.Loader, opts ...Option) (*Compiled, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	table, err := modules.Resolve(entries, loader)
	if err != nil {
		return nil, err
	}
	var sopts []schema.Option
	if o.failFast {
		sopts = append(sopts, schema.WithFailFast(true))
	}
	s, err := schema.Resolve(table, sopts...)
	if err != nil {
		return nil, err
	}
	return &Compiled{schema: s, plan: wire.NewPlan(s)}, nil
}

// CompileSource compiles a single in-memory module, for embedded schemas and
// tests.
func CompileSource(name, src string, opts ...Option) (*Compiled, error) {
	return Compile([]string{name}, packetc.MapLoader{name: src}, opts...)
}

// Schema exposes the resolved type graph.
func (c *Compiled) Schema() *schema.Schema { return c.schema }

// IR projects the resolved schema into the serializable intermediate
// representation consumed by code generators.
func (c *Compiled) IR() *ir.Schema { return ir.FromSchema(c.schema) }

// Encode serializes v against the named struct type.
func (c *Compiled) Encode(typeName string, v any) ([]byte, error) {
	return c.plan.Encode(typeName, v)
}

// EncodeWithMeta is Encode plus presence metadata marking which fields were
// set by the caller and which had their default substituted into the
// stream.
func (c *Compiled) EncodeWithMeta(typeName string, v any) ([]byte, packetc.PresenceMap, error) {
	return c.plan.EncodeWithMeta(typeName, v)
}

// Decode deserializes data against the named struct type. Failures are
// returned as Issues (see packetc.IsParseFailure), never panicked.
func (c *Compiled) Decode(typeName string, data []byte) (any, error) {
	return c.plan.Decode(typeName, data)
}

// DecodeWithMeta is Decode plus presence metadata; absent optional fields
// carry no PresenceSeen mark.
func (c *Compiled) DecodeWithMeta(typeName string, data []byte) (packetc.Decoded, error) {
	return c.plan.DecodeWithMeta(typeName, data)
}
