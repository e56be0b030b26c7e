// Package packetc compiles .packet interface definitions into a resolved
// schema and a deterministic positional binary wire format.
//
// It provides:
//
// - A stable diagnostic model via Issues (path, code, message, byte offset)
// - The runtime value model shared by the codec engine (Map, Union, Decoded)
// - Presence metadata distinguishing absent optionals from substituted defaults
// - The Loader capability through which build tooling supplies module source
//
// Design policy:
// - Keep only contract types in the root package; stages live in subpackages.
// - Parsing in syntax/, import resolution in modules/, type resolution in
//   schema/, the wire plan and codec in wire/, the generator-facing IR in
//   ir/, the entry point in compiler/, and the CLI under cmd/packetc.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	c, err := compiler.Compile([]string{"pets"}, loader)
//	data, err := c.Encode("Pet", value)
//	v, err := c.Decode("Pet", data)
//	dm, err := c.DecodeWithMeta("Pet", data)
package packetc
