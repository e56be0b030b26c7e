package packetc

import "fmt"

// Loader supplies .packet source text for a module path. The core never
// touches the file system; CLI and build tooling provide a Loader instead.
// Paths are canonical module paths (no .packet extension).
type Loader interface {
	Load(path string) ([]byte, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) ([]byte, error)

// Load implements Loader.
func (f LoaderFunc) Load(path string) ([]byte, error) { return f(path) }

// MapLoader serves modules from an in-memory map, keyed by canonical module
// path. Useful for tests and embedded schemas.
type MapLoader map[string]string

// Load implements Loader.
func (m MapLoader) Load(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("module not found: %s", path)
	}
	return []byte(src), nil
}
