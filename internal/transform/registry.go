// Package transform holds the transformation-function registry: pure,
// deterministic value transforms referenced by name from mapping rules.
package transform

import "fmt"

// CellFunc transforms one source cell value into one output value.
type CellFunc func(value string) (string, error)

// GeneratorFunc derives an output value from no source column at all
// (constants, defaults).
type GeneratorFunc func() (string, error)

// Registry maps function names to implementations. Populated once at startup
// and read-only afterwards; deployers extend it via RegisterCell and
// RegisterGenerator before handing it to the pipeline.
type Registry struct {
	cells map[string]CellFunc
	gens  map[string]GeneratorFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		cells: make(map[string]CellFunc),
		gens:  make(map[string]GeneratorFunc),
	}
}

// RegisterCell adds a one-value transformation under name. Registering the
// same name twice is a programming error and panics.
func (r *Registry) RegisterCell(name string, fn CellFunc) {
	if r.has(name) {
		panic(fmt.Sprintf("transform: duplicate registration of %q", name))
	}
	r.cells[name] = fn
}

// RegisterGenerator adds a zero-input transformation under name.
func (r *Registry) RegisterGenerator(name string, fn GeneratorFunc) {
	if r.has(name) {
		panic(fmt.Sprintf("transform: duplicate registration of %q", name))
	}
	r.gens[name] = fn
}

// Cell returns the cell transformation registered under name, or ok=false.
func (r *Registry) Cell(name string) (CellFunc, bool) {
	fn, ok := r.cells[name]
	return fn, ok
}

// Generator returns the generator registered under name, or ok=false.
func (r *Registry) Generator(name string) (GeneratorFunc, bool) {
	fn, ok := r.gens[name]
	return fn, ok
}

func (r *Registry) has(name string) bool {
	_, c := r.cells[name]
	_, g := r.gens[name]
	return c || g
}
