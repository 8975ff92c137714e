package builtins

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dr8co/feint/compiler"
	"github.com/dr8co/feint/lexer"
	"github.com/dr8co/feint/object"
	"github.com/dr8co/feint/parser"
	"github.com/dr8co/feint/vm"
)

// Registry caches loaded modules by path, implementing vm.ModuleLoader -
// this is the concrete backing store for spec.md's "system.modules"
// registry (feint-builtins/src/modules/mod.rs's MODULES map, the single
// process-wide piece of module-related state spec.md §9 names). A path
// is loaded at most once; a second `import` of the same path returns the
// cached *object.ModuleObj, so two importers of the same module observe
// the same global namespace.
type Registry struct {
	mu    sync.Mutex
	cache map[string]*object.ModuleObj
	roots []string
	proc  *object.ModuleObj
}

// NewRegistry creates a module loader that resolves relative import paths
// against roots, in order, appending the ".fi" extension the original
// implementation's module files use (feint-driver/src/driver.rs's
// `load .fi module from file system`). It also seeds the `proc` builtin
// module (feint-builtins/src/modules/std/proc.rs), the narrowest
// process-introspection surface that stops short of spec.md's excluded
// process-spawning.
func NewRegistry(roots ...string) *Registry {
	return &Registry{
		cache: map[string]*object.ModuleObj{},
		roots: roots,
		proc:  newProcModule(),
	}
}

// Load resolves path, compiling and running it if this is the first time
// it's been imported.
func (r *Registry) Load(path string) (*object.ModuleObj, error) {
	if path == "proc" {
		return r.proc, nil
	}

	r.mu.Lock()
	if m, ok := r.cache[path]; ok {
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()

	file, err := r.resolve(path)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // module paths come from trusted program source, not external input
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", path, err)
	}

	mod, err := r.compileAndRun(path, string(src))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[path] = mod
	r.mu.Unlock()
	return mod, nil
}

func (r *Registry) resolve(path string) (string, error) {
	name := path + ".fi"
	for _, root := range r.roots {
		candidate := filepath.Join(root, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	return "", fmt.Errorf("module %q not found", path)
}

// compileAndRun lowers and executes src as a fresh module, exposing its
// resulting globals as the returned ModuleObj's attribute namespace (see
// object.ModuleObj's doc comment).
func (r *Registry) compileAndRun(path, src string) (*object.ModuleObj, error) {
	l := lexer.New(src)
	p := parser.New(l)
	m := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("module %q: parse error: %v", path, errs[0])
	}

	c := compiler.New(Names())
	unit, err := c.Compile(m)
	if err != nil {
		return nil, fmt.Errorf("module %q: compile error: %w", path, err)
	}

	machine := vm.New(unit, Values(), r)
	if _, err := machine.Run(); err != nil {
		return nil, fmt.Errorf("module %q: runtime error: %w", path, err)
	}

	globals, names := machine.Globals()
	mod := object.NewModuleObj(path)
	for i, name := range names {
		if name != "" {
			mod.Globals[name] = globals[i]
		}
	}
	return mod, nil
}
