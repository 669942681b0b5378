package gen

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

// LanguageTarget is the capability a supported output language
// implements. The generator is written once against this interface
// and never against a concrete language.
//
// Implementations must be stateless and pure with respect to the IR:
// rendering is a deterministic function of the ModuleDef and the
// definition being rendered, with no counters or incremental state
// across calls. This keeps output reproducible and allows one target
// value to serve concurrent generation runs.
type LanguageTarget interface {
	// Name returns the target identifier used for selection
	// (e.g. "go", "typescript", "python").
	Name() string

	// TypeName maps an algebraic type to the target language's syntax
	// for that type.
	TypeName(t schema.AlgebraicType) string

	// TableFileName returns the relative output filename for a table.
	// The mapping must be deterministic and collision-free: no two
	// distinct definitions may share a filename within one run.
	TableFileName(name ident.Identifier) string

	// ReducerFileName returns the relative output filename for a reducer.
	ReducerFileName(name ident.Identifier) string

	// RenderTable returns the full source text for one table: row type
	// declaration, accessors, and primary-key/index metadata in the
	// form the language's client runtime expects.
	RenderTable(def *TableDef, module *ModuleDef) (string, error)

	// RenderReducer returns a typed stub the caller invokes to request
	// reducer execution. Parameter marshalling only, no business logic.
	RenderReducer(def *ReducerDef) (string, error)

	// ReservedWords returns the target language's reserved words,
	// consulted by identifier validation.
	ReservedWords() []string
}

// ScaffoldGenerator is an optional capability for targets that emit
// shared, definition-independent files (a runtime shim, a types
// module) exactly once per generation run. The generator detects it
// with a type assertion.
type ScaffoldGenerator interface {
	// ScaffoldFileNames returns the fixed filenames the target will
	// emit, so they participate in the up-front collision check.
	ScaffoldFileNames() []string

	// RenderScaffold returns the shared files keyed by filename. The
	// keys must equal ScaffoldFileNames.
	RenderScaffold(module *ModuleDef) (map[string]string, error)
}

var (
	targetsMu sync.RWMutex
	targets   = make(map[string]LanguageTarget)
)

// Register adds a target to the registry and contributes its reserved
// words to identifier validation. Target packages call this from init.
func Register(t LanguageTarget) {
	targetsMu.Lock()
	defer targetsMu.Unlock()
	if _, ok := targets[t.Name()]; ok {
		panic(fmt.Sprintf("gen: target %q registered twice", t.Name()))
	}
	targets[t.Name()] = t
	ident.RegisterReservedWords(t.ReservedWords())
}

// Lookup retrieves a registered target by name.
func Lookup(name string) (LanguageTarget, error) {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	t, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("gen: unknown target %q (registered: %v)", name, names())
	}
	return t, nil
}

// Names returns the registered target names in sorted order.
func Names() []string {
	targetsMu.RLock()
	defer targetsMu.RUnlock()
	return names()
}

func names() []string {
	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
