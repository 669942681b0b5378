// Package gen provides the module IR and code generation for rowbind
// client bindings.
package gen

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidSchema is the umbrella sentinel every SchemaError matches.
	ErrInvalidSchema = errors.New("rowbind: invalid schema")
	// ErrUnknownTypeRef indicates a definition referencing a TypeRef
	// that was not obtained from this module's registry.
	ErrUnknownTypeRef = errors.New("rowbind: unknown type ref")
	// ErrDuplicateTableName indicates two tables with the same name.
	ErrDuplicateTableName = errors.New("rowbind: duplicate table name")
	// ErrDuplicateReducerName indicates two reducers with the same name.
	ErrDuplicateReducerName = errors.New("rowbind: duplicate reducer name")
	// ErrDuplicateTypeName indicates two exported type aliases with the same name.
	ErrDuplicateTypeName = errors.New("rowbind: duplicate type name")
	// ErrInvalidPrimaryKey indicates an out-of-bounds or non-comparable key column.
	ErrInvalidPrimaryKey = errors.New("rowbind: invalid primary key")
	// ErrInvalidIndex indicates an out-of-bounds index column.
	ErrInvalidIndex = errors.New("rowbind: invalid index")
	// ErrInvalidRowType indicates a table whose row type is not a product.
	ErrInvalidRowType = errors.New("rowbind: invalid row type")
	// ErrFilenameCollision indicates two definitions mapping to one filename.
	ErrFilenameCollision = errors.New("rowbind: filename collision")
	// ErrInternalInvariant indicates a state that should be unreachable
	// given a validated ModuleDef. It signals a bug in the IR builder,
	// not a user input error.
	ErrInternalInvariant = errors.New("rowbind: internal invariant violation")
)

// SchemaError is a user-correctable error raised by ModuleDef
// mutators. It wraps one of the schema sentinels so callers can
// dispatch with errors.Is, and carries the offending definition name.
type SchemaError struct {
	// Def is the name of the table, reducer, or type alias being added.
	Def string
	// Message describes what was wrong.
	Message string
	kind    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("rowbind: schema error")
	if e.Def != "" {
		b.WriteString(" on ")
		b.WriteString(e.Def)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the schema sentinel this error wraps.
func (e *SchemaError) Unwrap() error { return e.kind }

// Is reports whether target matches this error's sentinel or the
// umbrella ErrInvalidSchema.
func (e *SchemaError) Is(target error) bool {
	return target == e.kind || target == ErrInvalidSchema
}

func newSchemaError(kind error, def, message string) *SchemaError {
	return &SchemaError{Def: def, Message: message, kind: kind}
}

// IsSchemaError reports whether the error is a SchemaError.
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// Collision records one output filename claimed by more than one
// definition within a single generation run.
type Collision struct {
	// Filename is the contested relative output path.
	Filename string
	// Defs are the names of all definitions mapping to Filename,
	// in module declaration order.
	Defs []string
}

// CollisionError is returned by Generate when the target maps two or
// more definitions to the same output filename. It lists every
// collision found, not just the first, so the caller can fix all of
// them in one pass. No output is produced alongside it.
type CollisionError struct {
	Collisions []Collision
}

// Error implements the error interface.
func (e *CollisionError) Error() string {
	var b strings.Builder
	b.WriteString("rowbind: filename collision")
	for i, c := range e.Collisions {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, " %s claimed by %s", c.Filename, strings.Join(c.Defs, ", "))
	}
	return b.String()
}

// Unwrap returns ErrFilenameCollision.
func (e *CollisionError) Unwrap() error { return ErrFilenameCollision }

// IsCollisionError reports whether the error is a CollisionError.
func IsCollisionError(err error) bool {
	var colErr *CollisionError
	return errors.As(err, &colErr)
}

// InvariantError reports a state that is unreachable given a
// validated ModuleDef, such as a dangling TypeRef surviving
// AddTable's checks. Callers should treat it as a bug to alert on,
// not a schema mistake to display.
type InvariantError struct {
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return "rowbind: internal invariant violation: " + e.Message
}

// Unwrap returns ErrInternalInvariant.
func (e *InvariantError) Unwrap() error { return ErrInternalInvariant }

// IsInvariantError reports whether the error is an InvariantError.
func IsInvariantError(err error) bool {
	var invErr *InvariantError
	return errors.As(err, &invErr)
}

func sortedCollisions(byFile map[string][]string) []Collision {
	files := make([]string, 0, len(byFile))
	for f, defs := range byFile {
		if len(defs) > 1 {
			files = append(files, f)
		}
	}
	sort.Strings(files)
	collisions := make([]Collision, len(files))
	for i, f := range files {
		collisions[i] = Collision{Filename: f, Defs: byFile[f]}
	}
	return collisions
}
