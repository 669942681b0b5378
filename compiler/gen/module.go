package gen

import (
	"fmt"

	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

// TypeRef is a stable integer handle into a module's type registry.
// Refs are assigned at insertion and never reused or reordered.
type TypeRef uint32

// TableType distinguishes user-defined tables from tables the host
// database maintains itself.
type TableType uint8

const (
	// TableUser is a table defined by the module author.
	TableUser TableType = iota
	// TableSystem is a table maintained by the host database.
	TableSystem
)

// String returns the snapshot spelling of the table type.
func (t TableType) String() string {
	if t == TableSystem {
		return "system"
	}
	return "user"
}

// TableAccess controls whether clients may subscribe to a table.
type TableAccess uint8

const (
	// AccessPublic tables are readable by any connected client.
	AccessPublic TableAccess = iota
	// AccessPrivate tables are only visible to the module owner.
	AccessPrivate
)

// String returns the snapshot spelling of the access level.
func (a TableAccess) String() string {
	if a == AccessPrivate {
		return "private"
	}
	return "public"
}

// Lifecycle marks reducers the host invokes on connection events
// rather than on explicit client calls.
type Lifecycle uint8

const (
	// LifecycleNone is a regular, client-callable reducer.
	LifecycleNone Lifecycle = iota
	// LifecycleInit runs once when the module is first published.
	LifecycleInit
	// LifecycleClientConnected runs when a client connects.
	LifecycleClientConnected
	// LifecycleClientDisconnected runs when a client disconnects.
	LifecycleClientDisconnected
)

type (
	// TableDef describes one table: its row type by TypeRef, optional
	// primary-key column positions, secondary indexes, kind, and
	// visibility.
	TableDef struct {
		// Name of the table, unique within the module.
		Name ident.Identifier
		// RowType references the product type of one row.
		RowType TypeRef
		// PrimaryKey holds field positions into the row product.
		// Empty means no primary key; more than one position forms a
		// composite key.
		PrimaryKey []int
		// Indexes are the secondary indexes declared on the table.
		Indexes []IndexDef
		// Type is the table kind (user-defined vs. system).
		Type TableType
		// Access is the table visibility (public vs. private).
		Access TableAccess
		// ScheduledReducer, if non-empty, names the reducer the host
		// invokes for rows of this scheduled table.
		ScheduledReducer string
	}

	// IndexDef is a secondary index over row field positions.
	IndexDef struct {
		// Name of the index. Empty derives a name from its columns.
		Name string
		// Columns holds field positions into the row product.
		Columns []int
		// Unique marks the index as a uniqueness constraint.
		Unique bool
	}

	// ReducerDef describes one reducer: a named, side-effecting
	// procedure with an ordered parameter list and no return value.
	ReducerDef struct {
		// Name of the reducer, unique within the module.
		Name ident.Identifier
		// Params are the reducer parameters in declaration order.
		Params []ParamDef
		// Lifecycle marks host-invoked reducers.
		Lifecycle Lifecycle
	}

	// ParamDef is one reducer parameter.
	ParamDef struct {
		Name ident.Identifier
		Type schema.AlgebraicType
	}

	// TypeDef is a named exported alias over a registered type,
	// distinct from table row types.
	TypeDef struct {
		Name ident.Identifier
		Ref  TypeRef
	}
)

// ModuleDef is the schema intermediate representation: an append-only
// registry of interned algebraic types plus tables, reducers, and
// exported type aliases referencing the registry by TypeRef.
//
// A ModuleDef is built incrementally by one goroutine and then passed
// read-only into the generator; it must not be mutated once
// generation begins. All mutators have atomic semantics: on error the
// module is left unmodified.
type ModuleDef struct {
	// Name of the module.
	Name ident.Identifier

	types        []schema.AlgebraicType
	tables       []*TableDef
	tableNames   map[string]struct{}
	reducers     []*ReducerDef
	reducerNames map[string]struct{}
	typeDefs     []*TypeDef
	typeNames    map[string]struct{}
}

// NewModuleDef returns an empty module with the given name.
func NewModuleDef(name ident.Identifier) *ModuleDef {
	return &ModuleDef{
		Name:         name,
		tableNames:   make(map[string]struct{}),
		reducerNames: make(map[string]struct{}),
		typeNames:    make(map[string]struct{}),
	}
}

// AddType appends t to the registry and returns its stable reference.
// It never fails: structural validity of t was established when t was
// constructed. Structurally identical types inserted twice receive
// distinct refs; use InternType to deduplicate.
func (m *ModuleDef) AddType(t schema.AlgebraicType) TypeRef {
	m.types = append(m.types, t)
	return TypeRef(len(m.types) - 1)
}

// InternType returns the ref of an existing structurally equal type,
// inserting t only if no equal type is registered.
func (m *ModuleDef) InternType(t schema.AlgebraicType) TypeRef {
	for i, existing := range m.types {
		if existing.Equal(t) {
			return TypeRef(i)
		}
	}
	return m.AddType(t)
}

// ResolveType resolves a ref against the registry. The second result
// is false for refs not obtained from this module's AddType.
func (m *ModuleDef) ResolveType(ref TypeRef) (schema.AlgebraicType, bool) {
	if int(ref) >= len(m.types) {
		return schema.AlgebraicType{}, false
	}
	return m.types[ref], true
}

// NumTypes returns the number of registered types.
func (m *ModuleDef) NumTypes() int { return len(m.types) }

// AddTable validates def against the registry and appends it. It
// fails with ErrUnknownTypeRef, ErrInvalidRowType, ErrDuplicateTableName,
// ErrInvalidPrimaryKey, or ErrInvalidIndex; on failure the module is
// left unmodified.
func (m *ModuleDef) AddTable(def *TableDef) error {
	name := def.Name.String()
	if _, ok := m.tableNames[name]; ok {
		return newSchemaError(ErrDuplicateTableName, name, "table already defined")
	}
	row, ok := m.ResolveType(def.RowType)
	if !ok {
		return newSchemaError(ErrUnknownTypeRef, name,
			fmt.Sprintf("row type ref %d not in module registry", def.RowType))
	}
	if row.Kind != schema.KindProduct {
		return newSchemaError(ErrInvalidRowType, name,
			fmt.Sprintf("row type must be a product, got %s", row.Kind))
	}
	fields := row.Product.Elements
	for _, pos := range def.PrimaryKey {
		if pos < 0 || pos >= len(fields) {
			return newSchemaError(ErrInvalidPrimaryKey, name,
				fmt.Sprintf("key position %d out of bounds for %d-field row", pos, len(fields)))
		}
		if !fields[pos].Type.EqualityComparable() {
			return newSchemaError(ErrInvalidPrimaryKey, name,
				fmt.Sprintf("key field %q has no total equality (%s)", fields[pos].Name, fields[pos].Type))
		}
	}
	for _, idx := range def.Indexes {
		if len(idx.Columns) == 0 {
			return newSchemaError(ErrInvalidIndex, name, "index has no columns")
		}
		for _, pos := range idx.Columns {
			if pos < 0 || pos >= len(fields) {
				return newSchemaError(ErrInvalidIndex, name,
					fmt.Sprintf("index column %d out of bounds for %d-field row", pos, len(fields)))
			}
		}
	}
	m.tables = append(m.tables, def)
	m.tableNames[name] = struct{}{}
	return nil
}

// AddReducer validates def and appends it. It fails with
// ErrDuplicateReducerName; on failure the module is left unmodified.
func (m *ModuleDef) AddReducer(def *ReducerDef) error {
	name := def.Name.String()
	if _, ok := m.reducerNames[name]; ok {
		return newSchemaError(ErrDuplicateReducerName, name, "reducer already defined")
	}
	m.reducers = append(m.reducers, def)
	m.reducerNames[name] = struct{}{}
	return nil
}

// AddTypeDef registers a named exported alias over ref. It fails with
// ErrUnknownTypeRef or ErrDuplicateTypeName.
func (m *ModuleDef) AddTypeDef(def *TypeDef) error {
	name := def.Name.String()
	if _, ok := m.typeNames[name]; ok {
		return newSchemaError(ErrDuplicateTypeName, name, "type already defined")
	}
	if _, ok := m.ResolveType(def.Ref); !ok {
		return newSchemaError(ErrUnknownTypeRef, name,
			fmt.Sprintf("type ref %d not in module registry", def.Ref))
	}
	m.typeDefs = append(m.typeDefs, def)
	m.typeNames[name] = struct{}{}
	return nil
}

// Tables returns the tables in declaration order. Declaration order
// is part of the contract: generators emit in this order so output is
// reproducible.
func (m *ModuleDef) Tables() []*TableDef { return m.tables }

// Reducers returns the reducers in declaration order.
func (m *ModuleDef) Reducers() []*ReducerDef { return m.reducers }

// TypeDefs returns the exported type aliases in declaration order.
func (m *ModuleDef) TypeDefs() []*TypeDef { return m.typeDefs }

// RowFields resolves a table's row product fields. It returns an
// InvariantError if the ref is dangling or not a product: AddTable
// already validated both, so a failure here is a bug in the IR layer.
func (m *ModuleDef) RowFields(def *TableDef) ([]schema.ProductElement, error) {
	row, ok := m.ResolveType(def.RowType)
	if !ok {
		return nil, &InvariantError{Message: fmt.Sprintf(
			"table %s references dangling type ref %d", def.Name, def.RowType)}
	}
	if row.Kind != schema.KindProduct {
		return nil, &InvariantError{Message: fmt.Sprintf(
			"table %s row type is %s, not a product", def.Name, row.Kind)}
	}
	return row.Product.Elements, nil
}
