package gen

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Namespace for schema fingerprints (UUIDv5 over the binary snapshot).
var fingerprintNamespace = uuid.MustParse("8f2e9a54-1c6b-4f03-9d4e-2ab1c07d5a10")

type (
	// ModuleSnapshot is a stable, self-contained export of a ModuleDef
	// used to detect schema drift between generation runs. Field order
	// everywhere follows module declaration order, so two snapshots of
	// the same module are byte-identical in either encoding.
	ModuleSnapshot struct {
		Module   string            `msgpack:"module" json:"module"`
		Types    []TypeSnapshot    `msgpack:"types" json:"types"`
		Tables   []TableSnapshot   `msgpack:"tables" json:"tables"`
		Reducers []ReducerSnapshot `msgpack:"reducers" json:"reducers"`
		TypeDefs []TypeDefSnapshot `msgpack:"type_defs" json:"type_defs"`
	}

	// TypeSnapshot is the registry entry at one TypeRef, rendered in
	// the deterministic schema notation.
	TypeSnapshot struct {
		Ref  uint32 `msgpack:"ref" json:"ref"`
		Type string `msgpack:"type" json:"type"`
	}

	// TableSnapshot mirrors TableDef with refs and enums flattened to
	// stable spellings.
	TableSnapshot struct {
		Name       string          `msgpack:"name" json:"name"`
		RowType    uint32          `msgpack:"row_type" json:"row_type"`
		PrimaryKey []int           `msgpack:"primary_key,omitempty" json:"primary_key,omitempty"`
		Indexes    []IndexSnapshot `msgpack:"indexes,omitempty" json:"indexes,omitempty"`
		Type       string          `msgpack:"table_type" json:"table_type"`
		Access     string          `msgpack:"access" json:"access"`
		Scheduled  string          `msgpack:"scheduled,omitempty" json:"scheduled,omitempty"`
	}

	// IndexSnapshot mirrors IndexDef.
	IndexSnapshot struct {
		Name    string `msgpack:"name,omitempty" json:"name,omitempty"`
		Columns []int  `msgpack:"columns" json:"columns"`
		Unique  bool   `msgpack:"unique" json:"unique"`
	}

	// ReducerSnapshot mirrors ReducerDef.
	ReducerSnapshot struct {
		Name      string          `msgpack:"name" json:"name"`
		Params    []ParamSnapshot `msgpack:"params,omitempty" json:"params,omitempty"`
		Lifecycle uint8           `msgpack:"lifecycle,omitempty" json:"lifecycle,omitempty"`
	}

	// ParamSnapshot is one reducer parameter.
	ParamSnapshot struct {
		Name string `msgpack:"name" json:"name"`
		Type string `msgpack:"type" json:"type"`
	}

	// TypeDefSnapshot mirrors TypeDef.
	TypeDefSnapshot struct {
		Name string `msgpack:"name" json:"name"`
		Ref  uint32 `msgpack:"ref" json:"ref"`
	}
)

// Snapshot builds a stable export of module.
func Snapshot(module *ModuleDef) *ModuleSnapshot {
	s := &ModuleSnapshot{Module: module.Name.String()}
	for i := 0; i < module.NumTypes(); i++ {
		t, _ := module.ResolveType(TypeRef(i))
		s.Types = append(s.Types, TypeSnapshot{Ref: uint32(i), Type: t.String()})
	}
	for _, t := range module.Tables() {
		ts := TableSnapshot{
			Name:       t.Name.String(),
			RowType:    uint32(t.RowType),
			PrimaryKey: t.PrimaryKey,
			Type:       t.Type.String(),
			Access:     t.Access.String(),
			Scheduled:  t.ScheduledReducer,
		}
		for _, idx := range t.Indexes {
			ts.Indexes = append(ts.Indexes, IndexSnapshot{Name: idx.Name, Columns: idx.Columns, Unique: idx.Unique})
		}
		s.Tables = append(s.Tables, ts)
	}
	for _, r := range module.Reducers() {
		rs := ReducerSnapshot{Name: r.Name.String(), Lifecycle: uint8(r.Lifecycle)}
		for _, p := range r.Params {
			rs.Params = append(rs.Params, ParamSnapshot{Name: p.Name.String(), Type: p.Type.String()})
		}
		s.Reducers = append(s.Reducers, rs)
	}
	for _, td := range module.TypeDefs() {
		s.TypeDefs = append(s.TypeDefs, TypeDefSnapshot{Name: td.Name.String(), Ref: uint32(td.Ref)})
	}
	return s
}

// MarshalBinary encodes the snapshot as msgpack. The encoder honors
// encoding.BinaryMarshaler, so encoding goes through an alias type
// without this method to keep it from re-entering itself.
func (s *ModuleSnapshot) MarshalBinary() ([]byte, error) {
	type alias ModuleSnapshot
	return msgpack.Marshal((*alias)(s))
}

// MarshalJSON encodes the snapshot as JSON.
func (s *ModuleSnapshot) MarshalJSON() ([]byte, error) {
	type alias ModuleSnapshot
	return json.Marshal((*alias)(s))
}

// DecodeSnapshot decodes a msgpack snapshot previously produced by
// MarshalBinary.
func DecodeSnapshot(data []byte) (*ModuleSnapshot, error) {
	var s ModuleSnapshot
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}

// Fingerprint returns a deterministic UUID identifying the module
// schema: a UUIDv5 over the binary snapshot. Two modules with the
// same registry and definitions in the same order share a
// fingerprint; any schema change produces a new one.
func Fingerprint(module *ModuleDef) (uuid.UUID, error) {
	data, err := Snapshot(module).MarshalBinary()
	if err != nil {
		return uuid.Nil, fmt.Errorf("fingerprint: %w", err)
	}
	return uuid.NewSHA1(fingerprintNamespace, data), nil
}
