package main

import (
	"fmt"

	"github.com/rowbind/rowbind/compiler/gen"
	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

// buildModule assembles the chat module schema the CLI generates
// bindings for: a user table keyed by identity, a message table with
// a composite room/sequence key, and the reducers clients call.
func buildModule() (*gen.ModuleDef, error) {
	m := gen.NewModuleDef(ident.MustNew("chat"))

	userRow, err := schema.Product(
		schema.Field("identity", schema.U64()),
		schema.Field("name", schema.Option(schema.String())),
		schema.Field("online", schema.Bool()),
	)
	if err != nil {
		return nil, fmt.Errorf("user row: %w", err)
	}
	userRef := m.AddType(userRow)
	if err := m.AddTable(&gen.TableDef{
		Name:       ident.MustNew("user"),
		RowType:    userRef,
		PrimaryKey: []int{0},
		Access:     gen.AccessPublic,
	}); err != nil {
		return nil, err
	}

	messageRow, err := schema.Product(
		schema.Field("room", schema.U64()),
		schema.Field("seq", schema.U64()),
		schema.Field("sender", schema.U64()),
		schema.Field("body", schema.String()),
	)
	if err != nil {
		return nil, fmt.Errorf("message row: %w", err)
	}
	if err := m.AddTable(&gen.TableDef{
		Name:       ident.MustNew("message"),
		RowType:    m.AddType(messageRow),
		PrimaryKey: []int{0, 1},
		Indexes:    []gen.IndexDef{{Name: "idx_sender", Columns: []int{2}}},
		Access:     gen.AccessPublic,
	}); err != nil {
		return nil, err
	}

	if err := m.AddTypeDef(&gen.TypeDef{Name: ident.MustNew("UserRow"), Ref: userRef}); err != nil {
		return nil, err
	}

	reducers := []*gen.ReducerDef{
		{
			Name: ident.MustNew("send_message"),
			Params: []gen.ParamDef{
				{Name: ident.MustNew("room"), Type: schema.U64()},
				{Name: ident.MustNew("body"), Type: schema.String()},
			},
		},
		{
			Name: ident.MustNew("set_name"),
			Params: []gen.ParamDef{
				{Name: ident.MustNew("name"), Type: schema.Option(schema.String())},
			},
		},
		{Name: ident.MustNew("identity_connected"), Lifecycle: gen.LifecycleClientConnected},
		{Name: ident.MustNew("identity_disconnected"), Lifecycle: gen.LifecycleClientDisconnected},
	}
	for _, r := range reducers {
		if err := m.AddReducer(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}
