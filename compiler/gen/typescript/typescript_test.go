package typescript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowbind/rowbind/compiler/gen"
	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

func chatModule(t *testing.T) (*gen.ModuleDef, *gen.TableDef) {
	t.Helper()
	m := gen.NewModuleDef(ident.MustNew("chat"))
	row, err := schema.Product(
		schema.Field("identity", schema.U64()),
		schema.Field("name", schema.Option(schema.String())),
		schema.Field("online", schema.Bool()),
	)
	require.NoError(t, err)
	table := &gen.TableDef{
		Name:       ident.MustNew("user"),
		RowType:    m.AddType(row),
		PrimaryKey: []int{0},
		Access:     gen.AccessPublic,
	}
	require.NoError(t, m.AddTable(table))
	return m, table
}

func TestTypeName(t *testing.T) {
	target := New()
	mapType, err := schema.Map(schema.String(), schema.U64())
	require.NoError(t, err)
	status, err := schema.Sum(
		schema.Variant("online", schema.Unit()),
		schema.Variant("away", schema.String()),
	)
	require.NoError(t, err)

	cases := []struct {
		typ  schema.AlgebraicType
		want string
	}{
		{schema.Bool(), "boolean"},
		{schema.U32(), "number"},
		{schema.U64(), "bigint"},
		{schema.I64(), "bigint"},
		{schema.F64(), "number"},
		{schema.String(), "string"},
		{schema.Bytes(), "Uint8Array"},
		{schema.Array(schema.U8()), "number[]"},
		{schema.Option(schema.String()), "string | null"},
		{schema.Array(schema.Option(schema.String())), "(string | null)[]"},
		{mapType, "Map<string, bigint>"},
		{status, `{ tag: "online" } | { tag: "away"; value: string }`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, target.TypeName(tc.typ), tc.typ.String())
	}
}

func TestFileNames(t *testing.T) {
	target := New()
	assert.Equal(t, "user_table.ts", target.TableFileName(ident.MustNew("user")))
	assert.Equal(t, "send_message_reducer.ts", target.ReducerFileName(ident.MustNew("send_message")))
}

func TestRenderTable(t *testing.T) {
	m, table := chatModule(t)
	src, err := New().RenderTable(table, m)
	require.NoError(t, err)

	assert.Contains(t, src, "export interface User {")
	assert.Contains(t, src, "identity: bigint;")
	assert.Contains(t, src, "name: string | null;")
	assert.Contains(t, src, "online: boolean;")
	assert.Contains(t, src, "export const userTable = {")
	assert.Contains(t, src, `name: "user",`)
	assert.Contains(t, src, `access: "public",`)
	assert.Contains(t, src, `primaryKey: ["identity"],`)
	assert.Contains(t, src, "} as const;")
}

func TestRenderTableCompositeKey(t *testing.T) {
	m := gen.NewModuleDef(ident.MustNew("chat"))
	row, err := schema.Product(
		schema.Field("room", schema.U64()),
		schema.Field("seq", schema.U64()),
		schema.Field("body", schema.String()),
	)
	require.NoError(t, err)
	table := &gen.TableDef{
		Name:       ident.MustNew("message"),
		RowType:    m.AddType(row),
		PrimaryKey: []int{0, 1},
	}
	require.NoError(t, m.AddTable(table))

	src, err := New().RenderTable(table, m)
	require.NoError(t, err)
	assert.Contains(t, src, `primaryKey: ["room", "seq"],`)
}

func TestRenderReducer(t *testing.T) {
	t.Run("callable", func(t *testing.T) {
		src, err := New().RenderReducer(&gen.ReducerDef{
			Name: ident.MustNew("send_message"),
			Params: []gen.ParamDef{
				{Name: ident.MustNew("text"), Type: schema.String()},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, src, `import type { Caller } from "./rowbind";`)
		assert.Contains(t, src, "export function sendMessage(c: Caller, text: string): Promise<void> {")
		assert.Contains(t, src, `return c.callReducer("send_message", text);`)
	})

	t.Run("parameter named like the caller handle does not collide", func(t *testing.T) {
		src, err := New().RenderReducer(&gen.ReducerDef{
			Name: ident.MustNew("ping"),
			Params: []gen.ParamDef{
				{Name: ident.MustNew("c"), Type: schema.U64()},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, src, "export function ping(c_: Caller, c: bigint): Promise<void> {")
		assert.Contains(t, src, `return c_.callReducer("ping", c);`)
	})

	t.Run("lifecycle", func(t *testing.T) {
		src, err := New().RenderReducer(&gen.ReducerDef{
			Name:      ident.MustNew("on_connect"),
			Lifecycle: gen.LifecycleClientConnected,
		})
		require.NoError(t, err)
		assert.Contains(t, src, `export const onConnectReducerName = "on_connect";`)
		assert.NotContains(t, src, "export function onConnect(")
	})
}

func TestGenerateEndToEnd(t *testing.T) {
	m, table := chatModule(t)
	require.NoError(t, m.AddTypeDef(&gen.TypeDef{
		Name: ident.MustNew("UserRow"),
		Ref:  table.RowType,
	}))
	files, err := gen.Generate(m, New())
	require.NoError(t, err)
	assert.Contains(t, files, "user_table.ts")
	assert.Contains(t, files, "rowbind.ts")
	assert.Contains(t, files["rowbind.ts"], "export interface Caller {")
	assert.Contains(t, files["rowbind.ts"],
		"export type UserRow = { identity: bigint; name: string | null; online: boolean };")

	again, err := gen.Generate(m, New())
	require.NoError(t, err)
	assert.Equal(t, files, again)
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "ChatRoom", pascal("chat_room"))
	assert.Equal(t, "chatRoom", lowerCamel("chat_room"))
	assert.Equal(t, "user", lowerCamel("user"))
}
