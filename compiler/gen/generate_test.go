package gen

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

// stubTarget is a minimal language target for generator tests. It
// maps u64 to "int", string to "str", bool to "bool", and options to
// a trailing "?", and lowercases table names for filenames so that
// differently-cased table names collide.
type stubTarget struct {
	name     string
	scaffold []string // scaffold filenames; nil disables the capability via wrapper below
}

func (s *stubTarget) Name() string { return s.name }

func (s *stubTarget) ReservedWords() []string { return nil }

func (s *stubTarget) TypeName(t schema.AlgebraicType) string {
	if elem, ok := t.OptionElem(); ok {
		return s.TypeName(elem) + "?"
	}
	switch t.Kind {
	case schema.KindU64:
		return "int"
	case schema.KindString:
		return "str"
	case schema.KindBool:
		return "bool"
	default:
		return t.Kind.String()
	}
}

func (s *stubTarget) TableFileName(name ident.Identifier) string {
	return strings.ToLower(name.String()) + ".stub"
}

func (s *stubTarget) ReducerFileName(name ident.Identifier) string {
	return strings.ToLower(name.String()) + "_reducer.stub"
}

func (s *stubTarget) RenderTable(def *TableDef, module *ModuleDef) (string, error) {
	fields, err := module.RowFields(def)
	if err != nil {
		return "", err
	}
	pk := make(map[int]bool, len(def.PrimaryKey))
	for _, pos := range def.PrimaryKey {
		pk[pos] = true
	}
	var b strings.Builder
	fmt.Fprintf(&b, "table %s %s\n", def.Name, def.Access)
	for i, f := range fields {
		fmt.Fprintf(&b, "%s %s", f.Name, s.TypeName(f.Type))
		if pk[i] {
			b.WriteString(" pk")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (s *stubTarget) RenderReducer(def *ReducerDef) (string, error) {
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		params[i] = p.Name.String() + " " + s.TypeName(p.Type)
	}
	return fmt.Sprintf("reducer %s(%s)\n", def.Name, strings.Join(params, ", ")), nil
}

// scaffoldStub adds the optional scaffold capability on top of stubTarget.
type scaffoldStub struct{ *stubTarget }

func (s *scaffoldStub) ScaffoldFileNames() []string { return s.scaffold }

func (s *scaffoldStub) RenderScaffold(module *ModuleDef) (map[string]string, error) {
	files := make(map[string]string, len(s.scaffold))
	for _, name := range s.scaffold {
		files[name] = "shared for " + module.Name.String() + "\n"
	}
	return files, nil
}

// rogueScaffold declares one scaffold file but emits an extra,
// undeclared one targeting a table filename.
type rogueScaffold struct{ *stubTarget }

func (s *rogueScaffold) ScaffoldFileNames() []string { return []string{"shared.stub"} }

func (s *rogueScaffold) RenderScaffold(module *ModuleDef) (map[string]string, error) {
	return map[string]string{
		"shared.stub": "shared\n",
		"user.stub":   "overwritten\n",
	}, nil
}

func chatModule(t *testing.T) *ModuleDef {
	t.Helper()
	m := NewModuleDef(ident.MustNew("chat"))
	ref := m.AddType(userRow(t))
	require.NoError(t, m.AddTable(&TableDef{
		Name:       ident.MustNew("User"),
		RowType:    ref,
		PrimaryKey: []int{0},
		Access:     AccessPublic,
	}))
	require.NoError(t, m.AddReducer(&ReducerDef{
		Name:   ident.MustNew("send_message"),
		Params: []ParamDef{{Name: ident.MustNew("text"), Type: schema.String()}},
	}))
	return m
}

func TestGenerate(t *testing.T) {
	t.Run("single table renders fields in order with pk marker", func(t *testing.T) {
		m := NewModuleDef(ident.MustNew("chat"))
		ref := m.AddType(userRow(t))
		require.NoError(t, m.AddTable(&TableDef{
			Name:       ident.MustNew("User"),
			RowType:    ref,
			PrimaryKey: []int{0},
			Access:     AccessPublic,
		}))

		files, err := Generate(m, &stubTarget{name: "stub"})
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t,
			"table User public\n"+
				"identity int pk\n"+
				"name str?\n"+
				"online bool\n",
			files["user.stub"])
	})

	t.Run("reducers render after tables in declaration order", func(t *testing.T) {
		files, err := Generate(chatModule(t), &stubTarget{name: "stub"})
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "reducer send_message(text str)\n", files["send_message_reducer.stub"])
	})

	t.Run("deterministic output", func(t *testing.T) {
		m := chatModule(t)
		target := &stubTarget{name: "stub"}
		first, err := Generate(m, target)
		require.NoError(t, err)
		second, err := Generate(m, target)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("filename collision lists both tables and emits nothing", func(t *testing.T) {
		m := NewModuleDef(ident.MustNew("chat"))
		ref := m.AddType(userRow(t))
		require.NoError(t, m.AddTable(&TableDef{Name: ident.MustNew("User"), RowType: ref}))
		require.NoError(t, m.AddTable(&TableDef{Name: ident.MustNew("uSER"), RowType: ref}))

		files, err := Generate(m, &stubTarget{name: "stub"})
		require.ErrorIs(t, err, ErrFilenameCollision)
		assert.Nil(t, files)

		var colErr *CollisionError
		require.ErrorAs(t, err, &colErr)
		require.Len(t, colErr.Collisions, 1)
		assert.Equal(t, "user.stub", colErr.Collisions[0].Filename)
		assert.Equal(t, []string{"table User", "table uSER"}, colErr.Collisions[0].Defs)
	})

	t.Run("scaffold emitted once and participates in collision check", func(t *testing.T) {
		m := chatModule(t)

		files, err := Generate(m, &scaffoldStub{&stubTarget{name: "stub", scaffold: []string{"shared.stub"}}})
		require.NoError(t, err)
		require.Len(t, files, 3)
		assert.Equal(t, "shared for chat\n", files["shared.stub"])

		// A scaffold file colliding with a table file fails the run.
		_, err = Generate(m, &scaffoldStub{&stubTarget{name: "stub", scaffold: []string{"user.stub"}}})
		assert.ErrorIs(t, err, ErrFilenameCollision)
	})

	t.Run("scaffold emitting an undeclared file is an invariant violation", func(t *testing.T) {
		m := chatModule(t)

		files, err := Generate(m, &rogueScaffold{&stubTarget{name: "stub"}})
		require.ErrorIs(t, err, ErrInternalInvariant)
		assert.Nil(t, files)
		assert.Contains(t, err.Error(), "user.stub")
	})

	t.Run("dangling ref inside a registered table is an invariant violation", func(t *testing.T) {
		m := chatModule(t)
		// Corrupt the IR past AddTable's checks; Generate must report a
		// bug in the IR layer, not silently skip the table.
		m.tables = append(m.tables, &TableDef{Name: ident.MustNew("ghost"), RowType: TypeRef(99)})

		_, err := Generate(m, &stubTarget{name: "stub"})
		require.ErrorIs(t, err, ErrInternalInvariant)
		assert.True(t, IsInvariantError(err))
		assert.False(t, IsSchemaError(err))
	})
}

func TestGenerateAll(t *testing.T) {
	m := chatModule(t)

	t.Run("one result set per target", func(t *testing.T) {
		results, err := GenerateAll(context.Background(), m,
			&stubTarget{name: "a"}, &stubTarget{name: "b"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, results["a"], results["b"])
		assert.Contains(t, results["a"], "user.stub")
	})

	t.Run("failing target reports its name", func(t *testing.T) {
		bad := NewModuleDef(ident.MustNew("chat"))
		ref := bad.AddType(userRow(t))
		require.NoError(t, bad.AddTable(&TableDef{Name: ident.MustNew("User"), RowType: ref}))
		require.NoError(t, bad.AddTable(&TableDef{Name: ident.MustNew("uSER"), RowType: ref}))

		_, err := GenerateAll(context.Background(), bad, &stubTarget{name: "broken"})
		require.ErrorIs(t, err, ErrFilenameCollision)
		assert.Contains(t, err.Error(), "target broken")
	})
}
