package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowbind/rowbind/compiler/gen"
)

func TestBuildModule(t *testing.T) {
	m, err := buildModule()
	require.NoError(t, err)

	assert.Equal(t, "chat", m.Name.String())
	require.Len(t, m.Tables(), 2)
	assert.Equal(t, "user", m.Tables()[0].Name.String())
	assert.Equal(t, []int{0}, m.Tables()[0].PrimaryKey)
	assert.Equal(t, []int{0, 1}, m.Tables()[1].PrimaryKey)
	assert.Len(t, m.Reducers(), 4)
	assert.Len(t, m.TypeDefs(), 1)
}

func TestModuleGeneratesForAllTargets(t *testing.T) {
	m, err := buildModule()
	require.NoError(t, err)

	for _, name := range gen.Names() {
		t.Run(name, func(t *testing.T) {
			target, err := gen.Lookup(name)
			require.NoError(t, err)
			files, err := gen.Generate(m, target)
			require.NoError(t, err)
			// Two tables, four reducers, one scaffold file.
			assert.Len(t, files, 7)
		})
	}
}

func TestTargetsRegistered(t *testing.T) {
	assert.Equal(t, []string{"go", "python", "typescript"}, gen.Names())
}
