package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rowbind/rowbind/schema"
	"github.com/rowbind/rowbind/schema/ident"
)

func TestSnapshot(t *testing.T) {
	m := chatModule(t)
	s := Snapshot(m)

	assert.Equal(t, "chat", s.Module)
	require.Len(t, s.Types, 1)
	assert.Equal(t, "{identity: u64, name: option<string>, online: bool}", s.Types[0].Type)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "User", s.Tables[0].Name)
	assert.Equal(t, []int{0}, s.Tables[0].PrimaryKey)
	assert.Equal(t, "public", s.Tables[0].Access)
	require.Len(t, s.Reducers, 1)
	assert.Equal(t, "send_message", s.Reducers[0].Name)
	assert.Equal(t, "string", s.Reducers[0].Params[0].Type)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := Snapshot(chatModule(t))

	data, err := s.MarshalBinary()
	require.NoError(t, err)
	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)

	// The binary form is the plain field map, not a nested re-encoding
	// through the marshaler method.
	var raw map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(data, &raw))
	assert.Equal(t, "chat", raw["module"])

	jsonData, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"module":"chat"`)
}

func TestFingerprint(t *testing.T) {
	t.Run("deterministic across calls", func(t *testing.T) {
		m := chatModule(t)
		a, err := Fingerprint(m)
		require.NoError(t, err)
		b, err := Fingerprint(m)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("equal schemas share a fingerprint", func(t *testing.T) {
		a, err := Fingerprint(chatModule(t))
		require.NoError(t, err)
		b, err := Fingerprint(chatModule(t))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("schema change produces a new fingerprint", func(t *testing.T) {
		m := chatModule(t)
		before, err := Fingerprint(m)
		require.NoError(t, err)

		require.NoError(t, m.AddReducer(&ReducerDef{
			Name:   ident.MustNew("ban_user"),
			Params: []ParamDef{{Name: ident.MustNew("identity"), Type: schema.U64()}},
		}))
		after, err := Fingerprint(m)
		require.NoError(t, err)
		assert.NotEqual(t, before, after)
	})
}
