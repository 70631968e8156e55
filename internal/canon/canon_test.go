package canon

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_KeyOrderIndependent(t *testing.T) {
	a := json.RawMessage(`{"b":1,"a":{"d":4,"c":3}}`)
	b := json.RawMessage(`{"a":{"c":3,"d":4},"b":1}`)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestHash_Deterministic(t *testing.T) {
	v := map[string]any{
		"id":     "prop-001",
		"scores": []float64{0.5, 0.75},
		"nested": map[string]any{"axis": "rumination", "runs": 60},
	}

	h1, err := Hash(v)
	require.NoError(t, err)
	h2, err := Hash(v)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHash_DistinguishesValues(t *testing.T) {
	h1, err := Hash(map[string]int{"a": 1})
	require.NoError(t, err)
	h2, err := Hash(map[string]int{"a": 2})
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestMarshal_SortsKeys(t *testing.T) {
	b, err := Marshal(json.RawMessage(`{"z":1,"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"z":1}`, string(b))
}

func TestMarshal_RejectsUnserializable(t *testing.T) {
	_, err := Marshal(make(chan int))
	assert.Error(t, err)
}
