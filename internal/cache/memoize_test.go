package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoize_ComputesOnce(t *testing.T) {
	calls := 0
	fn := func(args ...any) (int, error) {
		calls++
		return args[0].(int) * 2, nil
	}

	memo, err := Memoize(fn, 8)
	require.NoError(t, err)

	v, err := memo(21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = memo(21)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}

func TestMemoize_DistinctArgsDistinctSlots(t *testing.T) {
	calls := 0
	fn := func(args ...any) (string, error) {
		calls++
		return args[0].(string) + "!", nil
	}

	memo, err := Memoize(fn, 8)
	require.NoError(t, err)

	a, _ := memo("a")
	b, _ := memo("b")
	assert.Equal(t, "a!", a)
	assert.Equal(t, "b!", b)
	assert.Equal(t, 2, calls)
}

func TestMemoize_ErrorsNotCached(t *testing.T) {
	calls := 0
	fn := func(args ...any) (int, error) {
		calls++
		if calls == 1 {
			return 0, assert.AnError
		}
		return 1, nil
	}

	memo, err := Memoize(fn, 8)
	require.NoError(t, err)

	_, err = memo("x")
	assert.Error(t, err)

	v, err := memo("x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, calls)
}

func TestMemoize_EvictionRecomputes(t *testing.T) {
	calls := 0
	fn := func(args ...any) (int, error) {
		calls++
		return args[0].(int), nil
	}

	memo, err := Memoize(fn, 1)
	require.NoError(t, err)

	_, _ = memo(1)
	_, _ = memo(2) // evicts 1
	_, _ = memo(1) // recompute
	assert.Equal(t, 3, calls)
}
