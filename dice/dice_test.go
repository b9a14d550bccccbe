package dice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRollerRange(t *testing.T) {
	r := NewCryptoRoller()
	for i := 0; i < 200; i++ {
		roll, err := r.Roll(2)
		require.NoError(t, err)
		require.Len(t, roll, 2)
		for _, d := range roll {
			assert.GreaterOrEqual(t, d, 1)
			assert.LessOrEqual(t, d, Sides)
		}
	}

	_, err := r.Roll(0)
	assert.Error(t, err)
}

func TestSeededRollerIsDeterministic(t *testing.T) {
	a, b := NewSeededRoller(42), NewSeededRoller(42)
	for i := 0; i < 20; i++ {
		x, err := a.Roll(2)
		require.NoError(t, err)
		y, err := b.Roll(2)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}
}

func TestFixedRoller(t *testing.T) {
	r := NewFixedRoller([]int{3}, []int{4, 4})

	roll, err := r.Roll(1)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, roll)

	roll, err = r.Roll(2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, roll)

	// The last roll repeats.
	roll, err = r.Roll(2)
	require.NoError(t, err)
	assert.Equal(t, 8, Total(roll))

	_, err = r.Roll(1)
	assert.Error(t, err)
}
