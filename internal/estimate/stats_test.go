package estimate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Run("odd count", func(t *testing.T) {
		s := Compute([]float64{300, 100, 500, 200, 400})
		require.NotNil(t, s)
		assert.Equal(t, 5, s.N)
		assert.InDelta(t, 300, s.Median, 1e-9)
		assert.InDelta(t, 200, s.P25, 1e-9)
		assert.InDelta(t, 400, s.P75, 1e-9)
	})

	t.Run("even count averages the middle pair", func(t *testing.T) {
		s := Compute([]float64{4, 1, 3, 2})
		require.NotNil(t, s)
		assert.Equal(t, 4, s.N)
		assert.InDelta(t, 2.5, s.Median, 1e-9)
		assert.InDelta(t, 1, s.P25, 1e-9)
		assert.InDelta(t, 3, s.P75, 1e-9)
	})

	t.Run("single value", func(t *testing.T) {
		s := Compute([]float64{2750})
		require.NotNil(t, s)
		assert.Equal(t, 1, s.N)
		assert.InDelta(t, 2750, s.Median, 1e-9)
		assert.InDelta(t, 2750, s.P25, 1e-9)
		assert.InDelta(t, 2750, s.P75, 1e-9)
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Nil(t, Compute(nil))
		assert.Nil(t, Compute([]float64{}))
	})

	t.Run("input is not mutated", func(t *testing.T) {
		prices := []float64{3, 1, 2}
		Compute(prices)
		assert.Equal(t, []float64{3, 1, 2}, prices)
	})
}
