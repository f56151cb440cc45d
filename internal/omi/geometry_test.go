package omi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func squareZone() ZonePolygon {
	zp := ZonePolygon{
		Zone: "B1",
		Ring: []Point{
			{Lat: 45.0, Lon: 9.0},
			{Lat: 45.0, Lon: 9.2},
			{Lat: 45.2, Lon: 9.2},
			{Lat: 45.2, Lon: 9.0},
		},
	}
	zp.computeBBox()
	return zp
}

func TestContains(t *testing.T) {
	zp := squareZone()

	t.Run("center is inside", func(t *testing.T) {
		assert.True(t, zp.contains(45.1, 9.1))
	})

	t.Run("far point is outside", func(t *testing.T) {
		// Middle of the Tyrrhenian Sea.
		assert.False(t, zp.contains(40.0, 12.0))
	})

	t.Run("just outside each side", func(t *testing.T) {
		assert.False(t, zp.contains(44.99, 9.1))
		assert.False(t, zp.contains(45.21, 9.1))
		assert.False(t, zp.contains(45.1, 8.99))
		assert.False(t, zp.contains(45.1, 9.21))
	})

	t.Run("latitude on horizontal edge does not panic", func(t *testing.T) {
		// The ring's bottom edge is exactly horizontal at lat 45.0; without
		// the epsilon guard this divides by zero.
		assert.NotPanics(t, func() {
			zp.contains(45.0, 9.1)
		})
		assert.True(t, zp.contains(45.0+1e-9, 9.1))
	})

	t.Run("degenerate ring", func(t *testing.T) {
		flat := ZonePolygon{Ring: []Point{{Lat: 45, Lon: 9}, {Lat: 45, Lon: 9.1}}}
		assert.False(t, flat.contains(45, 9.05))
	})
}

func TestContainsDeterministic(t *testing.T) {
	zp := squareZone()
	for i := 0; i < 100; i++ {
		assert.True(t, zp.contains(45.05, 9.15))
	}
}

func TestBBoxPrefilter(t *testing.T) {
	zp := squareZone()
	assert.True(t, zp.inBBox(45.1, 9.1))
	assert.False(t, zp.inBBox(46.0, 9.1))
	assert.False(t, zp.inBBox(45.1, 10.0))
}
