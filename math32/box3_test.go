package math32

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsBoxRejectsBoxStickingOutOnMinSide(t *testing.T) {

	outer := NewBox3(&Vector3{X: 0, Y: 0, Z: 0}, &Vector3{X: 10, Y: 10, Z: 10})
	inner := NewBox3(&Vector3{X: -5, Y: 1, Z: 1}, &Vector3{X: 5, Y: 9, Z: 9})

	assert.False(t, outer.ContainsBox(inner))
}

func TestContainsBoxAcceptsBoxFullyInside(t *testing.T) {

	outer := NewBox3(&Vector3{X: 0, Y: 0, Z: 0}, &Vector3{X: 10, Y: 10, Z: 10})
	inner := NewBox3(&Vector3{X: 1, Y: 1, Z: 1}, &Vector3{X: 9, Y: 9, Z: 9})

	assert.True(t, outer.ContainsBox(inner))
}

func TestMergedLeavesBothBoxesUnchanged(t *testing.T) {

	a := NewBox3(&Vector3{X: 0, Y: 0, Z: 0}, &Vector3{X: 1, Y: 1, Z: 1})
	b := NewBox3(&Vector3{X: 5, Y: 5, Z: 5}, &Vector3{X: 6, Y: 6, Z: 6})

	merged := a.Merged(b)

	assert.Equal(t, Vector3{X: 0, Y: 0, Z: 0}, merged.Min)
	assert.Equal(t, Vector3{X: 6, Y: 6, Z: 6}, merged.Max)
	assert.Equal(t, Vector3{X: 1, Y: 1, Z: 1}, a.Max, "Merged must not mutate the receiver")
	assert.Equal(t, Vector3{X: 5, Y: 5, Z: 5}, b.Min, "Merged must not mutate the argument")
}

func TestSizeReturnsMaxMinusMin(t *testing.T) {

	b := NewBox3(&Vector3{X: 1, Y: 2, Z: 3}, &Vector3{X: 4, Y: 6, Z: 9})

	size := b.Size(nil)
	assert.Equal(t, Vector3{X: 3, Y: 4, Z: 6}, *size)
}

func TestNewInvalidBox3IsAbsorbedByMerge(t *testing.T) {

	invalid := NewInvalidBox3()
	real := NewBox3(&Vector3{X: 1, Y: 1, Z: 1}, &Vector3{X: 2, Y: 2, Z: 2})

	merged := invalid.Merged(real)
	assert.Equal(t, real.Min, merged.Min)
	assert.Equal(t, real.Max, merged.Max)
}
