package geometry

import (
	"testing"

	"github.com/strata-phys/strata/math32"
	"github.com/stretchr/testify/assert"
)

type boxShape struct {
	box math32.Box3
}

func (s boxShape) LocalAABB() math32.Box3 { return s.box }

func unitBoxShape() boxShape {
	min := math32.Vector3{X: -1, Y: -1, Z: -1}
	max := math32.Vector3{X: 1, Y: 1, Z: 1}
	return boxShape{box: *math32.NewBox3(&min, &max)}
}

func TestComputeAABBTranslatesToPosition(t *testing.T) {

	c := Collider{
		Shape:    unitBoxShape(),
		Position: math32.Vector3{X: 5, Y: 0, Z: 0},
	}

	got := c.ComputeAABB()

	assert.Equal(t, float32(4), got.Min.X)
	assert.Equal(t, float32(6), got.Max.X)
	assert.Equal(t, float32(-1), got.Min.Y)
	assert.Equal(t, float32(1), got.Max.Y)
}

func TestComputeAABBWithNoShapeIsInvalid(t *testing.T) {

	c := Collider{}
	got := c.ComputeAABB()
	assert.True(t, got.Empty())
}

func TestResetInternalReferencesClearsProxyIndex(t *testing.T) {

	c := Collider{proxyIndex: 4}
	c.resetInternalReferences()
	assert.Equal(t, -1, c.ProxyIndex())
}

func TestSetProxyIndexIsVisibleToProxyIndex(t *testing.T) {

	c := Collider{}
	c.SetProxyIndex(7)
	assert.Equal(t, 7, c.ProxyIndex())
}
