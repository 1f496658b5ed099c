package dynamics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRigidBodyDefaults(t *testing.T) {

	dyn := NewRigidBody(Dynamic, 0.05)
	assert.False(t, dyn.IsSleeping())

	kin := NewRigidBody(Kinematic, 0.05)
	assert.True(t, kin.IsSleeping(), "non-dynamic bodies start asleep")

	stat := NewRigidBody(Static, 0.05)
	assert.True(t, stat.IsSleeping())
}

func TestSleepZeroesVelocity(t *testing.T) {

	rb := NewRigidBody(Dynamic, 0.05)
	rb.LinearVelocity.Set(1, 2, 3)
	rb.AngularVelocity.Set(4, 5, 6)

	rb.Sleep()

	assert.True(t, rb.IsSleeping())
	assert.Equal(t, float32(0), rb.LinearVelocity.LengthSq())
	assert.Equal(t, float32(0), rb.AngularVelocity.LengthSq())
	assert.Equal(t, float32(0), rb.Activation.Energy)
}

func TestWakeUpStrongResetsEnergy(t *testing.T) {

	rb := NewRigidBody(Dynamic, 0.05)
	rb.Sleep()

	rb.WakeUp(true)
	assert.False(t, rb.IsSleeping())
	assert.Equal(t, wakeUpEnergy, rb.Activation.Energy)
}

func TestWakeUpWeakOnlyClearsFlag(t *testing.T) {

	rb := NewRigidBody(Dynamic, 0.05)
	rb.Sleep()

	rb.WakeUp(false)
	assert.False(t, rb.IsSleeping())
	assert.Equal(t, float32(0), rb.Activation.Energy)
}

func TestIsMoving(t *testing.T) {

	rb := NewRigidBody(Kinematic, 0.05)
	assert.False(t, rb.IsMoving())

	rb.LinearVelocity.Set(1, 0, 0)
	assert.True(t, rb.IsMoving())
}
