package entity

import (
	"math"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gridmirror/gridmirror/engine/common"
)

func TestNewEntityDefaults(t *testing.T) {
	e := NewEntity(common.ObjectName(1, 1))
	assert.Equal(t, IdentityQuaternion(), e.Rotation)
	assert.Equal(t, Vector3{1, 1, 1}, e.Scale)
	if e.Seq.IsNil() {
		t.Fail()
	}
}

func TestNotifyUpdated(t *testing.T) {
	e := NewEntity(common.ObjectName(1, 1))
	var gotFlags ChangeFlags
	var calls int
	e.SetUpdateNotifier(func(e *Entity, flags ChangeFlags) {
		gotFlags = flags
		calls++
	})

	e.NotifyUpdated(0) // zero mask must not notify
	assert.Equal(t, 0, calls)

	e.NotifyUpdated(ChangePosition | ChangeRotation)
	assert.Equal(t, 1, calls)
	assert.Equal(t, true, gotFlags.Has(ChangePosition))
	assert.Equal(t, true, gotFlags.Has(ChangeRotation))
	assert.Equal(t, false, gotFlags.Has(ChangeScale))
}

func TestComponents(t *testing.T) {
	e := NewEntity(common.ObjectName(1, 1))
	assert.Equal(t, false, e.HasComponent(TagAnimation))

	e.AddComponent(&AnimationComponent{Axis: Vector3{0, 0, 1}, RoundsPerSecond: 1})
	c, ok := e.Component(TagAnimation)
	assert.Equal(t, true, ok)
	assert.Equal(t, Coord(1), c.(*AnimationComponent).RoundsPerSecond)

	// same tag replaces
	e.AddComponent(&AnimationComponent{Axis: Vector3{0, 0, 1}, RoundsPerSecond: 2})
	c, _ = e.Component(TagAnimation)
	assert.Equal(t, Coord(2), c.(*AnimationComponent).RoundsPerSecond)

	e.RemoveComponent(TagAnimation)
	assert.Equal(t, false, e.HasComponent(TagAnimation))
}

func TestIsAvatar(t *testing.T) {
	assert.Equal(t, false, NewEntity(common.ObjectName(1, 1)).IsAvatar())
	assert.Equal(t, true, NewEntity(common.AvatarName(1, 1)).IsAvatar())
	agent := NewEntity(common.EntityName{Kind: common.KindAgent, Region: 1, Local: 1})
	assert.Equal(t, true, agent.IsAvatar())
}

func TestVector3(t *testing.T) {
	v := Vector3{3, 4, 0}
	assert.Equal(t, Coord(5), v.Length())
	assert.Equal(t, false, v.IsZero())
	assert.Equal(t, true, Vector3{}.IsZero())

	n := v.Normalized()
	if math.Abs(float64(n.Length())-1) > 1e-6 {
		t.Errorf("normalized length should be 1, got %v", n.Length())
	}

	assert.Equal(t, Vector3{4, 6, 0}, v.Add(Vector3{1, 2, 0}))
	assert.Equal(t, Vector3{2, 2, 0}, v.Sub(Vector3{1, 2, 0}))
	assert.Equal(t, Coord(5), Vector3{}.DistanceTo(v))
}

func TestChangeFlagsString(t *testing.T) {
	flags := ChangePosition | ChangeAnimation
	s := flags.String()
	if s == "" {
		t.Fail()
	}
	assert.Equal(t, true, ChangeMovement.Has(ChangeVelocity))
	assert.Equal(t, true, ChangeMovement.Has(ChangeAngularVelocity))
	assert.Equal(t, false, ChangeMovement.Has(ChangePosition))
}
