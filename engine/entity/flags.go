package entity

import (
	"bytes"
)

// ChangeFlags is the bitmask of entity fields changed by one update
type ChangeFlags uint32

// All change bits; bits are not mutually exclusive
const (
	ChangeNew ChangeFlags = 1 << iota
	ChangePosition
	ChangeRotation
	ChangeVelocity
	ChangeAcceleration
	ChangeAngularVelocity
	ChangeScale
	ChangeTextures
	ChangeAnimation
	ChangeAppearance
	ChangeCollisionPlane
	ChangeTerrain
	ChangeParent
)

// ChangeMovement covers every velocity-family bit
const ChangeMovement = ChangeVelocity | ChangeAcceleration | ChangeAngularVelocity

var changeFlagNames = []struct {
	flag ChangeFlags
	name string
}{
	{ChangeNew, "New"},
	{ChangePosition, "Position"},
	{ChangeRotation, "Rotation"},
	{ChangeVelocity, "Velocity"},
	{ChangeAcceleration, "Acceleration"},
	{ChangeAngularVelocity, "AngularVelocity"},
	{ChangeScale, "Scale"},
	{ChangeTextures, "Textures"},
	{ChangeAnimation, "Animation"},
	{ChangeAppearance, "Appearance"},
	{ChangeCollisionPlane, "CollisionPlane"},
	{ChangeTerrain, "Terrain"},
	{ChangeParent, "Parent"},
}

// Has checks if all bits of other are set
func (cf ChangeFlags) Has(other ChangeFlags) bool {
	return cf&other == other
}

func (cf ChangeFlags) String() string {
	if cf == 0 {
		return "None"
	}
	b := bytes.Buffer{}
	for _, fn := range changeFlagNames {
		if cf&fn.flag != 0 {
			if b.Len() > 0 {
				b.WriteString("|")
			}
			b.WriteString(fn.name)
		}
	}
	return b.String()
}
