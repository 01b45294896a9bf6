package transport

import (
	"github.com/gridmirror/gridmirror/engine/entity"
)

// PCode is the remote shape code of an object update
type PCode uint8

// Shape codes used by the pipeline; foliage codes get a special-render tag
const (
	PCodePrim    PCode = 9
	PCodeAvatar  PCode = 47
	PCodeGrass   PCode = 95
	PCodeNewTree PCode = 111
	PCodeTree    PCode = 255
)

// FoliageKind maps a shape code to its foliage sub-type; returns 0 for
// non-foliage codes
func (pc PCode) FoliageKind() entity.FoliageKind {
	switch pc {
	case PCodeGrass:
		return entity.FoliageGrass
	case PCodeTree:
		return entity.FoliageTree
	case PCodeNewTree:
		return entity.FoliageNewTree
	}
	return 0
}

// ObjectUpdate is one full object update notification
type ObjectUpdate struct {
	Local       uint32
	ParentLocal uint32
	PCode       PCode

	Position        entity.Vector3
	Rotation        entity.Quaternion
	Velocity        entity.Vector3
	Acceleration    entity.Vector3
	AngularVelocity entity.Vector3
	Scale           entity.Vector3
	CollisionPlane  entity.Quaternion

	TextureEntry []byte
	AttachPoint  uint8
}

// TerseUpdate is one partial-field update notification; the transport
// delivers the previous and the incoming field sets side by side so the
// pipeline can diff them field-by-field
type TerseUpdate struct {
	Local uint32

	Position        entity.Vector3
	Rotation        entity.Quaternion
	Velocity        entity.Vector3
	Acceleration    entity.Vector3
	AngularVelocity entity.Vector3
	CollisionPlane  entity.Quaternion

	TextureEntry []byte
}

// AvatarUpdate is one avatar update notification
type AvatarUpdate struct {
	Local       uint32
	ParentLocal uint32
	FirstName   string
	LastName    string

	Position entity.Vector3
	Rotation entity.Quaternion
	Velocity entity.Vector3
}
