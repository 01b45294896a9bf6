package common

import (
	"fmt"
	"sync/atomic"
)

// RegionHandle is the opaque identity of a remote simulator
type RegionHandle uint64

// IsNil returns if RegionHandle is nil
func (h RegionHandle) IsNil() bool {
	return h == 0
}

func (h RegionHandle) String() string {
	return fmt.Sprintf("Sim<%d>", uint64(h))
}

// EntitySeq is the process-local sequence id of an entity, assigned once at
// creation and never reused
type EntitySeq uint64

// IsNil returns if EntitySeq is nil
func (seq EntitySeq) IsNil() bool {
	return seq == 0
}

var entitySeqCounter uint64

// GenEntitySeq generates the next EntitySeq
func GenEntitySeq() EntitySeq {
	return EntitySeq(atomic.AddUint64(&entitySeqCounter, 1))
}

// EntityKind tells what kind of world object an entity mirrors
type EntityKind uint8

// All entity kinds
const (
	KindObject EntityKind = iota + 1
	KindAvatar
	KindAgent
	KindTerrain
)

func (k EntityKind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindAvatar:
		return "avatar"
	case KindAgent:
		return "agent"
	case KindTerrain:
		return "terrain"
	}
	return "unknown"
}

// EntityName is the structured name of a mirrored entity: the remote-local id
// scoped by its owning region and kind. Remote-local ids are simulator-scoped,
// so the region handle is part of the name.
type EntityName struct {
	Kind   EntityKind
	Region RegionHandle
	Local  uint32
}

// IsNil returns if EntityName is the zero name
func (n EntityName) IsNil() bool {
	return n == EntityName{}
}

func (n EntityName) String() string {
	return fmt.Sprintf("%s.%d.%d", n.Kind, uint64(n.Region), n.Local)
}

// ObjectName makes the structured name of an object in a region
func ObjectName(region RegionHandle, local uint32) EntityName {
	return EntityName{Kind: KindObject, Region: region, Local: local}
}

// AvatarName makes the structured name of an avatar in a region
func AvatarName(region RegionHandle, local uint32) EntityName {
	return EntityName{Kind: KindAvatar, Region: region, Local: local}
}
