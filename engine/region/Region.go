package region

import (
	"fmt"
	"sync/atomic"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/entity"
)

// RegionState is the lifecycle state of a region record
type RegionState int32

// All region states; only RegionOnline is fully usable for update delivery
const (
	RegionUninitialized RegionState = iota
	RegionConnected
	RegionOnline
	RegionDisconnected
	RegionShuttingDown
	RegionDown
)

func (s RegionState) String() string {
	switch s {
	case RegionUninitialized:
		return "Uninitialized"
	case RegionConnected:
		return "Connected"
	case RegionOnline:
		return "Online"
	case RegionDisconnected:
		return "Disconnected"
	case RegionShuttingDown:
		return "ShuttingDown"
	case RegionDown:
		return "Down"
	}
	return "Invalid"
}

// Region is the local mirror of one simulator's lifecycle and content.
//
// State transitions happen only under the owning Registry's lock; state reads
// are lock-free. The Focus marker is orthogonal to the lifecycle state.
type Region struct {
	Handle common.RegionHandle
	Name   string

	state int32
	Focus xnsyncutil.AtomicBool

	// WorldBase is the region's origin in the larger world coordinate space
	WorldBase entity.Vector3
	Size      entity.Vector3

	terrain *Terrain
	index   *entity.EntityIndex
}

func newRegion(handle common.RegionHandle, name string, waterHeight entity.Coord) *Region {
	r := &Region{
		Handle:  handle,
		Name:    name,
		Size:    entity.Vector3{X: 256, Y: 256, Z: 0},
		terrain: newTerrain(waterHeight),
		index:   entity.NewEntityIndex(),
	}
	r.state = int32(RegionUninitialized)
	return r
}

func (r *Region) String() string {
	if r.Name != "" {
		return fmt.Sprintf("Region<%s|%d>", r.Name, uint64(r.Handle))
	}
	return fmt.Sprintf("Region<%d>", uint64(r.Handle))
}

// State returns the current lifecycle state
func (r *Region) State() RegionState {
	return RegionState(atomic.LoadInt32(&r.state))
}

// IsOnline returns if the region is fully usable for update delivery
func (r *Region) IsOnline() bool {
	return r.State() == RegionOnline
}

// setState is called by the Registry with its lock held
func (r *Region) setState(s RegionState) {
	atomic.StoreInt32(&r.state, int32(s))
}

// Index returns the region's entity index
func (r *Region) Index() *entity.EntityIndex {
	return r.index
}

// Terrain returns the region's terrain metadata
func (r *Region) Terrain() *Terrain {
	return r.terrain
}
