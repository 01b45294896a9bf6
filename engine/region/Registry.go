package region

import (
	"sync"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmlog"
)

// SimulatorInfo is the transport library's snapshot of a simulator, consulted
// when a region record is first created
type SimulatorInfo struct {
	Name        string
	WaterHeight entity.Coord
	WorldBase   entity.Vector3
}

// InfoSource supplies simulator snapshots; implemented by the transport
// collaborator
type InfoSource interface {
	SimulatorInfo(handle common.RegionHandle) (SimulatorInfo, bool)
}

// OnlineFunc is called by Advance with the registry lock held when a region
// flips to Online. It must only take the region's deferred actions out of
// their queue and return a closure replaying them; the closure runs after the
// lock is released.
type OnlineFunc func(r *Region) (replay func())

// Registry owns the set of known region records, at most one per simulator
// handle. Resolve is the only creation path and is safe to call concurrently
// from multiple notification-delivery threads.
type Registry struct {
	lock     sync.Mutex
	regions  map[common.RegionHandle]*Region
	infos    InfoSource
	onOnline OnlineFunc
}

// NewRegistry creates an empty Registry seeding new records from infos
func NewRegistry(infos InfoSource) *Registry {
	return &Registry{
		regions: map[common.RegionHandle]*Region{},
		infos:   infos,
	}
}

// SetOnlineFunc installs the drain hook invoked when a region comes online
func (rs *Registry) SetOnlineFunc(f OnlineFunc) {
	rs.lock.Lock()
	rs.onOnline = f
	rs.lock.Unlock()
}

// Resolve returns the region record of the simulator handle, creating one on
// first sight, and reports whether it was created by this call. Every
// subsequent call for the handle returns the same record.
func (rs *Registry) Resolve(handle common.RegionHandle) (r *Region, created bool) {
	rs.lock.Lock()
	r = rs.regions[handle]
	if r == nil {
		var info SimulatorInfo
		if rs.infos != nil {
			info, _ = rs.infos.SimulatorInfo(handle)
		}
		r = newRegion(handle, info.Name, info.WaterHeight)
		r.WorldBase = info.WorldBase
		rs.regions[handle] = r
		created = true
		if consts.DEBUG_REGIONS {
			gmlog.Debugf("Registry: created %s", r)
		}
	}
	rs.lock.Unlock()
	return
}

// Get returns the region record of the handle without creating one
func (rs *Registry) Get(handle common.RegionHandle) *Region {
	rs.lock.Lock()
	r := rs.regions[handle]
	rs.lock.Unlock()
	return r
}

// SetState transitions the region to the state under the registry lock and
// reports whether the state actually changed
func (rs *Registry) SetState(r *Region, state RegionState) bool {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if r.State() == state {
		return false
	}
	r.setState(state)
	return true
}

// Advance transitions the region to Online when its event channel is
// established. Idempotent: a duplicate or retried establish notification is a
// no-op. The registry lock covers both the state flip and the removal of the
// region's online-gated actions from their queue, so a racing second
// notification can neither double-drain nor miss the drain; the drained
// actions themselves are replayed after the lock is released.
func (rs *Registry) Advance(r *Region) {
	rs.lock.Lock()
	if r.State() == RegionOnline {
		rs.lock.Unlock()
		return
	}
	r.setState(RegionOnline)
	var replay func()
	if rs.onOnline != nil {
		replay = rs.onOnline(r)
	}
	rs.lock.Unlock()

	gmlog.Infof("%s is online", r)
	if replay != nil {
		replay()
	}
}

// Remove deletes the region record and detaches it from its entity index's
// change events; returns the removed record or nil
func (rs *Registry) Remove(handle common.RegionHandle) *Region {
	rs.lock.Lock()
	r := rs.regions[handle]
	if r == nil {
		rs.lock.Unlock()
		return nil
	}
	delete(rs.regions, handle)
	rs.lock.Unlock()

	r.Index().SetListener(nil)
	r.setState(RegionDown)
	if consts.DEBUG_REGIONS {
		gmlog.Debugf("Registry: removed %s", r)
	}
	return r
}

// RemoveAll removes every region record; used at connection teardown, where
// outstanding deferred actions are discarded along with the records
func (rs *Registry) RemoveAll() []*Region {
	rs.lock.Lock()
	removed := make([]*Region, 0, len(rs.regions))
	for _, r := range rs.regions {
		removed = append(removed, r)
	}
	rs.regions = map[common.RegionHandle]*Region{}
	rs.lock.Unlock()

	for _, r := range removed {
		r.Index().SetListener(nil)
		r.setState(RegionDown)
	}
	return removed
}

// Find returns the first region satisfying the predicate, or nil
func (rs *Registry) Find(pred func(r *Region) bool) *Region {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	for _, r := range rs.regions {
		if pred(r) {
			return r
		}
	}
	return nil
}

// Regions returns a snapshot slice of all region records
func (rs *Registry) Regions() []*Region {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	regions := make([]*Region, 0, len(rs.regions))
	for _, r := range rs.regions {
		regions = append(regions, r)
	}
	return regions
}

// Count returns the number of known regions
func (rs *Registry) Count() int {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return len(rs.regions)
}
