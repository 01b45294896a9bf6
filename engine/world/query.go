package world

import (
	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/region"
)

// ResolveEntity returns the entity of the structured name, looked up across
// all known regions, or nil
func (w *World) ResolveEntity(name common.EntityName) *entity.Entity {
	return w.ResolveEntityByName(name.String())
}

// ResolveEntityByName resolves an entity by the canonical string form of its
// structured name
func (w *World) ResolveEntityByName(name string) *entity.Entity {
	w.trieLock.Lock()
	val := w.nameTrie.Sub(name).Val
	w.trieLock.Unlock()

	if val == nil {
		return nil
	}
	return val.(*entity.Entity)
}

// Region returns the region record of the simulator handle, or nil
func (w *World) Region(handle common.RegionHandle) *region.Region {
	return w.registry.Get(handle)
}

// FindRegion returns the first region satisfying the predicate, or nil
func (w *World) FindRegion(pred func(r *region.Region) bool) *region.Region {
	return w.registry.Find(pred)
}

// FocusRegion returns the region currently holding the Focus marker, or nil
func (w *World) FocusRegion() *region.Region {
	return w.registry.Find(func(r *region.Region) bool {
		return r.Focus.Load()
	})
}

// Regions returns a snapshot slice of all known region records
func (w *World) Regions() []*region.Region {
	return w.registry.Regions()
}
