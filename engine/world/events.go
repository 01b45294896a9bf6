package world

import (
	"sync"

	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmutils"
	"github.com/gridmirror/gridmirror/engine/region"
)

// WorldListener observes the world mirror: region, entity and agent
// lifecycle. Callbacks fire on notification-delivery goroutines and must
// return quickly.
type WorldListener interface {
	OnRegionAdded(r *region.Region)
	OnRegionUpdated(r *region.Region, flags entity.ChangeFlags)
	OnRegionRemoved(r *region.Region)

	OnEntityAdded(e *entity.Entity)
	OnEntityUpdated(e *entity.Entity, flags entity.ChangeFlags)
	OnEntityRemoved(e *entity.Entity)

	OnAgentAdded(e *entity.Entity)
	OnAgentUpdated(e *entity.Entity, flags entity.ChangeFlags)
	OnAgentRemoved(e *entity.Entity)
}

// ListenerFuncs adapts plain functions to WorldListener; nil fields are
// ignored
type ListenerFuncs struct {
	RegionAdded   func(r *region.Region)
	RegionUpdated func(r *region.Region, flags entity.ChangeFlags)
	RegionRemoved func(r *region.Region)
	EntityAdded   func(e *entity.Entity)
	EntityUpdated func(e *entity.Entity, flags entity.ChangeFlags)
	EntityRemoved func(e *entity.Entity)
	AgentAdded    func(e *entity.Entity)
	AgentUpdated  func(e *entity.Entity, flags entity.ChangeFlags)
	AgentRemoved  func(e *entity.Entity)
}

// OnRegionAdded implements WorldListener
func (lf *ListenerFuncs) OnRegionAdded(r *region.Region) {
	if lf.RegionAdded != nil {
		lf.RegionAdded(r)
	}
}

// OnRegionUpdated implements WorldListener
func (lf *ListenerFuncs) OnRegionUpdated(r *region.Region, flags entity.ChangeFlags) {
	if lf.RegionUpdated != nil {
		lf.RegionUpdated(r, flags)
	}
}

// OnRegionRemoved implements WorldListener
func (lf *ListenerFuncs) OnRegionRemoved(r *region.Region) {
	if lf.RegionRemoved != nil {
		lf.RegionRemoved(r)
	}
}

// OnEntityAdded implements WorldListener
func (lf *ListenerFuncs) OnEntityAdded(e *entity.Entity) {
	if lf.EntityAdded != nil {
		lf.EntityAdded(e)
	}
}

// OnEntityUpdated implements WorldListener
func (lf *ListenerFuncs) OnEntityUpdated(e *entity.Entity, flags entity.ChangeFlags) {
	if lf.EntityUpdated != nil {
		lf.EntityUpdated(e, flags)
	}
}

// OnEntityRemoved implements WorldListener
func (lf *ListenerFuncs) OnEntityRemoved(e *entity.Entity) {
	if lf.EntityRemoved != nil {
		lf.EntityRemoved(e)
	}
}

// OnAgentAdded implements WorldListener
func (lf *ListenerFuncs) OnAgentAdded(e *entity.Entity) {
	if lf.AgentAdded != nil {
		lf.AgentAdded(e)
	}
}

// OnAgentUpdated implements WorldListener
func (lf *ListenerFuncs) OnAgentUpdated(e *entity.Entity, flags entity.ChangeFlags) {
	if lf.AgentUpdated != nil {
		lf.AgentUpdated(e, flags)
	}
}

// OnAgentRemoved implements WorldListener
func (lf *ListenerFuncs) OnAgentRemoved(e *entity.Entity) {
	if lf.AgentRemoved != nil {
		lf.AgentRemoved(e)
	}
}

type listenerList struct {
	lock      sync.Mutex
	listeners []WorldListener
}

func (ll *listenerList) add(l WorldListener) {
	ll.lock.Lock()
	ll.listeners = append(ll.listeners, l)
	ll.lock.Unlock()
}

func (ll *listenerList) remove(l WorldListener) {
	ll.lock.Lock()
	for i, cur := range ll.listeners {
		if cur == l {
			ll.listeners = append(ll.listeners[:i], ll.listeners[i+1:]...)
			break
		}
	}
	ll.lock.Unlock()
}

// each runs f for every registered listener, isolating listener panics from
// the pipeline
func (ll *listenerList) each(f func(l WorldListener)) {
	ll.lock.Lock()
	listeners := make([]WorldListener, len(ll.listeners))
	copy(listeners, ll.listeners)
	ll.lock.Unlock()

	for _, l := range listeners {
		l := l
		gmutils.RunPanicless(func() {
			f(l)
		})
	}
}
