package world

import (
	"sync"

	trie_tst "github.com/xiaonanln/go-trie-tst"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/deferqueue"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/region"
	"github.com/gridmirror/gridmirror/engine/transport"
)

// World is the local mirror of the remote grid: the region registry, the
// deferred-queue mechanisms and the entity materializer, glued to the
// transport collaborator's event stream. One World exists per connection
// lifecycle; it is rebuilt from scratch on every (re)connection.
type World struct {
	trans    transport.Transport
	registry *region.Registry
	gate     *deferqueue.OnlineGate
	parents  *deferqueue.ParentWaiter

	// holdParents defers child updates until their parent object is known
	holdParents bool

	listeners listenerList

	trieLock sync.Mutex
	nameTrie trie_tst.TST

	agentLock  sync.Mutex
	agentLocal uint32
	agent      *entity.Entity
}

// NewWorld creates a World mirroring the grid behind trans
func NewWorld(trans transport.Transport, holdParents bool) *World {
	w := &World{
		trans:       trans,
		gate:        deferqueue.NewOnlineGate(),
		holdParents: holdParents,
	}
	w.registry = region.NewRegistry(trans)
	w.registry.SetOnlineFunc(w.onRegionOnline)
	w.parents = deferqueue.NewParentWaiter(trans, w.replayAction)
	return w
}

// AddListener registers a world observer
func (w *World) AddListener(l WorldListener) {
	w.listeners.add(l)
}

// RemoveListener unregisters a world observer
func (w *World) RemoveListener(l WorldListener) {
	w.listeners.remove(l)
}

// Attach subscribes the world's handlers to the transport event stream
func (w *World) Attach() {
	w.trans.Subscribe(w)
}

// Detach unsubscribes the world's handlers from the transport event stream;
// symmetric with Attach
func (w *World) Detach() {
	w.trans.Unsubscribe(w)
}

// resolveRegion finds-or-creates the region record and wires its index into
// the world's observer surface on first sight
func (w *World) resolveRegion(handle common.RegionHandle) *region.Region {
	r, created := w.registry.Resolve(handle)
	if created {
		r.Index().SetListener(&regionIndexListener{w: w})
		w.listeners.each(func(l WorldListener) {
			l.OnRegionAdded(r)
		})
	}
	return r
}

// OnSimConnected implements transport.EventHandler
func (w *World) OnSimConnected(handle common.RegionHandle) {
	r := w.resolveRegion(handle)
	if w.registry.SetState(r, region.RegionConnected) {
		gmlog.Infof("%s connected", r)
	}
}

// OnEventChannelEstablished implements transport.EventHandler. The registry
// flips the region Online and drains its online-gated actions; duplicate
// establish notifications are no-ops.
func (w *World) OnEventChannelEstablished(handle common.RegionHandle) {
	r := w.resolveRegion(handle)
	w.registry.Advance(r)
}

// onRegionOnline runs under the registry lock: take the region's gated
// actions atomically with the state flip, replay them outside the lock
func (w *World) onRegionOnline(r *region.Region) func() {
	actions := w.gate.TakeFor(r.Handle)
	if len(actions) == 0 {
		return nil
	}
	return func() {
		gmlog.Debugf("%s: replaying %d online-gated actions", r, len(actions))
		for _, action := range actions {
			w.replayAction(action)
		}
	}
}

// OnSimChanged implements transport.EventHandler: moves the Focus marker and
// re-bases every region's world offset against the new focus region
func (w *World) OnSimChanged(prev, current common.RegionHandle) {
	if prevRegion := w.registry.Get(prev); prevRegion != nil {
		prevRegion.Focus.Store(false)
	}

	focus := w.resolveRegion(current)
	focus.Focus.Store(true)
	gmlog.Infof("focus region changed: %s", focus)

	focusInfo, ok := w.trans.SimulatorInfo(current)
	if !ok {
		return
	}
	for _, r := range w.registry.Regions() {
		info, ok := w.trans.SimulatorInfo(r.Handle)
		if !ok {
			continue
		}
		base := info.WorldBase.Sub(focusInfo.WorldBase)
		if base == r.WorldBase {
			continue
		}
		r.WorldBase = base
		w.listeners.each(func(l WorldListener) {
			l.OnRegionUpdated(r, entity.ChangePosition)
		})
	}
}

// OnDisconnected implements transport.EventHandler: the mirror is discarded
// wholesale, outstanding deferred actions along with it
func (w *World) OnDisconnected(reason string) {
	gmlog.Infof("disconnected: %s", reason)
	w.clearAgent()
	if gated := w.gate.PendingRegions(); len(gated) > 0 {
		gmlog.Warnf("disconnect: discarding gated actions in %d regions", len(gated))
	}
	w.gate.Clear()
	w.parents.Clear()
	for _, r := range w.registry.RemoveAll() {
		r := r
		w.listeners.each(func(l WorldListener) {
			l.OnRegionRemoved(r)
		})
	}
	w.trieLock.Lock()
	w.nameTrie = trie_tst.TST{}
	w.trieLock.Unlock()
}

// OnLoggedIn records the controlled agent's remote-local id and materializes
// its avatar entity through the normal notification path; if the start region
// is not yet online the agent is gated like any other update
func (w *World) OnLoggedIn(res *transport.LoginResult, creds transport.Credentials) {
	w.SetAgentLocal(res.AgentLocal)
	r := w.resolveRegion(res.Region)
	w.materializeAvatar(r, &transport.AvatarUpdate{
		Local:     res.AgentLocal,
		FirstName: creds.First,
		LastName:  creds.Last,
		Position:  res.Position,
		Rotation:  entity.IdentityQuaternion(),
	})
}

// RemoveRegion removes one region record explicitly
func (w *World) RemoveRegion(handle common.RegionHandle) {
	r := w.registry.Remove(handle)
	if r == nil {
		return
	}
	w.listeners.each(func(l WorldListener) {
		l.OnRegionRemoved(r)
	})
}

// OnTerrainPatchReceived implements transport.EventHandler
func (w *World) OnTerrainPatchReceived(handle common.RegionHandle, x, y int, heights []entity.Coord) {
	r := w.resolveRegion(handle)
	r.Terrain().SetPatch(x, y, heights)
	w.listeners.each(func(l WorldListener) {
		l.OnRegionUpdated(r, entity.ChangeTerrain)
	})
}

// regionIndexListener forwards one region's index events into the world's
// observer surface and keeps the cross-region name trie current
type regionIndexListener struct {
	w *World
}

func (ril *regionIndexListener) OnEntityAdded(e *entity.Entity) {
	w := ril.w
	w.indexName(e)
	w.parents.ForgetRequest(e.Name.Region, e.Name.Local)
	if consts.DEBUG_UPDATES {
		gmlog.Debugf("entity added: %s", e)
	}
	w.listeners.each(func(l WorldListener) {
		l.OnEntityAdded(e)
	})
	if w.isAgent(e) {
		w.listeners.each(func(l WorldListener) {
			l.OnAgentAdded(e)
		})
	}
}

func (ril *regionIndexListener) OnEntityRemoved(e *entity.Entity) {
	w := ril.w
	w.unindexName(e)
	if consts.DEBUG_UPDATES {
		gmlog.Debugf("entity removed: %s", e)
	}
	w.listeners.each(func(l WorldListener) {
		l.OnEntityRemoved(e)
	})
	if w.isAgent(e) {
		w.clearAgent()
		w.listeners.each(func(l WorldListener) {
			l.OnAgentRemoved(e)
		})
	}
}

// notifyEntityUpdated is installed as every entity's update notifier
func (w *World) notifyEntityUpdated(e *entity.Entity, flags entity.ChangeFlags) {
	w.listeners.each(func(l WorldListener) {
		l.OnEntityUpdated(e, flags)
	})
	if w.isAgent(e) {
		w.listeners.each(func(l WorldListener) {
			l.OnAgentUpdated(e, flags)
		})
	}
}

func (w *World) indexName(e *entity.Entity) {
	w.trieLock.Lock()
	w.nameTrie.Sub(e.Name.String()).Val = e
	w.trieLock.Unlock()
}

func (w *World) unindexName(e *entity.Entity) {
	w.trieLock.Lock()
	w.nameTrie.Sub(e.Name.String()).Val = nil
	w.trieLock.Unlock()
}

// SetAgentLocal records the remote-local id of the controlled agent's avatar;
// the matching avatar update associates the agent entity
func (w *World) SetAgentLocal(local uint32) {
	w.agentLock.Lock()
	w.agentLocal = local
	w.agentLock.Unlock()
}

func (w *World) setAgent(e *entity.Entity) {
	w.agentLock.Lock()
	w.agent = e
	w.agentLock.Unlock()
}

func (w *World) clearAgent() {
	w.agentLock.Lock()
	w.agent = nil
	w.agentLocal = 0
	w.agentLock.Unlock()
}

func (w *World) isAgent(e *entity.Entity) bool {
	w.agentLock.Lock()
	defer w.agentLock.Unlock()
	return w.agentLocal != 0 && e.Name.Local == w.agentLocal && e.IsAvatar()
}

// Agent returns the controlled agent's entity, or nil before login completes
func (w *World) Agent() *entity.Entity {
	w.agentLock.Lock()
	defer w.agentLock.Unlock()
	return w.agent
}

// Registry exposes the region registry to collaborating components
func (w *World) Registry() *region.Registry {
	return w.registry
}
