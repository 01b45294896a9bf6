package world

import (
	"bytes"
	"math"

	"github.com/xiaonanln/typeconv"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/deferqueue"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/gmutils"
	"github.com/gridmirror/gridmirror/engine/region"
	"github.com/gridmirror/gridmirror/engine/transport"
)

// Deferred action kinds; payload slots are owned by the replay switch below
const (
	actObjectUpdate deferqueue.ActionKind = iota + 1
	actTerseUpdate
	actAvatarUpdate
)

// OnObjectUpdated implements transport.EventHandler
func (w *World) OnObjectUpdated(handle common.RegionHandle, update *transport.ObjectUpdate, isAttachment bool) {
	w.materializeObject(w.resolveRegion(handle), update, isAttachment)
}

// OnAttachmentUpdated implements transport.EventHandler
func (w *World) OnAttachmentUpdated(handle common.RegionHandle, update *transport.ObjectUpdate) {
	w.materializeObject(w.resolveRegion(handle), update, true)
}

// OnTerseObjectUpdated implements transport.EventHandler
func (w *World) OnTerseObjectUpdated(handle common.RegionHandle, prev, incoming *transport.TerseUpdate) {
	w.materializeTerse(w.resolveRegion(handle), prev, incoming)
}

// OnAvatarUpdated implements transport.EventHandler
func (w *World) OnAvatarUpdated(handle common.RegionHandle, update *transport.AvatarUpdate) {
	w.materializeAvatar(w.resolveRegion(handle), update)
}

// OnObjectKilled implements transport.EventHandler. Kill bypasses the
// deferred-queue mechanisms: look up, remove from both index keys, discard;
// unknown ids are a safe no-op.
func (w *World) OnObjectKilled(handle common.RegionHandle, local uint32) {
	r := w.registry.Get(handle)
	if r == nil {
		return
	}
	if e := r.Index().RemoveByName(common.ObjectName(handle, local)); e != nil {
		return
	}
	r.Index().RemoveByName(common.AvatarName(handle, local))
}

// replayAction funnels a deferred action back through the materializer
// exactly as a fresh notification would
func (w *World) replayAction(a deferqueue.Action) {
	r := w.resolveRegion(a.Handle)
	switch a.Kind {
	case actObjectUpdate:
		update, ok := a.Args[0].(*transport.ObjectUpdate)
		if !ok {
			gmlog.Errorf("replay: bad object payload in %s", a)
			return
		}
		w.materializeObject(r, update, typeconv.Int(a.Args[1]) != 0)
	case actTerseUpdate:
		prev, ok1 := a.Args[0].(*transport.TerseUpdate)
		incoming, ok2 := a.Args[1].(*transport.TerseUpdate)
		if !ok1 || !ok2 {
			gmlog.Errorf("replay: bad terse payload in %s", a)
			return
		}
		w.materializeTerse(r, prev, incoming)
	case actAvatarUpdate:
		update, ok := a.Args[0].(*transport.AvatarUpdate)
		if !ok {
			gmlog.Errorf("replay: bad avatar payload in %s", a)
			return
		}
		w.materializeAvatar(r, update)
	default:
		gmlog.Errorf("replay: unknown action kind in %s", a)
	}
}

// holdForParent defers the action when it references a parent not present in
// the region's index: one deduplicated fetch request plus one timed retry.
// Returns true if the caller must stop.
func (w *World) holdForParent(r *region.Region, parentLocal uint32, action deferqueue.Action) bool {
	if !w.holdParents || parentLocal == 0 {
		return false
	}
	if r.Index().GetByName(common.ObjectName(r.Handle, parentLocal)) != nil {
		return false
	}
	w.parents.RequestParent(r, parentLocal)
	w.parents.Retry(action, consts.PARENT_RETRY_DELAY)
	return true
}

func (w *World) materializeObject(r *region.Region, update *transport.ObjectUpdate, isAttachment bool) {
	attachFlag := 0
	if isAttachment {
		attachFlag = 1
	}
	action := deferqueue.Action{
		Handle: r.Handle,
		Kind:   actObjectUpdate,
		Args:   [4]interface{}{update, attachFlag},
	}
	if w.gate.Submit(r, action) {
		return
	}
	if w.holdForParent(r, update.ParentLocal, action) {
		return
	}

	if err := gmutils.CatchPanic(func() {
		w.applyObjectUpdate(r, update, isAttachment)
	}); err != nil {
		gmlog.Errorf("materialize: object update %d in %s dropped: %v", update.Local, r, err)
	}
}

func (w *World) applyObjectUpdate(r *region.Region, update *transport.ObjectUpdate, isAttachment bool) {
	name := common.ObjectName(r.Handle, update.Local)
	e, created := r.Index().GetOrCreate(name, func() *entity.Entity {
		e := entity.NewEntity(name)
		e.SetUpdateNotifier(w.notifyEntityUpdated)
		return e
	})
	e.Lock()
	defer e.Unlock()

	var flags entity.ChangeFlags
	if created {
		flags = entity.ChangeNew | entity.ChangePosition | entity.ChangeRotation | entity.ChangeMovement
		if fk := update.PCode.FoliageKind(); fk != 0 {
			e.AddComponent(&entity.SpecialRenderComponent{Foliage: fk})
		}
	} else {
		if e.Position != update.Position {
			flags |= entity.ChangePosition
		}
		if e.Rotation != update.Rotation {
			flags |= entity.ChangeRotation
		}
		if e.Velocity != update.Velocity {
			flags |= entity.ChangeVelocity
		}
		if e.Acceleration != update.Acceleration {
			flags |= entity.ChangeAcceleration
		}
		if e.AngularVelocity != update.AngularVelocity {
			flags |= entity.ChangeAngularVelocity
		}
		if e.Scale != update.Scale {
			flags |= entity.ChangeScale
		}
		if update.TextureEntry != nil && !bytes.Equal(e.TextureEntry, update.TextureEntry) {
			flags |= entity.ChangeTextures
		}
		if e.CollisionPlane != update.CollisionPlane {
			flags |= entity.ChangeCollisionPlane
		}
		if e.ParentLocal != update.ParentLocal {
			flags |= entity.ChangeParent
		}
	}

	e.Position = update.Position
	e.Rotation = update.Rotation
	e.Velocity = update.Velocity
	e.Acceleration = update.Acceleration
	e.AngularVelocity = update.AngularVelocity
	e.Scale = update.Scale
	e.CollisionPlane = update.CollisionPlane
	e.ParentLocal = update.ParentLocal
	if update.TextureEntry != nil {
		e.TextureEntry = update.TextureEntry
	}

	if isAttachment {
		if c, ok := e.Component(entity.TagAttachment); !ok || c.(*entity.AttachmentComponent).Point != update.AttachPoint {
			e.AddComponent(&entity.AttachmentComponent{Point: update.AttachPoint})
			flags |= entity.ChangeAppearance
		}
	}

	flags |= w.syncAnimation(e, update.AngularVelocity)
	e.NotifyUpdated(flags)
}

func (w *World) materializeTerse(r *region.Region, prev, incoming *transport.TerseUpdate) {
	action := deferqueue.Action{
		Handle: r.Handle,
		Kind:   actTerseUpdate,
		Args:   [4]interface{}{prev, incoming},
	}
	if w.gate.Submit(r, action) {
		return
	}

	if err := gmutils.CatchPanic(func() {
		w.applyTerseUpdate(r, prev, incoming)
	}); err != nil {
		gmlog.Errorf("materialize: terse update %d in %s dropped: %v", incoming.Local, r, err)
	}
}

func (w *World) applyTerseUpdate(r *region.Region, prev, incoming *transport.TerseUpdate) {
	// a terse update can describe an object or an avatar; prefer whichever
	// already exists, create an object entity otherwise
	e := r.Index().GetByName(common.ObjectName(r.Handle, incoming.Local))
	if e == nil {
		e = r.Index().GetByName(common.AvatarName(r.Handle, incoming.Local))
	}

	var flags entity.ChangeFlags
	if e == nil {
		name := common.ObjectName(r.Handle, incoming.Local)
		var created bool
		e, created = r.Index().GetOrCreate(name, func() *entity.Entity {
			e := entity.NewEntity(name)
			e.SetUpdateNotifier(w.notifyEntityUpdated)
			return e
		})
		if created {
			flags = entity.ChangeNew | entity.ChangePosition | entity.ChangeRotation | entity.ChangeMovement
		}
	}
	e.Lock()
	defer e.Unlock()

	if !flags.Has(entity.ChangeNew) {
		// partial update: only mark a bit when the previous and incoming
		// values of that field actually differ
		if prev.Position != incoming.Position {
			flags |= entity.ChangePosition
		}
		if prev.Rotation != incoming.Rotation {
			flags |= entity.ChangeRotation
		}
		if prev.Velocity != incoming.Velocity {
			flags |= entity.ChangeVelocity
		}
		if prev.Acceleration != incoming.Acceleration {
			flags |= entity.ChangeAcceleration
		}
		if prev.AngularVelocity != incoming.AngularVelocity {
			flags |= entity.ChangeAngularVelocity
		}
		if prev.CollisionPlane != incoming.CollisionPlane {
			flags |= entity.ChangeCollisionPlane
		}
		if incoming.TextureEntry != nil && !bytes.Equal(prev.TextureEntry, incoming.TextureEntry) {
			flags |= entity.ChangeTextures
		}
	}

	e.Position = incoming.Position
	e.Rotation = incoming.Rotation
	e.Velocity = incoming.Velocity
	e.Acceleration = incoming.Acceleration
	e.AngularVelocity = incoming.AngularVelocity
	e.CollisionPlane = incoming.CollisionPlane
	if incoming.TextureEntry != nil {
		e.TextureEntry = incoming.TextureEntry
	}

	flags |= w.syncAnimation(e, incoming.AngularVelocity)
	e.NotifyUpdated(flags)
}

func (w *World) materializeAvatar(r *region.Region, update *transport.AvatarUpdate) {
	action := deferqueue.Action{
		Handle: r.Handle,
		Kind:   actAvatarUpdate,
		Args:   [4]interface{}{update},
	}
	if w.gate.Submit(r, action) {
		return
	}
	if w.holdForParent(r, update.ParentLocal, action) {
		return
	}

	if err := gmutils.CatchPanic(func() {
		w.applyAvatarUpdate(r, update)
	}); err != nil {
		gmlog.Errorf("materialize: avatar update %d in %s dropped: %v", update.Local, r, err)
	}
}

func (w *World) applyAvatarUpdate(r *region.Region, update *transport.AvatarUpdate) {
	name := common.AvatarName(r.Handle, update.Local)
	e, created := r.Index().GetOrCreate(name, func() *entity.Entity {
		e := entity.NewEntity(name)
		e.SetUpdateNotifier(w.notifyEntityUpdated)
		return e
	})
	e.Lock()
	defer e.Unlock()

	var flags entity.ChangeFlags
	if created {
		flags = entity.ChangeNew | entity.ChangePosition | entity.ChangeRotation | entity.ChangeMovement
	} else {
		if e.Position != update.Position {
			flags |= entity.ChangePosition
		}
		if e.Rotation != update.Rotation {
			flags |= entity.ChangeRotation
		}
		if e.Velocity != update.Velocity {
			flags |= entity.ChangeVelocity
		}
		if e.ParentLocal != update.ParentLocal {
			flags |= entity.ChangeParent
		}
	}

	displayName := update.FirstName + " " + update.LastName
	if e.DisplayName != displayName {
		e.DisplayName = displayName
		if !created {
			flags |= entity.ChangeAppearance
		}
	}

	e.Position = update.Position
	e.Rotation = update.Rotation
	e.Velocity = update.Velocity
	e.ParentLocal = update.ParentLocal

	if w.isAgent(e) {
		w.setAgent(e)
	}
	e.NotifyUpdated(flags)
}

// syncAnimation synthesizes the constant-rotation animation component from a
// non-zero angular velocity: a normalized axis plus rounds per second. The
// change bit is only raised when the computed axis or rate actually differs
// from the stored one, avoiding redundant downstream renders.
func (w *World) syncAnimation(e *entity.Entity, angularVelocity entity.Vector3) entity.ChangeFlags {
	if e.IsAvatar() || angularVelocity.IsZero() {
		return 0
	}

	axis := angularVelocity.Normalized()
	rps := angularVelocity.Length() / entity.Coord(2*math.Pi)

	if c, ok := e.Component(entity.TagAnimation); ok {
		anim := c.(*entity.AnimationComponent)
		if anim.Axis == axis && anim.RoundsPerSecond == rps {
			return 0
		}
	}
	e.AddComponent(&entity.AnimationComponent{Axis: axis, RoundsPerSecond: rps})
	return entity.ChangeAnimation
}
