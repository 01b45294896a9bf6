package entity

import (
	"fmt"
	"sync"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/gmlog"
)

// UpdateNotifier is called after an entity is mutated, carrying the
// accumulated change bitmask. It is the only side effect visible outside the
// sync pipeline.
type UpdateNotifier func(e *Entity, flags ChangeFlags)

// Entity is the local mirror of one remote object or avatar.
//
// Seq and Name are assigned at creation and never change. The remaining
// fields are updated in place by the materializer, which holds the entity
// lock across each apply-and-notify section: a terse and a full update for
// the same object may arrive concurrently on different transport goroutines.
type Entity struct {
	Seq  common.EntitySeq
	Name common.EntityName

	Position        Vector3
	Rotation        Quaternion
	Velocity        Vector3
	Acceleration    Vector3
	AngularVelocity Vector3
	Scale           Vector3
	CollisionPlane  Quaternion
	// ParentLocal is the remote-local id of the containing object; weak,
	// resolved through the region's index on demand, never owning
	ParentLocal  uint32
	DisplayName  string
	TextureEntry []byte

	lock       sync.Mutex
	components map[ComponentTag]Component
	notifier   UpdateNotifier
}

// NewEntity creates an entity with a fresh sequence id
func NewEntity(name common.EntityName) *Entity {
	return &Entity{
		Seq:        common.GenEntitySeq(),
		Name:       name,
		Rotation:   IdentityQuaternion(),
		Scale:      Vector3{1, 1, 1},
		components: map[ComponentTag]Component{},
	}
}

func (e *Entity) String() string {
	return fmt.Sprintf("Entity<%s|#%d>", e.Name, e.Seq)
}

// Lock serializes writes to the entity's fields and components. The caller
// holds it across one whole apply-and-notify section so a notification never
// reports half-applied state.
func (e *Entity) Lock() {
	e.lock.Lock()
}

// Unlock releases the entity lock
func (e *Entity) Unlock() {
	e.lock.Unlock()
}

// SetUpdateNotifier installs the observer hook invoked by NotifyUpdated
func (e *Entity) SetUpdateNotifier(n UpdateNotifier) {
	e.notifier = n
}

// NotifyUpdated invokes the entity's update notification with the accumulated
// change bitmask
func (e *Entity) NotifyUpdated(flags ChangeFlags) {
	if flags == 0 {
		return
	}
	if e.notifier != nil {
		e.notifier(e, flags)
	}
}

// AddComponent attaches the component to its tag slot, replacing any previous
// component of the same tag
func (e *Entity) AddComponent(c Component) {
	tag := c.ComponentTag()
	if _, ok := e.components[tag]; ok {
		gmlog.Debugf("%s: replacing component %s", e, tag)
	}
	e.components[tag] = c
}

// Component returns the component of the tag and whether it is present
func (e *Entity) Component(tag ComponentTag) (Component, bool) {
	c, ok := e.components[tag]
	return c, ok
}

// HasComponent checks if a component of the tag is attached
func (e *Entity) HasComponent(tag ComponentTag) bool {
	_, ok := e.components[tag]
	return ok
}

// RemoveComponent detaches the component of the tag, if any
func (e *Entity) RemoveComponent(tag ComponentTag) {
	delete(e.components, tag)
}

// IsAvatar returns if the entity mirrors an avatar
func (e *Entity) IsAvatar() bool {
	return e.Name.Kind == common.KindAvatar || e.Name.Kind == common.KindAgent
}
