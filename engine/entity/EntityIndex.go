package entity

import (
	"sync"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/gmlog"
)

// IndexListener observes entity insertions and removals of one EntityIndex
type IndexListener interface {
	OnEntityAdded(e *Entity)
	OnEntityRemoved(e *Entity)
}

// EntityIndex is the per-region store of mirrored entities, addressable by
// structured name and by sequence id. Both maps always hold the same entity
// set; every mutation updates them atomically under the index lock.
type EntityIndex struct {
	lock     sync.Mutex
	byName   map[common.EntityName]*Entity
	bySeq    map[common.EntitySeq]*Entity
	listener IndexListener
}

// NewEntityIndex creates an empty EntityIndex
func NewEntityIndex() *EntityIndex {
	return &EntityIndex{
		byName: map[common.EntityName]*Entity{},
		bySeq:  map[common.EntitySeq]*Entity{},
	}
}

// SetListener installs the index listener; pass nil to unsubscribe
func (idx *EntityIndex) SetListener(l IndexListener) {
	idx.lock.Lock()
	idx.listener = l
	idx.lock.Unlock()
}

// InsertIfAbsent inserts the entity unless its name is already present and
// reports whether insertion occurred. A duplicate insert is logged and
// treated as a no-op, not an error.
func (idx *EntityIndex) InsertIfAbsent(e *Entity) bool {
	idx.lock.Lock()
	if _, ok := idx.byName[e.Name]; ok {
		idx.lock.Unlock()
		gmlog.Warnf("EntityIndex: duplicate insert of %s ignored", e)
		return false
	}
	idx.byName[e.Name] = e
	idx.bySeq[e.Seq] = e
	listener := idx.listener
	idx.lock.Unlock()

	if listener != nil {
		listener.OnEntityAdded(e)
	}
	return true
}

// GetOrCreate returns the entity of the name, creating it with the factory if
// absent. The lock is held across the check-then-insert sequence so creation
// is exactly-once under racing notifications; the factory must be a plain
// constructor that never reaches back into the index.
func (idx *EntityIndex) GetOrCreate(name common.EntityName, factory func() *Entity) (e *Entity, created bool) {
	idx.lock.Lock()
	e = idx.byName[name]
	if e != nil {
		idx.lock.Unlock()
		return e, false
	}

	e = factory()
	idx.byName[name] = e
	idx.bySeq[e.Seq] = e
	listener := idx.listener
	idx.lock.Unlock()

	if listener != nil {
		listener.OnEntityAdded(e)
	}
	return e, true
}

// GetByName returns the entity of the structured name, or nil
func (idx *EntityIndex) GetByName(name common.EntityName) *Entity {
	idx.lock.Lock()
	e := idx.byName[name]
	idx.lock.Unlock()
	return e
}

// GetBySeq returns the entity of the sequence id, or nil
func (idx *EntityIndex) GetBySeq(seq common.EntitySeq) *Entity {
	idx.lock.Lock()
	e := idx.bySeq[seq]
	idx.lock.Unlock()
	return e
}

// RemoveByName removes the entity of the name from both index structures and
// returns it; returns nil if the name is unknown
func (idx *EntityIndex) RemoveByName(name common.EntityName) *Entity {
	idx.lock.Lock()
	e := idx.byName[name]
	if e == nil {
		idx.lock.Unlock()
		return nil
	}
	delete(idx.byName, name)
	delete(idx.bySeq, e.Seq)
	listener := idx.listener
	idx.lock.Unlock()

	if listener != nil {
		listener.OnEntityRemoved(e)
	}
	return e
}

// RemoveBySeq removes the entity of the sequence id from both index
// structures and returns it; returns nil if the id is unknown
func (idx *EntityIndex) RemoveBySeq(seq common.EntitySeq) *Entity {
	idx.lock.Lock()
	e := idx.bySeq[seq]
	if e == nil {
		idx.lock.Unlock()
		return nil
	}
	delete(idx.byName, e.Name)
	delete(idx.bySeq, seq)
	listener := idx.listener
	idx.lock.Unlock()

	if listener != nil {
		listener.OnEntityRemoved(e)
	}
	return e
}

// Find returns the first entity satisfying the predicate, or nil. Iteration
// order is unspecified.
func (idx *EntityIndex) Find(pred func(e *Entity) bool) *Entity {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	for _, e := range idx.bySeq {
		if pred(e) {
			return e
		}
	}
	return nil
}

// Entities returns a snapshot slice of all entities in the index
func (idx *EntityIndex) Entities() []*Entity {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	entities := make([]*Entity, 0, len(idx.bySeq))
	for _, e := range idx.bySeq {
		entities = append(entities, e)
	}
	return entities
}

// Count returns the number of entities in the index
func (idx *EntityIndex) Count() int {
	idx.lock.Lock()
	defer idx.lock.Unlock()
	return len(idx.bySeq)
}
