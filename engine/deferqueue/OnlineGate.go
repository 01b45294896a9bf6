package deferqueue

import (
	"sync"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/region"
)

// OnlineGate holds actions submitted against regions whose event channel is
// not yet established. Actions are appended in submission order and released
// exactly once, as one batch, when the region transitions to Online.
//
// The gate uses a single process-wide lock: drains are rare relative to
// submissions, so finer granularity buys nothing.
type OnlineGate struct {
	lock    sync.Mutex
	pending map[common.RegionHandle][]Action
}

// NewOnlineGate creates an empty OnlineGate
func NewOnlineGate() *OnlineGate {
	return &OnlineGate{
		pending: map[common.RegionHandle][]Action{},
	}
}

// Submit defers the action if the region is not yet Online and returns true;
// returns false if the region is already Online, in which case the caller
// executes the action immediately.
//
// The online check happens under the gate lock. TakeFor also runs under the
// gate lock and is ordered after the region's state flip, so a submitter
// either observes Online (and runs the action itself) or gets its action into
// the batch that the flip drains; no action can be stranded between the two.
func (og *OnlineGate) Submit(r *region.Region, action Action) bool {
	og.lock.Lock()
	defer og.lock.Unlock()

	if r.IsOnline() {
		return false
	}
	og.pending[r.Handle] = append(og.pending[r.Handle], action)
	gmlog.Debugf("OnlineGate: deferred %s until %s is online (%d pending)", action, r, len(og.pending[r.Handle]))
	return true
}

// TakeFor atomically removes and returns every action queued for the handle,
// in submission order
func (og *OnlineGate) TakeFor(handle common.RegionHandle) []Action {
	og.lock.Lock()
	actions := og.pending[handle]
	delete(og.pending, handle)
	og.lock.Unlock()
	return actions
}

// PendingFor returns the number of actions currently queued for the handle
func (og *OnlineGate) PendingFor(handle common.RegionHandle) int {
	og.lock.Lock()
	defer og.lock.Unlock()
	return len(og.pending[handle])
}

// PendingRegions returns the set of regions that currently have gated actions
func (og *OnlineGate) PendingRegions() common.RegionHandleSet {
	og.lock.Lock()
	defer og.lock.Unlock()
	regions := common.RegionHandleSet{}
	for handle := range og.pending {
		regions.Add(handle)
	}
	return regions
}

// Clear discards all queued actions; used at connection teardown
func (og *OnlineGate) Clear() {
	og.lock.Lock()
	og.pending = map[common.RegionHandle][]Action{}
	og.lock.Unlock()
}
