package deferqueue

import (
	"sync"
	"time"

	timer "github.com/xiaonanln/goTimer"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/region"
)

// ObjectRequester issues the remote "please send me that object" request;
// implemented by the transport collaborator
type ObjectRequester interface {
	RequestObject(handle common.RegionHandle, local uint32)
}

type parentKey struct {
	Handle common.RegionHandle
	Local  uint32
}

// ParentWaiter defers updates whose parent object is not locally known yet.
// It issues at most one remote fetch request per missing-parent id per dedup
// window, and re-attempts deferred actions once after a fixed delay; the
// re-attempt funnels through the same replay path as a live notification and
// may defer again if the parent is still missing.
//
// The dedup map has its own lock, independent of the registry and gate locks,
// so a slow region cannot head-of-line block unrelated ones.
type ParentWaiter struct {
	lock        sync.Mutex
	lastRequest map[parentKey]time.Time
	// generation invalidates pending retries: a timer callback scheduled
	// before a Clear must not replay into the torn-down mirror
	generation int

	requester ObjectRequester
	replay    func(Action)
}

// NewParentWaiter creates a ParentWaiter issuing fetches through requester
// and re-attempting actions through replay
func NewParentWaiter(requester ObjectRequester, replay func(Action)) *ParentWaiter {
	return &ParentWaiter{
		lastRequest: map[parentKey]time.Time{},
		requester:   requester,
		replay:      replay,
	}
}

// RequestParent asks the simulator for the missing parent object unless a
// request for the same (region, parent) pair was already issued within the
// dedup window
func (pw *ParentWaiter) RequestParent(r *region.Region, parentLocal uint32) {
	key := parentKey{r.Handle, parentLocal}
	now := time.Now()

	pw.lock.Lock()
	last, ok := pw.lastRequest[key]
	if ok && now.Sub(last) < consts.PARENT_REQUEST_DEDUP_WINDOW {
		pw.lock.Unlock()
		return
	}
	pw.lastRequest[key] = now
	pw.lock.Unlock()

	gmlog.Debugf("ParentWaiter: requesting missing parent %d from %s", parentLocal, r)
	pw.requester.RequestObject(r.Handle, parentLocal)
}

// Retry schedules the action to be re-attempted once after the delay. The
// re-attempt is dropped if Clear ran in the meantime.
func (pw *ParentWaiter) Retry(action Action, delay time.Duration) {
	pw.lock.Lock()
	gen := pw.generation
	pw.lock.Unlock()

	timer.AddCallback(delay, func() {
		pw.lock.Lock()
		stale := pw.generation != gen
		pw.lock.Unlock()
		if stale {
			gmlog.Debugf("ParentWaiter: dropping retry of %s scheduled before teardown", action)
			return
		}
		pw.replay(action)
	})
}

// ForgetRequest drops the dedup entry for the pair; called when the awaited
// object materializes so the map does not grow without bound
func (pw *ParentWaiter) ForgetRequest(handle common.RegionHandle, parentLocal uint32) {
	pw.lock.Lock()
	delete(pw.lastRequest, parentKey{handle, parentLocal})
	pw.lock.Unlock()
}

// Clear drops all dedup state and invalidates every pending retry; used at
// connection teardown
func (pw *ParentWaiter) Clear() {
	pw.lock.Lock()
	pw.lastRequest = map[parentKey]time.Time{}
	pw.generation++
	pw.lock.Unlock()
}
