package deferqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"
	timer "github.com/xiaonanln/goTimer"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/region"
)

type fakeRequester struct {
	lock     sync.Mutex
	requests []uint32
}

func (fr *fakeRequester) RequestObject(handle common.RegionHandle, local uint32) {
	fr.lock.Lock()
	fr.requests = append(fr.requests, local)
	fr.lock.Unlock()
}

func (fr *fakeRequester) count() int {
	fr.lock.Lock()
	defer fr.lock.Unlock()
	return len(fr.requests)
}

func newTestRegion(t *testing.T, rs *region.Registry, handle common.RegionHandle) *region.Region {
	r, created := rs.Resolve(handle)
	if !created {
		t.Fatalf("region %s should not exist yet", handle)
	}
	return r
}

func TestOnlineGateOrder(t *testing.T) {
	rs := region.NewRegistry(nil)
	r := newTestRegion(t, rs, 1)
	og := NewOnlineGate()

	for i := 1; i <= 3; i++ {
		ok := og.Submit(r, Action{Handle: r.Handle, Kind: 1, Args: [4]interface{}{i}})
		assert.Equal(t, true, ok)
	}
	assert.Equal(t, 3, og.PendingFor(r.Handle))

	actions := og.TakeFor(r.Handle)
	assert.Equal(t, 3, len(actions))
	for i, a := range actions {
		assert.Equal(t, i+1, a.Args[0].(int))
	}

	// drained exactly once
	assert.Equal(t, 0, len(og.TakeFor(r.Handle)))
	assert.Equal(t, 0, og.PendingFor(r.Handle))
}

func TestOnlineGatePassthroughWhenOnline(t *testing.T) {
	rs := region.NewRegistry(nil)
	r := newTestRegion(t, rs, 1)
	og := NewOnlineGate()

	rs.Advance(r)
	ok := og.Submit(r, Action{Handle: r.Handle, Kind: 1})
	assert.Equal(t, false, ok)
	assert.Equal(t, 0, og.PendingFor(r.Handle))
}

func TestOnlineGateClear(t *testing.T) {
	rs := region.NewRegistry(nil)
	r := newTestRegion(t, rs, 1)
	og := NewOnlineGate()

	og.Submit(r, Action{Handle: r.Handle, Kind: 1})
	og.Clear()
	assert.Equal(t, 0, og.PendingFor(r.Handle))
}

func TestOnlineGatePendingRegions(t *testing.T) {
	rs := region.NewRegistry(nil)
	r1 := newTestRegion(t, rs, 1)
	r2 := newTestRegion(t, rs, 2)
	og := NewOnlineGate()

	og.Submit(r1, Action{Handle: r1.Handle, Kind: 1})
	og.Submit(r2, Action{Handle: r2.Handle, Kind: 1})

	regions := og.PendingRegions()
	assert.Equal(t, true, regions.Contains(1))
	assert.Equal(t, true, regions.Contains(2))
	assert.Equal(t, false, regions.Contains(3))

	og.Clear()
	assert.Equal(t, 0, len(og.PendingRegions()))
}

func TestParentRequestDedup(t *testing.T) {
	rs := region.NewRegistry(nil)
	r := newTestRegion(t, rs, 1)
	fr := &fakeRequester{}
	pw := NewParentWaiter(fr, func(Action) {})

	pw.RequestParent(r, 77)
	pw.RequestParent(r, 77) // within the dedup window, suppressed
	assert.Equal(t, 1, fr.count())

	// a different parent id is independent
	pw.RequestParent(r, 78)
	assert.Equal(t, 2, fr.count())

	// forgetting the pair re-arms the request
	pw.ForgetRequest(r.Handle, 77)
	pw.RequestParent(r, 77)
	assert.Equal(t, 3, fr.count())

	// once the window elapses a request goes out again
	pw.lock.Lock()
	pw.lastRequest[parentKey{r.Handle, 77}] = time.Now().Add(-consts.PARENT_REQUEST_DEDUP_WINDOW - time.Second)
	pw.lock.Unlock()
	pw.RequestParent(r, 77)
	assert.Equal(t, 4, fr.count())
}

func TestParentRequestClear(t *testing.T) {
	rs := region.NewRegistry(nil)
	r := newTestRegion(t, rs, 1)
	fr := &fakeRequester{}
	pw := NewParentWaiter(fr, func(Action) {})

	pw.RequestParent(r, 77)
	pw.Clear()
	pw.RequestParent(r, 77)
	assert.Equal(t, 2, fr.count())
}

func TestRetry(t *testing.T) {
	timer.StartTicks(consts.TIMER_TICK_INTERVAL)

	replayed := make(chan Action, 1)
	pw := NewParentWaiter(&fakeRequester{}, func(a Action) {
		replayed <- a
	})

	pw.Retry(Action{Handle: 1, Kind: 2}, time.Millisecond*50)
	select {
	case a := <-replayed:
		assert.Equal(t, common.RegionHandle(1), a.Handle)
		assert.Equal(t, ActionKind(2), a.Kind)
	case <-time.After(time.Second * 2):
		t.Fatalf("retry never replayed")
	}
}

func TestRetryDroppedByClear(t *testing.T) {
	timer.StartTicks(consts.TIMER_TICK_INTERVAL)

	replayed := make(chan Action, 1)
	pw := NewParentWaiter(&fakeRequester{}, func(a Action) {
		replayed <- a
	})

	pw.Retry(Action{Handle: 1, Kind: 2}, time.Millisecond*50)
	pw.Clear()

	select {
	case <-replayed:
		t.Fatalf("retry scheduled before teardown must not replay")
	case <-time.After(time.Millisecond * 500):
	}
}
