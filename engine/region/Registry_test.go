package region

import (
	"sync"
	"testing"

	"github.com/bmizerany/assert"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/entity"
)

type fakeInfoSource struct {
	infos map[common.RegionHandle]SimulatorInfo
}

func (fis *fakeInfoSource) SimulatorInfo(handle common.RegionHandle) (SimulatorInfo, bool) {
	info, ok := fis.infos[handle]
	return info, ok
}

func TestResolve(t *testing.T) {
	fis := &fakeInfoSource{infos: map[common.RegionHandle]SimulatorInfo{
		1: {Name: "sandbox", WaterHeight: 20, WorldBase: entity.Vector3{X: 256}},
	}}
	rs := NewRegistry(fis)

	r, created := rs.Resolve(1)
	assert.Equal(t, true, created)
	assert.Equal(t, "sandbox", r.Name)
	assert.Equal(t, entity.Coord(20), r.Terrain().WaterHeight)
	assert.Equal(t, entity.Vector3{X: 256}, r.WorldBase)
	assert.Equal(t, RegionUninitialized, r.State())

	r2, created := rs.Resolve(1)
	assert.Equal(t, false, created)
	assert.Equal(t, r, r2)
	assert.Equal(t, 1, rs.Count())

	// unknown to the info source still yields a record
	r3, created := rs.Resolve(2)
	assert.Equal(t, true, created)
	assert.Equal(t, "", r3.Name)
}

func TestResolveConcurrent(t *testing.T) {
	rs := NewRegistry(nil)

	var wg sync.WaitGroup
	results := make([]*Region, 32)
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = rs.Resolve(7)
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, 1, rs.Count())
}

func TestSetState(t *testing.T) {
	rs := NewRegistry(nil)
	r, _ := rs.Resolve(1)

	assert.Equal(t, true, rs.SetState(r, RegionConnected))
	assert.Equal(t, false, rs.SetState(r, RegionConnected))
	assert.Equal(t, RegionConnected, r.State())
}

func TestAdvanceDrainsOnce(t *testing.T) {
	rs := NewRegistry(nil)
	r, _ := rs.Resolve(1)

	var drains, replays int
	rs.SetOnlineFunc(func(r *Region) func() {
		drains++
		return func() { replays++ }
	})

	rs.Advance(r)
	assert.Equal(t, true, r.IsOnline())
	assert.Equal(t, 1, drains)
	assert.Equal(t, 1, replays)

	// duplicate establish notification is a no-op
	rs.Advance(r)
	assert.Equal(t, 1, drains)
	assert.Equal(t, 1, replays)
}

func TestRemove(t *testing.T) {
	rs := NewRegistry(nil)
	r, _ := rs.Resolve(1)

	assert.Equal(t, r, rs.Remove(1))
	assert.Equal(t, RegionDown, r.State())
	if rs.Get(1) != nil {
		t.Fail()
	}
	if rs.Remove(1) != nil {
		t.Fail()
	}
}

func TestRemoveAll(t *testing.T) {
	rs := NewRegistry(nil)
	rs.Resolve(1)
	rs.Resolve(2)

	removed := rs.RemoveAll()
	assert.Equal(t, 2, len(removed))
	assert.Equal(t, 0, rs.Count())
	for _, r := range removed {
		assert.Equal(t, RegionDown, r.State())
	}
}

func TestFind(t *testing.T) {
	fis := &fakeInfoSource{infos: map[common.RegionHandle]SimulatorInfo{
		1: {Name: "alpha"},
		2: {Name: "beta"},
	}}
	rs := NewRegistry(fis)
	rs.Resolve(1)
	rs.Resolve(2)

	r := rs.Find(func(r *Region) bool { return r.Name == "beta" })
	if r == nil || r.Handle != 2 {
		t.Errorf("find failed: %v", r)
	}
	if rs.Find(func(r *Region) bool { return false }) != nil {
		t.Fail()
	}
}

func TestTerrain(t *testing.T) {
	tr := newTerrain(20)
	heights := make([]entity.Coord, TerrainPatchSize*TerrainPatchSize)
	for i := range heights {
		heights[i] = entity.Coord(i)
	}
	tr.SetPatch(0, 0, heights)
	assert.Equal(t, 1, tr.PatchCount())

	// patch rows are y-major
	assert.Equal(t, entity.Coord(0), tr.HeightAt(0, 0))
	assert.Equal(t, entity.Coord(1), tr.HeightAt(1, 0))
	assert.Equal(t, entity.Coord(TerrainPatchSize), tr.HeightAt(0, 1))

	// outside any patch
	assert.Equal(t, entity.Coord(0), tr.HeightAt(100, 100))

	// SetPatch copies its input
	heights[0] = 999
	assert.Equal(t, entity.Coord(0), tr.HeightAt(0, 0))
}
