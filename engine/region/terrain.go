package region

import (
	"sync"

	"github.com/gridmirror/gridmirror/engine/entity"
)

// TerrainPatchSize is the edge length of one square height-map patch
const TerrainPatchSize = 16

type patchCoord struct {
	X int
	Y int
}

// Terrain holds a region's height-map patches and water height. Patches
// arrive incrementally and out of order; a patch received twice simply
// overwrites the previous one.
type Terrain struct {
	lock        sync.Mutex
	patches     map[patchCoord][]entity.Coord
	WaterHeight entity.Coord
}

func newTerrain(waterHeight entity.Coord) *Terrain {
	return &Terrain{
		patches:     map[patchCoord][]entity.Coord{},
		WaterHeight: waterHeight,
	}
}

// SetPatch stores the heights of the patch at patch coordinates (x, y).
// heights must hold TerrainPatchSize*TerrainPatchSize values.
func (t *Terrain) SetPatch(x, y int, heights []entity.Coord) {
	stored := make([]entity.Coord, len(heights))
	copy(stored, heights)
	t.lock.Lock()
	t.patches[patchCoord{x, y}] = stored
	t.lock.Unlock()
}

// Patch returns the heights of the patch at (x, y), or nil if not received yet
func (t *Terrain) Patch(x, y int) []entity.Coord {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.patches[patchCoord{x, y}]
}

// PatchCount returns the number of patches received so far
func (t *Terrain) PatchCount() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.patches)
}

// HeightAt returns the terrain height at region-local integer coordinates,
// or 0 if the covering patch has not been received
func (t *Terrain) HeightAt(x, y int) entity.Coord {
	if x < 0 || y < 0 {
		return 0
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	patch := t.patches[patchCoord{x / TerrainPatchSize, y / TerrainPatchSize}]
	if patch == nil {
		return 0
	}
	return patch[(y%TerrainPatchSize)*TerrainPatchSize+x%TerrainPatchSize]
}
