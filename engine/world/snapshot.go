package world

import (
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/gridmirror/gridmirror/engine/entity"
)

// EntitySnapshot is the serialized form of one mirrored entity
type EntitySnapshot struct {
	Seq         uint64
	Kind        string
	Local       uint32
	ParentLocal uint32
	DisplayName string
	Position    entity.Vector3
	Rotation    entity.Quaternion
	Velocity    entity.Vector3
	Scale       entity.Vector3
}

// RegionSnapshot is the serialized form of one region record
type RegionSnapshot struct {
	Handle       uint64
	Name         string
	State        string
	Focus        bool
	WorldBase    entity.Vector3
	WaterHeight  entity.Coord
	TerrainCount int
	Entities     []EntitySnapshot
}

// Snapshot is a debug dump of the whole mirror
type Snapshot struct {
	Regions []RegionSnapshot
}

// TakeSnapshot captures the current mirror state. The snapshot is a debug
// aid; it is never read back to restore state (the mirror is rebuilt from the
// notification stream on every connection).
func (w *World) TakeSnapshot() *Snapshot {
	snap := &Snapshot{}
	for _, r := range w.registry.Regions() {
		rs := RegionSnapshot{
			Handle:       uint64(r.Handle),
			Name:         r.Name,
			State:        r.State().String(),
			Focus:        r.Focus.Load(),
			WorldBase:    r.WorldBase,
			WaterHeight:  r.Terrain().WaterHeight,
			TerrainCount: r.Terrain().PatchCount(),
		}
		for _, e := range r.Index().Entities() {
			e.Lock()
			es := EntitySnapshot{
				Seq:         uint64(e.Seq),
				Kind:        e.Name.Kind.String(),
				Local:       e.Name.Local,
				ParentLocal: e.ParentLocal,
				DisplayName: e.DisplayName,
				Position:    e.Position,
				Rotation:    e.Rotation,
				Velocity:    e.Velocity,
				Scale:       e.Scale,
			}
			e.Unlock()
			rs.Entities = append(rs.Entities, es)
		}
		snap.Regions = append(snap.Regions, rs)
	}
	return snap
}

// WriteSnapshot dumps the mirror as gzipped msgpack
func (w *World) WriteSnapshot(out io.Writer) error {
	zw := gzip.NewWriter(out)
	if err := msgpack.NewEncoder(zw).Encode(w.TakeSnapshot()); err != nil {
		zw.Close()
		return errors.Wrap(err, "encode snapshot")
	}
	return errors.Wrap(zw.Close(), "close snapshot writer")
}

// ReadSnapshot parses a dump produced by WriteSnapshot
func ReadSnapshot(in io.Reader) (*Snapshot, error) {
	zr, err := gzip.NewReader(in)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot reader")
	}
	defer zr.Close()

	snap := &Snapshot{}
	if err := msgpack.NewDecoder(zr).Decode(snap); err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return snap, nil
}
