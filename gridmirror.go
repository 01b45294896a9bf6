// Package gridmirror keeps a local mirror of a remote virtual-world grid:
// regions, their entities and the controlled agent, synchronized from a
// transport collaborator's event stream.
package gridmirror

import (
	"context"
	"io"

	timer "github.com/xiaonanln/goTimer"

	"github.com/gridmirror/gridmirror/engine/async"
	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/config"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/session"
	"github.com/gridmirror/gridmirror/engine/transport"
	"github.com/gridmirror/gridmirror/engine/world"
)

// Mirror bundles a World with the Supervisor driving its connection
type Mirror struct {
	World      *world.World
	Supervisor *session.Supervisor
}

// NewMirror assembles a World and its connection Supervisor over trans
func NewMirror(trans transport.Transport) *Mirror {
	w := world.NewWorld(trans, config.Get().Client.HoldParents)
	return &Mirror{
		World:      w,
		Supervisor: session.NewSupervisor(trans, w),
	}
}

// Run starts the engine timer and blocks driving the supervisor reconcile
// loop until ctx is cancelled
func (m *Mirror) Run(ctx context.Context) {
	timer.StartTicks(consts.TIMER_TICK_INTERVAL)
	m.Supervisor.Run(ctx)
	async.Shutdown()
}

// Login requests a login with the given avatar name on the named grid
func (m *Mirror) Login(first, last, credential, startLocation, gridName string) (bool, string) {
	return m.Supervisor.Login(first, last, credential, startLocation, gridName)
}

// Logout requests a logout
func (m *Mirror) Logout() {
	m.Supervisor.Logout()
}

// Teleport requests a teleport of the controlled agent
func (m *Mirror) Teleport(handle common.RegionHandle, pos entity.Vector3) bool {
	return m.Supervisor.Teleport(handle, pos)
}

// Agent returns the controlled agent's entity, or nil before login completes
func (m *Mirror) Agent() *entity.Entity {
	return m.World.Agent()
}

// ResolveEntityByName resolves an entity by the canonical string form of its
// structured name, across all known regions
func (m *Mirror) ResolveEntityByName(name string) *entity.Entity {
	return m.World.ResolveEntityByName(name)
}

// WriteSnapshot dumps the current mirror state as gzipped msgpack
func (m *Mirror) WriteSnapshot(out io.Writer) error {
	return m.World.WriteSnapshot(out)
}

// AddListener registers a world observer
func (m *Mirror) AddListener(l world.WorldListener) {
	m.World.AddListener(l)
}

// RemoveListener unregisters a world observer
func (m *Mirror) RemoveListener(l world.WorldListener) {
	m.World.RemoveListener(l)
}
