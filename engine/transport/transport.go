package transport

import (
	"context"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/region"
)

// Credentials identifies the account logging in to a grid
type Credentials struct {
	First      string
	Last       string
	Credential string
}

// LoginResult is the outcome of one login attempt. Message carries the
// transport-supplied failure text verbatim when Success is false.
type LoginResult struct {
	Success bool
	Message string

	// AgentLocal is the remote-local id of the controlled agent's avatar
	AgentLocal uint32
	Region     common.RegionHandle
	Position   entity.Vector3
}

// EventHandler receives the transport library's notification stream.
// Notifications are delivered on the transport's own threads with no ordering
// guarantee between kinds, or even between two notifications about the same
// remote object.
type EventHandler interface {
	OnDisconnected(reason string)
	OnSimConnected(handle common.RegionHandle)
	OnSimChanged(prev, current common.RegionHandle)
	OnEventChannelEstablished(handle common.RegionHandle)
	OnObjectUpdated(handle common.RegionHandle, update *ObjectUpdate, isAttachment bool)
	OnTerseObjectUpdated(handle common.RegionHandle, prev, incoming *TerseUpdate)
	OnAttachmentUpdated(handle common.RegionHandle, update *ObjectUpdate)
	OnAvatarUpdated(handle common.RegionHandle, update *AvatarUpdate)
	OnObjectKilled(handle common.RegionHandle, local uint32)
	OnTerrainPatchReceived(handle common.RegionHandle, x, y int, heights []entity.Coord)
}

// Transport is the session collaborator that owns the wire protocol. The sync
// pipeline consumes its event stream and issues the calls below; it never
// sees wire bytes.
type Transport interface {
	// Subscribe and Unsubscribe are symmetric; the supervisor subscribes the
	// pipeline's handlers at connect time and unsubscribes them at disconnect
	Subscribe(h EventHandler)
	Unsubscribe(h EventHandler)

	Login(ctx context.Context, creds Credentials, startLocation string, uri string) (*LoginResult, error)
	Logout(ctx context.Context) error
	Teleport(handle common.RegionHandle, pos entity.Vector3) bool
	Disconnect()

	IsConnected() bool
	IsLoggedIn() bool

	RequestObject(handle common.RegionHandle, local uint32)
	SimulatorInfo(handle common.RegionHandle) (region.SimulatorInfo, bool)
}
