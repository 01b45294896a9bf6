// Package wstransport is a reference Transport adapter speaking
// msgpack-framed messages over a websocket to a protocol bridge. The bridge
// owns the real wire protocol; this adapter only translates its frames into
// the pipeline's event surface.
package wstransport

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"

	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/gmutils"
	"github.com/gridmirror/gridmirror/engine/region"
	"github.com/gridmirror/gridmirror/engine/transport"
)

const (
	_DIAL_TIMEOUT   = time.Second * 10
	_LOGOUT_TIMEOUT = time.Second * 5
	_WRITE_TIMEOUT  = time.Second * 10
)

// frame is the envelope of every bridge message; Payload holds the
// msgpack-encoded type-specific body
type frame struct {
	Type    string
	Payload []byte
}

// Bridge frame types
const (
	ftLogin       = "login"
	ftLoginReply  = "login_reply"
	ftLogout      = "logout"
	ftLogoutReply = "logout_reply"
	ftTeleport    = "teleport"
	ftRequestObj  = "request_object"

	ftSimInfo      = "sim_info"
	ftSimConnected = "sim_connected"
	ftSimChanged   = "sim_changed"
	ftEventChannel = "event_channel"
	ftDisconnected = "disconnected"

	ftObjectUpdate     = "object_update"
	ftTerseUpdate      = "terse_update"
	ftAttachmentUpdate = "attachment_update"
	ftAvatarUpdate     = "avatar_update"
	ftObjectKill       = "object_kill"
	ftTerrainPatch     = "terrain_patch"
)

type loginFrame struct {
	Session       string
	First         string
	Last          string
	Credential    string
	StartLocation string
}

type loginReplyFrame struct {
	Success    bool
	Message    string
	AgentLocal uint32
	Region     uint64
	Position   entity.Vector3
}

type teleportFrame struct {
	Handle   uint64
	Position entity.Vector3
}

type requestObjectFrame struct {
	Handle uint64
	Local  uint32
}

type simInfoFrame struct {
	Handle      uint64
	Name        string
	WaterHeight entity.Coord
	WorldBase   entity.Vector3
}

type simChangedFrame struct {
	Prev    uint64
	Current uint64
}

type disconnectedFrame struct {
	Reason string
}

type objectUpdateFrame struct {
	Handle       uint64
	IsAttachment bool
	Update       transport.ObjectUpdate
}

type terseUpdateFrame struct {
	Handle   uint64
	Prev     transport.TerseUpdate
	Incoming transport.TerseUpdate
}

type avatarUpdateFrame struct {
	Handle uint64
	Update transport.AvatarUpdate
}

type objectKillFrame struct {
	Handle uint64
	Local  uint32
}

type terrainPatchFrame struct {
	Handle  uint64
	X       int
	Y       int
	Heights []entity.Coord
}

type simHandleFrame struct {
	Handle uint64
}

// WSTransport implements transport.Transport over one websocket connection
type WSTransport struct {
	lock     sync.Mutex
	conn     *websocket.Conn
	handlers []transport.EventHandler
	sims     map[common.RegionHandle]region.SimulatorInfo

	connected xnsyncutil.AtomicBool
	loggedIn  xnsyncutil.AtomicBool

	sessionID  string
	loginReply chan *loginReplyFrame
	logoutAck  chan struct{}
}

// New creates an unconnected WSTransport; the connection is established by
// the first Login call
func New() *WSTransport {
	return &WSTransport{
		sims:       map[common.RegionHandle]region.SimulatorInfo{},
		loginReply: make(chan *loginReplyFrame, 1),
		logoutAck:  make(chan struct{}, 1),
	}
}

// Subscribe implements transport.Transport
func (t *WSTransport) Subscribe(h transport.EventHandler) {
	t.lock.Lock()
	t.handlers = append(t.handlers, h)
	t.lock.Unlock()
}

// Unsubscribe implements transport.Transport
func (t *WSTransport) Unsubscribe(h transport.EventHandler) {
	t.lock.Lock()
	for i, cur := range t.handlers {
		if cur == h {
			t.handlers = append(t.handlers[:i], t.handlers[i+1:]...)
			break
		}
	}
	t.lock.Unlock()
}

func (t *WSTransport) eachHandler(f func(h transport.EventHandler)) {
	t.lock.Lock()
	handlers := make([]transport.EventHandler, len(t.handlers))
	copy(handlers, t.handlers)
	t.lock.Unlock()

	for _, h := range handlers {
		h := h
		gmutils.RunPanicless(func() {
			f(h)
		})
	}
}

// IsConnected implements transport.Transport
func (t *WSTransport) IsConnected() bool {
	return t.connected.Load()
}

// IsLoggedIn implements transport.Transport
func (t *WSTransport) IsLoggedIn() bool {
	return t.loggedIn.Load()
}

func (t *WSTransport) dial(uri string) error {
	dialer := websocket.Dialer{HandshakeTimeout: _DIAL_TIMEOUT}
	conn, _, err := dialer.Dial(uri, nil)
	if err != nil {
		return errors.Wrapf(err, "dial %s", uri)
	}

	t.lock.Lock()
	t.conn = conn
	t.lock.Unlock()
	t.connected.Store(true)

	go t.recvLoop(conn)
	return nil
}

// Login implements transport.Transport: dials the bridge if necessary, sends
// the login frame and waits for the bridge's reply
func (t *WSTransport) Login(ctx context.Context, creds transport.Credentials, startLocation string, uri string) (*transport.LoginResult, error) {
	if !t.connected.Load() {
		if err := t.dial(uri); err != nil {
			return nil, err
		}
	}

	t.sessionID = uuid.NewString()
	err := t.send(ftLogin, &loginFrame{
		Session:       t.sessionID,
		First:         creds.First,
		Last:          creds.Last,
		Credential:    creds.Credential,
		StartLocation: startLocation,
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case reply := <-t.loginReply:
		result := &transport.LoginResult{
			Success:    reply.Success,
			Message:    reply.Message,
			AgentLocal: reply.AgentLocal,
			Region:     common.RegionHandle(reply.Region),
			Position:   reply.Position,
		}
		t.loggedIn.Store(result.Success)
		return result, nil
	}
}

// Logout implements transport.Transport
func (t *WSTransport) Logout(ctx context.Context) error {
	if err := t.send(ftLogout, struct{}{}); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(_LOGOUT_TIMEOUT):
		return errors.New("logout ack timeout")
	case <-t.logoutAck:
		t.loggedIn.Store(false)
		return nil
	}
}

// Teleport implements transport.Transport
func (t *WSTransport) Teleport(handle common.RegionHandle, pos entity.Vector3) bool {
	if !t.loggedIn.Load() {
		return false
	}
	return t.send(ftTeleport, &teleportFrame{Handle: uint64(handle), Position: pos}) == nil
}

// RequestObject implements transport.Transport
func (t *WSTransport) RequestObject(handle common.RegionHandle, local uint32) {
	if err := t.send(ftRequestObj, &requestObjectFrame{Handle: uint64(handle), Local: local}); err != nil {
		gmlog.Warnf("wstransport: request object %d failed: %v", local, err)
	}
}

// SimulatorInfo implements transport.Transport
func (t *WSTransport) SimulatorInfo(handle common.RegionHandle) (region.SimulatorInfo, bool) {
	t.lock.Lock()
	defer t.lock.Unlock()
	info, ok := t.sims[handle]
	return info, ok
}

// Disconnect implements transport.Transport: closes the websocket and
// delivers the Disconnected event
func (t *WSTransport) Disconnect() {
	t.lock.Lock()
	conn := t.conn
	t.conn = nil
	t.lock.Unlock()

	if conn != nil {
		conn.Close()
	}
	if t.connected.Load() {
		t.connected.Store(false)
		t.loggedIn.Store(false)
		t.eachHandler(func(h transport.EventHandler) {
			h.OnDisconnected("disconnect requested")
		})
	}
}

func (t *WSTransport) send(ftype string, payload interface{}) error {
	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "marshal %s", ftype)
	}
	data, err := msgpack.Marshal(&frame{Type: ftype, Payload: raw})
	if err != nil {
		return errors.Wrapf(err, "marshal %s frame", ftype)
	}

	t.lock.Lock()
	defer t.lock.Unlock()
	if t.conn == nil {
		return errors.New("not connected")
	}
	t.conn.SetWriteDeadline(time.Now().Add(_WRITE_TIMEOUT))
	return errors.Wrapf(t.conn.WriteMessage(websocket.BinaryMessage, data), "send %s", ftype)
}

func (t *WSTransport) recvLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.onConnLost(conn, err)
			return
		}

		var f frame
		if err := msgpack.Unmarshal(data, &f); err != nil {
			gmlog.Errorf("wstransport: bad frame: %v", err)
			continue
		}
		gmutils.RunPanicless(func() {
			t.dispatch(&f)
		})
	}
}

func (t *WSTransport) onConnLost(conn *websocket.Conn, err error) {
	t.lock.Lock()
	current := t.conn == conn
	if current {
		t.conn = nil
	}
	t.lock.Unlock()

	if !current || !t.connected.Load() {
		return // Disconnect already handled it
	}
	gmlog.Warnf("wstransport: connection lost: %v", err)
	t.connected.Store(false)
	t.loggedIn.Store(false)
	t.eachHandler(func(h transport.EventHandler) {
		h.OnDisconnected(err.Error())
	})
}

func (t *WSTransport) dispatch(f *frame) {
	switch f.Type {
	case ftLoginReply:
		reply := &loginReplyFrame{}
		if !t.decode(f, reply) {
			return
		}
		select {
		case t.loginReply <- reply:
		default:
			gmlog.Warnf("wstransport: unexpected login reply dropped")
		}
	case ftLogoutReply:
		select {
		case t.logoutAck <- struct{}{}:
		default:
		}
	case ftSimInfo:
		info := &simInfoFrame{}
		if !t.decode(f, info) {
			return
		}
		t.lock.Lock()
		t.sims[common.RegionHandle(info.Handle)] = region.SimulatorInfo{
			Name:        info.Name,
			WaterHeight: info.WaterHeight,
			WorldBase:   info.WorldBase,
		}
		t.lock.Unlock()
	case ftSimConnected:
		p := &simHandleFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnSimConnected(common.RegionHandle(p.Handle))
		})
	case ftSimChanged:
		p := &simChangedFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnSimChanged(common.RegionHandle(p.Prev), common.RegionHandle(p.Current))
		})
	case ftEventChannel:
		p := &simHandleFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnEventChannelEstablished(common.RegionHandle(p.Handle))
		})
	case ftDisconnected:
		p := &disconnectedFrame{}
		if !t.decode(f, p) {
			return
		}
		t.connected.Store(false)
		t.loggedIn.Store(false)
		t.eachHandler(func(h transport.EventHandler) {
			h.OnDisconnected(p.Reason)
		})
	case ftObjectUpdate:
		p := &objectUpdateFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnObjectUpdated(common.RegionHandle(p.Handle), &p.Update, p.IsAttachment)
		})
	case ftTerseUpdate:
		p := &terseUpdateFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnTerseObjectUpdated(common.RegionHandle(p.Handle), &p.Prev, &p.Incoming)
		})
	case ftAttachmentUpdate:
		p := &objectUpdateFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnAttachmentUpdated(common.RegionHandle(p.Handle), &p.Update)
		})
	case ftAvatarUpdate:
		p := &avatarUpdateFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnAvatarUpdated(common.RegionHandle(p.Handle), &p.Update)
		})
	case ftObjectKill:
		p := &objectKillFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnObjectKilled(common.RegionHandle(p.Handle), p.Local)
		})
	case ftTerrainPatch:
		p := &terrainPatchFrame{}
		if !t.decode(f, p) {
			return
		}
		t.eachHandler(func(h transport.EventHandler) {
			h.OnTerrainPatchReceived(common.RegionHandle(p.Handle), p.X, p.Y, p.Heights)
		})
	default:
		gmlog.Warnf("wstransport: unknown frame type %q", f.Type)
	}
}

func (t *WSTransport) decode(f *frame, out interface{}) bool {
	if err := msgpack.Unmarshal(f.Payload, out); err != nil {
		gmlog.Errorf("wstransport: bad %s payload: %v", f.Type, err)
		return false
	}
	return true
}
