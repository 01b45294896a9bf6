package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
	xcontext "golang.org/x/net/context"

	"github.com/gridmirror/gridmirror/engine/async"
	"github.com/gridmirror/gridmirror/engine/common"
	"github.com/gridmirror/gridmirror/engine/config"
	"github.com/gridmirror/gridmirror/engine/consts"
	"github.com/gridmirror/gridmirror/engine/entity"
	"github.com/gridmirror/gridmirror/engine/gmlog"
	"github.com/gridmirror/gridmirror/engine/gmutils"
	"github.com/gridmirror/gridmirror/engine/post"
	"github.com/gridmirror/gridmirror/engine/transport"
	"github.com/gridmirror/gridmirror/engine/world"
)

const _SESSION_JOB_GROUP = "session"

// Supervisor owns the authoritative "should we be connected" intent and
// reconciles it against actual transport state on a fixed polling cadence.
//
// The five state flags are mutated only on the supervisor's own loop or by
// completion callbacks posted back to that loop, never concurrently; they are
// atomics so status queries may read them from any goroutine.
type Supervisor struct {
	trans transport.Transport
	w     *world.World

	shouldBeLoggedIn xnsyncutil.AtomicBool
	isLoggingIn      xnsyncutil.AtomicBool
	isLoggingOut     xnsyncutil.AtomicBool
	isConnected      xnsyncutil.AtomicBool
	isLoggedIn       xnsyncutil.AtomicBool

	paramsLock    sync.Mutex
	creds         transport.Credentials
	startLocation string
	gridURI       string

	failureLock sync.Mutex
	lastFailure string
}

// NewSupervisor creates a Supervisor driving trans and feeding w
func NewSupervisor(trans transport.Transport, w *world.World) *Supervisor {
	return &Supervisor{
		trans: trans,
		w:     w,
	}
}

// Login is the login entry point: it validates the request, resolves the
// destination grid's URI from the grid directory and flips the intent to
// "should be logged in"; the reconcile loop performs the actual login. An
// unresolvable grid fails immediately without contacting the network. Calling
// Login while a login is already in flight returns immediately.
func (s *Supervisor) Login(first, last, credential, startLocation, gridName string) (bool, string) {
	if s.isLoggingIn.Load() {
		return false, "login already in progress"
	}

	grid := config.GetGrid(gridName)
	if grid == nil {
		msg := fmt.Sprintf("unknown grid: %q, known grids: %v", gridName, config.GridNames().ToList())
		s.setFailure(msg)
		return false, msg
	}

	s.paramsLock.Lock()
	s.creds = transport.Credentials{First: first, Last: last, Credential: credential}
	s.startLocation = ResolveStartLocation(startLocation)
	s.gridURI = grid.LoginURI
	s.paramsLock.Unlock()

	s.shouldBeLoggedIn.Store(true)
	return true, ""
}

// Logout flips the intent to "should not be logged in"; the reconcile loop
// issues the actual logout
func (s *Supervisor) Logout() {
	s.shouldBeLoggedIn.Store(false)
}

// Teleport is a pass-through to the transport, guarded by "must currently be
// logged in"
func (s *Supervisor) Teleport(handle common.RegionHandle, pos entity.Vector3) bool {
	if !s.isLoggedIn.Load() {
		return false
	}
	return s.trans.Teleport(handle, pos)
}

// IsLoggedIn reports whether the session is currently logged in
func (s *Supervisor) IsLoggedIn() bool {
	return s.isLoggedIn.Load()
}

// LastFailure returns the most recent login failure message
func (s *Supervisor) LastFailure() string {
	s.failureLock.Lock()
	defer s.failureLock.Unlock()
	return s.lastFailure
}

func (s *Supervisor) setFailure(msg string) {
	s.failureLock.Lock()
	s.lastFailure = msg
	s.failureLock.Unlock()
}

// Run drives the reconcile loop until ctx is cancelled. Once cancelled the
// loop exits after completing, not starting, login/logout operations;
// outstanding deferred world actions are discarded with the registry.
func (s *Supervisor) Run(ctx context.Context) {
	gmlog.Infof("connection supervisor running ...")
	ticker := time.NewTicker(consts.SUPERVISOR_TICK_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gmlog.Infof("connection supervisor quitting ...")
			return
		case <-ticker.C:
			post.Tick() // run completion callbacks on this loop
			gmutils.RunPanicless(s.reconcile)
		}
	}
}

// reconcile compares intent with actual transport state and issues at most
// one corrective operation. Every transition is guarded by the in-flight
// flags, so repeated polling never issues duplicate login/logout calls.
func (s *Supervisor) reconcile() {
	if s.isLoggingIn.Load() || s.isLoggingOut.Load() {
		return // an operation is in flight, wait for its completion callback
	}

	if s.isLoggedIn.Load() && !s.trans.IsConnected() {
		// connection lost underneath us
		gmlog.Warnf("supervisor: transport connection lost")
		s.isLoggedIn.Store(false)
		s.isConnected.Store(false)
		s.w.Detach()
		return
	}

	if s.shouldBeLoggedIn.Load() {
		if !s.isLoggedIn.Load() {
			s.startLogin()
		}
		return
	}

	if s.isLoggedIn.Load() {
		s.startLogout()
	} else if s.trans.IsConnected() && !s.trans.IsLoggedIn() {
		// connected but not logged in and should not be: force shutdown
		gmlog.Warnf("supervisor: force transport shutdown")
		s.trans.Disconnect()
		s.isConnected.Store(false)
	}
}

func (s *Supervisor) startLogin() {
	s.isLoggingIn.Store(true)

	s.paramsLock.Lock()
	creds, start, uri := s.creds, s.startLocation, s.gridURI
	s.paramsLock.Unlock()

	gmlog.Infof("supervisor: logging in %s %s at %q via %s", creds.First, creds.Last, start, uri)
	async.AppendAsyncJob(_SESSION_JOB_GROUP, func(ctx xcontext.Context) (interface{}, error) {
		return s.trans.Login(ctx, creds, start, uri)
	}, s.onLoginDone)
}

// onLoginDone runs on the supervisor loop via post.Tick
func (s *Supervisor) onLoginDone(res interface{}, err error) {
	s.isLoggingIn.Store(false)

	if err != nil {
		gmlog.Errorf("supervisor: login failed: %v", err)
		s.setFailure(err.Error())
		s.isLoggedIn.Store(false)
		s.isConnected.Store(false)
		return
	}

	result := res.(*transport.LoginResult)
	if !result.Success {
		// report the transport-supplied failure message verbatim
		gmlog.Errorf("supervisor: login rejected: %s", result.Message)
		s.setFailure(result.Message)
		s.isLoggedIn.Store(false)
		s.isConnected.Store(false)
		return
	}

	s.isConnected.Store(true)
	s.isLoggedIn.Store(true)
	s.setFailure("")

	s.paramsLock.Lock()
	creds := s.creds
	s.paramsLock.Unlock()

	// subscribe the world's handlers, then register the agent through the
	// normal materialization path
	s.w.Attach()
	s.w.OnLoggedIn(result, creds)
	gmlog.Infof("supervisor: logged in as %s %s, agent local id %d", creds.First, creds.Last, result.AgentLocal)
}

func (s *Supervisor) startLogout() {
	s.isLoggingOut.Store(true)
	gmlog.Infof("supervisor: logging out ...")
	async.AppendAsyncJob(_SESSION_JOB_GROUP, func(ctx xcontext.Context) (interface{}, error) {
		return nil, s.trans.Logout(ctx)
	}, s.onLogoutDone)
}

// onLogoutDone runs on the supervisor loop via post.Tick
func (s *Supervisor) onLogoutDone(_ interface{}, err error) {
	s.isLoggingOut.Store(false)
	s.isLoggedIn.Store(false)
	s.isConnected.Store(false)
	if err != nil {
		gmlog.Warnf("supervisor: logout failed: %v", err)
	}
	// disconnect delivers the Disconnected event that tears the mirror down,
	// then the handlers are unsubscribed, symmetric with Attach on login
	s.trans.Disconnect()
	s.w.Detach()
}
