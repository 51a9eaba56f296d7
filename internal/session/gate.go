// Package session decides what the user is shown based on authentication
// state and owns the state store of the signed-in user.
package session

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"taskflow/internal/service"
	"taskflow/internal/state"
)

// Status is the resolved authentication state.
type Status int

const (
	// Unknown means the session has not been resolved yet. Nothing is fetched.
	Unknown Status = iota
	// SignedOut means there is no session; the sign-in flow is shown.
	SignedOut
	// SignedIn means a session exists; the dashboard is shown.
	SignedIn
)

func (s Status) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case SignedIn:
		return "signed-in"
	default:
		return "unknown"
	}
}

// Gate tracks the auth session and builds one state.Store per established
// session. A store is created and loaded exactly once when a user signs in;
// token refreshes for the same user keep the existing store, and sign-out
// discards it.
type Gate struct {
	auth   service.AuthProvider
	remote service.RemoteStore
	log    *zap.Logger
	ctx    context.Context

	mu          sync.RWMutex
	status      Status
	session     *service.Session
	store       *state.Store
	unsubscribe func()
	listeners   []func(Status)
}

// NewGate creates a gate in the Unknown status and subscribes to auth
// changes. ctx bounds the loads triggered by those notifications.
func NewGate(ctx context.Context, auth service.AuthProvider, remote service.RemoteStore, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gate{
		auth:   auth,
		remote: remote,
		log:    log.Named("session"),
		ctx:    ctx,
	}
	g.unsubscribe = auth.Subscribe(g.handle)
	return g
}

// Resolve asks the auth provider for the current session and moves the gate
// out of Unknown. When a session exists and no store is live for its user,
// a new store is loaded before Resolve returns and its load error, if any,
// is returned with the SignedIn status. A provider error resolves to
// SignedOut and is returned.
func (g *Gate) Resolve(ctx context.Context) (Status, error) {
	sess, err := g.auth.CurrentSession(ctx)
	if err != nil {
		g.log.Error("error getting session", zap.Error(err))
		g.apply(ctx, nil)
		return SignedOut, fmt.Errorf("get session: %w", err)
	}
	return g.apply(ctx, sess)
}

// Status returns the current status.
func (g *Gate) Status() Status {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// Session returns the current session, or nil.
func (g *Gate) Session() *service.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Store returns the signed-in user's store, or nil when signed out or
// not yet resolved.
func (g *Gate) Store() *state.Store {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.store
}

// OnChange registers fn to be called after every status transition.
func (g *Gate) OnChange(fn func(Status)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// Close stops listening to auth changes.
func (g *Gate) Close() {
	g.mu.Lock()
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (g *Gate) handle(ev service.AuthEvent) {
	g.log.Debug("auth event", zap.Stringer("event", ev.Kind))
	sess := ev.Session
	if ev.Kind == service.SignedOut {
		sess = nil
	}
	// Load failures are already logged by the store.
	_, _ = g.apply(g.ctx, sess)
}

// apply records sess and, if it belongs to a user without a live store,
// creates and loads that store. Only the caller that created a store loads
// it, so each store is loaded once.
func (g *Gate) apply(ctx context.Context, sess *service.Session) (Status, error) {
	g.mu.Lock()
	prev := g.status
	var fresh *state.Store
	switch {
	case sess == nil:
		g.status = SignedOut
		g.session = nil
		g.store = nil
	default:
		g.status = SignedIn
		g.session = sess
		if g.store == nil || g.store.UserID() != sess.UserID {
			fresh = state.New(scopeTo(g.remote, sess.UserID), sess.UserID, g.log)
			g.store = fresh
		}
	}
	status := g.status
	listeners := append([]func(Status){}, g.listeners...)
	g.mu.Unlock()

	var err error
	if fresh != nil {
		g.log.Info("session established", zap.String("user_id", sess.UserID))
		err = fresh.LoadAll(ctx)
	}

	if status != prev || fresh != nil {
		for _, fn := range listeners {
			fn(status)
		}
	}
	return status, err
}

// scopeTo narrows remote to userID's rows when the store supports it.
func scopeTo(remote service.RemoteStore, userID string) service.RemoteStore {
	if sc, ok := remote.(service.UserScoper); ok {
		return sc.ForUser(userID)
	}
	return remote
}
