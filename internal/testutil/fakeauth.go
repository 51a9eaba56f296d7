package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/service"
)

// ErrInvalidCredentials is returned by FakeAuth.SignIn for a wrong password.
var ErrInvalidCredentials = errors.New("invalid login credentials")

type account struct {
	userID   string
	password string
}

// FakeAuth is an in-memory implementation of service.AuthProvider for testing.
type FakeAuth struct {
	mu       sync.Mutex
	session  *service.Session
	accounts map[string]account
	subs     map[int]func(service.AuthEvent)
	nextSub  int

	// SignUpNeedsConfirmation makes SignUp return ErrConfirmationPending.
	SignUpNeedsConfirmation bool

	// Call counters
	CurrentSessionCalls int

	// Error injection for testing
	CurrentSessionErr error
	SignInErr         error
	SignUpErr         error
	SignOutErr        error
}

// NewFakeAuth creates a FakeAuth with no accounts and no session.
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{
		accounts: make(map[string]account),
		subs:     make(map[int]func(service.AuthEvent)),
	}
}

// AddAccount registers an account that SignIn accepts.
func (f *FakeAuth) AddAccount(email, password, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[email] = account{userID: userID, password: password}
}

// SetSession replaces the current session without notifying subscribers.
func (f *FakeAuth) SetSession(s *service.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = s
}

// Emit replaces the current session according to ev and notifies subscribers.
func (f *FakeAuth) Emit(ev service.AuthEvent) {
	f.mu.Lock()
	if ev.Kind == service.SignedOut {
		f.session = nil
	} else {
		f.session = ev.Session
	}
	subs := make([]func(service.AuthEvent), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (f *FakeAuth) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// CurrentSession implements service.AuthProvider.
func (f *FakeAuth) CurrentSession(ctx context.Context) (*service.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CurrentSessionCalls++
	if f.CurrentSessionErr != nil {
		return nil, f.CurrentSessionErr
	}
	return f.session, nil
}

// SignIn implements service.AuthProvider.
func (f *FakeAuth) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	f.mu.Lock()
	acct, ok := f.accounts[email]
	f.mu.Unlock()
	if !ok || acct.password != password {
		return nil, ErrInvalidCredentials
	}

	s := NewSession(acct.userID, email)
	f.Emit(service.AuthEvent{Kind: service.SignedIn, Session: s})
	return s, nil
}

// SignUp implements service.AuthProvider.
func (f *FakeAuth) SignUp(ctx context.Context, email, password string) (*service.Session, error) {
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	userID := uuid.NewString()
	f.AddAccount(email, password, userID)
	if f.SignUpNeedsConfirmation {
		return nil, service.ErrConfirmationPending
	}

	s := NewSession(userID, email)
	f.Emit(service.AuthEvent{Kind: service.SignedIn, Session: s})
	return s, nil
}

// SignOut implements service.AuthProvider.
func (f *FakeAuth) SignOut(ctx context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.Emit(service.AuthEvent{Kind: service.SignedOut})
	return nil
}

// Subscribe implements service.AuthProvider.
func (f *FakeAuth) Subscribe(fn func(service.AuthEvent)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// NewSession returns a signed-in session for userID.
func NewSession(userID, email string) *service.Session {
	return &service.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		Expiry:       time.Now().Add(time.Hour),
	}
}
