package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"taskflow/internal/service"
)

const authPath = "/auth/v1/"

var _ service.AuthProvider = (*Auth)(nil)
var _ service.RemoteStore = (*Store)(nil)

// storedSession is the on-disk session: the oauth2 token plus the
// identity it was issued for.
type storedSession struct {
	*oauth2.Token
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// tokenResponse is GoTrue's session payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// claims are the access-token claims used to identify the session.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Auth implements service.AuthProvider over GoTrue. The session is kept in
// a JSON file so later invocations stay signed in; expired access tokens
// are refreshed on demand and the file is rewritten.
type Auth struct {
	api  *client
	path string
	log  *zap.Logger
	now  func() time.Time

	mu      sync.Mutex
	subs    map[int]func(service.AuthEvent)
	nextSub int
}

// NewAuth creates an Auth for the project at baseURL, persisting the
// session at sessionPath.
func NewAuth(baseURL, anonKey, sessionPath string, timeout time.Duration, log *zap.Logger) *Auth {
	return NewAuthWithHTTPClient(baseURL, sessionPath, timeout, &http.Client{
		Transport: newAPIKeyTransport(anonKey, nil),
	}, log)
}

// NewAuthWithHTTPClient creates an Auth with a custom HTTP client (for testing).
func NewAuthWithHTTPClient(baseURL, sessionPath string, timeout time.Duration, httpClient *http.Client, log *zap.Logger) *Auth {
	if log == nil {
		log = zap.NewNop()
	}
	return &Auth{
		api:  &client{baseURL: baseURL, http: httpClient, timeout: timeout},
		path: sessionPath,
		log:  log.Named("auth"),
		now:  time.Now,
		subs: make(map[int]func(service.AuthEvent)),
	}
}

// CurrentSession implements service.AuthProvider. It returns nil when no
// session file exists and refreshes an expired session before returning it.
func (a *Auth) CurrentSession(ctx context.Context) (*service.Session, error) {
	stored, err := a.load()
	if err != nil {
		if errors.Is(err, service.ErrNoSession) {
			return nil, nil
		}
		return nil, err
	}
	if !a.valid(stored.Token) {
		stored, err = a.refresh(ctx, stored)
		if err != nil {
			return nil, err
		}
	}
	return a.session(stored), nil
}

// SignIn implements service.AuthProvider.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*service.Session, error) {
	var resp tokenResponse
	err := a.api.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return a.establish(resp, service.SignedIn)
}

// SignUp implements service.AuthProvider. Projects that require email
// confirmation answer without a session; that is reported as
// service.ErrConfirmationPending.
func (a *Auth) SignUp(ctx context.Context, email, password string) (*service.Session, error) {
	var resp tokenResponse
	err := a.api.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "signup",
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, service.ErrConfirmationPending
	}
	return a.establish(resp, service.SignedIn)
}

// SignOut implements service.AuthProvider. The server-side logout is best
// effort; the local session is always removed.
func (a *Auth) SignOut(ctx context.Context) error {
	stored, err := a.load()
	if err == nil && stored.AccessToken != "" {
		logoutErr := a.api.do(ctx, request{
			method: http.MethodPost,
			path:   authPath + "logout",
			body:   struct{}{},
		}.withBearer(stored.AccessToken), nil)
		if logoutErr != nil {
			a.log.Warn("error revoking session", zap.Error(logoutErr))
		}
	}

	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	a.notify(service.AuthEvent{Kind: service.SignedOut})
	return nil
}

// Subscribe implements service.AuthProvider.
func (a *Auth) Subscribe(fn func(service.AuthEvent)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = fn
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		delete(a.subs, id)
	}
}

// TokenSource returns a source of access tokens for the stored session,
// refreshing through GoTrue when the cached token expires. It fails with
// service.ErrNoSession when nobody is signed in.
func (a *Auth) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &refreshingSource{ctx: ctx, auth: a})
}

type refreshingSource struct {
	ctx  context.Context
	auth *Auth
}

func (s *refreshingSource) Token() (*oauth2.Token, error) {
	stored, err := s.auth.load()
	if err != nil {
		return nil, err
	}
	if s.auth.valid(stored.Token) {
		return stored.Token, nil
	}
	stored, err = s.auth.refresh(s.ctx, stored)
	if err != nil {
		return nil, err
	}
	return stored.Token, nil
}

func (a *Auth) valid(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	// Same early-expiry window as oauth2.Token.Valid.
	return tok.Expiry.Add(-10 * time.Second).After(a.now())
}

// refresh exchanges the stored refresh token for a new session. A rejected
// refresh token means the session is over, so it is signed out locally.
func (a *Auth) refresh(ctx context.Context, stored *storedSession) (*storedSession, error) {
	if stored.RefreshToken == "" {
		a.expire()
		return nil, service.ErrUnauthorized
	}
	var resp tokenResponse
	err := a.api.do(ctx, request{
		method: http.MethodPost,
		path:   authPath + "token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": stored.RefreshToken},
	}, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			a.log.Warn("refresh token rejected", zap.Error(err))
			a.expire()
			return nil, fmt.Errorf("%w: %v", service.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	next := a.fromResponse(resp)
	if next.UserID == "" {
		next.UserID = stored.UserID
	}
	if next.Email == "" {
		next.Email = stored.Email
	}
	if err := a.save(next); err != nil {
		return nil, err
	}
	a.log.Debug("session refreshed", zap.String("user_id", next.UserID))
	a.notify(service.AuthEvent{Kind: service.TokenRefreshed, Session: a.session(next)})
	return next, nil
}

// expire drops a session that can no longer be refreshed.
func (a *Auth) expire() {
	if err := os.Remove(a.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		a.log.Warn("error removing expired session", zap.Error(err))
	}
	a.notify(service.AuthEvent{Kind: service.SignedOut})
}

func (a *Auth) establish(resp tokenResponse, kind service.AuthEventKind) (*service.Session, error) {
	stored := a.fromResponse(resp)
	if err := a.save(stored); err != nil {
		return nil, err
	}
	sess := a.session(stored)
	a.log.Info("signed in", zap.String("user_id", sess.UserID))
	a.notify(service.AuthEvent{Kind: kind, Session: sess})
	return sess, nil
}

func (a *Auth) fromResponse(resp tokenResponse) *storedSession {
	tok := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
	}
	switch {
	case resp.ExpiresAt > 0:
		tok.Expiry = time.Unix(resp.ExpiresAt, 0)
	case resp.ExpiresIn > 0:
		tok.Expiry = a.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return &storedSession{Token: tok, UserID: resp.User.ID, Email: resp.User.Email}
}

// session builds the public session, preferring the access-token claims.
// The token is not verified here; the platform verifies it on every call.
func (a *Auth) session(stored *storedSession) *service.Session {
	sess := &service.Session{
		UserID:       stored.UserID,
		Email:        stored.Email,
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.Expiry,
	}

	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(stored.AccessToken, &c); err != nil {
		a.log.Debug("access token is not a readable JWT", zap.Error(err))
		return sess
	}
	if c.Subject != "" {
		sess.UserID = c.Subject
	}
	if c.Email != "" {
		sess.Email = c.Email
	}
	if c.ExpiresAt != nil {
		sess.Expiry = c.ExpiresAt.Time
	}
	return sess
}

// load reads the session file. A missing file is service.ErrNoSession.
func (a *Auth) load() (*storedSession, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, service.ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	stored := &storedSession{Token: &oauth2.Token{}}
	if err := json.Unmarshal(data, stored); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", a.path, err)
	}
	if stored.AccessToken == "" {
		return nil, service.ErrNoSession
	}
	return stored, nil
}

// save writes the session file with owner-only permissions.
func (a *Auth) save(stored *storedSession) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(a.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// notify calls subscribers outside the lock so they may call back into Auth.
func (a *Auth) notify(ev service.AuthEvent) {
	a.mu.Lock()
	subs := make([]func(service.AuthEvent), 0, len(a.subs))
	for _, fn := range a.subs {
		subs = append(subs, fn)
	}
	a.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
