// Package session owns the signed-in identity of a client process. The
// Manager is the only writer; everything else reads through Current, Token
// or a subscription.
package session

import (
	"alcyxob/fitlist/internal/domain"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNoToken is returned by a TokenStore holding no token.
var ErrNoToken = errors.New("session: no stored token")

// Identity is an authenticated user and the bearer token proving it.
type Identity struct {
	UserID primitive.ObjectID
	Email  string
	Token  string
}

// Authenticator exchanges credentials for an identity. Rejections are
// *domain.AuthError.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	// Verify resolves a previously issued token.
	Verify(ctx context.Context, token string) (*Identity, error)
}

// TokenStore persists the bearer token between processes.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type subscriber struct {
	fn     func(*Identity)
	active atomic.Bool
}

// Manager tracks the current identity and notifies subscribers of every
// change. Callbacks run on the goroutine that caused the change and must
// not call SignIn, SignUp or SignOut.
type Manager struct {
	auth  Authenticator
	store TokenStore

	notifyMu sync.Mutex // serializes deliveries so subscribers see changes in order

	mu      sync.Mutex
	current *Identity
	subs    map[uint64]*subscriber
	nextID  uint64
}

// NewManager creates a signed-out manager. store may be nil, in which case
// the session lives only as long as the process.
func NewManager(auth Authenticator, store TokenStore) *Manager {
	return &Manager{
		auth:  auth,
		store: store,
		subs:  make(map[uint64]*subscriber),
	}
}

// Subscribe calls fn with the current identity (nil when signed out) and
// then after every change. The returned function stops delivery; calling
// it more than once is harmless.
func (m *Manager) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	sub := &subscriber{fn: fn}
	sub.active.Store(true)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	current := m.current.clone()
	m.mu.Unlock()

	fn(current)

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// SignIn authenticates and publishes the identity.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	ident, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.persist(ident.Token)
	m.set(ident)
	return ident.clone(), nil
}

// SignUp registers a new account, which leaves it signed in.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	ident, err := m.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	m.persist(ident.Token)
	m.set(ident)
	return ident.clone(), nil
}

// SignOut forgets the identity. Without a session it does nothing.
func (m *Manager) SignOut(ctx context.Context) error {
	if m.Current() == nil {
		return nil
	}
	if m.store != nil {
		if err := m.store.Clear(); err != nil && !errors.Is(err, ErrNoToken) {
			log.Printf("WARN: Failed to clear stored session token: %v", err)
		}
	}
	m.set(nil)
	return nil
}

// Restore resumes a session from the token store. It returns nil without
// error when no token is stored or the stored token was rejected.
func (m *Manager) Restore(ctx context.Context) (*Identity, error) {
	if m.store == nil {
		return nil, nil
	}
	token, err := m.store.Load()
	if errors.Is(err, ErrNoToken) || (err == nil && token == "") {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ident, err := m.auth.Verify(ctx, token)
	if err != nil {
		if isRejected(err) {
			log.Printf("INFO: Stored session token was rejected, clearing it")
			if err := m.store.Clear(); err != nil && !errors.Is(err, ErrNoToken) {
				log.Printf("WARN: Failed to clear stored session token: %v", err)
			}
			return nil, nil
		}
		return nil, err
	}
	m.set(ident)
	return ident.clone(), nil
}

// Current returns a copy of the signed-in identity, or nil.
func (m *Manager) Current() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.clone()
}

// Token returns the bearer token of the current identity, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Guard calls redirect whenever the identity disappears after a session
// was observed. A manager that starts signed out does not redirect. The
// returned function removes the guard.
func (m *Manager) Guard(redirect func()) (release func()) {
	var seen bool
	return m.Subscribe(func(ident *Identity) {
		switch {
		case ident != nil:
			seen = true
		case seen:
			seen = false
			redirect()
		}
	})
}

func (m *Manager) set(ident *Identity) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.current = ident.clone()
	subs := make([]*subscriber, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		if sub.active.Load() {
			sub.fn(ident.clone())
		}
	}
}

func (m *Manager) persist(token string) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(token); err != nil {
		log.Printf("WARN: Failed to persist session token: %v", err)
	}
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// isRejected reports whether the backend refused the credentials, as
// opposed to being unreachable.
func isRejected(err error) bool {
	var authErr *domain.AuthError
	return errors.As(err, &authErr) && authErr.Code == domain.AuthInvalidCredential
}
