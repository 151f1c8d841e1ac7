// Package session holds the authoritative in-memory projection of "who
// is logged in and with what privilege", kept consistent with the
// gateway's authentication subsystem.
//
// The store's state machine is:
//
//	Unresolved(loading) -> Authenticated(user, capabilities) | Anonymous
//
// Transitions are driven exclusively by gateway auth events; Login and
// Register delegate to the gateway and never assign user state
// themselves; the subscribed event handler does, once the gateway has
// confirmed the session.
package session

import (
	"sync"

	"github.com/mrlokans/ebookshelf/internal/entities"
	"github.com/mrlokans/ebookshelf/internal/gateway"
)

// User is the view-model projected from the authenticated principal
// plus its profile record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Capabilities is the authorization set derived from role rows. Read
// and Write are held by every authenticated user; Admin requires an
// admin role row.
type Capabilities struct {
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
	Admin    bool `json:"admin"`
}

// ProfileReader is the slice of the profiles repository the store needs.
type ProfileReader interface {
	GetProfileByUserID(userID string) (*entities.Profile, error)
	HasRole(userID string, role entities.Role) (bool, error)
}

// AuthGateway is the slice of the persistence gateway the store needs.
type AuthGateway interface {
	OnAuthStateChange(handler gateway.Handler) (unsubscribe func())
	GetSession() *gateway.Principal
	SignUp(email, password, name string) (*gateway.Principal, error)
	SignInWithPassword(email, password string) (*gateway.Principal, error)
	SignOut()
}

// Store is the session store. One instance exists per running
// application; construct it once at startup and inject it.
type Store struct {
	gw       AuthGateway
	profiles ProfileReader

	mu          sync.RWMutex
	user        *User
	caps        Capabilities
	loading     bool
	unsubscribe func()
}

// NewStore creates the store, subscribes to auth events and then
// resolves the existing session. The subscription happens first so an
// event firing between the initial check and the subscription cannot
// be lost.
func NewStore(gw AuthGateway, profiles ProfileReader) *Store {
	s := &Store{
		gw:       gw,
		profiles: profiles,
		loading:  true,
	}

	s.unsubscribe = gw.OnAuthStateChange(s.handleAuthChange)

	// Initial session check
	s.resolve(gw.GetSession())

	return s
}

// Close unsubscribes from the gateway's event stream.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Login delegates to the gateway's password authentication. Shared user
// state is set by the auth-event handler, not here; the returned view is
// resolved from the gateway's principal so concurrent logins cannot
// cross. The gateway's error is returned verbatim for the caller to
// surface.
func (s *Store) Login(email, password string) (*User, Capabilities, error) {
	principal, err := s.gw.SignInWithPassword(email, password)
	if err != nil {
		return nil, Capabilities{}, err
	}
	user, caps := s.ResolveUser(principal.UserID, principal.Email)
	return user, caps, nil
}

// Register delegates to the gateway's sign-up call, passing name as
// profile metadata. As with Login, shared state arrives via the event
// handler; the returned view comes from the new principal.
func (s *Store) Register(email, password, name string) (*User, Capabilities, error) {
	principal, err := s.gw.SignUp(email, password, name)
	if err != nil {
		return nil, Capabilities{}, err
	}
	user, caps := s.ResolveUser(principal.UserID, principal.Email)
	return user, caps, nil
}

// Logout signs out at the gateway and then clears the local user and
// capabilities unconditionally, regardless of the gateway's behaviour.
func (s *Store) Logout() {
	s.gw.SignOut()

	s.mu.Lock()
	s.user = nil
	s.caps = Capabilities{}
	s.mu.Unlock()
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (s *Store) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// Capabilities returns the authorization set for the current user.
func (s *Store) Capabilities() Capabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

// IsAdmin reports whether the current user holds the admin role.
func (s *Store) IsAdmin() bool {
	return s.Capabilities().Admin
}

// IsLoading is true from construction until the first auth resolution
// completes. Callers must not treat the user as final while it is set.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) handleAuthChange(_ gateway.Event, principal *gateway.Principal) {
	s.resolve(principal)
}

// ResolveUser projects an identity into the user view and capability
// set: profile row overlays name and email, an admin role row grants
// the Admin capability. Profile and role lookups that fail degrade to
// "no profile" / "no privilege"; a broken roles table must never block
// login. The lookup is pure; it reads no store state, so callers may
// resolve any identity, not just the store's current one.
func (s *Store) ResolveUser(userID, email string) (*User, Capabilities) {
	user := &User{
		ID:    userID,
		Email: email,
	}
	if profile, err := s.profiles.GetProfileByUserID(userID); err == nil {
		user.Name = profile.Name
		user.Email = profile.Email
	}

	isAdmin, err := s.profiles.HasRole(userID, entities.RoleAdmin)
	if err != nil {
		isAdmin = false
	}

	return user, Capabilities{CanRead: true, CanWrite: true, Admin: isAdmin}
}

// resolve projects a principal into the store's shared user state.
func (s *Store) resolve(principal *gateway.Principal) {
	if principal == nil {
		s.mu.Lock()
		s.user = nil
		s.caps = Capabilities{}
		s.loading = false
		s.mu.Unlock()
		return
	}

	user, caps := s.ResolveUser(principal.UserID, principal.Email)

	s.mu.Lock()
	s.user = user
	s.caps = caps
	s.loading = false
	s.mu.Unlock()
}
