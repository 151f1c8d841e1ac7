// Package gateway implements the persistence gateway's authentication
// surface: sign-up, password sign-in, sign-out, the current-session
// check, and the auth-state-change event stream that downstream stores
// subscribe to.
//
// Mutating calls never push state into subscribers' stores directly;
// they commit the change, then dispatch an event to every registered
// handler. Handlers run on the mutating caller's goroutine after the
// gateway's own state is committed.
package gateway

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/entities"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailRegistered    = errors.New("user already registered")
	ErrEmailRequired      = errors.New("email is required")
	ErrEmailInvalid       = errors.New("invalid email format")
	ErrNameRequired       = errors.New("name is required")
)

// Event identifies an auth-state transition.
type Event string

const (
	EventSignedIn  Event = "SIGNED_IN"
	EventSignedOut Event = "SIGNED_OUT"
)

// Principal is the authenticated identity carried by auth events and
// returned by GetSession.
type Principal struct {
	UserID string
	Email  string
}

// Handler receives auth-state changes. principal is nil for sign-out.
type Handler func(event Event, principal *Principal)

// Gateway mediates between stores and the credential/profile tables.
type Gateway struct {
	db         *gorm.DB
	bcryptCost int

	mu         sync.Mutex
	handlers   map[int]Handler
	nextHandle int
	current    *Principal
}

// New creates a gateway over the given database handle.
func New(db *gorm.DB, bcryptCost int) *Gateway {
	return &Gateway{
		db:         db,
		bcryptCost: bcryptCost,
		handlers:   make(map[int]Handler),
	}
}

// OnAuthStateChange registers a handler for auth events and returns an
// unsubscribe function. Subscribe before calling GetSession so no event
// can slip between the initial check and the subscription.
func (g *Gateway) OnAuthStateChange(handler Handler) (unsubscribe func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextHandle
	g.nextHandle++
	g.handlers[id] = handler

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.handlers, id)
	}
}

// GetSession returns the currently signed-in principal, or nil.
func (g *Gateway) GetSession() *Principal {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil
	}
	principal := *g.current
	return &principal
}

// SignUp registers a new account with the given profile name, signs the
// new user in, dispatches a SIGNED_IN event and returns the new
// principal.
func (g *Gateway) SignUp(email, password, name string) (*Principal, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}
	if name == "" {
		return nil, ErrNameRequired
	}

	var existing entities.Credential
	err := g.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailRegistered
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	passwordHash, err := auth.HashPassword(password, g.bcryptCost)
	if err != nil {
		return nil, err
	}

	userID := uuid.NewString()
	credential := entities.Credential{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
	}
	profile := entities.Profile{
		UserID: userID,
		Name:   name,
		Email:  email,
	}

	err = g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&credential).Error; err != nil {
			return err
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	g.setCurrent(&Principal{UserID: userID, Email: email})
	g.dispatch(EventSignedIn, &Principal{UserID: userID, Email: email})
	return &Principal{UserID: userID, Email: email}, nil
}

// SignInWithPassword validates credentials, establishes the session,
// dispatches a SIGNED_IN event and returns the authenticated principal.
// Unknown accounts and wrong passwords return the same error.
func (g *Gateway) SignInWithPassword(email, password string) (*Principal, error) {
	var credential entities.Credential
	err := g.db.Where("email = ?", email).First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := auth.CheckPassword(password, credential.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Bookkeeping only; a failed write must not fail the login
	if err := g.db.Model(&credential).Update("last_login_at", time.Now()).Error; err != nil {
		log.Printf("Failed to record login time for %s: %v", credential.UserID, err)
	}

	principal := &Principal{UserID: credential.UserID, Email: credential.Email}
	g.setCurrent(principal)
	g.dispatch(EventSignedIn, &Principal{UserID: credential.UserID, Email: credential.Email})
	return &Principal{UserID: credential.UserID, Email: credential.Email}, nil
}

// SignOut clears the session and dispatches a SIGNED_OUT event. It
// succeeds even when nobody is signed in.
func (g *Gateway) SignOut() {
	g.setCurrent(nil)
	g.dispatch(EventSignedOut, nil)
}

func (g *Gateway) setCurrent(principal *Principal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = principal
}

// dispatch invokes every handler outside the gateway lock so handlers
// may call back into the gateway.
func (g *Gateway) dispatch(event Event, principal *Principal) {
	g.mu.Lock()
	handlers := make([]Handler, 0, len(g.handlers))
	for _, h := range g.handlers {
		handlers = append(handlers, h)
	}
	g.mu.Unlock()

	for _, h := range handlers {
		h(event, principal)
	}
}
