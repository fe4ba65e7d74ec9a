package session

import (
	"sync"

	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

// State is a point-in-time snapshot of the session container.
type State struct {
	// User is the signed-in principal, or nil when unauthenticated.
	User *identity.User

	// Authenticated is derived from User inside the store's critical section
	// and can never be observed out of step with it.
	Authenticated bool

	// Loading is true while a credential operation or the initial session
	// restore is in flight.
	Loading bool
}

// Store holds the local session truth. It is constructed by the session
// plugin and shared by reference; there is no package-level instance. All
// mutators are synchronous and touch nothing but the container.
type Store struct {
	mu      sync.Mutex
	user    *identity.User
	loading int
	counted bool
}

// NewStore returns an empty, unauthenticated store. The loading flag is a
// plain boolean: when two operations overlap, whichever toggles last wins,
// so an overlapping pair can observably drop the flag early. See
// NewCountedStore for the stricter variant.
func NewStore() *Store {
	return &Store{}
}

// NewCountedStore returns a store whose loading flag counts overlapping
// operations, staying raised until the last one finishes.
func NewCountedStore() *Store {
	return &Store{counted: true}
}

// State returns a snapshot of the current session state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		User:          s.user,
		Authenticated: s.user != nil,
		Loading:       s.loading > 0,
	}
}

// SetUser replaces the current user. A nil user means unauthenticated. The
// user value is replaced wholesale, never mutated in place.
func (s *Store) SetUser(u *identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// SetLoading raises or clears the in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.counted && loading:
		s.loading++
	case s.counted:
		if s.loading > 0 {
			s.loading--
		}
	case loading:
		s.loading = 1
	default:
		s.loading = 0
	}
}

// Clear drops the current user. Clearing an already empty store is a no-op.
func (s *Store) Clear() {
	s.SetUser(nil)
}
