package identity

import "context"

// Gateway is the boundary the application uses to talk to an identity
// provider. Implementations own credential verification and session storage;
// callers own what happens to the application state afterwards.
type Gateway interface {
	// CurrentUser returns the user for the active login session. A nil user
	// with a nil error means there is no session; errors are reserved for
	// lookups that genuinely failed.
	CurrentUser(ctx context.Context) (*User, error)

	// SubscribeEvents registers a handler for auth events. The returned
	// subscription remains live until cancelled.
	SubscribeEvents(ctx context.Context, h Handler) (Subscription, error)

	// Authenticate verifies credentials and starts a session. Emits a
	// signed-in event on success.
	Authenticate(ctx context.Context, creds Credentials) (*User, error)

	// Register creates an account and starts a session for it. Emits
	// registered and signed-in events on success.
	Register(ctx context.Context, creds Credentials) (*User, error)

	// EndSession terminates the active session, emitting a signed-out event.
	// Ending an already-ended session is not an error.
	EndSession(ctx context.Context) error
}
