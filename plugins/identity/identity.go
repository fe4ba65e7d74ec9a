// Package identity defines the contract between the application and an
// identity provider.
//
// Providers are responsible for verifying credentials, holding the active
// login session, and announcing session changes as events. The application
// only ever talks to the Gateway interface; which provider backs it is
// selected by configuration, so the session machinery is identical whether
// accounts live in a local database or behind a hosted service.
//
// Providers should implement the Gateway interface and register it with
// IdentityPlugin.AddGateway during Init. Observe the localidp package for a
// complete example of how to use this package.
package identity

import (
	"time"

	"github.com/devlitus/lesson-inglesh/errors"
	"google.golang.org/grpc/codes"
)

var (
	// The email/password pair did not match an account.
	ErrInvalidCredentials = errors.NewC("identity: invalid email or password", codes.Unauthenticated)

	// An account already exists for the email being registered.
	ErrEmailTaken = errors.NewC("identity: an account with this email already exists", codes.AlreadyExists)

	// Too many failed sign-in attempts for the email; try again later.
	ErrTooManyAttempts = errors.NewC("identity: too many failed attempts, try again later", codes.ResourceExhausted)

	// No gateway has been registered for the configured provider.
	ErrNoGateway = errors.NewC("identity: no gateway registered for provider", codes.FailedPrecondition)
)

// User is an authenticated account as reported by the identity provider.
type User struct {
	// Provider-scoped stable identifier.
	ID string

	// The email address the account was created with.
	Email string

	// Display name. May be empty when the provider was never told one; the
	// session layer derives a fallback in that case.
	Name string

	// Provider specific attributes, such as the provider name or locale.
	Metadata map[string]string
}

// Session is the transient payload carried by auth events. It describes the
// login session that an event refers to, not the durable account.
type Session struct {
	// ID of the user the session belongs to.
	UserID string

	// Email associated with the session.
	Email string

	// Display name hint, if the provider has one.
	Name string

	// Opaque access token for the session. Consumers should treat it as a
	// bearer credential and never log it.
	Token string

	// When the session's token stops being valid.
	ExpiresAt time.Time
}

// Credentials carry what a user submits to sign in or register.
type Credentials struct {
	Email    string
	Password string

	// Optional display name, only meaningful for registration.
	Name string
}
