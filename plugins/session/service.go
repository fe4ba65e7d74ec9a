package session

import (
	"context"
	"strings"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
)

// Service exposes the credential flows the UI layer calls. Every flow
// brackets the store's loading flag and restores a safe state before
// re-raising failures, so callers never need to clean up after an error.
type Service struct {
	store   *Store
	gateway identity.Gateway
}

// NewService wires the credential flows to their collaborators.
func NewService(store *Store, gw identity.Gateway) *Service {
	return &Service{store: store, gateway: gw}
}

// SignIn authenticates against the identity provider and records the result.
// On failure the store is forced to unauthenticated before the error is
// returned, so a failed attempt can never leave a stale user visible.
func (s *Service) SignIn(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	user, err := s.gateway.Authenticate(ctx, creds)
	if err != nil {
		s.store.SetUser(nil)
		return nil, err
	}
	s.store.SetUser(user)
	return user, nil
}

// SignUp registers a new account and signs the user in. Failure handling
// matches SignIn.
func (s *Service) SignUp(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	user, err := s.gateway.Register(ctx, creds)
	if err != nil {
		s.store.SetUser(nil)
		return nil, err
	}
	s.store.SetUser(user)
	return user, nil
}

// Logout ends the remote session and clears local state. The local session
// is cleared even when the remote call fails: once the user has asked to
// leave, the client's own belief is authoritative. The remote failure is
// still returned.
func (s *Service) Logout(ctx context.Context) error {
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	err := s.gateway.EndSession(ctx)
	s.store.Clear()
	return err
}

// validateCredentials rejects malformed input before any state is touched:
// the gateway is never called, and neither the loading flag nor the current
// user moves. Violations are reported per field so a form can annotate them.
func validateCredentials(creds identity.Credentials) error {
	var violations []*errdetails.BadRequest_FieldViolation

	email := strings.TrimSpace(creds.Email)
	if email == "" {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       "email",
			Description: "email is required",
		})
	} else if !strings.Contains(email, "@") {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       "email",
			Description: "email must be a valid address",
		})
	}
	if creds.Password == "" {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       "password",
			Description: "password is required",
		})
	}

	if len(violations) == 0 {
		return nil
	}
	return errors.NewC("session: malformed credentials", codes.InvalidArgument).
		WithDetails(&errdetails.BadRequest{FieldViolations: violations})
}
