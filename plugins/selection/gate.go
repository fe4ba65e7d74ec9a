package selection

import (
	"context"

	"google.golang.org/grpc/codes"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/session"
)

// ErrNotAuthenticated is returned by Check when no user is signed in.
var ErrNotAuthenticated = errors.NewC("user not authenticated", codes.Unauthenticated)

// Prefix carried by every Check failure. The cause's own message is kept
// when it is a recognized error; anything foreign is reported as unknown.
const checkFailurePrefix = "selection: could not check user selection"

// CheckResult is the outcome of a strict selection check.
type CheckResult struct {
	// True when the repository returned a selection.
	HasSelection bool

	// The latest selection, nil when the user has not made one yet.
	Selection *Selection
}

// Gate answers "has this user picked a topic and level yet?". It reads the
// session store for the current user and the repository for their choice.
type Gate struct {
	session *session.Store
	repo    Repository
}

// NewGate returns a Gate over the given session store and repository.
func NewGate(sessionStore *session.Store, repo Repository) *Gate {
	return &Gate{session: sessionStore, repo: repo}
}

// Check is the strict, fail-closed read: without an authenticated user it
// fails with ErrNotAuthenticated and the repository is never consulted.
// Repository failures are propagated, wrapped for the caller.
func (g *Gate) Check(ctx context.Context) (CheckResult, error) {
	state := g.session.State()
	if !state.Authenticated {
		return CheckResult{}, describeFailure(errors.Mark(ErrNotAuthenticated, 0))
	}

	sel, err := g.repo.LatestForUser(ctx, state.User.ID)
	if err != nil {
		return CheckResult{}, describeFailure(err)
	}
	return CheckResult{HasSelection: sel != nil, Selection: sel}, nil
}

// Has is the permissive, fail-open read used to gate navigation: any
// failure, including "not signed in", is logged and reported as "no
// selection" so an infrastructure hiccup never strands the user on an
// error screen.
func (g *Gate) Has(ctx context.Context) bool {
	res, err := g.Check(ctx)
	if err != nil {
		logging.Warnw(ctx, "selection: treating check failure as no selection", "error", err)
		return false
	}
	return res.HasSelection
}

// describeFailure wraps a Check failure for the caller. Recognized errors
// keep their message, code, and identity for errors.Is; anything else
// collapses into a generic unknown failure.
func describeFailure(err error) error {
	var e *errors.Error
	if errors.As(err, &e) {
		return errors.WrapPrefix(e, checkFailurePrefix, 1)
	}
	return errors.NewC(checkFailurePrefix+": unknown error", codes.Unknown)
}
