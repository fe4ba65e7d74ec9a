package session

import (
	"context"
	"strings"

	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

// defaultName is the placeholder shown when neither a name hint nor an email
// local part is available.
const defaultName = "Student"

// Reducer folds provider auth events into store mutations. It performs no
// I/O of its own; the event pump invokes it one event at a time.
type Reducer struct {
	store *Store
}

// NewReducer returns a Reducer writing to the given store.
func NewReducer(store *Store) *Reducer {
	return &Reducer{store: store}
}

// Apply maps one auth event to its store mutation. Unknown kinds are ignored
// so new provider events cannot corrupt local state.
func (r *Reducer) Apply(ctx context.Context, evt identity.Event) {
	switch evt.Kind {
	case identity.SignedInEvent:
		if evt.Session == nil {
			logging.Warnw(ctx, "session: sign-in event without payload ignored")
			return
		}
		r.store.SetUser(&identity.User{
			ID:    evt.Session.UserID,
			Email: evt.Session.Email,
			Name:  displayName(evt.Session.Name, evt.Session.Email),
		})
	case identity.SignedOutEvent:
		r.store.Clear()
	case identity.TokenRefreshedEvent:
		// Session truth is untouched by a refresh; the signed-in user stands.
		logging.Debug(ctx, "session: token refreshed")
	default:
		logging.Debugw(ctx, "session: ignoring auth event", "kind", evt.Kind)
	}
}

// displayName picks the user-facing name: the provider's name hint when
// present, else the email local part, else a fixed placeholder. An empty
// string is never used.
func displayName(hint, email string) string {
	if name := strings.TrimSpace(hint); name != "" {
		return name
	}
	if email != "" {
		if local, _, _ := strings.Cut(email, "@"); local != "" {
			return local
		}
	}
	return defaultName
}
