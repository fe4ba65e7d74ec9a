package identity

import "context"

// Event kinds double as the eventbus topics providers publish on, so a
// consumer can either take the full feed through Gateway.SubscribeEvents or
// subscribe to a single topic on the bus.
const (
	SignedInEvent       = "auth.signed_in"
	SignedOutEvent      = "auth.signed_out"
	TokenRefreshedEvent = "auth.token_refreshed"
	RegisteredEvent     = "auth.registered"
)

// Event announces a change to the login session.
type Event struct {
	// Kind names what happened. Consumers must tolerate kinds they do not
	// recognize; providers are free to add new ones.
	Kind string

	// Session the event refers to. Nil for events that end a session.
	Session *Session
}

// Handler receives auth events. Handlers are observers: they cannot veto an
// event, and a provider may invoke them from its own goroutines.
type Handler func(ctx context.Context, evt Event)

// Subscription is a live event feed registration.
type Subscription interface {
	// Cancel stops the feed. Safe to call more than once.
	Cancel()
}
