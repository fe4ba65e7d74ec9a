package session

import (
	"context"
	"sync"

	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

// Pending provider events tolerated before delivery blocks.
const eventBuffer = 16

// Initializer restores the persisted session at startup and, when a session
// exists, bridges the provider's auth events into the Reducer.
//
// Events are not handled on the provider's delivery goroutines: the
// subscription handler only pushes onto a channel owned by a single pump
// goroutine, so events are reduced one at a time in arrival order.
type Initializer struct {
	store   *Store
	reducer *Reducer
	gateway identity.Gateway

	mu         sync.Mutex
	subscribed bool
	sub        identity.Subscription
}

// NewInitializer wires the initializer to its collaborators.
func NewInitializer(store *Store, reducer *Reducer, gw identity.Gateway) *Initializer {
	return &Initializer{store: store, reducer: reducer, gateway: gw}
}

// Initialize establishes the starting session truth: it fetches the current
// user, seeds the store, and — only when a session was found — subscribes to
// the provider's auth events for the remainder of the process lifetime.
// Failures are absorbed: the store is forced to unauthenticated and the app
// proceeds signed out. Whichever branch is taken, the loading flag is cleared
// by the time Initialize returns.
//
// Initialize may be called again; it re-fetches the user but never creates a
// second live subscription.
func (i *Initializer) Initialize(ctx context.Context) {
	i.store.SetLoading(true)
	defer i.store.SetLoading(false)

	user, err := i.gateway.CurrentUser(ctx)
	if err != nil {
		logging.Warnw(ctx, "session: session restore failed, starting signed out", "error", err)
		i.store.SetUser(nil)
		return
	}
	if user == nil {
		// No session to begin with, so no live events to track. A later
		// sign-in updates the store directly.
		i.store.SetUser(nil)
		return
	}

	i.store.SetUser(user)
	i.subscribe(ctx)
}

// subscribe opens the auth event subscription, at most once per process.
func (i *Initializer) subscribe(ctx context.Context) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.subscribed {
		return
	}

	events := make(chan identity.Event, eventBuffer)
	sub, err := i.gateway.SubscribeEvents(ctx, func(_ context.Context, evt identity.Event) {
		select {
		case events <- evt:
		case <-ctx.Done():
		}
	})
	if err != nil {
		// The seeded user stands; only live updates are lost. A later
		// Initialize call will retry the subscription.
		logging.Warnw(ctx, "session: auth event subscription failed", "error", err)
		return
	}

	i.sub = sub
	i.subscribed = true
	go i.pump(ctx, events)
}

func (i *Initializer) pump(ctx context.Context, events <-chan identity.Event) {
	for {
		select {
		case evt := <-events:
			i.reducer.Apply(ctx, evt)
		case <-ctx.Done():
			return
		}
	}
}

// Cancel tears down the live subscription if one exists. Only the shutdown
// path calls this; during normal operation the subscription lives as long as
// the process.
func (i *Initializer) Cancel() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.sub != nil {
		i.sub.Cancel()
		i.sub = nil
	}
}
