// Package session maintains the application's belief about who is signed in.
//
// The Store holds {user, authenticated, loading} and is the only shared
// mutable state. The Initializer restores a persisted session at startup and
// bridges provider auth events through a single pump goroutine into the
// Reducer. The Service wraps the credential flows: sign-in, sign-up, logout.
// Everything is constructed by the plugin and handed to consumers by
// reference; nothing here is a package-level singleton.
package session

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/identity/localidp"
)

// PluginName is the name of the session plugin.
const PluginName = "session"

// SessionOption allows configuration of the SessionPlugin.
type SessionOption func(*SessionPlugin)

// WithCountedLoading switches the store's loading flag to a counter, so
// overlapping credential operations keep it raised until the last one
// finishes. The default is the plain boolean flag.
func WithCountedLoading() SessionOption {
	return func(p *SessionPlugin) {
		p.counted = true
	}
}

// WithGateway overrides the registry-resolved identity gateway. Tests use it
// to wire a fake without assembling a full app.
func WithGateway(gw identity.Gateway) SessionOption {
	return func(p *SessionPlugin) {
		p.gateway = gw
	}
}

// Plugin returns a new SessionPlugin.
func Plugin(opts ...SessionOption) *SessionPlugin {
	p := &SessionPlugin{}
	for _, opt := range opts {
		opt(p)
	}
	if p.counted {
		p.store = NewCountedStore()
	} else {
		p.store = NewStore()
	}
	p.reducer = NewReducer(p.store)
	return p
}

// SessionPlugin owns the session state container and its collaborators.
type SessionPlugin struct {
	store   *Store
	reducer *Reducer
	init    *Initializer
	service *Service

	gateway identity.Gateway
	counted bool
}

// From inglesh.Plugin.
func (p *SessionPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *SessionPlugin) Deps() []string {
	return []string{identity.PluginName}
}

// From inglesh.OptionalDependentPlugin. The default provider must be
// registered with the identity plugin before the session is restored.
func (p *SessionPlugin) OptDeps() []string {
	return []string{localidp.PluginName}
}

// From inglesh.InitializablePlugin. Restores any persisted session; restore
// failures downgrade to "signed out" rather than failing app startup.
func (p *SessionPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	if p.gateway == nil {
		p.gateway = r.Get(identity.PluginName).(*identity.IdentityPlugin)
	}
	p.init = NewInitializer(p.store, p.reducer, p.gateway)
	p.service = NewService(p.store, p.gateway)

	p.init.Initialize(ctx)
	return nil
}

// From inglesh.ShutdownPlugin.
func (p *SessionPlugin) Shutdown(ctx context.Context) error {
	if p.init != nil {
		p.init.Cancel()
	}
	return nil
}

// Store returns the session state container.
func (p *SessionPlugin) Store() *Store {
	return p.store
}

// Initializer returns the session initializer. Valid after Init.
func (p *SessionPlugin) Initializer() *Initializer {
	return p.init
}

// Service returns the credential flows. Valid after Init.
func (p *SessionPlugin) Service() *Service {
	return p.service
}
