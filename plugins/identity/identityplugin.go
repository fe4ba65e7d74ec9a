package identity

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
)

// Constant name for identifying the identity plugin.
const PluginName = "identity"

// IdentityOption allows configuration of the IdentityPlugin.
type IdentityOption func(*IdentityPlugin)

// WithProvider overrides which registered gateway serves the app. Defaults to
// the `identity.provider` config value.
func WithProvider(provider string) IdentityOption {
	return func(p *IdentityPlugin) {
		p.provider = provider
	}
}

// WithGateway registers a gateway at construction time. Provider plugins
// normally register themselves during Init instead.
func WithGateway(provider string, gw Gateway) IdentityOption {
	return func(p *IdentityPlugin) {
		p.AddGateway(provider, gw)
	}
}

// Plugin returns a new IdentityPlugin. Provider plugins such as localidp
// register their gateways with it; the rest of the app resolves it from the
// registry and uses it as a Gateway:
//
//	ip := registry.Get(identity.PluginName).(*identity.IdentityPlugin)
//	user, err := ip.CurrentUser(ctx)
func Plugin(opts ...IdentityOption) *IdentityPlugin {
	p := &IdentityPlugin{
		provider: inglesh.ConfigString("identity.provider"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.provider == "" {
		// Config defaults may not be applied yet when the plugin is
		// constructed ahead of app start.
		p.provider = "local"
	}
	return p
}

// IdentityPlugin routes Gateway calls to the provider selected by
// configuration. It implements Gateway itself so consumers never need to know
// which provider is active.
type IdentityPlugin struct {
	gateways map[string]Gateway
	provider string
}

// From inglesh.Plugin.
func (p *IdentityPlugin) Name() string {
	return PluginName
}

// AddGateway can be called by provider plugins to register their gateway
// under a provider name.
func (p *IdentityPlugin) AddGateway(provider string, gw Gateway) {
	if p.gateways == nil {
		p.gateways = map[string]Gateway{}
	}
	p.gateways[provider] = gw
}

// Gateway returns the gateway for the configured provider.
func (p *IdentityPlugin) Gateway() (Gateway, error) {
	if gw, ok := p.gateways[p.provider]; ok {
		return gw, nil
	}
	return nil, errors.Mark(ErrNoGateway, 0).Append(p.provider)
}

// From identity.Gateway.
func (p *IdentityPlugin) CurrentUser(ctx context.Context) (*User, error) {
	gw, err := p.Gateway()
	if err != nil {
		return nil, err
	}
	return gw.CurrentUser(ctx)
}

// From identity.Gateway.
func (p *IdentityPlugin) SubscribeEvents(ctx context.Context, h Handler) (Subscription, error) {
	gw, err := p.Gateway()
	if err != nil {
		return nil, err
	}
	return gw.SubscribeEvents(ctx, h)
}

// From identity.Gateway.
func (p *IdentityPlugin) Authenticate(ctx context.Context, creds Credentials) (*User, error) {
	gw, err := p.Gateway()
	if err != nil {
		return nil, err
	}
	return gw.Authenticate(ctx, creds)
}

// From identity.Gateway.
func (p *IdentityPlugin) Register(ctx context.Context, creds Credentials) (*User, error) {
	gw, err := p.Gateway()
	if err != nil {
		return nil, err
	}
	return gw.Register(ctx, creds)
}

// From identity.Gateway.
func (p *IdentityPlugin) EndSession(ctx context.Context) error {
	gw, err := p.Gateway()
	if err != nil {
		return err
	}
	return gw.EndSession(ctx)
}
