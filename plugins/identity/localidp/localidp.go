// Package localidp provides an embeddable identity provider backed by the
// storage plugin. Accounts and the active login session are persisted
// locally, and access tokens are self-signed JWTs, so an installation needs
// no hosted identity service. It registers itself with the identity plugin
// under the "local" provider name.
//
// Auth events are published on the event bus as they happen, which is also
// how Gateway.SubscribeEvents delivers them.
package localidp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

const (
	// PluginName is the name of the local identity provider plugin.
	PluginName = "identity_local"

	// ProviderName is the name the gateway registers under.
	ProviderName = "local"
)

const (
	defaultSessionTTL        = 30 * 24 * time.Hour
	defaultRefreshThreshold  = 7 * 24 * time.Hour
	defaultMinPasswordLength = 8
	defaultThrottleAttempts  = 5
	defaultThrottleWindow    = 15 * time.Minute
)

// Option allows configuration of the LocalPlugin.
type Option func(*LocalPlugin)

// WithHasher overrides the password hasher. Use TestHasher in tests to avoid
// bcrypt costs.
func WithHasher(h Hasher) Option {
	return func(p *LocalPlugin) {
		p.hasher = h
	}
}

// WithSigningKey sets the key used to sign session tokens.
func WithSigningKey(key string) Option {
	return func(p *LocalPlugin) {
		p.signingKey = []byte(key)
	}
}

// WithSessionTTL sets how long a new session token is valid for.
func WithSessionTTL(ttl time.Duration) Option {
	return func(p *LocalPlugin) {
		p.sessionTTL = ttl
	}
}

// WithRefreshThreshold sets the remaining validity below which CurrentUser
// re-issues the session token. Zero disables refresh.
func WithRefreshThreshold(d time.Duration) Option {
	return func(p *LocalPlugin) {
		p.refreshThreshold = d
	}
}

// WithThrottle overrides how many failed sign-in attempts an email gets per
// window.
func WithThrottle(attempts int, window time.Duration) Option {
	return func(p *LocalPlugin) {
		p.throttle = newThrottle(attempts, window)
	}
}

// WithStore sets the backing store directly instead of resolving it from the
// registry during Init.
func WithStore(s storage.Store) Option {
	return func(p *LocalPlugin) {
		p.store = s
	}
}

// WithEventBus sets the event bus directly instead of resolving it from the
// registry during Init.
func WithEventBus(eb eventbus.EventBus) Option {
	return func(p *LocalPlugin) {
		p.bus = eb
	}
}

// Plugin returns a new LocalPlugin. Configuration is read from the identity.*
// keys; options take precedence over config.
func Plugin(opts ...Option) *LocalPlugin {
	p := &LocalPlugin{
		hasher:           DefaultHasher,
		sessionTTL:       defaultSessionTTL,
		refreshThreshold: defaultRefreshThreshold,
		minPasswordLen:   defaultMinPasswordLength,
	}

	if d := inglesh.ConfigDuration("identity.sessionTtl"); d > 0 {
		p.sessionTTL = d
	}
	// An explicit zero threshold disables proactive refresh.
	if inglesh.Config.Exists("identity.refreshThreshold") {
		p.refreshThreshold = inglesh.ConfigDuration("identity.refreshThreshold")
	}
	if n := inglesh.ConfigInt("identity.minPasswordLength"); n > 0 {
		p.minPasswordLen = n
	}

	attempts := defaultThrottleAttempts
	if n := inglesh.ConfigInt("identity.throttle.attempts"); n > 0 {
		attempts = n
	}
	window := defaultThrottleWindow
	if d := inglesh.ConfigDuration("identity.throttle.window"); d > 0 {
		window = d
	}
	p.throttle = newThrottle(attempts, window)

	for _, opt := range opts {
		opt(p)
	}

	// Get signing key from config, or generate a random one with a warning.
	if p.signingKey == nil {
		signingKey := inglesh.ConfigString("identity.signingKey")
		if signingKey == "" {
			signingKey = randomSigningKey()
			log.Println("⚠️  WARNING: Using randomly generated session signing key. " +
				"Sessions will not survive a restart. " +
				"Set LI__IDENTITY__SIGNING_KEY environment variable or identity.signingKey in inglesh.yaml.")
		}
		p.signingKey = []byte(signingKey)
	}
	return p
}

func randomSigningKey() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate random signing key: " + err.Error())
	}
	return hex.EncodeToString(key)
}

// LocalPlugin is an identity.Gateway over locally stored accounts.
type LocalPlugin struct {
	store storage.Store
	bus   eventbus.EventBus

	hasher   Hasher
	throttle *throttle

	signingKey       []byte
	sessionTTL       time.Duration
	refreshThreshold time.Duration
	minPasswordLen   int
}

// From inglesh.Plugin.
func (p *LocalPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *LocalPlugin) Deps() []string {
	return []string{
		identity.PluginName,
		storage.PluginName,
		eventbus.PluginName,
	}
}

// From inglesh.InitializablePlugin.
func (p *LocalPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	if p.store == nil {
		p.store = r.Get(storage.PluginName).(*storage.StoragePlugin)
	}
	if p.bus == nil {
		p.bus = r.Get(eventbus.PluginName).(*eventbus.EventBusPlugin)
	}

	if mi, ok := p.store.(storage.ModelInitializer); ok {
		logging.Info(ctx, "localidp: initializing account storage")
		if err := mi.InitModel(&Account{}); err != nil {
			return err
		}
		if err := mi.InitModel(&sessionRecord{}); err != nil {
			return err
		}
	}

	ip := r.Get(identity.PluginName).(*identity.IdentityPlugin)
	ip.AddGateway(ProviderName, p)
	return nil
}

// From inglesh.ShutdownPlugin.
func (p *LocalPlugin) Shutdown(ctx context.Context) error {
	p.throttle.stop()
	return nil
}
