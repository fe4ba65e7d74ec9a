package inglesh

import (
	"context"
	"time"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/internal/config"
	"github.com/devlitus/lesson-inglesh/logging"
	"google.golang.org/grpc/codes"
)

// Option customizes the configuration and assembly of an App.
type Option func(*builder)

// New assembles an App from the given options. Plugins are registered
// immediately but not initialized until Start is called.
func New(opts ...Option) *App {
	b := &builder{
		name:    Config.String("name"),
		plugins: &Registry{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b.build()
}

type builder struct {
	baseContext context.Context
	logger      logging.Logger
	name        string

	plugins   *Registry
	injectors []ContextInjector
}

func (b *builder) build() *App {
	if b.baseContext == nil {
		b.baseContext = context.Background()
	}

	// Ensure that a logger is available on the app context.
	ctx := b.baseContext
	if b.logger != nil {
		ctx = logging.With(ctx, b.logger)
	} else {
		ctx = logging.EnsureLogger(ctx)
	}

	return &App{
		name:        b.name,
		baseContext: ctx,
		plugins:     b.plugins,
		injectors:   b.injectors,
	}
}

// App wires plugins together and manages their lifecycle. Unlike a server it
// does not listen for anything; after Start the embedding program drives the
// plugins directly.
//
// Usage:
//
//	app := inglesh.New(
//	    inglesh.WithPlugin(storage.Plugin(memstore.New())),
//	    inglesh.WithPlugin(eventbus.Plugin()),
//	    inglesh.WithPlugin(identity.Plugin(localidp.New())),
//	    inglesh.WithPlugin(session.Plugin()),
//	)
//	if err := app.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Shutdown()
type App struct {
	name        string
	baseContext context.Context
	runContext  context.Context

	plugins   *Registry
	injectors []ContextInjector
}

// Name returns the user-facing name of the application.
func (a *App) Name() string {
	return a.name
}

// Plugins exposes the plugin registry for querying.
func (a *App) Plugins() *Registry {
	return a.plugins
}

// Context returns the app context: the base context annotated with the
// logger and everything the plugins injected. Before Start it returns the
// base context.
func (a *App) Context() context.Context {
	if a.runContext != nil {
		return a.runContext
	}
	return a.baseContext
}

// Start validates configuration and initializes all plugins in dependency
// order. It returns an error if the configuration is invalid or any plugin
// fails to initialize.
func (a *App) Start() error {
	// Apply registered defaults for any key the user didn't set.
	ApplyConfigDefaults()

	if verrs := ValidateConfig(); len(verrs) > 0 {
		return errors.NewC(FormatValidationErrors(verrs), codes.FailedPrecondition)
	}

	// Unknown keys are not fatal, but surface likely typos early.
	if warnings := config.ValidateConfigKeys(Config); len(warnings) > 0 {
		logging.Warn(a.baseContext, config.FormatValidationWarnings(warnings))
	}

	ctx := injectContext(a.baseContext, a.injectors)
	if err := a.plugins.Init(ctx); err != nil {
		return err
	}

	a.runContext = ctx
	logging.Infow(ctx, "app started", "name", a.name)
	return nil
}

// Shutdown releases plugin resources in reverse registration order. Safe to
// call even if Start failed part way through.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(a.Context(), 5*time.Second)
	defer cancel()
	return a.plugins.Shutdown(ctx)
}

// WithContext sets the base context for the app. Values on this context are
// visible to all plugins.
func WithContext(ctx context.Context) Option {
	return func(b *builder) {
		b.baseContext = ctx
	}
}

// WithLogger sets the logger used by the app and all plugins. Defaults to a
// dev logger.
func WithLogger(logger logging.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// WithName overrides the user-facing application name.
//
// Config key: `name`.
func WithName(name string) Option {
	return func(b *builder) {
		b.name = name
	}
}

// WithPlugin registers a plugin with the app's registry. Plugins are
// initialized at app start. If the Plugin implements `OptionProvider` then
// additional app options can be configured.
func WithPlugin(p Plugin) Option {
	return func(b *builder) {
		if so, ok := p.(OptionProvider); ok {
			for _, opt := range so.AppOptions() {
				opt(b)
			}
		}
		b.plugins.Register(p)
	}
}

// WithContextInjector adds a ContextInjector to the app. Injectors run once
// at startup, before plugins initialize, and annotate the app context.
func WithContextInjector(injector ContextInjector) Option {
	return func(b *builder) {
		b.injectors = append(b.injectors, injector)
	}
}

// OptionProvider can be implemented by plugins to augment the app at build
// time.
type OptionProvider interface {
	AppOptions() []Option
}
