// Command inglesh is a terminal client for studying English. It keeps local
// accounts, remembers which topic and level you are working on, and stores
// the lessons you have completed.
//
// State lives under a data directory (default .inglesh): a SQLite database
// plus the signing key that keeps login sessions valid between invocations.
// Configuration comes from inglesh.yaml, LI__ environment variables, or the
// persistent flags; see `inglesh --help`.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/codes"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/catalog"
	"github.com/devlitus/lesson-inglesh/plugins/email"
	"github.com/devlitus/lesson-inglesh/plugins/email/welcome"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus/membus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/identity/localidp"
	"github.com/devlitus/lesson-inglesh/plugins/lessons"
	"github.com/devlitus/lesson-inglesh/plugins/metrics"
	"github.com/devlitus/lesson-inglesh/plugins/selection"
	"github.com/devlitus/lesson-inglesh/plugins/session"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
	"github.com/devlitus/lesson-inglesh/plugins/storage/memstore"
	"github.com/devlitus/lesson-inglesh/plugins/storage/postgres"
	"github.com/devlitus/lesson-inglesh/plugins/storage/sqlite"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inglesh",
		Short: "Learn English from your terminal",
		Long: `Inglesh is a terminal client for studying English. Create an account,
pick a topic and a CEFR level, and keep a log of the lessons you work
through. Everything is stored locally under the data directory.`,
		PersistentPreRunE: prepareConfig,
		SilenceUsage:      true,
	}

	rootCmd.PersistentFlags().String("config", "", "Extra YAML config file to load")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for local state (default \".inglesh\")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(
		newSignupCommand(),
		newLoginCommand(),
		newLogoutCommand(),
		newWhoamiCommand(),
		newTopicsCommand(),
		newLevelsCommand(),
		newSelectCommand(),
		newLessonCommand(),
		newStatsCommand(),
	)
	return rootCmd
}

// prepareConfig layers the CLI's config sources over the globals: the
// --config file, the --data-dir override, and a durable storage driver, then
// materializes registered defaults so the plugin constructors see them.
func prepareConfig(cmd *cobra.Command, _ []string) error {
	if path, err := cmd.Flags().GetString("config"); err == nil && path != "" {
		inglesh.LoadConfigFile(path)
	}
	if dir, err := cmd.Flags().GetString("data-dir"); err == nil && dir != "" {
		inglesh.LoadConfigDefaults(map[string]interface{}{"dataDir": dir})
	}
	if !inglesh.ConfigExists("storage.driver") {
		// Sessions and lessons should survive between invocations.
		inglesh.LoadConfigDefaults(map[string]interface{}{"storage.driver": "sqlite"})
	}
	inglesh.ApplyConfigDefaults()

	if inglesh.ConfigString("storage.driver") == "memory" {
		return nil
	}
	dataDir := inglesh.ConfigString("dataDir")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return errors.Wrap(err, 0)
	}
	return ensureSigningKey(dataDir)
}

// ensureSigningKey keeps login sessions valid between invocations. Without a
// configured key localidp signs tokens with a fresh random key per process,
// and nothing restored from a previous run would validate.
func ensureSigningKey(dataDir string) error {
	if inglesh.ConfigExists("identity.signingKey") {
		return nil
	}

	path := filepath.Join(dataDir, "signing.key")
	if b, err := os.ReadFile(path); err == nil {
		if key := strings.TrimSpace(string(b)); key != "" {
			inglesh.LoadConfigDefaults(map[string]interface{}{"identity.signingKey": key})
			return nil
		}
	} else if !os.IsNotExist(err) {
		return errors.Wrap(err, 0)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return errors.Wrap(err, 0)
	}
	key := hex.EncodeToString(raw)
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return errors.Wrap(err, 0)
	}
	inglesh.LoadConfigDefaults(map[string]interface{}{"identity.signingKey": key})
	return nil
}

// newCLILogger builds a logger that stays out of the way of command output:
// warnings and errors only, unless --verbose is set.
func newCLILogger(verbose bool) logging.Logger {
	cfg := zap.NewProductionConfig()
	if inglesh.ConfigBool("logging.dev") {
		cfg = zap.NewDevelopmentConfig()
	}
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return logging.NewDevLogger()
	}
	return logging.NewZapLogger(l.Sugar())
}

func openStore() (storage.Store, error) {
	driver := inglesh.ConfigString("storage.driver")
	switch driver {
	case "memory":
		return memstore.New(), nil
	case "sqlite":
		path := inglesh.ConfigString("storage.sqlite.path")
		if path == "" {
			path = filepath.Join(inglesh.ConfigString("dataDir"), "inglesh.db")
		}
		return sqlite.New("file:" + path + "?_journal=WAL"), nil
	case "postgres":
		dsn := inglesh.ConfigString("storage.postgres.dsn")
		if dsn == "" {
			return nil, errors.NewC("storage.postgres.dsn is required with the postgres driver", codes.FailedPrecondition)
		}
		return postgres.New(dsn), nil
	default:
		return nil, errors.NewC(fmt.Sprintf("unknown storage.driver %q", driver), codes.InvalidArgument)
	}
}

// buildApp assembles the full plugin stack and starts it, which also restores
// any persisted session. The welcome email pair joins only when SMTP is
// configured; the email plugin refuses to initialize without it.
func buildApp(ctx context.Context, verbose bool) (*inglesh.App, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}
	bus := membus.New(ctx, membus.WithWorkerPool(inglesh.ConfigInt("eventbus.workers")))

	opts := []inglesh.Option{
		inglesh.WithContext(ctx),
		inglesh.WithLogger(newCLILogger(verbose)),
		inglesh.WithPlugin(storage.Plugin(store)),
		inglesh.WithPlugin(eventbus.Plugin(bus)),
		inglesh.WithPlugin(identity.Plugin()),
		inglesh.WithPlugin(localidp.Plugin()),
		inglesh.WithPlugin(session.Plugin()),
		inglesh.WithPlugin(templates.Plugin()),
		inglesh.WithPlugin(catalog.Plugin()),
		inglesh.WithPlugin(selection.Plugin()),
		inglesh.WithPlugin(lessons.Plugin()),
		inglesh.WithPlugin(metrics.Plugin()),
	}
	if inglesh.ConfigString("email.smtp.host") != "" {
		opts = append(opts,
			inglesh.WithPlugin(email.Plugin()),
			inglesh.WithPlugin(welcome.Plugin()),
		)
	}

	app := inglesh.New(opts...)
	if err := app.Start(); err != nil {
		return nil, err
	}
	return app, nil
}

// withApp brackets a command body with app startup and shutdown. The bus is
// drained before shutdown so queued work like the welcome mail finishes
// before the process exits.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *inglesh.App) error) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	app, err := buildApp(cmd.Context(), verbose)
	if err != nil {
		return err
	}
	defer func() { _ = app.Shutdown() }()

	if err := fn(app.Context(), app); err != nil {
		return err
	}
	return busOf(app).Wait(app.Context())
}

func sessionOf(app *inglesh.App) *session.SessionPlugin {
	return app.Plugins().Get(session.PluginName).(*session.SessionPlugin)
}

func catalogOf(app *inglesh.App) *catalog.Catalog {
	return app.Plugins().Get(catalog.PluginName).(*catalog.CatalogPlugin).Catalog()
}

func selectionOf(app *inglesh.App) *selection.SelectionPlugin {
	return app.Plugins().Get(selection.PluginName).(*selection.SelectionPlugin)
}

func lessonsOf(app *inglesh.App) *lessons.LessonsPlugin {
	return app.Plugins().Get(lessons.PluginName).(*lessons.LessonsPlugin)
}

func metricsOf(app *inglesh.App) *metrics.MetricsPlugin {
	return app.Plugins().Get(metrics.PluginName).(*metrics.MetricsPlugin)
}

func busOf(app *inglesh.App) *eventbus.EventBusPlugin {
	return app.Plugins().Get(eventbus.PluginName).(*eventbus.EventBusPlugin)
}

// currentUser returns the signed-in user restored at startup.
func currentUser(app *inglesh.App) (*identity.User, error) {
	state := sessionOf(app).Store().State()
	if !state.Authenticated {
		return nil, errors.NewC("not signed in: run `inglesh login` or `inglesh signup` first", codes.Unauthenticated)
	}
	return state.User, nil
}

// displayName is the friendliest thing we can call the user.
func displayName(u *identity.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
