// Package inglesh is an application framework for building language-learning
// clients. It provides a plugin registry, configuration loading, and the
// session, identity, and catalog machinery that the Inglesh apps share.
package inglesh

import (
	"context"
	"time"

	"github.com/devlitus/lesson-inglesh/internal/config"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Filename of the standard configuration file.
const ConfigFile = "inglesh.yaml"

// ConfigKeyInfo contains metadata about a known configuration key.
// This is re-exported from internal/config for public API use.
type ConfigKeyInfo = config.ConfigKeyInfo

// ContextInjector is a function that injects values into a context. Plugins
// use injectors to make their collaborators reachable from the app context.
type ContextInjector func(context.Context) context.Context

// Config is a global koanf instance used to access application level
// configuration options.
//
// Config is loaded in the following order (later sources override earlier):
// 1. Built-in defaults (registered lazily, applied at app start)
// 2. Auto-discovered inglesh.yaml (in init())
// 3. Environment variables with LI__ prefix (in init())
// 4. Additional sources loaded via LoadConfigFile() or LoadConfigDefaults()
//
// Environment variable transformation:
//   - LI__STORAGE__DRIVER → storage.driver
//   - LI__IDENTITY__SESSION_TTL → identity.sessionTtl (underscores become camelCase)
//   - LI__FOO_BAR__BAZ → fooBar.baz
var Config = koanf.New(".")

func init() {
	// Register all core configuration keys with their defaults (loaded lazily).
	registerCoreConfigKeys()

	// Look for an inglesh.yaml file in the current directory or any parent.
	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("error loading config: " + err.Error())
		}
	}

	// Load environment variables with the prefix LI__.
	if err := Config.Load(env.Provider("LI__", ".", config.TransformEnv), nil); err != nil {
		panic("error loading env config: " + err.Error())
	}
}

// RegisterConfigKey registers a known configuration key with metadata.
// This should be called by core code and plugins to document expected config keys.
//
// Example:
//
//	inglesh.RegisterConfigKey(inglesh.ConfigKeyInfo{
//	    Key:         "identity.signingKey",
//	    Description: "JWT signing key for session tokens",
//	    Type:        "string",
//	})
func RegisterConfigKey(info ConfigKeyInfo) {
	config.RegisterConfigKey(info)
}

// RegisterConfigKeys registers multiple configuration keys at once.
func RegisterConfigKeys(infos ...ConfigKeyInfo) {
	config.RegisterConfigKeys(infos...)
}

// RegisterDeprecatedKey registers a deprecated configuration key and its replacement.
//
// Example:
//
//	inglesh.RegisterDeprecatedKey("auth.expiration", "identity.sessionTtl")
func RegisterDeprecatedKey(oldKey, newKey string) {
	config.RegisterDeprecatedKey(oldKey, newKey)
}

// ApplyConfigDefaults merges registered key defaults into Config for every
// key the user did not set. App.Start calls this before validating config;
// standalone tools that read config ahead of building an app should call it
// once after imports have settled.
func ApplyConfigDefaults() {
	config.EnsureDefaultsLoaded(Config)
}

// LoadConfigFile loads additional configuration from a YAML file into the
// global Config instance. Call this before creating the app to load
// application-specific configuration.
//
// Example:
//
//	inglesh.LoadConfigFile("./app.yaml")
//	a := inglesh.New()
//	value := inglesh.ConfigString("myapp.setting")
func LoadConfigFile(path string) {
	if err := Config.Load(file.Provider(path), yaml.Parser()); err != nil {
		panic("error loading config file '" + path + "': " + err.Error())
	}
}

// LoadConfigDefaults loads default configuration values into the global
// Config instance. Call this before creating the app to provide
// application-specific defaults that can be overridden by files or env vars.
//
// Example:
//
//	inglesh.LoadConfigDefaults(map[string]interface{}{
//	    "myapp.cacheRefreshInterval": "5m",
//	    "myapp.maxRetries": 3,
//	})
//	a := inglesh.New()
func LoadConfigDefaults(defaults map[string]interface{}) {
	if err := Config.Load(confmap.Provider(defaults, "."), nil); err != nil {
		panic("error loading config defaults: " + err.Error())
	}
}

// Configuration Access Functions
//
// These functions provide a clean API for accessing configuration values.
// They delegate to the underlying Config instance.

// ConfigString returns the string value for the given key.
func ConfigString(key string) string {
	return Config.String(key)
}

// ConfigInt returns the int value for the given key.
func ConfigInt(key string) int {
	return Config.Int(key)
}

// ConfigInt64 returns the int64 value for the given key.
func ConfigInt64(key string) int64 {
	return Config.Int64(key)
}

// ConfigFloat64 returns the float64 value for the given key.
func ConfigFloat64(key string) float64 {
	return Config.Float64(key)
}

// ConfigBool returns the bool value for the given key.
func ConfigBool(key string) bool {
	return Config.Bool(key)
}

// ConfigDuration returns the duration value for the given key.
// Duration strings like "5m", "1h", "30s" are parsed automatically.
func ConfigDuration(key string) time.Duration {
	return Config.Duration(key)
}

// ConfigMustDuration returns the duration value for the given key.
// It panics if the key doesn't exist or the value cannot be parsed.
func ConfigMustDuration(key string) time.Duration {
	return Config.MustDuration(key)
}

// ConfigStrings returns the string slice value for the given key.
func ConfigStrings(key string) []string {
	return Config.Strings(key)
}

// ConfigBytes returns the byte slice value for the given key.
func ConfigBytes(key string) []byte {
	return Config.Bytes(key)
}

// ConfigStringMap returns the string map value for the given key.
func ConfigStringMap(key string) map[string]string {
	return Config.StringMap(key)
}

// ConfigExists checks if the given key exists in the configuration.
func ConfigExists(key string) bool {
	return Config.Exists(key)
}

// ConfigAll returns all configuration as a map.
func ConfigAll() map[string]interface{} {
	return Config.All()
}

//nolint:fatcontext // Lint complains about using context in a loop.
func injectContext(ctx context.Context, injectors []ContextInjector) context.Context {
	for _, injector := range injectors {
		ctx = injector(ctx)
	}
	return ctx
}

// registerCoreConfigKeys registers the app level configuration keys with
// their defaults. This is called from init() before any config loading
// happens; plugin keys are registered by the plugin packages themselves.
func registerCoreConfigKeys() {
	config.RegisterConfigKeys(
		ConfigKeyInfo{
			Key:         "name",
			Description: "User-facing name that identifies the application",
			Type:        "string",
			Default:     "Inglesh",
		},
		ConfigKeyInfo{
			Key:         "dataDir",
			Description: "Directory where local application state is stored",
			Type:        "string",
			Default:     ".inglesh",
		},
		ConfigKeyInfo{
			Key:         "logging.dev",
			Description: "Use human friendly console logging instead of JSON",
			Type:        "bool",
			Default:     true,
		},
	)
}
