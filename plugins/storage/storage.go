// Package storage contains an extensible interface for providing persistence
// to the app and other plugins.
//
// Stores provide simple create, read, update, delete, and list operations.
// Models are represented as structs and should have a `PK() string` method.
//
// Examples:
//
//	app := inglesh.New(
//		inglesh.WithPlugin(storage.Plugin(memstore.New())),
//	)
//
//	func (p *MyPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
//		p.store = r.Get(storage.PluginName).(storage.Store)
//		return nil
//	}
//
// Configuration:
// |----------------------------|----------------------|
// | Env                        | JSON                 |
// |----------------------------|----------------------|
// | LI__STORAGE__DRIVER        | storage.driver       |
// | LI__STORAGE__SQLITE__PATH  | storage.sqlite.path  |
// | LI__STORAGE__POSTGRES__DSN | storage.postgres.dsn |
// |----------------------------|----------------------|
package storage

import (
	inglesh "github.com/devlitus/lesson-inglesh"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "storage.driver",
			Description: "Storage engine to use: memory, sqlite, or postgres",
			Type:        "string",
			Default:     "memory",
		},
		inglesh.ConfigKeyInfo{
			Key:         "storage.sqlite.path",
			Description: "Path of the SQLite database file; apps default it under dataDir",
			Type:        "string",
		},
		inglesh.ConfigKeyInfo{
			Key:         "storage.postgres.dsn",
			Description: "PostgreSQL connection string",
			Type:        "string",
		},
	)
}

// PluginName can be used to query the storage plugin.
const PluginName = "storage"

// Plugin wraps a storage implementation for registration.
func Plugin(impl Store) *StoragePlugin {
	return &StoragePlugin{Store: impl}
}

// StoragePlugin exposes a Plugin interface for persisting data.
type StoragePlugin struct {
	Store
}

// From inglesh.Plugin.
func (p *StoragePlugin) Name() string {
	return PluginName
}

// InitModel can be called by a plugin or application to perform per model
// initialization. Stores that do not implement ModelInitializer should still
// function correctly, but may store data in a shared table.
func (p *StoragePlugin) InitModel(m Model) error {
	if i, ok := p.Store.(ModelInitializer); ok {
		return i.InitModel(m)
	}
	return nil
}
