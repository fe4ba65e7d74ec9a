// Package catalog maintains the topics and CEFR levels users choose from.
// It seeds a built-in catalog at startup unless told not to, and serves
// ordered listings for pickers and the CLI.
//
// Configuration:
// |-------------------|--------------|
// | Env               | JSON         |
// |-------------------|--------------|
// | LI__CATALOG__SEED | catalog.seed |
// |-------------------|--------------|
package catalog

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "catalog.seed",
			Description: "Write the built-in topic and level catalog at startup",
			Type:        "bool",
			Default:     true,
		},
	)
}

// PluginName is the name of the catalog plugin.
const PluginName = "catalog"

// CatalogOption allows configuration of the CatalogPlugin.
type CatalogOption func(*CatalogPlugin)

// WithStore sets the backing store directly instead of resolving it from the
// registry during Init.
func WithStore(s storage.Store) CatalogOption {
	return func(p *CatalogPlugin) {
		p.store = s
	}
}

// WithoutSeed skips writing the built-in catalog during Init, regardless of
// the catalog.seed config key.
func WithoutSeed() CatalogOption {
	return func(p *CatalogPlugin) {
		p.seed = false
	}
}

// Plugin returns a new CatalogPlugin. Configuration is read from the
// catalog.* keys; options take precedence over config.
func Plugin(opts ...CatalogOption) *CatalogPlugin {
	p := &CatalogPlugin{seed: true}
	if inglesh.Config.Exists("catalog.seed") {
		p.seed = inglesh.ConfigBool("catalog.seed")
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CatalogPlugin serves the topic and level catalog.
type CatalogPlugin struct {
	store   storage.Store
	catalog *Catalog
	seed    bool
}

// From inglesh.Plugin.
func (p *CatalogPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *CatalogPlugin) Deps() []string {
	return []string{storage.PluginName}
}

// From inglesh.InitializablePlugin.
func (p *CatalogPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	if p.store == nil {
		p.store = r.Get(storage.PluginName).(*storage.StoragePlugin)
	}

	if mi, ok := p.store.(storage.ModelInitializer); ok {
		if err := mi.InitModel(&Topic{}); err != nil {
			return err
		}
		if err := mi.InitModel(&Level{}); err != nil {
			return err
		}
	}

	p.catalog = NewCatalog(p.store)
	if p.seed {
		if err := p.catalog.Seed(ctx); err != nil {
			return err
		}
		logging.Infow(ctx, "catalog: seeded built-in catalog",
			"topics", len(defaultTopics), "levels", len(defaultLevels))
	}
	return nil
}

// Catalog returns the catalog reader. Valid after Init.
func (p *CatalogPlugin) Catalog() *Catalog {
	return p.catalog
}
