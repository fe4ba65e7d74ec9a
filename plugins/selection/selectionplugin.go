package selection

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/plugins/session"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

// PluginName is the name of the selection plugin.
const PluginName = "selection"

// SelectionOption allows configuration of the SelectionPlugin.
type SelectionOption func(*SelectionPlugin)

// WithRepository sets the repository directly instead of building a
// store-backed one during Init.
func WithRepository(repo Repository) SelectionOption {
	return func(p *SelectionPlugin) {
		p.repo = repo
	}
}

// Plugin returns a new SelectionPlugin.
func Plugin(opts ...SelectionOption) *SelectionPlugin {
	p := &SelectionPlugin{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SelectionPlugin stores selections and exposes the Gate that navigation
// and lesson flows consult.
type SelectionPlugin struct {
	repo Repository
	gate *Gate
}

// From inglesh.Plugin.
func (p *SelectionPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *SelectionPlugin) Deps() []string {
	return []string{
		session.PluginName,
		storage.PluginName,
	}
}

// From inglesh.InitializablePlugin.
func (p *SelectionPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	if p.repo == nil {
		store := r.Get(storage.PluginName).(*storage.StoragePlugin)
		if err := store.InitModel(&Selection{}); err != nil {
			return err
		}
		p.repo = NewStoreRepository(store)
	}

	sp := r.Get(session.PluginName).(*session.SessionPlugin)
	p.gate = NewGate(sp.Store(), p.repo)
	return nil
}

// Gate returns the selection gate. Valid after Init.
func (p *SelectionPlugin) Gate() *Gate {
	return p.gate
}

// Repository returns the selection repository. Valid after Init.
func (p *SelectionPlugin) Repository() Repository {
	return p.repo
}
