package lessons

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
)

// PluginName is the name of the lessons plugin.
const PluginName = "lessons"

// Plugin returns a new LessonsPlugin.
func Plugin() *LessonsPlugin {
	return &LessonsPlugin{}
}

// LessonsPlugin stores lessons and formats them for display.
type LessonsPlugin struct {
	library  *Library
	renderer *Renderer
}

// From inglesh.Plugin.
func (p *LessonsPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *LessonsPlugin) Deps() []string {
	return []string{
		storage.PluginName,
		templates.PluginName,
	}
}

// From inglesh.InitializablePlugin.
func (p *LessonsPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	store := r.Get(storage.PluginName).(*storage.StoragePlugin)
	if err := store.InitModel(&Lesson{}); err != nil {
		return err
	}
	p.library = NewLibrary(store)

	tp := r.Get(templates.PluginName).(*templates.TemplatePlugin)
	if err := tp.AddTemplate(TextTemplate, defaultTextTemplate); err != nil {
		return err
	}
	p.renderer = NewRenderer(tp)
	return nil
}

// Library returns the lesson library. Valid after Init.
func (p *LessonsPlugin) Library() *Library {
	return p.library
}

// Renderer returns the terminal renderer. Valid after Init.
func (p *LessonsPlugin) Renderer() *Renderer {
	return p.renderer
}
