// Package templates provides plugins access to Go templates. Rendering is
// plain text, which suits the terminal lesson output and mail bodies this
// app produces.
//
// Templates come from two places: .tmpl files under the configured dirs,
// and inline templates registered with AddTemplate, which plugins use to
// ship built-in fallbacks. File templates override inline ones with the
// same name.
//
// Configuration:
// |----------------------------|-----------------------|
// | Env                        | JSON                  |
// |----------------------------|-----------------------|
// | LI__TEMPLATES__ALWAYSPARSE | templates.alwaysParse |
// | LI__TEMPLATES__DIRS        | templates.dirs        |
// |----------------------------|-----------------------|
package templates

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"google.golang.org/grpc/codes"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "templates.alwaysParse",
			Description: "Whether to reparse templates on every execution",
			Type:        "bool",
		},
		inglesh.ConfigKeyInfo{
			Key:         "templates.dirs",
			Description: "Directories to load templates from",
			Type:        "[]string",
		},
	)
}

// Constant name for identifying the templates plugin.
const PluginName = "templates"

// Plugin returns a new TemplatePlugin.
func Plugin() *TemplatePlugin {
	p := &TemplatePlugin{
		alwaysParse: inglesh.ConfigBool("templates.alwaysParse"),
		dirs:        inglesh.ConfigStrings("templates.dirs"),
	}
	return p
}

// TemplatePlugin exposes utilities for reading and rendering go templates.
type TemplatePlugin struct {
	alwaysParse bool
	dirs        []string
	inline      map[string]string
	templates   *template.Template
}

// From inglesh.Plugin.
func (p *TemplatePlugin) Name() string {
	return PluginName
}

// From inglesh.InitializablePlugin.
func (p *TemplatePlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	// Parse templates on initialization.
	return p.parseAll()
}

// Load templates (*.tmpl) contained within the provided directory and all
// sub-directories.
func (p *TemplatePlugin) Load(dirs []string) error {
	p.dirs = append(p.dirs, dirs...)
	return p.parseAll()
}

// AddTemplate registers an inline template under the given name. Inline
// templates survive reparsing; a .tmpl file with the same base name takes
// precedence.
func (p *TemplatePlugin) AddTemplate(name, text string) error {
	if p.inline == nil {
		p.inline = map[string]string{}
	}
	p.inline[name] = text

	p.init()
	if _, err := p.templates.New(name).Parse(text); err != nil {
		return errors.WrapPrefix(err, "failed to parse inline template "+name, 0)
	}
	return nil
}

// Render executes a template by name with the provided data.
//
// The data parameter is wrapped in a TemplateData struct before being passed to the
// template. Within templates, access your data fields using .Data.FieldName, not
// .FieldName directly. The Config field provides access to all configuration values.
//
// Example template usage:
//
//	Hello, {{.Data.Name}}!
//	App version: {{.Config.app.version}}
func (p *TemplatePlugin) Render(ctx context.Context, name string, data interface{}) (string, error) {
	if p.alwaysParse {
		if err := p.parseAll(); err != nil {
			return "", err
		}
	}
	if p.templates == nil {
		return "", errors.NewC("no templates have been initialized", codes.Internal)
	}
	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	err := p.templates.ExecuteTemplate(w, name, TemplateData{Data: data, Config: inglesh.ConfigAll()})
	if err != nil {
		w.Flush()
		return "", errors.WrapPrefix(err, "template execution failed (hint: data is wrapped, use .Data.FieldName to access fields)", 0)
	}
	w.Flush()

	return b.String(), nil
}

func (p *TemplatePlugin) init() {
	if p.templates == nil || p.alwaysParse {
		p.templates = template.New("").Funcs(template.FuncMap{
			"upper":  strings.ToUpper,
			"repeat": strings.Repeat,
		})
	}
}

// parseAll rebuilds the template set: inline templates first, then the
// configured dirs, so files override built-ins.
func (p *TemplatePlugin) parseAll() error {
	p.init()
	for name, text := range p.inline {
		if _, err := p.templates.New(name).Parse(text); err != nil {
			return errors.WrapPrefix(err, "failed to parse inline template "+name, 0)
		}
	}
	for _, dir := range p.dirs {
		if err := p.parse(dir); err != nil {
			return err
		}
	}
	return nil
}

func (p *TemplatePlugin) parse(dir string) error {
	return filepath.Walk(dir, func(path string, _ os.FileInfo, _ error) error {
		if strings.HasSuffix(path, ".tmpl") {
			if _, err := p.templates.ParseFiles(path); err != nil {
				return err
			}
		}
		return nil
	})
}

// TemplateData is the wrapper struct passed to all templates during rendering.
// Templates should access the original data via .Data and configuration via .Config.
type TemplateData struct {
	// Data contains the user-provided data passed to Render.
	Data interface{}
	// Config contains all configuration values from inglesh.Config.
	Config map[string]interface{}
}
