package lessons

import (
	"context"

	"github.com/devlitus/lesson-inglesh/plugins/catalog"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
)

// TextTemplate is the template the renderer executes. Override the layout
// by shipping a lesson_text.tmpl file in one of the configured template
// dirs.
const TextTemplate = "lesson_text"

const defaultTextTemplate = `{{upper .Data.Title}}
{{repeat "─" 60}}
{{.Data.Topic}} | {{.Data.Level}} | {{.Data.Date}}

{{.Data.Content}}
`

// Renderer formats lessons as plain text for the terminal.
type Renderer struct {
	templates *templates.TemplatePlugin
}

// NewRenderer returns a Renderer that executes templates through tp.
func NewRenderer(tp *templates.TemplatePlugin) *Renderer {
	return &Renderer{templates: tp}
}

// Render formats one lesson. Topic and level supply display names and may
// be nil, in which case the raw ids are shown.
func (r *Renderer) Render(ctx context.Context, lesson *Lesson, topic *catalog.Topic, level *catalog.Level) (string, error) {
	topicLabel := lesson.TopicID
	if topic != nil {
		topicLabel = topic.Title
		if topic.Icon != "" {
			topicLabel = topic.Icon + " " + topic.Title
		}
	}

	levelLabel := lesson.LevelID
	if level != nil {
		levelLabel = level.Name
	}

	return r.templates.Render(ctx, TextTemplate, map[string]string{
		"Title":   lesson.Title,
		"Topic":   topicLabel,
		"Level":   levelLabel,
		"Date":    lesson.CreatedAt.Format("Jan 2, 2006"),
		"Content": lesson.Content,
	})
}
