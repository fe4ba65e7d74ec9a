package lessons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
	"github.com/devlitus/lesson-inglesh/plugins/storage/memstore"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
)

func TestPlugin(t *testing.T) {
	p := Plugin()
	assert.Equal(t, PluginName, p.Name())
	assert.Contains(t, p.Deps(), storage.PluginName)
	assert.Contains(t, p.Deps(), templates.PluginName)
}

func TestPlugin_Init(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())

	p := Plugin()
	r := &inglesh.Registry{}
	r.Register(storage.Plugin(memstore.New()))
	r.Register(templates.Plugin())
	r.Register(p)
	require.NoError(t, r.Init(ctx))

	lib := p.Library()
	require.NotNil(t, lib)
	require.NotNil(t, p.Renderer())

	err := lib.Save(ctx, &Lesson{
		UserID:  "u1",
		TopicID: "travel",
		LevelID: "b1",
		Title:   "Asking for directions",
		Content: "Excuse me, how do I get to the station?",
	})
	require.NoError(t, err)

	latest, err := lib.LatestForUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)

	out, err := p.Renderer().Render(ctx, latest, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "ASKING FOR DIRECTIONS")
	assert.Contains(t, out, "travel | b1")
	assert.Contains(t, out, "how do I get to the station?")
}
