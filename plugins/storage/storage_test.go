package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainStore implements Store but not ModelInitializer.
type plainStore struct {
	Store
}

// initStore records the models it was asked to initialize.
type initStore struct {
	Store
	inited []string
}

func (s *initStore) InitModel(m Model) error {
	s.inited = append(s.inited, Name(m))
	return nil
}

func TestStoragePlugin(t *testing.T) {
	p := Plugin(&plainStore{})
	assert.Equal(t, PluginName, p.Name())

	// Stores without ModelInitializer treat InitModel as a no-op.
	require.NoError(t, p.InitModel(Flashcard{}))

	is := &initStore{}
	p = Plugin(is)
	require.NoError(t, p.InitModel(Flashcard{}))
	require.NoError(t, p.InitModel(StudyPlan{}))
	assert.Equal(t, []string{"flashcards", "study_plans"}, is.inited)
}
