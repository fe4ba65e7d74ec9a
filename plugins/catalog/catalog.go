package catalog

import (
	"context"
	"sort"

	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

// Topic is a study subject users can pick lessons from.
type Topic struct {
	ID          string
	Title       string
	Description string
	Icon        string
}

// From storage.Model.
func (t Topic) PK() string {
	return t.ID
}

// Level is a difficulty tier on the CEFR scale. Rank orders tiers from
// easiest to hardest.
type Level struct {
	ID          string
	Name        string
	Description string
	Rank        int
}

// From storage.Model.
func (l Level) PK() string {
	return l.ID
}

// The built-in catalog written by Seed.
var (
	defaultTopics = []Topic{
		{ID: "daily-life", Title: "Daily Life", Description: "Routines, errands and small talk", Icon: "🌅"},
		{ID: "animals", Title: "Animals", Description: "Pets, wildlife and the natural world", Icon: "🦊"},
		{ID: "food", Title: "Food & Cooking", Description: "Dishes, ingredients and eating out", Icon: "🥘"},
		{ID: "travel", Title: "Travel", Description: "Airports, directions and getting around", Icon: "✈️"},
		{ID: "work", Title: "Work & Business", Description: "Meetings, email and office life", Icon: "💼"},
		{ID: "technology", Title: "Technology", Description: "Devices, apps and life online", Icon: "💻"},
	}

	defaultLevels = []Level{
		{ID: "a1", Name: "A1 Beginner", Description: "Basic phrases and everyday expressions", Rank: 1},
		{ID: "a2", Name: "A2 Elementary", Description: "Simple, routine exchanges", Rank: 2},
		{ID: "b1", Name: "B1 Intermediate", Description: "The main points of everyday matters", Rank: 3},
		{ID: "b2", Name: "B2 Upper Intermediate", Description: "Fluent conversation on concrete and abstract topics", Rank: 4},
		{ID: "c1", Name: "C1 Advanced", Description: "Flexible, effective language for demanding contexts", Rank: 5},
		{ID: "c2", Name: "C2 Proficiency", Description: "Near-native precision and nuance", Rank: 6},
	}
)

// Catalog reads and seeds the topic and level collections.
type Catalog struct {
	store storage.Store
}

// NewCatalog returns a Catalog over the given store.
func NewCatalog(store storage.Store) *Catalog {
	return &Catalog{store: store}
}

// Topics returns every topic, ordered by title.
func (c *Catalog) Topics(ctx context.Context) ([]Topic, error) {
	var topics []Topic
	if err := c.store.List(ctx, &topics, Topic{}); err != nil {
		return nil, err
	}
	sort.Slice(topics, func(i, j int) bool {
		return topics[i].Title < topics[j].Title
	})
	return topics, nil
}

// Levels returns every level, ordered easiest first.
func (c *Catalog) Levels(ctx context.Context) ([]Level, error) {
	var levels []Level
	if err := c.store.List(ctx, &levels, Level{}); err != nil {
		return nil, err
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Rank != levels[j].Rank {
			return levels[i].Rank < levels[j].Rank
		}
		return levels[i].Name < levels[j].Name
	})
	return levels, nil
}

// Topic returns one topic by id, or storage.ErrNotFound.
func (c *Catalog) Topic(ctx context.Context, id string) (*Topic, error) {
	t := &Topic{}
	if err := c.store.Read(ctx, id, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Level returns one level by id, or storage.ErrNotFound.
func (c *Catalog) Level(ctx context.Context, id string) (*Level, error) {
	l := &Level{}
	if err := c.store.Read(ctx, id, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Seed writes the built-in catalog. Rows are upserted by id, so repeated
// seeding is safe but local edits to built-in entries do not survive it.
func (c *Catalog) Seed(ctx context.Context) error {
	models := make([]storage.Model, 0, len(defaultTopics)+len(defaultLevels))
	for _, t := range defaultTopics {
		models = append(models, t)
	}
	for _, l := range defaultLevels {
		models = append(models, l)
	}
	return c.store.Upsert(ctx, models...)
}
