// Package storagetests provides common acceptance tests for storage.Store
// implementations.
package storagetests

import (
	"context"
	"testing"

	"github.com/devlitus/lesson-inglesh/plugins/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Level int

const (
	LevelA1 Level = 1
	LevelA2 Level = 2
	LevelB1 Level = 3
	LevelB2 Level = 4
	LevelC1 Level = 5
	LevelC2 Level = 6
)

type Phrase struct {
	ID    string
	Text  string
	Level Level
	Reps  *int // Ptr fields allow filtering on zero values.
}

func (p Phrase) PK() string {
	return p.ID
}

type Topic struct {
	ID   string
	Name string
}

func (t Topic) PK() string {
	return t.ID
}

type BadModel struct {
	ID    string
	Cycle *BadModel
}

func (b BadModel) PK() string {
	return b.ID
}

func pint(i int) *int {
	return &i
}

//nolint:funlen // This is a test helper.
func Run(t *testing.T, newStore func() storage.Store) {
	t.Run("TestCreateReadRoundTrip", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}
		farewell := Phrase{
			ID:    "2",
			Text:  "Farewell",
			Level: LevelB2,
		}

		hello2 := Phrase{}
		farewell2 := Phrase{}

		store := newStore()
		err := store.Create(context.Background(), hello, farewell)
		require.NoError(t, err, "unexpected error putting records")

		err = store.Read(context.Background(), "1", &hello2)
		require.NoError(t, err, "unexpected error getting hello")
		assert.Equal(t, hello, hello2)

		err = store.Read(context.Background(), "2", &farewell2)
		require.NoError(t, err, "unexpected error getting farewell")
		assert.Equal(t, farewell, farewell2)
	})

	t.Run("TestCreateConflict", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}
		hello2 := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA2,
		}

		store := newStore()
		err := store.Create(context.Background(), hello)
		require.NoError(t, err, "unexpected error putting records")

		err = store.Create(context.Background(), hello2)
		require.ErrorIs(t, err, storage.ErrAlreadyExists, "expected conflict error")
	})

	t.Run("TestCreateBadModel", func(t *testing.T) {
		bm := BadModel{ID: "XXX"}
		bm.Cycle = &bm

		store := newStore()
		err := store.Create(context.Background(), bm)
		require.ErrorIs(t, err, storage.ErrInvalidModel, "expected invalid model error")
	})

	t.Run("TestReadNotFound", func(t *testing.T) {
		store := newStore()
		err := store.Read(context.Background(), "1", &Phrase{})
		require.ErrorIs(t, err, storage.ErrNotFound)

		err = store.Create(context.Background(), &Phrase{ID: "1", Text: "Hello"})
		require.NoError(t, err, "unexpected error creating records")

		err = store.Read(context.Background(), "2", &Phrase{})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("TestReadWithNilPointer", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}

		var hello2 *Phrase

		store := newStore()
		err := store.Create(context.Background(), hello)
		require.NoError(t, err, "unexpected error putting records")

		err = store.Read(context.Background(), "1", hello2)
		require.ErrorIs(t, err, storage.ErrNilModel, "expected nil model error")
	})

	t.Run("TestUpdate", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}

		hello2 := Phrase{}

		store := newStore()
		err := store.Create(context.Background(), hello)
		require.NoError(t, err, "unexpected error putting records")

		err = store.Read(context.Background(), "1", &hello2)
		require.NoError(t, err, "unexpected error getting hello")
		assert.Equal(t, hello, hello2)

		hello.Level = LevelA2
		err = store.Update(context.Background(), hello)
		require.NoError(t, err, "unexpected error updating hello")

		err = store.Read(context.Background(), "1", &hello2)
		require.NoError(t, err, "unexpected error getting hello")
		assert.Equal(t, hello, hello2)
	})

	t.Run("TestUpdateNotExists", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}

		store := newStore()
		err := store.Update(context.Background(), hello)
		require.ErrorIs(t, err, storage.ErrNotFound, "expected not found error")
	})

	t.Run("TestUpdateBadModel", func(t *testing.T) {
		bm := BadModel{ID: "XXX"}
		bm.Cycle = &bm

		store := newStore()
		err := store.Update(context.Background(), bm)
		require.ErrorIs(t, err, storage.ErrInvalidModel, "expected invalid model error")
	})

	t.Run("TestUpsert", func(t *testing.T) {
		hello := Phrase{
			ID:    "1",
			Text:  "Hello",
			Level: LevelA1,
		}

		hello2 := Phrase{}
		farewell2 := Phrase{}

		store := newStore()
		err := store.Create(context.Background(), hello)
		require.NoError(t, err, "unexpected error putting records")

		hello.Level = LevelA2
		farewell := Phrase{ID: "2", Text: "Farewell", Level: LevelB2}
		err = store.Upsert(context.Background(), hello, farewell)
		require.NoError(t, err, "unexpected error updating hello")

		err = store.Read(context.Background(), "1", &hello2)
		require.NoError(t, err, "unexpected error getting hello")
		assert.Equal(t, hello, hello2)

		err = store.Read(context.Background(), "2", &farewell2)
		require.NoError(t, err, "unexpected error getting farewell")
		assert.Equal(t, farewell, farewell2)
	})

	t.Run("TestUpsertBadModel", func(t *testing.T) {
		bm := BadModel{ID: "XXX"}
		bm.Cycle = &bm

		store := newStore()
		err := store.Upsert(context.Background(), bm)
		require.ErrorIs(t, err, storage.ErrInvalidModel, "expected invalid model error")
	})

	t.Run("TestDelete", func(t *testing.T) {
		store := newStore()
		err := store.Create(context.Background(), &Phrase{ID: "4", Text: "Cheers"})
		require.NoError(t, err)

		exists, err := store.Exists(context.Background(), "4", &Phrase{})
		assert.True(t, exists)
		require.NoError(t, err)

		err = store.Delete(context.Background(), &Phrase{ID: "4"})
		require.NoError(t, err)

		exists, err = store.Exists(context.Background(), "4", &Phrase{})
		assert.False(t, exists)
		require.NoError(t, err)

		err = store.Delete(context.Background(), &Phrase{ID: "4"})
		require.ErrorIs(t, err, storage.ErrNotFound, "expected not found error")
	})

	t.Run("TestListErrorCases", func(t *testing.T) {
		store := newStore()

		out := []Phrase{}

		tests := []struct {
			name    string
			models  any
			filter  storage.Model
			wantErr error
		}{
			{"Ok", &out, Phrase{}, nil},
			{"Not a slice", Phrase{}, Phrase{}, storage.ErrSliceRequired},
			{"Not a pointer", out, Phrase{}, storage.ErrSliceRequired},
			{"Mismatched type", &out, Topic{}, storage.ErrTypeMismatch},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := store.List(context.Background(), tt.models, tt.filter)
				require.ErrorIs(t, err, tt.wantErr, "store.List() error = %v, wantErr %v", err, tt.wantErr)
			})
		}
	})

	t.Run("TestList", func(t *testing.T) {
		store := newStore()
		err := store.Create(context.Background(),
			Phrase{"1", "Hello", LevelA1, nil},
			Phrase{"2", "Farewell", LevelB2, nil},
			Phrase{"3", "Nevertheless", LevelC1, nil},
		)
		require.NoError(t, err)

		actual := []Phrase{}
		err = store.List(context.Background(), &actual, Phrase{})
		require.NoError(t, err)

		expected := []Phrase{
			{"1", "Hello", LevelA1, nil},
			{"2", "Farewell", LevelB2, nil},
			{"3", "Nevertheless", LevelC1, nil},
		}

		assert.Equal(t, expected, actual)
	})

	t.Run("TestListFilter", func(t *testing.T) {
		store := newStore()
		err := store.Create(context.Background(),
			Phrase{"1", "Hello", LevelA1, nil},
			Phrase{"2", "Farewell", LevelB2, nil},
			Phrase{"3", "Nevertheless", LevelC1, nil},
			Phrase{"4", "Goodbye", LevelA1, nil},
			Phrase{"5", "Henceforth", LevelC1, nil},
			Phrase{"6", "Thanks", LevelA1, nil},
			Phrase{"7", "Regardless", LevelC1, nil},
			Phrase{"8", "Sorry", LevelA2, nil},
		)
		require.NoError(t, err)

		actual := []Phrase{}
		err = store.List(context.Background(), &actual, Phrase{Level: LevelC1})
		require.NoError(t, err)

		expected := []Phrase{
			{"3", "Nevertheless", LevelC1, nil},
			{"5", "Henceforth", LevelC1, nil},
			{"7", "Regardless", LevelC1, nil},
		}

		assert.Equal(t, expected, actual)
	})

	t.Run("TestListFilterZero", func(t *testing.T) {
		store := newStore()
		err := store.Create(context.Background(),
			Phrase{"1", "Hello", LevelA1, pint(4)},
			Phrase{"2", "Farewell", LevelB2, pint(3)},
			Phrase{"3", "Nevertheless", LevelC1, pint(0)},
			Phrase{"4", "Goodbye", LevelA1, pint(0)},
			Phrase{"5", "Henceforth", LevelC1, nil},
		)
		require.NoError(t, err)

		actual := []Phrase{}
		err = store.List(context.Background(), &actual, Phrase{Reps: pint(0)})
		require.NoError(t, err)

		expected := []Phrase{
			{"3", "Nevertheless", LevelC1, pint(0)},
			{"4", "Goodbye", LevelA1, pint(0)},
		}

		assert.Equal(t, expected, actual)
	})

	t.Run("TestExists", func(t *testing.T) {
		store := newStore()
		exists, err := store.Exists(context.Background(), "3", &Phrase{})
		assert.False(t, exists)
		require.NoError(t, err)

		err = store.Create(context.Background(), &Phrase{ID: "3", Text: "Nevertheless"})
		require.NoError(t, err)

		exists, err = store.Exists(context.Background(), "3", &Phrase{})
		assert.True(t, exists)
		require.NoError(t, err)
	})
}
