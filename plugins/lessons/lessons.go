// Package lessons stores the study material a user has worked through and
// formats it for the terminal. Lesson content arrives from outside this
// package; the Library persists it and the Renderer displays it.
package lessons

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

// Lesson is one unit of study material, tied to the topic and level the
// user had selected when it was saved.
type Lesson struct {
	ID        string
	UserID    string
	TopicID   string
	LevelID   string
	Title     string
	Content   string
	CreatedAt time.Time
}

// From storage.Model.
func (l Lesson) PK() string {
	return l.ID
}

// Library reads and writes lessons in a storage.Store.
type Library struct {
	store storage.Store
}

// NewLibrary returns a Library backed by the given store.
func NewLibrary(store storage.Store) *Library {
	return &Library{store: store}
}

// Save persists a new lesson, filling in the id and timestamp when unset.
func (l *Library) Save(ctx context.Context, lesson *Lesson) error {
	if lesson.UserID == "" || lesson.TopicID == "" || lesson.LevelID == "" {
		return errors.NewC("lessons: user, topic and level ids are required", codes.InvalidArgument)
	}
	if lesson.Title == "" {
		return errors.NewC("lessons: title is required", codes.InvalidArgument)
	}
	if lesson.ID == "" {
		lesson.ID = uuid.New().String()
	}
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = time.Now()
	}
	return l.store.Create(ctx, *lesson)
}

// Get loads one lesson by id, or storage.ErrNotFound.
func (l *Library) Get(ctx context.Context, id string) (*Lesson, error) {
	lesson := &Lesson{}
	if err := l.store.Read(ctx, id, lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// ForUser returns all of a user's lessons, newest first.
func (l *Library) ForUser(ctx context.Context, userID string) ([]Lesson, error) {
	if userID == "" {
		// An empty filter would match every user's rows.
		return nil, errors.NewC("lessons: user id is required", codes.InvalidArgument)
	}

	var lessons []Lesson
	if err := l.store.List(ctx, &lessons, Lesson{UserID: userID}); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	sort.Slice(lessons, func(i, j int) bool {
		// Equal timestamps fall back to id so the order is stable across runs.
		if lessons[i].CreatedAt.Equal(lessons[j].CreatedAt) {
			return lessons[i].ID < lessons[j].ID
		}
		return lessons[i].CreatedAt.After(lessons[j].CreatedAt)
	})
	return lessons, nil
}

// LatestForUser returns the user's most recent lesson, or (nil, nil) when
// they have none yet.
func (l *Library) LatestForUser(ctx context.Context, userID string) (*Lesson, error) {
	lessons, err := l.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, nil
	}
	return &lessons[0], nil
}
