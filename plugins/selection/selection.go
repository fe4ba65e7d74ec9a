// Package selection tracks which topic and level each user has chosen to
// study. Writes go through the Repository; reads go through the Gate, which
// comes in two postures: Check refuses to answer without an authenticated
// session and propagates repository failures, while Has gates navigation and
// reduces every failure to "no selection yet".
package selection

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
)

// Selection records a user's choice of topic and level. Choices are never
// updated in place; each one appends a row and the newest row wins.
type Selection struct {
	ID        string
	UserID    string
	TopicID   string
	LevelID   string
	CreatedAt time.Time
}

// From storage.Model.
func (s Selection) PK() string {
	return s.ID
}

// Repository is the persistence contract for selections.
type Repository interface {
	// LatestForUser returns the user's most recent selection, or (nil, nil)
	// when the user has not made one yet.
	LatestForUser(ctx context.Context, userID string) (*Selection, error)

	// Save persists a new selection.
	Save(ctx context.Context, sel *Selection) error
}

// StoreRepository keeps selections in a storage.Store.
type StoreRepository struct {
	store storage.Store
}

// NewStoreRepository returns a Repository backed by the given store.
func NewStoreRepository(store storage.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// From Repository.
func (r *StoreRepository) LatestForUser(ctx context.Context, userID string) (*Selection, error) {
	if userID == "" {
		// An empty filter would match every user's rows.
		return nil, errors.NewC("selection: user id is required", codes.InvalidArgument)
	}

	var selections []Selection
	if err := r.store.List(ctx, &selections, Selection{UserID: userID}); err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var latest *Selection
	for i := range selections {
		if latest == nil || selections[i].CreatedAt.After(latest.CreatedAt) {
			latest = &selections[i]
		}
	}
	return latest, nil
}

// From Repository.
func (r *StoreRepository) Save(ctx context.Context, sel *Selection) error {
	if sel.UserID == "" || sel.TopicID == "" || sel.LevelID == "" {
		return errors.NewC("selection: user, topic and level ids are required", codes.InvalidArgument)
	}
	if sel.ID == "" {
		sel.ID = uuid.New().String()
	}
	if sel.CreatedAt.IsZero() {
		sel.CreatedAt = time.Now()
	}
	return r.store.Create(ctx, *sel)
}
