package localidp

import (
	"strings"
	"time"

	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

// Account is the stored credential record for a local user. The normalized
// email doubles as the primary key, so lookups at sign-in are a single read.
type Account struct {
	Email          string
	ID             string
	Name           string
	HashedPassword []byte
	CreatedAt      time.Time
}

// From storage.Model.
func (a Account) PK() string {
	return a.Email
}

// Primary key of the single active login session. Like a browser profile,
// an installation is signed in as at most one user at a time.
const currentSessionKey = "current"

// sessionRecord is the persisted login session.
type sessionRecord struct {
	Key       string
	SessionID string
	UserID    string
	Email     string
	Name      string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// From storage.Model.
func (s sessionRecord) PK() string {
	return s.Key
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userFromAccount(a *Account) *identity.User {
	return &identity.User{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Metadata: map[string]string{
			"provider": ProviderName,
		},
	}
}

func sessionPayload(rec *sessionRecord) *identity.Session {
	return &identity.Session{
		UserID:    rec.UserID,
		Email:     rec.Email,
		Name:      rec.Name,
		Token:     rec.Token,
		ExpiresAt: rec.ExpiresAt,
	}
}
