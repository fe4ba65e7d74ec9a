package localidp

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/storage"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
)

// Topics the provider publishes on, one per event kind.
var authTopics = []string{
	identity.SignedInEvent,
	identity.SignedOutEvent,
	identity.TokenRefreshedEvent,
	identity.RegisteredEvent,
}

// From identity.Gateway.
func (p *LocalPlugin) CurrentUser(ctx context.Context) (*identity.User, error) {
	rec, err := p.readSession(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	if _, err := p.parseSessionToken(rec.Token); err != nil {
		// Expired or tampered. Either way the local session is over.
		logging.Infow(ctx, "localidp: discarding unusable session", "error", err)
		if derr := p.clearSession(ctx); derr != nil {
			return nil, derr
		}
		return nil, nil
	}

	acct, err := p.findAccount(ctx, rec.Email)
	if errors.Is(err, storage.ErrNotFound) {
		// The account was removed while a session for it was still live.
		if derr := p.clearSession(ctx); derr != nil {
			return nil, derr
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if p.refreshThreshold > 0 && timeFunc().After(rec.ExpiresAt.Add(-p.refreshThreshold)) {
		if refreshed, err := p.refreshSession(ctx, acct, rec); err != nil {
			// The old token still works; retry on the next call.
			logging.Warnw(ctx, "localidp: session refresh failed", "error", err)
		} else {
			rec = refreshed
		}
	}

	return userFromAccount(acct), nil
}

// From identity.Gateway.
func (p *LocalPlugin) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	email := normalizeEmail(creds.Email)
	logging.Track(ctx, "auth.provider", ProviderName)
	logging.Infow(ctx, "localidp: sign-in attempt", "email", email)

	if p.throttle.exhausted(email) {
		return nil, errors.Mark(identity.ErrTooManyAttempts, 0)
	}

	acct, err := p.findAccount(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		p.throttle.fail(email)
		return nil, errors.Mark(identity.ErrInvalidCredentials, 0)
	}
	if err != nil {
		return nil, err
	}

	if err := p.hasher.Compare(acct.HashedPassword, []byte(creds.Password)); err != nil {
		p.throttle.fail(email)
		return nil, errors.Mark(identity.ErrInvalidCredentials, 0)
	}
	p.throttle.reset(email)

	rec, err := p.startSession(ctx, acct)
	if err != nil {
		return nil, err
	}

	logging.Infow(ctx, "localidp: signed in", "user", acct.ID)
	p.publish(identity.SignedInEvent, sessionPayload(rec))
	return userFromAccount(acct), nil
}

// From identity.Gateway.
func (p *LocalPlugin) Register(ctx context.Context, creds identity.Credentials) (*identity.User, error) {
	email := normalizeEmail(creds.Email)
	logging.Track(ctx, "auth.provider", ProviderName)
	logging.Infow(ctx, "localidp: registration attempt", "email", email)

	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.NewC("localidp: a valid email is required", codes.InvalidArgument)
	}
	if len(creds.Password) < p.minPasswordLen {
		return nil, errors.NewC(
			fmt.Sprintf("localidp: password must be at least %d characters", p.minPasswordLen),
			codes.InvalidArgument)
	}

	hash, err := p.hasher.Generate([]byte(creds.Password))
	if err != nil {
		return nil, errors.Wrap(err, 0).WithCode(codes.InvalidArgument)
	}

	acct := &Account{
		Email:          email,
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(creds.Name),
		HashedPassword: hash,
		CreatedAt:      timeFunc(),
	}
	if err := p.store.Create(ctx, *acct); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, errors.Mark(identity.ErrEmailTaken, 0)
		}
		return nil, err
	}

	rec, err := p.startSession(ctx, acct)
	if err != nil {
		return nil, err
	}

	logging.Infow(ctx, "localidp: account registered", "user", acct.ID)
	p.publish(identity.RegisteredEvent, sessionPayload(rec))
	p.enqueue(identity.RegisteredEvent, sessionPayload(rec))
	p.publish(identity.SignedInEvent, sessionPayload(rec))
	return userFromAccount(acct), nil
}

// From identity.Gateway.
func (p *LocalPlugin) EndSession(ctx context.Context) error {
	rec, err := p.readSession(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		// Ending an already-ended session is fine.
		return nil
	}

	if err := p.clearSession(ctx); err != nil {
		return err
	}

	logging.Infow(ctx, "localidp: session ended", "user", rec.UserID)
	p.publish(identity.SignedOutEvent, nil)
	return nil
}

// From identity.Gateway.
func (p *LocalPlugin) SubscribeEvents(ctx context.Context, h identity.Handler) (identity.Subscription, error) {
	if p.bus == nil {
		return nil, errors.NewC("localidp: no event bus configured", codes.FailedPrecondition)
	}

	sub := &subscription{}
	bridge := func(ctx context.Context, msg *eventbus.Message) error {
		if sub.cancelled.Load() {
			return nil
		}
		evt, ok := msg.Data.(identity.Event)
		if !ok {
			logging.Warnw(ctx, "localidp: unexpected payload on auth topic", "topic", msg.Topic)
			return nil
		}
		h(ctx, evt)
		return nil
	}
	for _, topic := range authTopics {
		p.bus.Subscribe(topic, bridge)
	}
	return sub, nil
}

// subscription tombstones a bridged handler; the bus itself has no
// unsubscribe.
type subscription struct {
	cancelled atomic.Bool
}

func (s *subscription) Cancel() {
	s.cancelled.Store(true)
}

// startSession issues a token for the account and persists it as the active
// session, replacing any previous one.
func (p *LocalPlugin) startSession(ctx context.Context, a *Account) (*sessionRecord, error) {
	now := timeFunc()
	expiresAt := now.Add(p.sessionTTL)
	sessionID := uuid.NewString()

	token, err := p.signSessionToken(a, sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	rec := &sessionRecord{
		Key:       currentSessionKey,
		SessionID: sessionID,
		UserID:    a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}
	if err := p.store.Upsert(ctx, *rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// refreshSession re-issues the session token with a fresh expiry, keeping
// the session id stable.
func (p *LocalPlugin) refreshSession(ctx context.Context, a *Account, rec *sessionRecord) (*sessionRecord, error) {
	now := timeFunc()
	expiresAt := now.Add(p.sessionTTL)

	token, err := p.signSessionToken(a, rec.SessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	next := *rec
	next.Token = token
	next.IssuedAt = now
	next.ExpiresAt = expiresAt
	if err := p.store.Upsert(ctx, next); err != nil {
		return nil, err
	}

	logging.Infow(ctx, "localidp: session token refreshed", "user", a.ID)
	p.publish(identity.TokenRefreshedEvent, sessionPayload(&next))
	return &next, nil
}

func (p *LocalPlugin) findAccount(ctx context.Context, email string) (*Account, error) {
	a := &Account{}
	if err := p.store.Read(ctx, normalizeEmail(email), a); err != nil {
		return nil, err
	}
	return a, nil
}

func (p *LocalPlugin) readSession(ctx context.Context) (*sessionRecord, error) {
	rec := &sessionRecord{}
	err := p.store.Read(ctx, currentSessionKey, rec)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *LocalPlugin) clearSession(ctx context.Context) error {
	err := p.store.Delete(ctx, sessionRecord{Key: currentSessionKey})
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (p *LocalPlugin) publish(kind string, s *identity.Session) {
	if p.bus == nil {
		return
	}
	p.bus.Publish(kind, identity.Event{Kind: kind, Session: s})
}

// enqueue hands the event to one queue subscriber. Broadcast keeps every
// observer current; the queue side is for one-shot work like the welcome
// mail, which must not run once per observer.
func (p *LocalPlugin) enqueue(kind string, s *identity.Session) {
	if p.bus == nil {
		return
	}
	p.bus.Enqueue(kind, identity.Event{Kind: kind, Session: s})
}
