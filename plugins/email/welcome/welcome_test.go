package welcome

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/email"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus/membus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
)

// captureSender records messages instead of dialing SMTP. The bus delivers
// on worker goroutines, so it locks.
type captureSender struct {
	mu       sync.Mutex
	messages []*gomail.Message
}

func (c *captureSender) DialAndSend(msg *gomail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return nil
}

func (c *captureSender) all() []*gomail.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*gomail.Message(nil), c.messages...)
}

func newTestWelcome(t *testing.T) (*captureSender, eventbus.EventBus, *templates.TemplatePlugin) {
	t.Helper()
	ctx := logging.EnsureLogger(context.Background())

	capture := &captureSender{}
	bus := membus.New(ctx)
	tp := templates.Plugin()

	r := &inglesh.Registry{}
	r.Register(eventbus.Plugin(bus))
	r.Register(email.Plugin(
		email.WithFrom("noreply@example.com"),
		email.WithSMTP("smtp.example.com", 587, "user", "pass"),
		email.WithSender(capture),
	))
	r.Register(tp)
	r.Register(Plugin())
	require.NoError(t, r.Init(ctx))
	t.Cleanup(func() {
		_ = r.Shutdown(ctx)
	})

	return capture, bus, tp
}

func TestPlugin(t *testing.T) {
	p := Plugin()
	assert.Equal(t, PluginName, p.Name())
	assert.Equal(t, []string{email.PluginName, templates.PluginName, eventbus.PluginName}, p.Deps())
}

func TestWelcomeMailOnRegistration(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	capture, bus, _ := newTestWelcome(t)

	bus.Enqueue(identity.RegisteredEvent, identity.Event{
		Kind:    identity.RegisteredEvent,
		Session: &identity.Session{UserID: "u1", Email: "ana@example.com", Name: "Ana"},
	})
	require.NoError(t, bus.Wait(ctx))

	msgs := capture.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"ana@example.com"}, msgs[0].GetHeader("To"))
	assert.Equal(t, []string{"Welcome to Inglesh!"}, msgs[0].GetHeader("Subject"))
	assert.Equal(t, []string{"noreply@example.com"}, msgs[0].GetHeader("From"))

	var buf bytes.Buffer
	_, err := msgs[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hi Ana")
}

func TestWelcomeMailGreetsNamelessUsers(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	capture, bus, _ := newTestWelcome(t)

	bus.Enqueue(identity.RegisteredEvent, identity.Event{
		Kind:    identity.RegisteredEvent,
		Session: &identity.Session{UserID: "u2", Email: "ben@example.com"},
	})
	require.NoError(t, bus.Wait(ctx))

	msgs := capture.all()
	require.Len(t, msgs, 1)

	var buf bytes.Buffer
	_, err := msgs[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Hi there")
}

func TestWelcomeMailSkipsEventsWithoutAddress(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	capture, bus, _ := newTestWelcome(t)

	bus.Enqueue(identity.RegisteredEvent, identity.Event{Kind: identity.RegisteredEvent})
	bus.Enqueue(identity.RegisteredEvent, "not an event")
	require.NoError(t, bus.Wait(ctx))

	assert.Empty(t, capture.all())
}

func TestWelcomeMailTemplateOverride(t *testing.T) {
	ctx := logging.EnsureLogger(context.Background())
	capture, bus, tp := newTestWelcome(t)

	require.NoError(t, tp.AddTemplate(subjectTemplate, "A fresh start, {{.Data.Name}}"))

	bus.Enqueue(identity.RegisteredEvent, identity.Event{
		Kind:    identity.RegisteredEvent,
		Session: &identity.Session{UserID: "u3", Email: "cam@example.com", Name: "Cam"},
	})
	require.NoError(t, bus.Wait(ctx))

	msgs := capture.all()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"A fresh start, Cam"}, msgs[0].GetHeader("Subject"))
}
