// Package welcome greets newly registered users by email. It rides the
// queue side of the registration topic, so exactly one mail goes out per
// registration no matter how many other plugins observe the event. Apps
// should only register it alongside a configured email plugin.
//
// The subject and body ship as built-in templates; define
// "welcome_email_subject" or "welcome_email_body" in a configured template
// dir to replace them.
package welcome

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"github.com/devlitus/lesson-inglesh/plugins/email"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
	"github.com/devlitus/lesson-inglesh/plugins/templates"
	"google.golang.org/grpc/codes"
	"gopkg.in/gomail.v2"
)

// Constant name for identifying the welcome plugin.
const PluginName = "email_welcome"

const (
	subjectTemplate = "welcome_email_subject"
	bodyTemplate    = "welcome_email_body"
)

const defaultSubject = `Welcome to {{.Data.App}}!`

const defaultBody = `Hi {{.Data.Name}},

Welcome to {{.Data.App}}! Pick a topic and a level and your first lesson
will be waiting. See you in class.

The {{.Data.App}} team
`

// Plugin returns a new WelcomePlugin.
func Plugin() *WelcomePlugin {
	return &WelcomePlugin{}
}

// WelcomePlugin sends a welcome mail when a user registers.
type WelcomePlugin struct {
	emailer  *email.EmailPlugin
	renderer *templates.TemplatePlugin
	bus      eventbus.EventBus
}

// From inglesh.Plugin.
func (p *WelcomePlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *WelcomePlugin) Deps() []string {
	return []string{
		email.PluginName,
		templates.PluginName,
		eventbus.PluginName,
	}
}

// From inglesh.InitializablePlugin.
func (p *WelcomePlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	p.emailer = r.Get(email.PluginName).(*email.EmailPlugin)
	p.renderer = r.Get(templates.PluginName).(*templates.TemplatePlugin)
	p.bus = r.Get(eventbus.PluginName).(*eventbus.EventBusPlugin)

	if err := p.renderer.AddTemplate(subjectTemplate, defaultSubject); err != nil {
		return err
	}
	if err := p.renderer.AddTemplate(bodyTemplate, defaultBody); err != nil {
		return err
	}

	p.bus.SubscribeQueue(identity.RegisteredEvent, p.handleRegistered)
	return nil
}

func (p *WelcomePlugin) handleRegistered(ctx context.Context, msg *eventbus.Message) error {
	evt, ok := msg.Data.(identity.Event)
	if !ok {
		return errors.NewC("welcome: unexpected payload on "+msg.Topic, codes.InvalidArgument)
	}
	if evt.Session == nil || evt.Session.Email == "" {
		logging.Warnw(ctx, "welcome: registration event without an address", "id", msg.ID)
		return nil
	}
	return p.send(ctx, evt.Session.Email, evt.Session.Name)
}

func (p *WelcomePlugin) send(ctx context.Context, to, name string) error {
	if name == "" {
		name = "there"
	}
	app := inglesh.ConfigString("name")
	if app == "" {
		app = "Inglesh"
	}
	data := map[string]interface{}{"Name": name, "App": app}

	subject, err := p.renderer.Render(ctx, subjectTemplate, data)
	if err != nil {
		return err
	}
	body, err := p.renderer.Render(ctx, bodyTemplate, data)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := p.emailer.Send(ctx, m); err != nil {
		return errors.WrapPrefix(err, "welcome: sending failed", 0)
	}
	logging.Infow(ctx, "welcome: mail sent", "to", to)
	return nil
}
