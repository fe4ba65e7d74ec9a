// Package email provides an interface for plugins and application code to send
// email. [Gomail](gopkg.in/gomail.v2) is used with SMTP as the default.
//
// SMTP can be configured using global configuration, either as ENV or from
// a configuration file.
//
// |-------------------------|---------------------|
// | Env                     | JSON                |
// |-------------------------|---------------------|
// | LI__EMAIL__FROM         | email.from          |
// | LI__EMAIL__SMTP__HOST   | email.smtp.host     |
// | LI__EMAIL__SMTP__PORT   | email.smtp.port     |
// | LI__EMAIL__SMTP__USER   | email.smtp.username |
// | LI__EMAIL__SMTP__PASS   | email.smtp.password |
// |-------------------------|---------------------|
package email

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/errors"
	"github.com/devlitus/lesson-inglesh/logging"
	"google.golang.org/grpc/codes"
	"gopkg.in/gomail.v2"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "email.from",
			Description: "Default from address for outgoing mail",
			Type:        "string",
		},
		inglesh.ConfigKeyInfo{
			Key:         "email.smtp.host",
			Description: "SMTP server host",
			Type:        "string",
		},
		inglesh.ConfigKeyInfo{
			Key:         "email.smtp.port",
			Description: "SMTP server port",
			Type:        "int",
		},
		inglesh.ConfigKeyInfo{
			Key:         "email.smtp.username",
			Description: "SMTP username",
			Type:        "string",
		},
		inglesh.ConfigKeyInfo{
			Key:         "email.smtp.password",
			Description: "SMTP password",
			Type:        "string",
		},
	)
}

// Constant name for identifying the email plugin.
const PluginName = "email"

// Sender is an interface for sending emails. This abstraction allows for
// testing without requiring a real SMTP connection.
type Sender interface {
	DialAndSend(*gomail.Message) error
}

// gomailDialer wraps gomail.Dialer to implement the Sender interface.
type gomailDialer struct {
	dialer *gomail.Dialer
}

func (g *gomailDialer) DialAndSend(msg *gomail.Message) error {
	return g.dialer.DialAndSend(msg)
}

// EmailOption customizes the configuration of the email plugin.
type EmailOption func(*EmailPlugin)

// WithSMTP configures the SMTP server to use.
func WithSMTP(host string, port int, username, password string) EmailOption {
	return func(p *EmailPlugin) {
		p.smtpHost = host
		p.smtpPort = port
		p.smtpUsername = username
		p.smtpPassword = password
	}
}

// WithFrom configures the default from address.
func WithFrom(from string) EmailOption {
	return func(p *EmailPlugin) {
		p.from = from
	}
}

// WithSender configures a custom Sender implementation. This is primarily
// useful for testing, allowing you to inject a mock sender.
func WithSender(sender Sender) EmailOption {
	return func(p *EmailPlugin) {
		p.sender = sender
	}
}

// Plugin returns a new EmailPlugin.
func Plugin(opts ...EmailOption) *EmailPlugin {
	p := &EmailPlugin{
		from:         inglesh.ConfigString("email.from"),
		smtpHost:     inglesh.ConfigString("email.smtp.host"),
		smtpPort:     inglesh.ConfigInt("email.smtp.port"),
		smtpUsername: inglesh.ConfigString("email.smtp.username"),
		smtpPassword: inglesh.ConfigString("email.smtp.password"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// EmailPlugin exposes the ability to send emails.
type EmailPlugin struct {
	from         string
	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	sender       Sender
}

// From inglesh.Plugin.
func (p *EmailPlugin) Name() string {
	return PluginName
}

// From inglesh.InitializablePlugin.
func (p *EmailPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	if p.from == "" {
		return errors.NewC("email: config missing from address", codes.FailedPrecondition)
	}
	if p.smtpHost == "" {
		return errors.NewC("email: config missing smtp host", codes.FailedPrecondition)
	}
	if p.smtpPort == 0 {
		return errors.NewC("email: config missing smtp port", codes.FailedPrecondition)
	}
	if p.smtpUsername == "" {
		return errors.NewC("email: config missing smtp username", codes.FailedPrecondition)
	}
	if p.smtpPassword == "" {
		return errors.NewC("email: config missing smtp password", codes.FailedPrecondition)
	}
	return nil
}

// Send an email.
// TODO: Switch to daemon mode per example here:
// https://pkg.go.dev/gopkg.in/gomail.v2#example-package-Daemon
func (p *EmailPlugin) Send(ctx context.Context, msg *gomail.Message) error {
	logging.Info(ctx, "Sending mail")
	if len(msg.GetHeader("From")) == 0 {
		msg.SetHeader("From", p.from)
	}

	// Use injected sender if available, otherwise create default gomail dialer
	sender := p.sender
	if sender == nil {
		sender = &gomailDialer{
			dialer: gomail.NewDialer(p.smtpHost, p.smtpPort, p.smtpUsername, p.smtpPassword),
		}
	}

	if err := sender.DialAndSend(msg); err != nil {
		return err
	}
	return nil
}
