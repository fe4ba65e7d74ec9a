// Package eventbus provides asynchronous pub/sub messaging that decouples the
// plugins which produce events from those that react to them. The identity
// plugin publishes auth events on it and the session plugin subscribes to
// them; the welcome mailer listens for registrations the same way.
//
// Configuration:
// |-----------------------|------------------|
// | Env                   | JSON             |
// |-----------------------|------------------|
// | LI__EVENTBUS__WORKERS | eventbus.workers |
// |-----------------------|------------------|
package eventbus

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
)

func init() {
	inglesh.RegisterConfigKeys(
		inglesh.ConfigKeyInfo{
			Key:         "eventbus.workers",
			Description: "Number of worker goroutines used to dispatch messages (0 = unbounded)",
			Type:        "int",
			Default:     100,
		},
	)
}

// Constant name for identifying the eventbus plugin.
const PluginName = "eventbus"

// Handler processes a single message. Returning an error logs the failure but
// does not stop delivery to other subscribers.
type Handler func(ctx context.Context, msg *Message) error

// EventBus pushes messages from publishers to subscribers. Broadcast topics
// deliver each message to every subscriber; queue topics deliver each message
// to exactly one.
type EventBus interface {
	// Subscribe registers a handler that receives every message on a topic.
	Subscribe(topic string, handler Handler)

	// SubscribeQueue registers a handler that shares a topic with other queue
	// subscribers; each message goes to one of them.
	SubscribeQueue(topic string, handler Handler)

	// Publish broadcasts data to all subscribers of a topic. Delivery is
	// asynchronous; use Wait to block until handlers have run.
	Publish(topic string, data any)

	// Enqueue delivers data to a single queue subscriber of a topic.
	Enqueue(topic string, data any)

	// Wait blocks until in-flight handlers finish or the context expires.
	Wait(ctx context.Context) error

	// Shutdown stops accepting work and drains pending messages.
	Shutdown(ctx context.Context) error
}

// Plugin returns an EventBusPlugin which exposes a message bus to other
// plugins. Fetch it from the registry:
//
//	eb := registry.Get(eventbus.PluginName).(*eventbus.EventBusPlugin)
//	eb.Publish("auth.signed_in", evt)
//
// The embedded bus's Shutdown doubles as the plugin shutdown hook, so pending
// messages drain before the app exits.
func Plugin(eb EventBus) *EventBusPlugin {
	return &EventBusPlugin{EventBus: eb}
}

// EventBusPlugin provides other plugins access to an event bus.
type EventBusPlugin struct {
	EventBus
}

// From inglesh.Plugin.
func (p *EventBusPlugin) Name() string {
	return PluginName
}
