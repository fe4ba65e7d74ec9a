package metrics

import (
	"context"

	inglesh "github.com/devlitus/lesson-inglesh"
	"github.com/devlitus/lesson-inglesh/plugins/eventbus"
	"github.com/devlitus/lesson-inglesh/plugins/identity"
)

// PluginName is the name of the metrics plugin.
const PluginName = "metrics"

// MetricsOption allows configuration of the MetricsPlugin.
type MetricsOption func(*MetricsPlugin)

// WithRecorder sets the recorder counters are written to. The default is a
// fresh Counter, readable through the Counter accessor.
func WithRecorder(rec Recorder) MetricsOption {
	return func(p *MetricsPlugin) {
		p.recorder = rec
	}
}

// Plugin returns a new MetricsPlugin.
func Plugin(opts ...MetricsOption) *MetricsPlugin {
	p := &MetricsPlugin{}
	for _, opt := range opts {
		opt(p)
	}
	if p.recorder == nil {
		p.counter = NewCounter()
		p.recorder = p.counter
	}
	return p
}

// MetricsPlugin counts auth events as they cross the bus. Counter keys are
// the event topics themselves.
type MetricsPlugin struct {
	recorder Recorder
	counter  *Counter
}

// From inglesh.Plugin.
func (p *MetricsPlugin) Name() string {
	return PluginName
}

// From inglesh.DependentPlugin.
func (p *MetricsPlugin) Deps() []string {
	return []string{eventbus.PluginName}
}

// From inglesh.InitializablePlugin.
func (p *MetricsPlugin) Init(ctx context.Context, r *inglesh.Registry) error {
	bus := r.Get(eventbus.PluginName).(*eventbus.EventBusPlugin)
	for _, topic := range []string{
		identity.SignedInEvent,
		identity.SignedOutEvent,
		identity.TokenRefreshedEvent,
		identity.RegisteredEvent,
	} {
		bus.Subscribe(topic, p.count)
	}
	return nil
}

func (p *MetricsPlugin) count(ctx context.Context, msg *eventbus.Message) error {
	p.recorder.Increment(msg.Topic)
	return nil
}

// Counter returns the built-in counter, or nil when WithRecorder replaced
// it.
func (p *MetricsPlugin) Counter() *Counter {
	return p.counter
}
