package eventbus

// Message is the envelope handed to subscribers. The same payload published
// to multiple subscribers arrives as distinct messages with distinct IDs.
type Message struct {
	// ID uniquely identifies this delivery.
	ID string

	// Topic the message was published on.
	Topic string

	// Data is the payload supplied by the publisher.
	Data any

	// Attempt starts at 1 and increments if a bus redelivers the message.
	// In-memory buses deliver at most once.
	Attempt int
}

// NewMessage returns a message for a first delivery attempt. Bus
// implementations call this when dispatching to subscribers.
func NewMessage(id, topic string, data any) *Message {
	return &Message{
		ID:      id,
		Topic:   topic,
		Data:    data,
		Attempt: 1,
	}
}
