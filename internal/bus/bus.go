package bus

import "context"

// Handler receives the raw JSON payload of one message. Handlers run on
// their own goroutine; a slow handler never blocks the subscription loop.
type Handler func(ctx context.Context, payload []byte)

// Bus is the topic-based publish/subscribe transport shared by all bots.
// Delivery is at-most-once, fire-and-forget: a publish that nobody hears is
// gone.
type Bus interface {
	// Publish serializes message to JSON and sends it on topic.
	Publish(ctx context.Context, topic string, message any) error

	// Subscribe starts a supervised background listener for topic. The
	// listener survives transport failures by reconnecting after a fixed
	// delay and only stops when ctx is done.
	Subscribe(ctx context.Context, topic string, h Handler)
}
