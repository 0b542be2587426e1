package repositories

import "context"

// Subscription is one case's live event feed. Events delivers raw
// frames in emission order; the channel is closed when the feed ends,
// whether by Close or by transport failure.
type Subscription interface {
	Events() <-chan []byte

	// Err reports why the feed ended. It is meaningful only after
	// Events is closed; nil means a clean local Close.
	Err() error

	// Close releases the subscription. Safe to call more than once.
	Close() error
}

// StreamSource subscribes to the per-case real-time channel of the
// simulation backend.
type StreamSource interface {
	Subscribe(ctx context.Context, caseID string) (Subscription, error)
}
