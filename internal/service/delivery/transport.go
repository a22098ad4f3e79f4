package delivery

import "context"

// Message is one email to one recipient.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Body     string
	HTML     bool
}

// Transport delivers a single message and returns the provider's message
// id. Implementations must be safe for concurrent use.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) (messageID string, err error)
}

// SenderDiscoverer is implemented by transports that can report the
// authenticated sender's own address. It is used to exclude the sender
// from name-based recipient matches when no sender address is configured.
type SenderDiscoverer interface {
	SenderAddress(ctx context.Context) (string, error)
}
