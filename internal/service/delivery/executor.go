package delivery

import (
	"context"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
)

// Executor sends one message to each of a batch of targets concurrently.
type Executor struct {
	transport Transport
	// timeout bounds each individual send. Zero means no per-send bound
	// beyond the caller's context.
	timeout time.Duration
}

// NewExecutor creates an executor over the given transport.
func NewExecutor(transport Transport, timeout time.Duration) *Executor {
	return &Executor{transport: transport, timeout: timeout}
}

// SendAll delivers base to every target and returns one outcome per
// target, in target order. Each target gets its own goroutine; a failure
// on one never aborts the others. Addresses are re-validated here so a
// bad target becomes a failed outcome rather than a transport error.
func (e *Executor) SendAll(ctx context.Context, base Message, targets []string) []domain.DeliveryOutcome {
	outcomes := make([]domain.DeliveryOutcome, len(targets))

	var wg sync.WaitGroup
	for i, tgt := range targets {
		wg.Add(1)
		go func(i int, tgt string) {
			defer wg.Done()
			outcomes[i] = e.sendOne(ctx, base, tgt)
		}(i, tgt)
	}
	wg.Wait()

	return outcomes
}

func (e *Executor) sendOne(ctx context.Context, base Message, target string) domain.DeliveryOutcome {
	addr, err := mail.ParseAddress(strings.TrimSpace(target))
	if err != nil {
		logger.Error("skipping invalid recipient address", "recipient", target)
		return domain.DeliveryOutcome{To: target, Error: "invalid recipient address"}
	}
	normalized := addr.Address

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	msg := base
	msg.To = normalized
	msgID, err := e.transport.Send(ctx, msg)
	if err != nil {
		logger.Error("failed to send email", "transport", e.transport.Name(),
			"recipient", normalized, "error", err.Error())
		return domain.DeliveryOutcome{To: target, ToNormalized: normalized, Error: err.Error()}
	}

	logger.Info("email sent", "transport", e.transport.Name(),
		"recipient", normalized, "message_id", msgID)
	return domain.DeliveryOutcome{To: target, ToNormalized: normalized, Success: true, MessageID: msgID}
}
