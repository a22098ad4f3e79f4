package resolution

import (
	"errors"
	"fmt"

	"github.com/pathlight/mailbroker/internal/domain"
)

// ErrInvalidRecipient is returned when the recipient string is empty or
// yields no usable address or name.
var ErrInvalidRecipient = errors.New("recipient must be a valid email address or a contact name")

// NotFoundError is returned when no local contact matches and the
// external resolver produced nothing usable.
type NotFoundError struct {
	Query string
	// SenderExcluded is set when matches existed but every one of them
	// was the sender's own address.
	SenderExcluded bool
}

func (e *NotFoundError) Error() string {
	if e.SenderExcluded {
		return fmt.Sprintf("no contacts found with name containing %q (matches excluded sender or had no emails)", e.Query)
	}
	return fmt.Sprintf("no contacts found with name containing %q", e.Query)
}

// ConfirmationError is returned when the external resolver found
// candidates but the caller has not confirmed sending to them.
type ConfirmationError struct {
	Candidates []domain.ResolutionCandidate
}

func (e *ConfirmationError) Error() string {
	return "address not found in contacts, resolver found candidate addresses awaiting confirmation"
}
