package contacts

import (
	"context"

	"github.com/pathlight/mailbroker/internal/domain"
)

// Repository defines the data access contract for the contact store.
type Repository interface {
	// SearchName returns contacts whose name contains the query,
	// case-insensitive. Owner "" searches all rows; otherwise the owner's
	// rows plus global rows.
	SearchName(ctx context.Context, owner, query string) ([]domain.Contact, error)

	// All returns every contact visible to the owner. Feeds the broader
	// in-process matching pass when SearchName comes up empty.
	All(ctx context.Context, owner string) ([]domain.Contact, error)

	// Insert adds a contact unless the (owner, email) pair already exists.
	// Reports whether a row was actually inserted; a duplicate is not an
	// error.
	Insert(ctx context.Context, c *domain.Contact) (bool, error)

	// Upsert adds a contact or refreshes the name of an existing
	// (owner, email) pair.
	Upsert(ctx context.Context, c *domain.Contact) error
}
