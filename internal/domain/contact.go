package domain

import "time"

// Contact is a stored (name, email) record for a known recipient. Owner is
// empty for global contacts shared by every caller. The pair (owner, email)
// is unique: the same address is never stored twice for the same owner.
type Contact struct {
	ID        string    `json:"id" db:"id"`
	Owner     string    `json:"owner,omitempty" db:"owner"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MatchType identifies which resolution stage produced a candidate.
type MatchType string

const (
	// MatchDirectParse means the address was parsed straight out of the
	// "to" field ("Name <addr>" or a bare address).
	MatchDirectParse MatchType = "direct_parse"

	// MatchContactsTable means the address came from the local contact store.
	MatchContactsTable MatchType = "contacts_table"

	// MatchExternalResolver means the address was guessed by an external
	// name-to-email lookup service and carries that service's confidence.
	MatchExternalResolver MatchType = "external_resolver"
)

// ResolutionCandidate is a possible send target produced by some stage of
// recipient resolution. Candidates are transient: they only become Contacts
// after a successful delivery promotes them.
type ResolutionCandidate struct {
	Email      string    `json:"email"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources,omitempty"`
	MatchType  MatchType `json:"match_type"`
}
