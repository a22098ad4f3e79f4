package resolver

import (
	"context"

	"github.com/pathlight/mailbroker/internal/domain"
)

// Source is one external lookup backend. Implementations live in their own
// vendor packages (websearch, hunter) and are injected into the Service.
type Source interface {
	// Name identifies the source in provenance tags and status reports.
	Name() string

	// Configured reports whether the source has the credentials it needs.
	// Unconfigured sources are skipped without counting as failures.
	Configured() bool

	// Lookup returns candidate addresses for the named person. An empty
	// result is a valid answer; an error means the backend itself failed.
	Lookup(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error)
}

// AddressExtractor pulls email addresses out of unstructured text. It is a
// pluggable strategy so the default regex heuristics can be swapped for a
// stricter parser without touching any source.
type AddressExtractor interface {
	Extract(text string) []string
}
