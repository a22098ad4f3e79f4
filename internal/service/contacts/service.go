package contacts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
)

// Service implements contact lookup and persistence business logic.
// It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a contacts service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindCandidates searches the contact store for rows matching a free-text
// query. Strategies cascade from cheap to loose; a later strategy runs only
// when the previous one returned nothing:
//
//  1. case-insensitive substring match of the query against name (SQL side)
//  2. whole-table scan matching name substrings, email substrings, name
//     tokens, and the email local-part, each compared both ways
//
// No results is an empty slice, not an error. Errors indicate store
// connectivity failure only.
//
// When owner is empty the search is unscoped and may return contacts
// belonging to any owner. That is intentional for the single-user
// deployments this broker targets; tighten it before multi-tenant use.
func (s *Service) FindCandidates(ctx context.Context, query, owner string) ([]domain.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	matches, err := s.repo.SearchName(ctx, owner, query)
	if err != nil {
		return nil, fmt.Errorf("contact name search: %w", err)
	}
	if len(matches) > 0 {
		return matches, nil
	}

	// Broader pass: tokenized and local-part matching over the full table.
	all, err := s.repo.All(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("contact scan: %w", err)
	}

	q := strings.ToLower(query)
	var broad []domain.Contact
	for _, c := range all {
		if matchesLoosely(q, c) {
			broad = append(broad, c)
		}
	}
	if len(broad) > 0 {
		logger.Debug("broad contact match", "query", query, "matches", len(broad))
	}
	return broad, nil
}

// matchesLoosely reports whether the lower-cased query hits the contact via
// substrings, name tokens, or the email local-part.
func matchesLoosely(q string, c domain.Contact) bool {
	name := strings.ToLower(c.Name)
	email := strings.ToLower(c.Email)

	if strings.Contains(name, q) || strings.Contains(email, q) {
		return true
	}
	for _, tok := range strings.Fields(name) {
		if containsEitherWay(q, tok) {
			return true
		}
	}
	if at := strings.Index(email, "@"); at > 0 {
		if containsEitherWay(q, email[:at]) {
			return true
		}
	}
	return false
}

func containsEitherWay(a, b string) bool {
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// Save creates a contact or refreshes the name of an existing one. This is
// the explicit user-facing entry point; the implicit one is
// PersistSuccessful.
func (s *Service) Save(ctx context.Context, owner, name, email string) (*domain.Contact, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("invalid email %q: %w", email, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = addr.Address
	}

	c := &domain.Contact{Owner: owner, Name: name, Email: strings.ToLower(addr.Address)}
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PersistSuccessful writes back externally resolved or directly parsed
// addresses that were actually delivered to, so the next lookup is a local
// hit. Candidates that already came from the contact store are skipped, as
// is any candidate whose send failed. Persistence failures are logged and
// swallowed: the email is already out, a bookkeeping miss must not fail the
// request. Returns the number of new rows written.
func (s *Service) PersistSuccessful(ctx context.Context, owner, query string, candidates []domain.ResolutionCandidate, outcomes []domain.DeliveryOutcome) int {
	delivered := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		if o.Success && o.ToNormalized != "" {
			delivered[strings.ToLower(o.ToNormalized)] = true
		}
	}

	persisted := 0
	for _, cand := range candidates {
		if cand.MatchType == domain.MatchContactsTable {
			continue
		}
		email := strings.ToLower(strings.TrimSpace(cand.Email))
		if email == "" || !delivered[email] {
			continue
		}

		name := strings.TrimSpace(query)
		if name == "" {
			name = email
		}
		inserted, err := s.repo.Insert(ctx, &domain.Contact{Owner: owner, Name: name, Email: email})
		if err != nil {
			logger.Warn("failed to persist resolved contact", "email", email, "error", err.Error())
			continue
		}
		if inserted {
			persisted++
			logger.Info("stored new contact", "email", email, "name", name, "match_type", string(cand.MatchType))
		}
	}
	return persisted
}
