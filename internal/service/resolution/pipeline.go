package resolution

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
)

// ContactFinder looks up local contacts by free-text query.
type ContactFinder interface {
	FindCandidates(ctx context.Context, query, owner string) ([]domain.Contact, error)
}

// ExternalResolver resolves a person's name to candidate addresses via
// external sources.
type ExternalResolver interface {
	Resolve(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error)
}

// Input is a single recipient resolution request.
type Input struct {
	// To is the raw recipient: an address, "Name <addr>", a bare contact
	// name, or natural language like "send hi to Abel".
	To string
	// Confirm allows externally resolved candidates to be used as targets
	// without a second round trip.
	Confirm bool
	// Sender is the authenticated sender address. Local matches equal to
	// it are excluded so a name lookup never mails the sender themselves.
	Sender string
	// Owner scopes the contact lookup. Empty means unscoped.
	Owner string
}

// Resolution is the outcome of a successful pipeline run.
type Resolution struct {
	// Query is the name extracted from the input, or the raw input for a
	// direct address parse.
	Query string
	// Targets are deduplicated candidates in resolution order. Every
	// target has a non-empty lower-cased Email.
	Targets []domain.ResolutionCandidate
}

// Emails returns the target addresses in order.
func (r *Resolution) Emails() []string {
	out := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		out[i] = t.Email
	}
	return out
}

// Pipeline resolves recipient strings to concrete targets.
type Pipeline struct {
	contacts ContactFinder
	external ExternalResolver
	// maxCandidates caps how many candidates the external resolver is
	// asked for.
	maxCandidates int
}

// NewPipeline creates a resolution pipeline. The external resolver may be
// nil, in which case unresolved names fail with NotFoundError.
func NewPipeline(contacts ContactFinder, external ExternalResolver, maxCandidates int) *Pipeline {
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &Pipeline{contacts: contacts, external: external, maxCandidates: maxCandidates}
}

var placeholderDomains = map[string]bool{
	"example":     true,
	"example.com": true,
	"example.org": true,
	"example.net": true,
}

// isPlaceholder reports whether an address uses a documentation domain.
// Language models routinely invent these, so they are never sent to.
func isPlaceholder(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	dom := strings.ToLower(email[at+1:])
	return placeholderDomains[dom] || strings.HasPrefix(dom, "example.")
}

var namePattern = regexp.MustCompile(`(?i)\bto\s+(.+)$`)

// extractQueryName pulls a lookup name out of natural language such as
// "send hi to Abel". Without a "to" clause the whole input is the name.
func extractQueryName(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := namePattern.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	return strings.Trim(strings.TrimSpace(raw), `"'.,`)
}

// Resolve turns the input into concrete targets.
//
// Resolution order:
//
//  1. direct parse of the input as an address (placeholder domains are
//     discarded and fall through to name lookup)
//  2. local contact lookup on the extracted name, excluding the sender
//  3. external resolver, gated on Input.Confirm
//
// Failure modes are typed: ErrInvalidRecipient for unusable input,
// *NotFoundError when nothing matched, *ConfirmationError when external
// candidates need caller confirmation, and the resolver's sentinel errors
// when no source is configured or all sources failed.
func (p *Pipeline) Resolve(ctx context.Context, in Input) (*Resolution, error) {
	raw := strings.TrimSpace(in.To)
	if raw == "" {
		return nil, ErrInvalidRecipient
	}

	if addr, err := mail.ParseAddress(raw); err == nil {
		email := strings.ToLower(strings.TrimSpace(addr.Address))
		if !isPlaceholder(email) {
			return &Resolution{
				Query: raw,
				Targets: []domain.ResolutionCandidate{{
					Email:      email,
					Confidence: 1,
					MatchType:  domain.MatchDirectParse,
				}},
			}, nil
		}
		logger.Info("ignoring placeholder recipient address", "email", email)
	}

	query := extractQueryName(raw)
	if query == "" {
		return nil, ErrInvalidRecipient
	}

	matches, err := p.contacts.FindCandidates(ctx, query, in.Owner)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return p.fromContacts(query, matches, in.Sender)
	}

	return p.fromExternal(ctx, query, in)
}

// fromContacts builds targets from local matches, deduplicating and
// excluding the sender's own address.
func (p *Pipeline) fromContacts(query string, matches []domain.Contact, sender string) (*Resolution, error) {
	sender = strings.ToLower(strings.TrimSpace(sender))

	res := &Resolution{Query: query}
	seen := make(map[string]bool, len(matches))
	for _, c := range matches {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email == "" || seen[email] {
			continue
		}
		if sender != "" && email == sender {
			logger.Debug("excluding sender's own address from contact matches", "email", email)
			continue
		}
		seen[email] = true
		res.Targets = append(res.Targets, domain.ResolutionCandidate{
			Email:      email,
			Confidence: 1,
			MatchType:  domain.MatchContactsTable,
		})
	}

	if len(res.Targets) == 0 {
		return nil, &NotFoundError{Query: query, SenderExcluded: true}
	}
	return res, nil
}

// fromExternal consults the external resolver and enforces the
// confirmation gate.
func (p *Pipeline) fromExternal(ctx context.Context, query string, in Input) (*Resolution, error) {
	if p.external == nil {
		return nil, &NotFoundError{Query: query}
	}

	logger.Info("no local contact matches, attempting external resolver", "query", query)
	candidates, err := p.external.Resolve(ctx, query, "", p.maxCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &NotFoundError{Query: query}
	}
	if !in.Confirm {
		return nil, &ConfirmationError{Candidates: candidates}
	}

	res := &Resolution{Query: query}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		c.Email = email
		if c.MatchType == "" {
			c.MatchType = domain.MatchExternalResolver
		}
		res.Targets = append(res.Targets, c)
	}
	if len(res.Targets) == 0 {
		return nil, &NotFoundError{Query: query}
	}
	return res, nil
}
