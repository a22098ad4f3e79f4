package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
)

// Confidence constants for candidate merging. A candidate confirmed by a
// second independent source is boosted but never reaches certainty.
const (
	confidenceBoost = 0.15
	confidenceCap   = 0.99
)

// Service merges and ranks candidates from the configured lookup sources.
// Safe for concurrent use.
type Service struct {
	sources []Source
	cache   Cache
}

// NewService creates a resolver over the given sources. A nil cache
// disables caching.
func NewService(sources []Source, cache Cache) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{sources: sources, cache: cache}
}

// Resolve looks up candidate addresses for a person's name, optionally
// narrowed by a company hint, and returns up to max candidates ordered by
// descending confidence.
//
// One source failing is non-fatal; the remaining sources' candidates are
// returned. Every configured source failing is ErrUnavailable. No source
// configured at all is ErrNotConfigured.
func (s *Service) Resolve(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	if max <= 0 {
		max = 5
	}

	var configured []Source
	for _, src := range s.sources {
		if src.Configured() {
			configured = append(configured, src)
		}
	}
	if len(configured) == 0 {
		return nil, ErrNotConfigured
	}

	cacheKey := "resolver:" + strings.ToLower(name) + "|" + strings.ToLower(strings.TrimSpace(company))
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		logger.Debug("resolver cache hit", "query", name)
		return truncate(cached, max), nil
	}

	merged := make(map[string]*domain.ResolutionCandidate)
	var order []string
	failures := 0
	var lastErr error

	for _, src := range configured {
		cands, err := src.Lookup(ctx, name, company, max)
		if err != nil {
			failures++
			lastErr = err
			logger.Warn("resolver source failed", "source", src.Name(), "query", name, "error", err.Error())
			continue
		}
		for _, c := range cands {
			email := strings.ToLower(strings.TrimSpace(c.Email))
			if email == "" {
				continue
			}
			if existing, ok := merged[email]; ok {
				existing.Sources = append(existing.Sources, c.Sources...)
				existing.Confidence = existing.Confidence + confidenceBoost
				if existing.Confidence > confidenceCap {
					existing.Confidence = confidenceCap
				}
				continue
			}
			conf := c.Confidence
			if conf <= 0 {
				conf = 0.5
			}
			merged[email] = &domain.ResolutionCandidate{
				Email:      email,
				Confidence: conf,
				Sources:    c.Sources,
				MatchType:  domain.MatchExternalResolver,
			}
			order = append(order, email)
		}
	}

	if failures == len(configured) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}

	out := make([]domain.ResolutionCandidate, 0, len(order))
	for _, email := range order {
		out = append(out, *merged[email])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	if len(out) > 0 {
		s.cache.Put(ctx, cacheKey, out)
	}
	return truncate(out, max), nil
}

// Status reports which source kinds are configured, for the finder-status
// endpoint.
func (s *Service) Status() Status {
	st := Status{Instructions: SetupInstructions}
	for _, src := range s.sources {
		if !src.Configured() {
			continue
		}
		st.AnyConfigured = true
		st.Configured = append(st.Configured, src.Name())
	}
	return st
}

// Status describes the resolver's configuration state.
type Status struct {
	AnyConfigured bool     `json:"any_configured"`
	Configured    []string `json:"configured_sources,omitempty"`
	Instructions  string   `json:"instructions,omitempty"`
}

func truncate(c []domain.ResolutionCandidate, max int) []domain.ResolutionCandidate {
	if len(c) > max {
		return c[:max]
	}
	return c
}
