// Package hunter implements the people-finder grounding source for the
// external resolver, against a Hunter.io-compatible Email Finder API.
package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/httpretry"
)

// Confidence assigned to a finder answer that carries no score of its own.
// A curated people index beats raw web scraping, so this sits above the
// web-search confidence.
const defaultConfidence = 0.85

// Client is a Hunter.io-compatible Email Finder API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a people-finder client from resolver configuration.
func NewClient(cfg config.ResolverConfig) *Client {
	return &Client{
		baseURL: cfg.PeopleBaseURL,
		apiKey:  cfg.PeopleKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 2),
	}
}

// FinderResult is the answer to an email-finder query.
type FinderResult struct {
	Email string `json:"email"`
	Score int    `json:"score"`
}

// FindEmail asks the finder for a person's address at a company domain.
// A miss returns a zero-valued result and no error.
func (c *Client) FindEmail(ctx context.Context, domainName, firstName, lastName string) (FinderResult, error) {
	params := url.Values{}
	params.Set("domain", domainName)
	params.Set("first_name", firstName)
	if lastName != "" {
		params.Set("last_name", lastName)
	}
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/email-finder?"+params.Encode(), nil)
	if err != nil {
		return FinderResult{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FinderResult{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FinderResult{}, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return FinderResult{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return FinderResult{}, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Data FinderResult `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return FinderResult{}, fmt.Errorf("parsing response: %w", err)
	}
	return parsed.Data, nil
}

// Source adapts the client to the resolver's Source interface.
type Source struct {
	client *Client
}

// NewSource wraps a client as a resolver source.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// Name implements resolver.Source.
func (s *Source) Name() string { return "people-finder" }

// Configured implements resolver.Source.
func (s *Source) Configured() bool { return s.client.apiKey != "" }

// Lookup splits the name into first and last parts and queries the finder
// against a domain derived from the company name. Without a usable domain
// the finder has nothing to query and returns no candidates.
func (s *Source) Lookup(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error) {
	first, last := splitName(name)
	if first == "" {
		return nil, nil
	}
	dom := companyDomain(company)
	if dom == "" {
		return nil, nil
	}

	result, err := s.client.FindEmail(ctx, dom, first, last)
	if err != nil {
		return nil, err
	}
	if result.Email == "" {
		return nil, nil
	}

	confidence := defaultConfidence
	if result.Score > 0 {
		confidence = float64(result.Score) / 100
	}
	return []domain.ResolutionCandidate{{
		Email:      strings.ToLower(result.Email),
		Confidence: confidence,
		Sources:    []string{s.Name()},
		MatchType:  domain.MatchExternalResolver,
	}}, nil
}

// splitName divides a full name into first word and remainder.
func splitName(name string) (first, last string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	first = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		last = strings.TrimSpace(parts[1])
	}
	return first, last
}

// companyDomain turns a company hint into a queryable domain. A bare
// company name without a dot cannot be queried, so it yields "".
func companyDomain(company string) string {
	dom := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(company)), " ", "")
	if !strings.Contains(dom, ".") {
		return ""
	}
	return dom
}
