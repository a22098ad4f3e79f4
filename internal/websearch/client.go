// Package websearch implements the web-search grounding source for the
// external resolver, against a Bing-compatible Web Search API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/httpretry"
	"github.com/pathlight/mailbroker/internal/resolver"
)

// Confidence assigned to addresses scraped out of public web pages. Web
// extraction is the least trustworthy source, so it ranks below a
// people-finder answer unless a second source agrees.
const webConfidence = 0.6

// maxPageBytes bounds the best-effort page fetch when a snippet alone has
// no address.
const maxPageBytes = 512 * 1024

// Client is a Bing-compatible Web Search API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
	pageClient *http.Client
}

// NewClient creates a web search client from resolver configuration.
func NewClient(cfg config.ResolverConfig) *Client {
	return &Client{
		baseURL: cfg.WebSearchBaseURL,
		apiKey:  cfg.WebSearchKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, 2),
		pageClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Page is one web search hit.
type Page struct {
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Search runs a query and returns snippet/URL pairs.
func (c *Client) Search(ctx context.Context, query string, count int) ([]Page, error) {
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query))
	params.Set("count", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v7.0/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		WebPages struct {
			Value []Page `json:"value"`
		} `json:"webPages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return parsed.WebPages.Value, nil
}

// fetchPage downloads a result page body, best effort. Errors return "".
func (c *Client) fetchPage(ctx context.Context, pageURL string) string {
	ctx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	resp, err := c.pageClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return ""
	}
	return string(data)
}

// Source adapts the client to the resolver's Source interface.
type Source struct {
	client    *Client
	extractor resolver.AddressExtractor
}

// NewSource wraps a client as a resolver source. A nil extractor gets the
// default regex extractor.
func NewSource(client *Client, extractor resolver.AddressExtractor) *Source {
	if extractor == nil {
		extractor = resolver.RegexExtractor{}
	}
	return &Source{client: client, extractor: extractor}
}

// Name implements resolver.Source.
func (s *Source) Name() string { return "websearch" }

// Configured implements resolver.Source.
func (s *Source) Configured() bool { return s.client.apiKey != "" }

// Lookup searches the web for pages likely to carry the person's address
// and extracts candidates from snippets, falling back to the page body
// when a snippet has none.
func (s *Source) Lookup(ctx context.Context, name, company string, max int) ([]domain.ResolutionCandidate, error) {
	q := fmt.Sprintf("%q", name)
	if company = strings.TrimSpace(company); company != "" {
		q += fmt.Sprintf(" %q", company)
	}
	q += ` email OR contact OR "@"`

	pages, err := s.client.Search(ctx, q, max)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []domain.ResolutionCandidate
	for _, p := range pages {
		emails := s.extractor.Extract(p.Snippet)
		if len(emails) == 0 && p.URL != "" {
			emails = s.extractor.Extract(s.client.fetchPage(ctx, p.URL))
		}
		for _, e := range emails {
			if seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, domain.ResolutionCandidate{
				Email:      e,
				Confidence: webConfidence,
				Sources:    []string{p.URL},
				MatchType:  domain.MatchExternalResolver,
			})
		}
	}
	return out, nil
}
