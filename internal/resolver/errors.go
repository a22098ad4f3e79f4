package resolver

import "errors"

// Sentinel errors for the resolver layer.
var (
	// ErrNotConfigured means no lookup source has credentials. Surfaced
	// with SetupInstructions so the user learns how to enable lookups
	// instead of getting a generic "not found".
	ErrNotConfigured = errors.New("no email finder sources are configured")

	// ErrUnavailable means every configured source failed (network, auth).
	// Retrying is the caller's choice.
	ErrUnavailable = errors.New("all email finder sources failed")
)

// SetupInstructions tells the user how to enable external resolution.
// Returned alongside ErrNotConfigured and by the finder-status endpoint.
const SetupInstructions = `Email finder uses paid APIs. To enable:

1. Web Search API (finds emails via web search):
   - Create a Bing Web Search resource in Azure Portal and get your subscription key.
   - Add BING_API_KEY=your_key (or BING_SEARCH_API_KEY) to the .env file or the settings API.

2. People/Email Finder API (e.g. Hunter.io for professional emails):
   - Sign up at your provider and get an API key.
   - Add PEOPLE_API_KEY=your_key to the .env file or the settings API.

At least one key is required to find email addresses by name when they are not in your contacts.`
