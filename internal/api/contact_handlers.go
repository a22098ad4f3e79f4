package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/resolver"
)

// CreateContactRequest is the body of POST /api/contacts.
type CreateContactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateContact stores or updates a contact.
//
//	POST /api/contacts
func (h *Handlers) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	c, err := h.contacts.Save(r.Context(), ownerFrom(r), req.Name, req.Email)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// SearchContacts looks up contacts by free-text query. Without a query it
// returns nothing rather than dumping the table.
//
//	GET /api/contacts?q=abel
func (h *Handlers) SearchContacts(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondJSON(w, http.StatusOK, map[string]interface{}{"contacts": []domain.Contact{}})
		return
	}

	matches, err := h.contacts.FindCandidates(r.Context(), q, ownerFrom(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "contact lookup failed")
		return
	}
	if matches == nil {
		matches = []domain.Contact{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"contacts": matches})
}

// ResolveContactRequest is the body of POST /api/contacts/resolve.
type ResolveContactRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	// MaxResults caps the candidate list. Zero means the default cap.
	MaxResults int `json:"max_results"`
	// UseExternal, when false, answers from the contact store only and
	// never calls the lookup services. Defaults to true.
	UseExternal *bool `json:"use_external"`
}

// ResolveContact runs the resolver directly, without the send pipeline, so
// a client can preview candidates for a name.
//
//	POST /api/contacts/resolve
func (h *Handlers) ResolveContact(w http.ResponseWriter, r *http.Request) {
	var req ResolveContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	if req.UseExternal != nil && !*req.UseExternal {
		h.resolveLocal(w, r, req)
		return
	}

	rc, err := h.materialize(r, "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "settings lookup failed")
		return
	}

	candidates, err := rc.resolver.Resolve(r.Context(), req.Name, req.Company, req.MaxResults)
	switch {
	case errors.Is(err, resolver.ErrNotConfigured):
		respondJSON(w, http.StatusFailedDependency, map[string]string{
			"error":        err.Error(),
			"instructions": resolver.SetupInstructions,
		})
		return
	case errors.Is(err, resolver.ErrUnavailable):
		respondError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "contact resolution failed")
		return
	}

	if candidates == nil {
		candidates = []domain.ResolutionCandidate{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}

// resolveLocal answers a resolve preview from the contact store alone.
func (h *Handlers) resolveLocal(w http.ResponseWriter, r *http.Request, req ResolveContactRequest) {
	matches, err := h.contacts.FindCandidates(r.Context(), req.Name, ownerFrom(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "contact lookup failed")
		return
	}

	max := req.MaxResults
	if max <= 0 {
		max = h.resolverCfg.MaxResults
	}
	if max <= 0 {
		max = 5
	}

	candidates := []domain.ResolutionCandidate{}
	seen := map[string]bool{}
	for _, c := range matches {
		key := strings.ToLower(c.Email)
		if c.Email == "" || seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, domain.ResolutionCandidate{
			Email:      c.Email,
			Confidence: 1,
			MatchType:  domain.MatchContactsTable,
		})
		if len(candidates) == max {
			break
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"candidates": candidates})
}
