package api

import (
	"encoding/json"
	"net/http"

	"github.com/pathlight/mailbroker/internal/config"
	"github.com/pathlight/mailbroker/internal/resolver"
	"github.com/pathlight/mailbroker/internal/service/contacts"
	"github.com/pathlight/mailbroker/internal/service/delivery"
	"github.com/pathlight/mailbroker/internal/service/resolution"
	"github.com/pathlight/mailbroker/internal/service/settings"
)

// ResolverFactory builds a resolver service from an effective resolver
// configuration. Handlers call it per request so stored settings take
// effect without a restart.
type ResolverFactory func(config.ResolverConfig) *resolver.Service

// Handlers holds the services the HTTP layer fronts.
type Handlers struct {
	executor    *delivery.Executor
	contacts    *contacts.Service
	settings    *settings.Service
	delivery    config.DeliveryConfig
	resolverCfg config.ResolverConfig
	newResolver ResolverFactory
	// discoverer resolves the authenticated sender's own address when no
	// sender is configured. May be nil.
	discoverer delivery.SenderDiscoverer
}

// NewHandlers creates the handler set.
func NewHandlers(
	executor *delivery.Executor,
	contactsSvc *contacts.Service,
	settingsSvc *settings.Service,
	deliveryCfg config.DeliveryConfig,
	resolverCfg config.ResolverConfig,
	newResolver ResolverFactory,
) *Handlers {
	return &Handlers{
		executor:    executor,
		contacts:    contactsSvc,
		settings:    settingsSvc,
		delivery:    deliveryCfg,
		resolverCfg: resolverCfg,
		newResolver: newResolver,
	}
}

// SetSenderDiscoverer wires an optional transport-backed sender lookup.
func (h *Handlers) SetSenderDiscoverer(d delivery.SenderDiscoverer) {
	h.discoverer = d
}

// requestConfig is the effective configuration for one request: request
// overrides layered over the caller's stored settings layered over process
// configuration. It is materialized once per request.
type requestConfig struct {
	resolver   *resolver.Service
	pipeline   *resolution.Pipeline
	sender     string
	senderName string
}

// materialize merges the three configuration layers for this request and
// builds the resolver and pipeline against the merged API keys. The
// senderOverride comes from the request body and wins over everything.
func (h *Handlers) materialize(r *http.Request, senderOverride string) (*requestConfig, error) {
	overrides := map[string]string{"SENDER_EMAIL": senderOverride}
	eff, err := h.settings.Effective(r.Context(), ownerFrom(r), overrides)
	if err != nil {
		return nil, err
	}

	rcfg := h.resolverCfg
	if k := eff["BING_API_KEY"]; k != "" {
		rcfg.WebSearchKey = k
	}
	if k := eff["PEOPLE_API_KEY"]; k != "" {
		rcfg.PeopleKey = k
	}
	resolverSvc := h.newResolver(rcfg)

	return &requestConfig{
		resolver:   resolverSvc,
		pipeline:   resolution.NewPipeline(h.contacts, resolverSvc, rcfg.MaxResults),
		sender:     eff["SENDER_EMAIL"],
		senderName: eff["SENDER_NAME"],
	}, nil
}

// HealthCheck responds to health checks.
//
//	GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ownerFrom extracts the owner scope from the request. Empty means the
// deployment-wide scope, which is the norm for single-user installs.
func ownerFrom(r *http.Request) string {
	return r.Header.Get("X-Owner-ID")
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
