package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pathlight/mailbroker/internal/domain"
	"github.com/pathlight/mailbroker/internal/pkg/logger"
	"github.com/pathlight/mailbroker/internal/resolver"
	"github.com/pathlight/mailbroker/internal/service/delivery"
	"github.com/pathlight/mailbroker/internal/service/resolution"
)

// SendEmailRequest is the body of POST /api/email/send.
type SendEmailRequest struct {
	// To is a raw address, "Name <addr>", a contact name, or natural
	// language like "send hi to Abel".
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    bool   `json:"html"`
	// Confirm lets externally resolved candidates be used without a
	// second round trip after a 409.
	Confirm bool `json:"confirm"`
	// SenderEmail overrides the configured sender for this request.
	SenderEmail string `json:"sender_email"`
}

// SendEmailResponse is the success body of POST /api/email/send.
type SendEmailResponse struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Results []domain.DeliveryOutcome `json:"results"`
	// PersistedContacts counts resolved addresses written back to the
	// contact store after a successful send.
	PersistedContacts int `json:"persisted_contacts"`
}

// SendEmail resolves the recipient and fans the message out.
//
//	POST /api/email/send
func (h *Handlers) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req SendEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.To) == "" {
		respondError(w, http.StatusBadRequest, "to is required")
		return
	}

	ctx := r.Context()
	owner := ownerFrom(r)

	rc, err := h.materialize(r, strings.TrimSpace(req.SenderEmail))
	if err != nil {
		logger.Error("settings lookup failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "settings lookup failed")
		return
	}
	sender := h.senderAddress(r, rc)

	res, err := rc.pipeline.Resolve(ctx, resolution.Input{
		To:      req.To,
		Confirm: req.Confirm,
		Sender:  sender,
		Owner:   owner,
	})
	if err != nil {
		h.respondResolutionError(w, err)
		return
	}

	fromName := rc.senderName
	if fromName == "" {
		fromName = h.delivery.FromName
	}
	outcomes := h.executor.SendAll(ctx, delivery.Message{
		From:     sender,
		FromName: fromName,
		Subject:  req.Subject,
		Body:     req.Body,
		HTML:     req.HTML,
	}, res.Emails())

	persisted := h.contacts.PersistSuccessful(ctx, owner, res.Query, res.Targets, outcomes)

	respondJSON(w, http.StatusOK, SendEmailResponse{
		Success:           domain.AllSucceeded(outcomes),
		Message:           "email send results",
		Results:           outcomes,
		PersistedContacts: persisted,
	})
}

// respondResolutionError maps pipeline failures to HTTP statuses.
func (h *Handlers) respondResolutionError(w http.ResponseWriter, err error) {
	var confirmErr *resolution.ConfirmationError
	var notFound *resolution.NotFoundError

	switch {
	case errors.Is(err, resolution.ErrInvalidRecipient):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &confirmErr):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"message":    "Address not found in contacts. Resolver found candidate addresses. Set confirm=true to proceed.",
			"candidates": confirmErr.Candidates,
		})
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, resolver.ErrNotConfigured):
		respondJSON(w, http.StatusFailedDependency, map[string]string{
			"error":        err.Error(),
			"instructions": resolver.SetupInstructions,
		})
	case errors.Is(err, resolver.ErrUnavailable):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("recipient resolution failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "contact resolution failed")
	}
}

// senderAddress picks the sender for a request: the merged request, stored
// and process value, then the static delivery config, then the transport's
// own identity when it can report one.
func (h *Handlers) senderAddress(r *http.Request, rc *requestConfig) string {
	if rc.sender != "" {
		return rc.sender
	}
	if h.delivery.FromEmail != "" {
		return h.delivery.FromEmail
	}
	if h.discoverer != nil {
		addr, err := h.discoverer.SenderAddress(r.Context())
		if err != nil {
			logger.Debug("sender discovery failed", "error", err.Error())
			return ""
		}
		return addr
	}
	return ""
}

// FinderStatus reports which external lookup sources are usable for the
// calling owner, stored API keys included.
//
//	GET /api/email/finder-status
func (h *Handlers) FinderStatus(w http.ResponseWriter, r *http.Request) {
	rc, err := h.materialize(r, "")
	if err != nil {
		logger.Error("settings lookup failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "settings lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, rc.resolver.Status())
}
