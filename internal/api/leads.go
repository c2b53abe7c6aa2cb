package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rump-sv/unfallhilfe/internal/domain"
)

// LeadLister reads the lead ledger.
type LeadLister interface {
	ListLeads(ctx context.Context, limit int) ([]*domain.Lead, error)
}

// LeadsHandler exposes the ledger to the office behind a static bearer token.
type LeadsHandler struct {
	repo  LeadLister
	token string
}

// NewLeadsHandler creates a leads handler. An empty token disables the route.
func NewLeadsHandler(repo LeadLister, token string) *LeadsHandler {
	return &LeadsHandler{repo: repo, token: token}
}

// RegisterRoutes registers GET /api/leads when a token is configured.
func (h *LeadsHandler) RegisterRoutes(r chi.Router) {
	if h.token == "" {
		slog.Info("Lead ledger endpoint disabled (ADMIN_TOKEN not set)")
		return
	}
	r.Get("/api/leads", h.HandleList)
}

// HandleList handles GET /api/leads?limit=N.
func (h *LeadsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="leads"`)
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	leads, err := h.repo.ListLeads(r.Context(), limit)
	if err != nil {
		slog.Error("Failed to list leads", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*domain.Lead{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"leads": leads})
}

func (h *LeadsHandler) authorized(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) == 1
}
