package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/marketd/internal/access"
	"github.com/dukerupert/marketd/internal/auth"
	"github.com/dukerupert/marketd/internal/model"
	"github.com/dukerupert/marketd/internal/pricing"
	"github.com/dukerupert/marketd/internal/project"
	"github.com/dukerupert/marketd/internal/store"
)

type ProjectHandler struct {
	svc       *project.Service
	projects  *store.ProjectStore
	purchases *store.PurchaseStore
	logger    *slog.Logger
}

func NewProjectHandler(svc *project.Service, projects *store.ProjectStore, purchases *store.PurchaseStore, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, projects: projects, purchases: purchases, logger: logger}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// listing is the buyer-facing view: repository URLs stripped, price
// breakdown included.
type listing struct {
	*model.Project
	Repository *struct{}          `json:"repository,omitempty"`
	Breakdown  *pricing.Breakdown `json:"breakdown,omitempty"`
}

func toListing(p *model.Project) listing {
	l := listing{Project: p}
	if p.License.Type != model.LicenseFree {
		if b, err := pricing.ComputeBreakdown(p.License.SellerPriceCents, p.License.FeePct); err == nil {
			l.Breakdown = &b
		}
	}
	return l
}

// Create saves a new draft for the authenticated user.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	created, err := h.svc.SaveDraft(auth.UserID(r.Context()), &p)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get returns a project. The author sees everything; everyone else sees a
// sanitized listing, and drafts are invisible to them.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	p, err := h.svc.Get(id)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "project_not_found"})
		return
	}

	if auth.UserID(r.Context()) == p.AuthorID {
		writeJSON(w, http.StatusOK, p)
		return
	}
	if p.Status == model.StatusDraft {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "project_not_found"})
		return
	}
	writeJSON(w, http.StatusOK, toListing(p))
}

// List returns all published projects as sanitized listings.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	published, err := h.projects.ListPublished()
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	listings := make([]listing, 0, len(published))
	for _, p := range published {
		listings = append(listings, toListing(p))
	}
	writeJSON(w, http.StatusOK, listings)
}

// Mine returns the authenticated user's own projects, drafts included.
func (h *ProjectHandler) Mine(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListByAuthor(auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if projects == nil {
		projects = []*model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

// Update rewrites listing fields and the license.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	var p model.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}
	p.ID = id

	updated, err := h.svc.Update(auth.UserID(r.Context()), &p)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Publish moves a draft to published after license validation.
func (h *ProjectHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	published, err := h.svc.Publish(r.Context(), auth.UserID(r.Context()), id)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, published)
}

// Archive takes a project off the market.
func (h *ProjectHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	if err := h.svc.Archive(auth.UserID(r.Context()), id); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a draft.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	if err := h.svc.Delete(auth.UserID(r.Context()), id); err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type accessResponse struct {
	Granted    bool   `json:"granted"`
	GrantedURL string `json:"granted_url,omitempty"`
	Tier       string `json:"tier,omitempty"`
}

// Access answers whether the caller may view the project's repository
// content, and at which tier. Runs under optional auth so anonymous
// callers get a clean denial instead of a 401.
func (h *ProjectHandler) Access(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request"})
		return
	}

	p, err := h.svc.Get(id)
	if err != nil {
		writeEngineError(w, h.logger, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "project_not_found"})
		return
	}

	principalID := auth.UserID(r.Context())
	var purchase *model.Purchase
	if principalID != 0 {
		purchase, err = h.purchases.GetActive(p.ID, principalID)
		if err != nil {
			writeEngineError(w, h.logger, err)
			return
		}
	}

	d := access.Resolve(principalID, p, purchase)
	writeJSON(w, http.StatusOK, accessResponse{
		Granted:    d.Granted,
		GrantedURL: access.GrantedURL(d, p),
		Tier:       d.URL,
	})
}
