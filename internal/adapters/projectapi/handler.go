// Package projectapi exposes the project lifecycle service over HTTP.
// Routing follows a plain path switch under /api/v1; payloads are JSON with
// a uniform {"error": ...} shape on failure.
package projectapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"navisolcore/internal/core"
	"navisolcore/internal/vault"
	"navisolcore/pkg/domain"
)

// Handler provides HTTP access to projects, quotes, amendments, compliance
// packs, and the library registries. Vault and Audit are optional; their
// endpoints 404 when unset.
type Handler struct {
	Service *core.Service
	Vault   vault.Store
	Audit   *core.AuditLog
}

// NewHandler constructs a project HTTP handler.
func NewHandler(service *core.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		writeError(w, http.StatusInternalServerError, "project service not configured")
		return
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/projects":
		h.handleProjects(w, r)
	case strings.HasPrefix(path, "/api/v1/projects/"):
		h.handleProject(w, r, strings.TrimPrefix(path, "/api/v1/projects/"))
	case strings.HasPrefix(path, "/api/v1/library/"):
		h.handleLibrary(w, r, strings.TrimPrefix(path, "/api/v1/library/"))
	case path == "/api/v1/audit":
		h.handleAudit(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"projects": h.Service.ListProjects()})
	case http.MethodPost:
		var p domain.Project
		if err := decodeBody(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "invalid project payload")
			return
		}
		created, res, err := h.Service.CreateProject(r.Context(), p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"project": created, "violations": res.Violations})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleProject(w http.ResponseWriter, r *http.Request, remainder string) {
	segments := strings.Split(remainder, "/")
	id := segments[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}
	if len(segments) == 1 {
		switch r.Method {
		case http.MethodGet:
			p, ok := h.Service.GetProject(id)
			if !ok {
				writeError(w, http.StatusNotFound, "project not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"project": p})
		case http.MethodDelete:
			if _, err := h.Service.DeleteProject(r.Context(), id); err != nil {
				writeServiceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	switch segments[1] {
	case "transition":
		h.handleTransition(w, r, id, segments[2:])
	case "configuration":
		h.handleConfiguration(w, r, id)
	case "snapshots":
		h.handleSnapshots(w, r, id)
	case "quotes":
		h.handleQuotes(w, r, id, segments[2:])
	case "amendments":
		h.handleAmendments(w, r, id)
	case "certifications":
		h.handleCertifications(w, r, id, segments[2:])
	case "bom":
		h.handleBOM(w, r, id, segments[2:])
	case "stages":
		h.handleStages(w, r, id, segments[2:])
	case "documents":
		h.handleDocuments(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

type transitionRequest struct {
	To        domain.ProjectStatus `json:"to"`
	Actor     string               `json:"actor"`
	Confirmed bool                 `json:"confirmed"`
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	if len(rest) == 1 && rest[0] == "preview" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		to := domain.ProjectStatus(r.URL.Query().Get("to"))
		report, err := h.Service.PreviewTransition(id, to)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"report": report})
		return
	}
	if len(rest) != 0 {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid transition payload")
		return
	}
	p, res, err := h.Service.TransitionStatus(r.Context(), id, req.To, req.Actor, req.Confirmed)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p, "violations": res.Violations})
}

type configurationRequest struct {
	BoatModelVersionID string                     `json:"boat_model_version_id"`
	CatalogVersionID   string                     `json:"catalog_version_id"`
	Items              []domain.ConfigurationItem `json:"items"`
}

func (h *Handler) handleConfiguration(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req configurationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid configuration payload")
		return
	}
	p, res, err := h.Service.UpdateConfiguration(r.Context(), id, func(cfg *domain.ProjectConfiguration) error {
		if req.BoatModelVersionID != "" {
			cfg.BoatModelVersionID = req.BoatModelVersionID
		}
		if req.CatalogVersionID != "" {
			cfg.CatalogVersionID = req.CatalogVersionID
		}
		cfg.Items = req.Items
		return nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p, "violations": res.Violations})
}

func (h *Handler) handleSnapshots(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		p, ok := h.Service.GetProject(id)
		if !ok {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"snapshots": p.ConfigurationSnapshots})
	case http.MethodPost:
		var req struct {
			Actor string `json:"actor"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot payload")
			return
		}
		snapshot, _, err := h.Service.SnapshotConfiguration(r.Context(), id, req.Actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"snapshot": snapshot})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleQuotes(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			quotes, err := h.Service.ListQuotes(id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"quotes": quotes})
		case http.MethodPost:
			var in domain.QuoteInput
			if err := decodeBody(r, &in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid quote payload")
				return
			}
			quote, _, err := h.Service.CreateDraftQuote(r.Context(), id, in)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"quote": quote})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	if len(rest) != 2 || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	quoteID, action := rest[0], rest[1]
	var (
		quote domain.ProjectQuote
		err   error
	)
	switch action {
	case "send":
		quote, _, err = h.Service.SendQuote(r.Context(), id, quoteID)
	case "accept":
		quote, _, err = h.Service.AcceptQuote(r.Context(), id, quoteID)
	case "reject":
		quote, _, err = h.Service.RejectQuote(r.Context(), id, quoteID)
	case "revise":
		var in domain.QuoteInput
		if decodeErr := decodeBody(r, &in); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid quote payload")
			return
		}
		quote, _, err = h.Service.ReviseQuote(r.Context(), id, quoteID, in)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": quote})
}

type amendmentRequest struct {
	Type               domain.AmendmentType       `json:"type"`
	Reason             string                     `json:"reason"`
	ApprovedBy         string                     `json:"approved_by"`
	PriceImpactExclVat float64                    `json:"price_impact_excl_vat"`
	Items              []domain.ConfigurationItem `json:"items"`
}

func (h *Handler) handleAmendments(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		amendments, err := h.Service.ListAmendments(id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"amendments": amendments})
	case http.MethodPost:
		var req amendmentRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid amendment payload")
			return
		}
		in := domain.AmendmentInput{
			Type:               req.Type,
			Reason:             req.Reason,
			ApprovedBy:         req.ApprovedBy,
			PriceImpactExclVat: req.PriceImpactExclVat,
		}
		amendment, _, err := h.Service.CreateAmendment(r.Context(), id, in, func(cfg *domain.ProjectConfiguration) error {
			cfg.Items = req.Items
			return nil
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"amendment": amendment})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type checklistItemRequest struct {
	ChapterID   string                 `json:"chapter_id"`
	SectionID   string                 `json:"section_id"`
	ItemID      string                 `json:"item_id"`
	Status      domain.ChecklistStatus `json:"status"`
	NaReason    string                 `json:"na_reason"`
	EvidenceKey string                 `json:"evidence_key"`
}

type finalizeRequest struct {
	ChapterID string `json:"chapter_id"`
	SectionID string `json:"section_id"`
	Actor     string `json:"actor"`
}

func (h *Handler) handleCertifications(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	if len(rest) == 0 {
		switch r.Method {
		case http.MethodGet:
			p, ok := h.Service.GetProject(id)
			if !ok {
				writeError(w, http.StatusNotFound, "project not found")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"certifications": p.Certifications})
		case http.MethodPost:
			var cert domain.ComplianceCertification
			if err := decodeBody(r, &cert); err != nil {
				writeError(w, http.StatusBadRequest, "invalid certification payload")
				return
			}
			created, _, err := h.Service.AddCertification(r.Context(), id, cert)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"certification": created})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}
	if len(rest) != 2 {
		http.NotFound(w, r)
		return
	}
	certID, action := rest[0], rest[1]
	switch action {
	case "items":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req checklistItemRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid checklist payload")
			return
		}
		cert, _, err := h.Service.UpdateChecklistItem(r.Context(), id, certID, req.ChapterID, req.SectionID, req.ItemID, req.Status, req.NaReason, req.EvidenceKey)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"certification": cert})
	case "validation":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		validation, err := h.Service.ValidateCertification(id, certID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"validation": validation})
	case "stats":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		stats, err := h.Service.CertificationStats(id, certID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
	case "finalize":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req finalizeRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid finalize payload")
			return
		}
		h.finalize(w, r, id, certID, req)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request, id, certID string, req finalizeRequest) {
	switch {
	case req.SectionID != "":
		cert, _, err := h.Service.FinalizeSection(r.Context(), id, certID, req.ChapterID, req.SectionID, req.Actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"certification": cert})
	case req.ChapterID != "":
		cert, _, err := h.Service.FinalizeChapter(r.Context(), id, certID, req.ChapterID, req.Actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"certification": cert})
	default:
		cert, validation, _, err := h.Service.FinalizeCertification(r.Context(), id, certID, req.Actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"certification": cert, "validation": validation})
	}
}

func (h *Handler) handleStages(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	if len(rest) != 1 || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Status domain.StageStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid stage payload")
		return
	}
	p, _, err := h.Service.SetProductionStageStatus(r.Context(), id, rest[0], req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project": p})
}

// handleDocuments stores an uploaded document in the vault and registers it
// on the project. The raw request body is the document content.
func (h *Handler) handleDocuments(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.Vault == nil {
		http.NotFound(w, r)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "document name required")
		return
	}
	key := vault.DocumentKey(id, name)
	info, err := h.Vault.Put(r.Context(), key, r.Body, vault.PutOptions{ContentType: r.Header.Get("Content-Type")})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, _, err := h.Service.AttachDocument(r.Context(), id, name, key)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project": p, "blob": info})
}

func (h *Handler) handleLibrary(w http.ResponseWriter, r *http.Request, remainder string) {
	switch remainder {
	case "boat-models":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"boat_models": h.Service.Store().ListBoatModelVersions()})
		case http.MethodPost:
			var v domain.BoatModelVersion
			if err := decodeBody(r, &v); err != nil {
				writeError(w, http.StatusBadRequest, "invalid boat model payload")
				return
			}
			created, _, err := h.Service.CreateBoatModelVersion(r.Context(), v)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"boat_model": created})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "catalogs":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"catalogs": h.Service.Store().ListCatalogVersions()})
		case http.MethodPost:
			var v domain.CatalogVersion
			if err := decodeBody(r, &v); err != nil {
				writeError(w, http.StatusBadRequest, "invalid catalog payload")
				return
			}
			created, _, err := h.Service.CreateCatalogVersion(r.Context(), v)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]any{"catalog": created})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleAudit(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if entityID := r.URL.Query().Get("entity_id"); entityID != "" {
		writeJSON(w, http.StatusOK, map[string]any{"entries": h.Audit.EntriesFor(entityID)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": h.Audit.Entries()})
}

func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && err.Error() != "EOF" {
		return err
	}
	return nil
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		invalid    core.InvalidTransitionError
		validation core.ValidationError
		ruleErr    domain.RuleViolationError
	)
	switch {
	case errors.Is(err, core.ErrProjectNotFound),
		errors.Is(err, core.ErrQuoteNotFound),
		errors.Is(err, core.ErrCertificationNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrConfirmationRequired):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ruleErr):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "violations": ruleErr.Result.Violations})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "report": invalid.Report})
	case errors.As(err, &validation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "errors": validation.Check.Errors})
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
