package projectapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"navisolcore/internal/core"
	"navisolcore/internal/infra/persistence/memory"
	"navisolcore/internal/vault"
	"navisolcore/pkg/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store := memory.NewStore(core.NewDefaultRulesEngine())
	audit := core.NewAuditLog()
	store.Observe(audit.Record)
	return &Handler{
		Service: core.NewService(store),
		Vault:   vault.NewMemory(),
		Audit:   audit,
	}
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	out := map[string]json.RawMessage{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func createProjectViaAPI(t *testing.T, h *Handler) domain.Project {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":     "Hull 17",
		"customer": "Vandermeer",
		"configuration": map[string]any{
			"items": []map[string]any{
				{"article_code": "ENG-75", "description": "Engine", "quantity": 1, "unit_price_excl_vat": 100, "line_total_excl_vat": 100, "included": true},
				{"article_code": "WIN-01", "description": "Winches", "quantity": 2, "unit_price_excl_vat": 100, "line_total_excl_vat": 200, "included": true},
			},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Project domain.Project `json:"project"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return payload.Project
}

func transitionViaAPI(t *testing.T, h *Handler, id string, to domain.ProjectStatus) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+id+"/transition",
		map[string]any{"to": to, "actor": "tester", "confirmed": true})
	if rec.Code != http.StatusOK {
		t.Fatalf("transition to %s: %d %s", to, rec.Code, rec.Body.String())
	}
}

func TestProjectCRUDOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)
	if p.Status != domain.StatusDraft || p.Code == "" {
		t.Fatalf("unexpected project: %+v", p)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/projects/"+p.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), p.ID) {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing project: %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/projects/"+p.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body.String())
	}
}

func TestInvalidTransitionReturns422(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+p.ID+"/transition",
		map[string]any{"to": domain.StatusDelivered, "confirmed": true})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	body := decodeResponse(t, rec)
	if _, ok := body["report"]; !ok {
		t.Fatalf("response must carry the transition report: %s", rec.Body.String())
	}
}

func TestMilestoneWithoutConfirmationReturns409(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)
	transitionViaAPI(t, h, p.ID, domain.StatusQuoted)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+p.ID+"/transition",
		map[string]any{"to": domain.StatusOfferSent, "confirmed": false})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestRuleViolationReturns409WithViolations(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/library/boat-models",
		map[string]any{"model_code": "NS-42", "name": "Navisol 42"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create model: %d %s", rec.Code, rec.Body.String())
	}
	var modelPayload struct {
		BoatModel domain.BoatModelVersion `json:"boat_model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &modelPayload); err != nil {
		t.Fatalf("decode: %v", err)
	}

	p := createProjectViaAPI(t, h)
	rec = doJSON(t, h, http.MethodPut, "/api/v1/projects/"+p.ID+"/configuration",
		map[string]any{"boat_model_version_id": modelPayload.BoatModel.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign model: %d %s", rec.Code, rec.Body.String())
	}

	// Swapping the assigned model trips the blocking immutability rule.
	rec = doJSON(t, h, http.MethodPut, "/api/v1/projects/"+p.ID+"/configuration",
		map[string]any{"boat_model_version_id": "some-other-model"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if _, ok := body["violations"]; !ok {
		t.Fatalf("response must carry violations: %s", rec.Body.String())
	}
}

func TestQuoteFlowOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+p.ID+"/quotes", map[string]any{
		"lines": []map[string]any{
			{"description": "Hull kit", "quantity": 1, "unit_price_excl_vat": 100, "line_total_excl_vat": 100},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quote: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Quote domain.ProjectQuote `json:"quote"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	quoteID := payload.Quote.ID

	for _, action := range []string{"send", "accept"} {
		rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/v1/projects/%s/quotes/%s/%s", p.ID, quoteID, action), nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", action, rec.Code, rec.Body.String())
		}
	}
	// Accepted quotes cannot be rejected.
	rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/v1/projects/%s/quotes/%s/reject", p.ID, quoteID), nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("reject accepted: %d, want 422", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/"+p.ID+"/quotes", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ACCEPTED") {
		t.Fatalf("list quotes: %d %s", rec.Code, rec.Body.String())
	}
}

func TestBOMExportCSV(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)
	for _, to := range []domain.ProjectStatus{domain.StatusQuoted, domain.StatusOfferSent, domain.StatusOrderConfirmed} {
		transitionViaAPI(t, h, p.ID, to)
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/projects/"+p.ID+"/bom", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list bom: %d", rec.Code)
	}
	var listPayload struct {
		BOMSnapshots []domain.BOMSnapshot `json:"bom_snapshots"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listPayload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listPayload.BOMSnapshots) != 1 {
		t.Fatalf("expected one BOM snapshot, got %d", len(listPayload.BOMSnapshots))
	}
	bomID := listPayload.BOMSnapshots[0].ID

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/projects/%s/bom/%s/export", p.ID, bomID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".csv") {
		t.Fatalf("content disposition = %q", cd)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "article_code,description,quantity,unit_cost_excl_vat,line_total_excl_vat,estimated") {
		t.Fatalf("unexpected header: %q", body)
	}
	if !strings.Contains(body, "ENG-75") || !strings.Contains(body, "TOTAL") {
		t.Fatalf("unexpected csv body: %q", body)
	}
}

func TestAmendmentOverHTTP(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)
	for _, to := range []domain.ProjectStatus{domain.StatusQuoted, domain.StatusOfferSent, domain.StatusOrderConfirmed} {
		transitionViaAPI(t, h, p.ID, to)
	}

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+p.ID+"/amendments", map[string]any{
		"type":        domain.AmendEquipmentAdd,
		"reason":      "owner requested bow thruster",
		"approved_by": "pm",
		"items": []map[string]any{
			{"article_code": "BT-12", "description": "Bow thruster", "quantity": 1, "unit_price_excl_vat": 400, "line_total_excl_vat": 400, "included": true},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("amendment: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/projects/"+p.ID+"/amendments", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bow thruster") {
		t.Fatalf("list amendments: %d %s", rec.Code, rec.Body.String())
	}
}

func TestDocumentUploadStoresInVault(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+p.ID+"/documents?name=handover.pdf",
		strings.NewReader("pdf bytes"))
	req.Header.Set("Content-Type", "application/pdf")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Project domain.Project `json:"project"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Project.Documents) != 1 || payload.Project.Documents[0].Status != domain.DocumentDraft {
		t.Fatalf("document not attached: %+v", payload.Project.Documents)
	}

	// Same name again collides on the write-once vault key.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+p.ID+"/documents?name=handover.pdf",
		strings.NewReader("other"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate upload: %d, want 400", rec.Code)
	}
}

func TestAuditEndpoint(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)
	transitionViaAPI(t, h, p.ID, domain.StatusQuoted)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/audit?entity_id="+p.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: %d", rec.Code)
	}
	var payload struct {
		Entries []core.AuditEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Entries) != 2 {
		t.Fatalf("expected create + update entries, got %d", len(payload.Entries))
	}
}

func TestCertificationEndpoints(t *testing.T) {
	h := newTestHandler(t)
	p := createProjectViaAPI(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/projects/"+p.ID+"/certifications", map[string]any{
		"name": "CE Recreational Craft",
		"chapters": []map[string]any{{
			"code":  "A.3",
			"title": "Structure",
			"checklist": []map[string]any{
				{"requirement": "Hull scantlings verified", "mandatory": true},
			},
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add certification: %d %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Certification domain.ComplianceCertification `json:"certification"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	cert := payload.Certification

	rec = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/v1/projects/%s/certifications/%s/items", p.ID, cert.ID), map[string]any{
			"chapter_id": cert.Chapters[0].ID,
			"item_id":    cert.Chapters[0].Checklist[0].ID,
			"status":     domain.ChecklistPassed,
		})
	if rec.Code != http.StatusOK {
		t.Fatalf("update item: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet,
		fmt.Sprintf("/api/v1/projects/%s/certifications/%s/stats", p.ID, cert.ID), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "\"percent_complete\":100") {
		t.Fatalf("stats: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost,
		fmt.Sprintf("/api/v1/projects/%s/certifications/%s/finalize", p.ID, cert.ID),
		map[string]any{"actor": "inspector"})
	if rec.Code != http.StatusOK {
		t.Fatalf("finalize: %d %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	if _, ok := body["validation"]; !ok {
		t.Fatalf("finalize must return the advisory validation: %s", rec.Body.String())
	}
}
