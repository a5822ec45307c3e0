// Package domain defines the core persistent entities, lifecycle rules, and
// rule evaluation primitives used by navisolcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProject identifies a boat-building project record.
	EntityProject EntityType = "project"
	// EntityBoatModelVersion identifies a published boat model version.
	EntityBoatModelVersion EntityType = "boat_model_version"
	// EntityCatalogVersion identifies a published equipment catalog version.
	EntityCatalogVersion EntityType = "catalog_version"
	// EntityTemplateVersion identifies a document template version.
	EntityTemplateVersion EntityType = "template_version"
	// EntityProcedureVersion identifies a build procedure version.
	EntityProcedureVersion EntityType = "procedure_version"
)

// ProjectType distinguishes the commercial nature of a project.
type ProjectType string

// Canonical project types.
const (
	TypeNewBuild    ProjectType = "NEW_BUILD"
	TypeRefit       ProjectType = "REFIT"
	TypeMaintenance ProjectType = "MAINTENANCE"
)

// SnapshotTrigger records why a configuration snapshot was taken.
type SnapshotTrigger string

// Snapshot triggers.
const (
	TriggerOrderConfirmed SnapshotTrigger = "ORDER_CONFIRMED"
	TriggerAmendment      SnapshotTrigger = "AMENDMENT"
	TriggerManual         SnapshotTrigger = "MANUAL"
)

// BOMStatus describes whether a bill-of-materials snapshot is the contractual
// baseline or a post-amendment revision.
type BOMStatus string

// BOM snapshot statuses.
const (
	BOMBaseline BOMStatus = "BASELINE"
	BOMRevised  BOMStatus = "REVISED"
)

// AmendmentType classifies a post-freeze change.
type AmendmentType string

// Amendment types.
const (
	AmendEquipmentAdd        AmendmentType = "EQUIPMENT_ADD"
	AmendEquipmentRemove     AmendmentType = "EQUIPMENT_REMOVE"
	AmendEquipmentChange     AmendmentType = "EQUIPMENT_CHANGE"
	AmendScopeChange         AmendmentType = "SCOPE_CHANGE"
	AmendPriceAdjustment     AmendmentType = "PRICE_ADJUSTMENT"
	AmendSpecificationChange AmendmentType = "SPECIFICATION_CHANGE"
)

// DocumentStatus tracks draft/final state of generated project documents.
type DocumentStatus string

// Document statuses.
const (
	DocumentDraft DocumentStatus = "DRAFT"
	DocumentFinal DocumentStatus = "FINAL"
)

// StageStatus tracks progress of a production pipeline stage.
type StageStatus string

// Production stage statuses.
const (
	StagePending    StageStatus = "PENDING"
	StageInProgress StageStatus = "IN_PROGRESS"
	StageCompleted  StageStatus = "COMPLETED"
)

// Base contains common fields for all domain records. Version is incremented
// by the store on every update; stale-write resolution is left to the
// persistence adapter.
type Base struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigurationItem is one equipment line of the working configuration. Line
// totals arrive computed from the pricing collaborator and are never
// recomputed here.
type ConfigurationItem struct {
	ArticleCode      string  `json:"article_code"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	UnitPriceExclVat float64 `json:"unit_price_excl_vat"`
	LineTotalExclVat float64 `json:"line_total_excl_vat"`
	IsEstimated      bool    `json:"is_estimated"`
	Included         bool    `json:"included"`
}

// ProjectConfiguration is the current working equipment list with computed
// pricing totals. While IsFrozen is true nothing may mutate Items or any
// derived pricing field outside the amendment path.
type ProjectConfiguration struct {
	BoatModelVersionID string              `json:"boat_model_version_id"`
	CatalogVersionID   string              `json:"catalog_version_id"`
	Items              []ConfigurationItem `json:"items"`
	SubtotalExclVat    float64             `json:"subtotal_excl_vat"`
	VatRate            float64             `json:"vat_rate"`
	VatAmount          float64             `json:"vat_amount"`
	TotalInclVat       float64             `json:"total_incl_vat"`
	IsFrozen           bool                `json:"is_frozen"`
	FrozenAt           *time.Time          `json:"frozen_at"`
	FrozenBy           string              `json:"frozen_by,omitempty"`
}

// ConfigurationSnapshot is an immutable copy of a ProjectConfiguration at a
// point in time. Created exactly once, read-only thereafter.
type ConfigurationSnapshot struct {
	ID            string               `json:"id"`
	Sequence      int                  `json:"sequence"`
	Trigger       SnapshotTrigger      `json:"trigger"`
	TakenAt       time.Time            `json:"taken_at"`
	TakenBy       string               `json:"taken_by,omitempty"`
	Configuration ProjectConfiguration `json:"configuration"`
}

// QuoteLine is one priced line of a quote.
type QuoteLine struct {
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	UnitPriceExclVat float64 `json:"unit_price_excl_vat"`
	LineTotalExclVat float64 `json:"line_total_excl_vat"`
}

// ProjectQuote is a versioned quote document. Once status leaves DRAFT the
// lines and totals never change; revisions create a new quote with an
// incremented version and a fresh quote number.
type ProjectQuote struct {
	ID              string      `json:"id"`
	QuoteNumber     string      `json:"quote_number"`
	Revision        int         `json:"revision"`
	Status          QuoteStatus `json:"status"`
	Lines           []QuoteLine `json:"lines"`
	SubtotalExclVat float64     `json:"subtotal_excl_vat"`
	VatRate         float64     `json:"vat_rate"`
	VatAmount       float64     `json:"vat_amount"`
	TotalInclVat    float64     `json:"total_incl_vat"`
	ValidUntil      time.Time   `json:"valid_until"`
	PaymentTerms    string      `json:"payment_terms"`
	DeliveryTerms   string      `json:"delivery_terms"`
	CreatedAt       time.Time   `json:"created_at"`
	SentAt          *time.Time  `json:"sent_at"`
	DecidedAt       *time.Time  `json:"decided_at"`
	Locked          bool        `json:"locked"`
}

// BOMItem is one line of a bill-of-materials baseline. Costs are copied
// verbatim from the source configuration snapshot.
type BOMItem struct {
	ArticleCode      string  `json:"article_code"`
	Description      string  `json:"description"`
	Quantity         float64 `json:"quantity"`
	UnitCostExclVat  float64 `json:"unit_cost_excl_vat"`
	LineTotalExclVat float64 `json:"line_total_excl_vat"`
	IsEstimated      bool    `json:"is_estimated"`
}

// BOMSnapshot is an immutable bill-of-materials baseline derived from exactly
// one ConfigurationSnapshot, referenced by id.
type BOMSnapshot struct {
	ID                  string    `json:"id"`
	ConfigSnapshotID    string    `json:"config_snapshot_id"`
	Sequence            int       `json:"sequence"`
	Status              BOMStatus `json:"status"`
	GeneratedAt         time.Time `json:"generated_at"`
	Items               []BOMItem `json:"items"`
	TotalCostExclVat    float64   `json:"total_cost_excl_vat"`
	EstimatedCostTotal  float64   `json:"estimated_cost_total"`
	ActualCostTotal     float64   `json:"actual_cost_total"`
	CostEstimationRatio float64   `json:"cost_estimation_ratio"`
}

// ProjectAmendment records a post-freeze change against a frozen baseline.
// Before and after snapshot ids always differ; approval metadata is required.
type ProjectAmendment struct {
	ID                 string        `json:"id"`
	Type               AmendmentType `json:"type"`
	Reason             string        `json:"reason"`
	BeforeSnapshotID   string        `json:"before_snapshot_id"`
	AfterSnapshotID    string        `json:"after_snapshot_id"`
	PriceImpactExclVat float64       `json:"price_impact_excl_vat"`
	ApprovedBy         string        `json:"approved_by"`
	ApprovedAt         time.Time     `json:"approved_at"`
	CreatedAt          time.Time     `json:"created_at"`
}

// LibraryPins records the library versions referenced at order confirmation.
// Once pinned these ids are never re-resolved to "latest".
type LibraryPins struct {
	BoatModelVersionID  string    `json:"boat_model_version_id"`
	CatalogVersionID    string    `json:"catalog_version_id"`
	TemplateVersionIDs  []string  `json:"template_version_ids"`
	ProcedureVersionIDs []string  `json:"procedure_version_ids"`
	PinnedAt            time.Time `json:"pinned_at"`
}

// ProductionStage is one stage of the fixed build pipeline seeded at the
// IN_PRODUCTION milestone.
type ProductionStage struct {
	Code     string      `json:"code"`
	Name     string      `json:"name"`
	Sequence int         `json:"sequence"`
	Status   StageStatus `json:"status"`
}

// ProjectDocument references a generated document stored in the blob vault.
type ProjectDocument struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	BlobKey     string         `json:"blob_key"`
	Status      DocumentStatus `json:"status"`
	FinalizedAt *time.Time     `json:"finalized_at"`
}

// Project is the aggregate root. Exactly one configuration is live at a time;
// every other configuration state lives in ConfigurationSnapshots and is
// never mutated after creation.
type Project struct {
	Base
	Code                   string                    `json:"code"`
	Name                   string                    `json:"name"`
	Customer               string                    `json:"customer"`
	Type                   ProjectType               `json:"type"`
	Status                 ProjectStatus             `json:"status"`
	Configuration          ProjectConfiguration      `json:"configuration"`
	ConfigurationSnapshots []ConfigurationSnapshot   `json:"configuration_snapshots"`
	Quotes                 []ProjectQuote            `json:"quotes"`
	BOMSnapshots           []BOMSnapshot             `json:"bom_snapshots"`
	Amendments             []ProjectAmendment        `json:"amendments"`
	Certifications         []ComplianceCertification `json:"certifications,omitempty"`
	LibraryPins            *LibraryPins              `json:"library_pins"`
	TemplateVersionIDs     []string                  `json:"template_version_ids"`
	ProcedureVersionIDs    []string                  `json:"procedure_version_ids"`
	ProductionStages       []ProductionStage         `json:"production_stages"`
	Documents              []ProjectDocument         `json:"documents"`
}

// FindConfigurationSnapshot returns the snapshot with the given id.
func (p Project) FindConfigurationSnapshot(id string) (ConfigurationSnapshot, bool) {
	for _, s := range p.ConfigurationSnapshots {
		if s.ID == id {
			return s, true
		}
	}
	return ConfigurationSnapshot{}, false
}

// FindQuote returns the quote with the given id.
func (p Project) FindQuote(id string) (ProjectQuote, bool) {
	for _, q := range p.Quotes {
		if q.ID == id {
			return q, true
		}
	}
	return ProjectQuote{}, false
}

// FindBOMSnapshot returns the BOM snapshot with the given id.
func (p Project) FindBOMSnapshot(id string) (BOMSnapshot, bool) {
	for _, b := range p.BOMSnapshots {
		if b.ID == id {
			return b, true
		}
	}
	return BOMSnapshot{}, false
}

// FindCertification returns the certification pack with the given id.
func (p Project) FindCertification(id string) (ComplianceCertification, bool) {
	for _, c := range p.Certifications {
		if c.ID == id {
			return c, true
		}
	}
	return ComplianceCertification{}, false
}

// BoatModelVersion is a published boat model revision from the model library.
type BoatModelVersion struct {
	Base
	ModelCode string `json:"model_code"`
	Name      string `json:"name"`
	Revision  string `json:"revision"`
}

// CatalogVersion is a published equipment catalog revision.
type CatalogVersion struct {
	Base
	Label       string    `json:"label"`
	PublishedAt time.Time `json:"published_at"`
}

// TemplateVersion is a document template revision.
type TemplateVersion struct {
	Base
	TemplateCode string `json:"template_code"`
	Revision     string `json:"revision"`
}

// ProcedureVersion is a build procedure revision.
type ProcedureVersion struct {
	Base
	ProcedureCode string `json:"procedure_code"`
	Revision      string `json:"revision"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)
