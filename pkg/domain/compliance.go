package domain

import "time"

// ComplianceScheme names the certification regime a pack targets.
type ComplianceScheme string

// Certification schemes.
const (
	SchemeCE     ComplianceScheme = "CE"
	SchemeESTrin ComplianceScheme = "ES_TRIN"
	SchemeLloyds ComplianceScheme = "LLOYDS"
	SchemeOther  ComplianceScheme = "OTHER"
)

// FinalizeStatus is the independent draft/final state carried by a
// certification, each of its chapters, and each section.
type FinalizeStatus string

// Finalize statuses.
const (
	FinalizeDraft FinalizeStatus = "DRAFT"
	FinalizeFinal FinalizeStatus = "FINAL"
)

// ChecklistStatus is the completion state of a single checklist item.
type ChecklistStatus string

// Checklist item statuses. NA requires a reason and counts as complete for
// mandatory coverage purposes.
const (
	ChecklistNotStarted ChecklistStatus = "NOT_STARTED"
	ChecklistInProgress ChecklistStatus = "IN_PROGRESS"
	ChecklistPassed     ChecklistStatus = "PASSED"
	ChecklistFailed     ChecklistStatus = "FAILED"
	ChecklistNA         ChecklistStatus = "NA"
)

// ComplianceChecklistItem is one verifiable requirement.
type ComplianceChecklistItem struct {
	ID          string          `json:"id"`
	Requirement string          `json:"requirement"`
	Mandatory   bool            `json:"mandatory"`
	Status      ChecklistStatus `json:"status"`
	NaReason    string          `json:"na_reason,omitempty"`
	EvidenceKey string          `json:"evidence_key,omitempty"`
}

// ComplianceSection groups checklist items below a chapter with its own
// draft/final state.
type ComplianceSection struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title"`
	Status      FinalizeStatus            `json:"status"`
	FinalizedAt *time.Time                `json:"finalized_at"`
	FinalizedBy string                    `json:"finalized_by,omitempty"`
	Checklist   []ComplianceChecklistItem `json:"checklist,omitempty"`
}

// ComplianceChapter is one chapter of a certification pack. A chapter cannot
// be edited once FINAL.
type ComplianceChapter struct {
	ID          string                    `json:"id"`
	Code        string                    `json:"code"`
	Title       string                    `json:"title"`
	Status      FinalizeStatus            `json:"status"`
	FinalizedAt *time.Time                `json:"finalized_at"`
	FinalizedBy string                    `json:"finalized_by,omitempty"`
	Checklist   []ComplianceChecklistItem `json:"checklist,omitempty"`
	Sections    []ComplianceSection       `json:"sections,omitempty"`
}

// ComplianceCertification is a named certification pack with an ordered list
// of chapters.
type ComplianceCertification struct {
	ID          string              `json:"id"`
	Scheme      ComplianceScheme    `json:"scheme"`
	Name        string              `json:"name"`
	Status      FinalizeStatus      `json:"status"`
	FinalizedAt *time.Time          `json:"finalized_at"`
	FinalizedBy string              `json:"finalized_by,omitempty"`
	Chapters    []ComplianceChapter `json:"chapters,omitempty"`
}

// FindChapter returns the chapter with the given id.
func (c ComplianceCertification) FindChapter(id string) (ComplianceChapter, bool) {
	for _, ch := range c.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return ComplianceChapter{}, false
}
