package domain

import (
	"fmt"
	"math"
)

// WarningLevel grades compliance validation findings.
type WarningLevel string

// Warning levels. Neither blocks finalization; certifying authorities make
// the final call on whether incomplete evidence is acceptable.
const (
	LevelError   WarningLevel = "ERROR"
	LevelWarning WarningLevel = "WARNING"
)

// ComplianceWarning is one advisory finding from checklist validation.
type ComplianceWarning struct {
	Level     WarningLevel `json:"level"`
	ChapterID string       `json:"chapter_id,omitempty"`
	SectionID string       `json:"section_id,omitempty"`
	ItemID    string       `json:"item_id,omitempty"`
	Message   string       `json:"message"`
}

// ChapterValidation reports checklist readiness for a single chapter,
// including its sections.
type ChapterValidation struct {
	ChapterID                string              `json:"chapter_id"`
	IsValid                  bool                `json:"is_valid"`
	Warnings                 []ComplianceWarning `json:"warnings,omitempty"`
	FailedMandatoryCount     int                 `json:"failed_mandatory_count"`
	IncompleteMandatoryCount int                 `json:"incomplete_mandatory_count"`
	TotalMandatory           int                 `json:"total_mandatory"`
}

// CertificationValidation aggregates chapter validation across a pack.
// CanFinalize is always true: validation is advisory, never blocking.
type CertificationValidation struct {
	IsValid                  bool                `json:"is_valid"`
	Warnings                 []ComplianceWarning `json:"warnings,omitempty"`
	ChapterResults           []ChapterValidation `json:"chapter_results"`
	FailedMandatoryCount     int                 `json:"failed_mandatory_count"`
	IncompleteMandatoryCount int                 `json:"incomplete_mandatory_count"`
	TotalMandatory           int                 `json:"total_mandatory"`
	CanFinalize              bool                `json:"can_finalize"`
	FinalizeSummary          string              `json:"finalize_summary"`
}

// ChecklistStats summarizes checklist completion. NA items are excluded from
// the completion denominator.
type ChecklistStats struct {
	TotalItems        int `json:"total_items"`
	PassedItems       int `json:"passed_items"`
	NaItems           int `json:"na_items"`
	MandatoryItems    int `json:"mandatory_items"`
	MandatoryComplete int `json:"mandatory_complete"`
	PercentComplete   int `json:"percent_complete"`
}

// walkChecklist is the single traversal shared by chapter- and
// certification-level validation and stats: any collection of items with a
// mandatory flag and a status feeds the same counters.
func walkChecklist(items []ComplianceChecklistItem, chapterID, sectionID string, v *ChapterValidation, s *ChecklistStats) {
	for _, item := range items {
		s.TotalItems++
		switch item.Status {
		case ChecklistPassed:
			s.PassedItems++
		case ChecklistNA:
			s.NaItems++
		}
		if !item.Mandatory {
			continue
		}
		s.MandatoryItems++
		v.TotalMandatory++
		switch item.Status {
		case ChecklistPassed, ChecklistNA:
			s.MandatoryComplete++
		case ChecklistFailed:
			v.FailedMandatoryCount++
			v.Warnings = append(v.Warnings, ComplianceWarning{
				Level:     LevelError,
				ChapterID: chapterID,
				SectionID: sectionID,
				ItemID:    item.ID,
				Message:   fmt.Sprintf("mandatory item %q failed", item.Requirement),
			})
		case ChecklistNotStarted, ChecklistInProgress:
			v.IncompleteMandatoryCount++
			v.Warnings = append(v.Warnings, ComplianceWarning{
				Level:     LevelWarning,
				ChapterID: chapterID,
				SectionID: sectionID,
				ItemID:    item.ID,
				Message:   fmt.Sprintf("mandatory item %q is not complete", item.Requirement),
			})
		}
	}
}

// ValidateChapterChecklist validates every checklist item of a chapter and
// its sections. Non-mandatory items never produce warnings.
func ValidateChapterChecklist(chapter ComplianceChapter) ChapterValidation {
	v := ChapterValidation{ChapterID: chapter.ID}
	var stats ChecklistStats
	walkChecklist(chapter.Checklist, chapter.ID, "", &v, &stats)
	for _, section := range chapter.Sections {
		walkChecklist(section.Checklist, chapter.ID, section.ID, &v, &stats)
	}
	v.IsValid = v.FailedMandatoryCount == 0 && v.IncompleteMandatoryCount == 0
	return v
}

// ValidateCertification aggregates chapter validation over the whole pack.
// Validation failures are advisory: CanFinalize stays true and the summary
// text informs the caller what finalizing would lock in.
func ValidateCertification(cert ComplianceCertification) CertificationValidation {
	out := CertificationValidation{CanFinalize: true}
	for _, chapter := range cert.Chapters {
		cv := ValidateChapterChecklist(chapter)
		out.ChapterResults = append(out.ChapterResults, cv)
		out.Warnings = append(out.Warnings, cv.Warnings...)
		out.FailedMandatoryCount += cv.FailedMandatoryCount
		out.IncompleteMandatoryCount += cv.IncompleteMandatoryCount
		out.TotalMandatory += cv.TotalMandatory
		if !cv.IsValid {
			out.Warnings = append(out.Warnings, ComplianceWarning{
				Level:     LevelWarning,
				ChapterID: chapter.ID,
				Message:   fmt.Sprintf("chapter %s: %d failed and %d incomplete mandatory item(s)", chapter.Code, cv.FailedMandatoryCount, cv.IncompleteMandatoryCount),
			})
		}
	}
	out.IsValid = out.FailedMandatoryCount == 0 && out.IncompleteMandatoryCount == 0
	if out.IsValid {
		out.FinalizeSummary = "Ready to finalize."
	} else {
		out.FinalizeSummary = fmt.Sprintf(
			"Warning: %d failed mandatory item(s) and %d incomplete mandatory item(s) detected. Finalizing will lock these issues.",
			out.FailedMandatoryCount, out.IncompleteMandatoryCount)
	}
	return out
}

// ChapterChecklistStats computes completion statistics for one chapter and
// its sections.
func ChapterChecklistStats(chapter ComplianceChapter) ChecklistStats {
	var v ChapterValidation
	var stats ChecklistStats
	walkChecklist(chapter.Checklist, chapter.ID, "", &v, &stats)
	for _, section := range chapter.Sections {
		walkChecklist(section.Checklist, chapter.ID, section.ID, &v, &stats)
	}
	stats.PercentComplete = percentComplete(stats)
	return stats
}

// CertificationStats computes completion statistics across every chapter and
// section of a pack. The NA-exclusion rule is identical at both
// granularities.
func CertificationStats(cert ComplianceCertification) ChecklistStats {
	var v ChapterValidation
	var stats ChecklistStats
	for _, chapter := range cert.Chapters {
		walkChecklist(chapter.Checklist, chapter.ID, "", &v, &stats)
		for _, section := range chapter.Sections {
			walkChecklist(section.Checklist, chapter.ID, section.ID, &v, &stats)
		}
	}
	stats.PercentComplete = percentComplete(stats)
	return stats
}

// percentComplete is round(passed / (total - na) * 100), defined as 100 when
// every item is NA and 0 when there are no items at all.
func percentComplete(s ChecklistStats) int {
	if s.TotalItems == 0 {
		return 0
	}
	denominator := s.TotalItems - s.NaItems
	if denominator == 0 {
		return 100
	}
	return int(math.Round(float64(s.PassedItems) / float64(denominator) * 100))
}

// IsCertificationFullyFinalized reports whether the certification, every
// chapter, and every section all carry FINAL status. A single DRAFT chapter
// or section makes the answer false even when the certification's own status
// field says FINAL; the validator detects that inconsistency rather than
// trusting the top-level flag.
func IsCertificationFullyFinalized(cert ComplianceCertification) bool {
	if cert.Status != FinalizeFinal {
		return false
	}
	for _, chapter := range cert.Chapters {
		if chapter.Status != FinalizeFinal {
			return false
		}
		for _, section := range chapter.Sections {
			if section.Status != FinalizeFinal {
				return false
			}
		}
	}
	return true
}
