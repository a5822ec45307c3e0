package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// AddCertification attaches a certification pack to a project. Missing ids
// are assigned and every status defaults to DRAFT.
func (s *Service) AddCertification(ctx context.Context, projectID string, cert ComplianceCertification) (ComplianceCertification, Result, error) {
	if cert.Name == "" {
		return ComplianceCertification{}, Result{}, checkErr(domain.Check{}.Fail("certification requires a name"))
	}
	if cert.Scheme == "" {
		cert.Scheme = domain.SchemeCE
	}
	prepareCertification(&cert)
	var created ComplianceCertification
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProject(projectID); !ok {
			return ErrProjectNotFound
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			p.Certifications = append(p.Certifications, cert)
			created = cert
			return nil
		})
		return err
	})
	if err != nil {
		return ComplianceCertification{}, res, err
	}
	s.logger.Info("certification added", "project", projectID, "certification", created.ID, "scheme", string(created.Scheme))
	return created, res, nil
}

func prepareCertification(cert *ComplianceCertification) {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	if cert.Status == "" {
		cert.Status = domain.FinalizeDraft
	}
	for ci := range cert.Chapters {
		chapter := &cert.Chapters[ci]
		if chapter.ID == "" {
			chapter.ID = uuid.NewString()
		}
		if chapter.Status == "" {
			chapter.Status = domain.FinalizeDraft
		}
		prepareChecklist(chapter.Checklist)
		for si := range chapter.Sections {
			section := &chapter.Sections[si]
			if section.ID == "" {
				section.ID = uuid.NewString()
			}
			if section.Status == "" {
				section.Status = domain.FinalizeDraft
			}
			prepareChecklist(section.Checklist)
		}
	}
}

func prepareChecklist(items []domain.ComplianceChecklistItem) {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		if items[i].Status == "" {
			items[i].Status = domain.ChecklistNotStarted
		}
	}
}

// UpdateChecklistItem sets the status of one checklist item. NA requires a
// reason; items under a finalized chapter or section are immutable. Pass an
// empty sectionID for chapter-level items.
func (s *Service) UpdateChecklistItem(ctx context.Context, projectID, certID, chapterID, sectionID, itemID string, status domain.ChecklistStatus, naReason, evidenceKey string) (ComplianceCertification, Result, error) {
	switch status {
	case domain.ChecklistNotStarted, domain.ChecklistInProgress, domain.ChecklistPassed, domain.ChecklistFailed, domain.ChecklistNA:
	default:
		return ComplianceCertification{}, Result{}, checkErr(domain.Check{}.Fail(fmt.Sprintf("unknown checklist status %q", status)))
	}
	if status == domain.ChecklistNA && naReason == "" {
		return ComplianceCertification{}, Result{}, checkErr(domain.Check{}.Fail("marking an item NA requires a reason"))
	}
	return s.updateCertification(ctx, projectID, certID, func(cert *ComplianceCertification) error {
		if cert.Status == domain.FinalizeFinal {
			return fmt.Errorf("certification is finalized and cannot be edited")
		}
		chapter := findChapter(cert, chapterID)
		if chapter == nil {
			return fmt.Errorf("chapter %s not found", chapterID)
		}
		if chapter.Status == domain.FinalizeFinal {
			return fmt.Errorf("chapter %s is finalized and cannot be edited", chapter.Code)
		}
		checklist := chapter.Checklist
		if sectionID != "" {
			section := findSection(chapter, sectionID)
			if section == nil {
				return fmt.Errorf("section %s not found", sectionID)
			}
			if section.Status == domain.FinalizeFinal {
				return fmt.Errorf("section %s is finalized and cannot be edited", section.Title)
			}
			checklist = section.Checklist
		}
		for i := range checklist {
			if checklist[i].ID != itemID {
				continue
			}
			checklist[i].Status = status
			checklist[i].NaReason = naReason
			if evidenceKey != "" {
				checklist[i].EvidenceKey = evidenceKey
			}
			return nil
		}
		return fmt.Errorf("checklist item %s not found", itemID)
	})
}

// FinalizeSection marks one section FINAL. Finalization is advisory-gated
// only: validation warnings never block it.
func (s *Service) FinalizeSection(ctx context.Context, projectID, certID, chapterID, sectionID, actor string) (ComplianceCertification, Result, error) {
	now := s.nowFn()
	return s.updateCertification(ctx, projectID, certID, func(cert *ComplianceCertification) error {
		chapter := findChapter(cert, chapterID)
		if chapter == nil {
			return fmt.Errorf("chapter %s not found", chapterID)
		}
		section := findSection(chapter, sectionID)
		if section == nil {
			return fmt.Errorf("section %s not found", sectionID)
		}
		if section.Status == domain.FinalizeFinal {
			return nil
		}
		finalizedAt := now
		section.Status = domain.FinalizeFinal
		section.FinalizedAt = &finalizedAt
		section.FinalizedBy = actor
		return nil
	})
}

// FinalizeChapter marks one chapter FINAL along with any still-draft sections
// beneath it.
func (s *Service) FinalizeChapter(ctx context.Context, projectID, certID, chapterID, actor string) (ComplianceCertification, Result, error) {
	now := s.nowFn()
	return s.updateCertification(ctx, projectID, certID, func(cert *ComplianceCertification) error {
		chapter := findChapter(cert, chapterID)
		if chapter == nil {
			return fmt.Errorf("chapter %s not found", chapterID)
		}
		finalizeChapter(chapter, actor, now)
		return nil
	})
}

// FinalizeCertification marks the whole pack FINAL, cascading through every
// chapter and section. The returned validation is the advisory pre-finalize
// assessment; finalizing with warnings locks the reported issues in.
func (s *Service) FinalizeCertification(ctx context.Context, projectID, certID, actor string) (ComplianceCertification, domain.CertificationValidation, Result, error) {
	now := s.nowFn()
	var validation domain.CertificationValidation
	cert, res, err := s.updateCertification(ctx, projectID, certID, func(cert *ComplianceCertification) error {
		validation = domain.ValidateCertification(*cert)
		for i := range cert.Chapters {
			finalizeChapter(&cert.Chapters[i], actor, now)
		}
		if cert.Status != domain.FinalizeFinal {
			finalizedAt := now
			cert.Status = domain.FinalizeFinal
			cert.FinalizedAt = &finalizedAt
			cert.FinalizedBy = actor
		}
		return nil
	})
	if err != nil {
		return ComplianceCertification{}, domain.CertificationValidation{}, res, err
	}
	s.logger.Info("certification finalized", "project", projectID, "certification", certID,
		"failed_mandatory", validation.FailedMandatoryCount, "incomplete_mandatory", validation.IncompleteMandatoryCount)
	return cert, validation, res, nil
}

// ValidateCertification runs the advisory checklist validation against
// committed state without mutating anything.
func (s *Service) ValidateCertification(projectID, certID string) (domain.CertificationValidation, error) {
	cert, err := s.getCertification(projectID, certID)
	if err != nil {
		return domain.CertificationValidation{}, err
	}
	return domain.ValidateCertification(cert), nil
}

// CertificationStats computes checklist completion statistics for one pack.
func (s *Service) CertificationStats(projectID, certID string) (domain.ChecklistStats, error) {
	cert, err := s.getCertification(projectID, certID)
	if err != nil {
		return domain.ChecklistStats{}, err
	}
	return domain.CertificationStats(cert), nil
}

func (s *Service) getCertification(projectID, certID string) (ComplianceCertification, error) {
	p, ok := s.store.GetProject(projectID)
	if !ok {
		return ComplianceCertification{}, ErrProjectNotFound
	}
	cert, ok := p.FindCertification(certID)
	if !ok {
		return ComplianceCertification{}, ErrCertificationNotFound
	}
	return cert, nil
}

func (s *Service) updateCertification(ctx context.Context, projectID, certID string, mutate func(*ComplianceCertification) error) (ComplianceCertification, Result, error) {
	var cert ComplianceCertification
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(projectID)
		if !ok {
			return ErrProjectNotFound
		}
		if _, ok := p.FindCertification(certID); !ok {
			return ErrCertificationNotFound
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			for i := range p.Certifications {
				if p.Certifications[i].ID == certID {
					if err := mutate(&p.Certifications[i]); err != nil {
						return err
					}
					cert = p.Certifications[i]
					return nil
				}
			}
			return ErrCertificationNotFound
		})
		return err
	})
	if err != nil {
		return ComplianceCertification{}, res, err
	}
	return cert, res, nil
}

func findChapter(cert *ComplianceCertification, chapterID string) *domain.ComplianceChapter {
	for i := range cert.Chapters {
		if cert.Chapters[i].ID == chapterID {
			return &cert.Chapters[i]
		}
	}
	return nil
}

func findSection(chapter *domain.ComplianceChapter, sectionID string) *domain.ComplianceSection {
	for i := range chapter.Sections {
		if chapter.Sections[i].ID == sectionID {
			return &chapter.Sections[i]
		}
	}
	return nil
}

func finalizeChapter(chapter *domain.ComplianceChapter, actor string, now time.Time) {
	if chapter.Status != domain.FinalizeFinal {
		finalizedAt := now
		chapter.Status = domain.FinalizeFinal
		chapter.FinalizedAt = &finalizedAt
		chapter.FinalizedBy = actor
	}
	for i := range chapter.Sections {
		section := &chapter.Sections[i]
		if section.Status == domain.FinalizeFinal {
			continue
		}
		finalizedAt := now
		section.Status = domain.FinalizeFinal
		section.FinalizedAt = &finalizedAt
		section.FinalizedBy = actor
	}
}
