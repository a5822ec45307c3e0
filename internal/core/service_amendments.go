package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// CreateAmendment applies an approved change to a frozen configuration. The
// before snapshot, the edit, the after snapshot, the amendment record, and a
// revised BOM all commit in one transaction; the two snapshot ids always
// differ.
func (s *Service) CreateAmendment(ctx context.Context, projectID string, in AmendmentInput, mutate func(*ProjectConfiguration) error) (ProjectAmendment, Result, error) {
	if err := checkErr(domain.ValidateAmendmentInput(in)); err != nil {
		return ProjectAmendment{}, Result{}, err
	}
	now := s.nowFn()
	var amendment ProjectAmendment
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(projectID)
		if !ok {
			return ErrProjectNotFound
		}
		if err := checkErr(domain.CanAmend(p)); err != nil {
			return err
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			before := appendSnapshot(p, domain.TriggerAmendment, in.ApprovedBy, now)
			modelBefore := p.Configuration.BoatModelVersionID
			if err := mutate(&p.Configuration); err != nil {
				return err
			}
			if p.Configuration.BoatModelVersionID != modelBefore {
				return fmt.Errorf("boat model version cannot change once assigned; start a new project instead")
			}
			recomputeTotals(&p.Configuration)
			after := appendSnapshot(p, domain.TriggerAmendment, in.ApprovedBy, now)
			amendment = ProjectAmendment{
				ID:                 uuid.NewString(),
				Type:               in.Type,
				Reason:             in.Reason,
				BeforeSnapshotID:   before.ID,
				AfterSnapshotID:    after.ID,
				PriceImpactExclVat: in.PriceImpactExclVat,
				ApprovedBy:         in.ApprovedBy,
				ApprovedAt:         now,
				CreatedAt:          now,
			}
			p.Amendments = append(p.Amendments, amendment)
			generateBOM(p, after, domain.BOMRevised, now)
			return nil
		})
		return err
	})
	if err != nil {
		s.noteViolation(err)
		return ProjectAmendment{}, res, err
	}
	s.logger.Info("amendment recorded", "project", projectID, "amendment", amendment.ID, "type", string(in.Type))
	if s.metrics != nil {
		s.metrics.ObserveSnapshots(2)
	}
	return amendment, res, nil
}

// ListAmendments returns a project's amendment history in creation order.
func (s *Service) ListAmendments(projectID string) ([]ProjectAmendment, error) {
	p, ok := s.store.GetProject(projectID)
	if !ok {
		return nil, ErrProjectNotFound
	}
	return append([]ProjectAmendment(nil), p.Amendments...), nil
}
