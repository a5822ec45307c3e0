package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// productionPipeline is the fixed build pipeline seeded when a project enters
// production.
var productionPipeline = []ProjectStage{
	{Code: "PREP", Name: "Preparation and tooling"},
	{Code: "HULL", Name: "Hull lamination"},
	{Code: "DECK", Name: "Deck and superstructure"},
	{Code: "JOINERY", Name: "Interior joinery"},
	{Code: "SYSTEMS", Name: "Systems installation"},
	{Code: "RIGGING", Name: "Rigging and deck hardware"},
	{Code: "PAINT", Name: "Paint and finish"},
	{Code: "COMMISSIONING", Name: "Commissioning and sea trials"},
	{Code: "FINAL", Name: "Final inspection and handover"},
}

// ProjectStage is the seed definition of one pipeline stage.
type ProjectStage struct {
	Code string
	Name string
}

// PreviewTransition validates a lifecycle transition without applying it.
// The report lists blocking errors, advisory warnings, and the milestone
// effects the transition would trigger.
func (s *Service) PreviewTransition(id string, to ProjectStatus) (TransitionReport, error) {
	p, ok := s.store.GetProject(id)
	if !ok {
		return TransitionReport{}, ErrProjectNotFound
	}
	return domain.ValidateTransition(p.Status, to, transitionContext(p, s.nowFn())), nil
}

// TransitionStatus moves a project to the target lifecycle status. Milestone
// transitions require confirmed=true and apply their side effects in order
// within the same transaction; either everything commits or nothing does.
func (s *Service) TransitionStatus(ctx context.Context, id string, to ProjectStatus, actor string, confirmed bool) (Project, Result, error) {
	now := s.nowFn()
	var updated Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(id)
		if !ok {
			return ErrProjectNotFound
		}
		report := domain.ValidateTransition(p.Status, to, transitionContext(p, now))
		if !report.IsValid {
			return InvalidTransitionError{Report: report}
		}
		if report.RequiresConfirmation && !confirmed {
			return fmt.Errorf("%w: entering %s triggers %d effect(s)", ErrConfirmationRequired, to, len(report.MilestoneEffects))
		}
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			for _, effect := range report.MilestoneEffects {
				if err := applyMilestoneEffect(p, effect.Type, actor, now); err != nil {
					return err
				}
			}
			p.Status = to
			return nil
		})
		return err
	})
	if err != nil {
		s.noteViolation(err)
		return Project{}, res, err
	}
	s.logger.Info("project transitioned", "project", id, "to", string(to), "actor", actor)
	if s.metrics != nil {
		s.metrics.ObserveTransition(to)
		for _, effect := range domain.MilestoneEffects(to) {
			if effect.Type == domain.EffectFreezeConfiguration {
				s.metrics.ObserveSnapshot()
			}
		}
	}
	return updated, res, nil
}

func transitionContext(p Project, now time.Time) domain.TransitionContext {
	ctx := domain.TransitionContext{
		ConfigurationItemCount: len(p.Configuration.Items),
	}
	for _, q := range p.Quotes {
		switch domain.EffectiveQuoteStatus(q, now) {
		case domain.QuoteAccepted:
			ctx.HasAcceptedQuote = true
			ctx.HasSentQuote = true
		case domain.QuoteSent:
			ctx.HasSentQuote = true
		}
	}
	return ctx
}

// applyMilestoneEffect executes one milestone side effect against the project
// inside the transaction mutator. Order matters: GENERATE_BOM and
// PIN_LIBRARY_VERSIONS both read the snapshot FREEZE_CONFIGURATION appended.
func applyMilestoneEffect(p *Project, effect domain.MilestoneEffectType, actor string, now time.Time) error {
	switch effect {
	case domain.EffectLockQuote:
		lockLatestSentQuote(p)
	case domain.EffectFreezeConfiguration:
		frozenAt := now
		p.Configuration.IsFrozen = true
		p.Configuration.FrozenAt = &frozenAt
		p.Configuration.FrozenBy = actor
		appendSnapshot(p, domain.TriggerOrderConfirmed, actor, now)
	case domain.EffectGenerateBOM:
		snapshot, err := latestSnapshot(p)
		if err != nil {
			return err
		}
		generateBOM(p, snapshot, domain.BOMBaseline, now)
	case domain.EffectPinLibraryVersions:
		snapshot, err := latestSnapshot(p)
		if err != nil {
			return err
		}
		p.LibraryPins = &LibraryPins{
			BoatModelVersionID:  snapshot.Configuration.BoatModelVersionID,
			CatalogVersionID:    snapshot.Configuration.CatalogVersionID,
			TemplateVersionIDs:  append([]string(nil), p.TemplateVersionIDs...),
			ProcedureVersionIDs: append([]string(nil), p.ProcedureVersionIDs...),
			PinnedAt:            now,
		}
	case domain.EffectInitializeProduction:
		if len(p.ProductionStages) == 0 {
			for i, stage := range productionPipeline {
				p.ProductionStages = append(p.ProductionStages, domain.ProductionStage{
					Code:     stage.Code,
					Name:     stage.Name,
					Sequence: i + 1,
					Status:   domain.StagePending,
				})
			}
		}
	case domain.EffectFinalizeDocuments:
		for i := range p.Documents {
			if p.Documents[i].Status == domain.DocumentDraft {
				finalizedAt := now
				p.Documents[i].Status = domain.DocumentFinal
				p.Documents[i].FinalizedAt = &finalizedAt
			}
		}
	default:
		return fmt.Errorf("unknown milestone effect %s", effect)
	}
	return nil
}

func latestSnapshot(p *Project) (ConfigurationSnapshot, error) {
	if len(p.ConfigurationSnapshots) == 0 {
		return ConfigurationSnapshot{}, fmt.Errorf("project %s has no configuration snapshot", p.ID)
	}
	return p.ConfigurationSnapshots[len(p.ConfigurationSnapshots)-1], nil
}

// lockLatestSentQuote locks the most recent SENT quote and marks every other
// still-open quote SUPERSEDED.
func lockLatestSentQuote(p *Project) {
	lockIdx := -1
	for i, q := range p.Quotes {
		if q.Status != domain.QuoteSent {
			continue
		}
		if lockIdx == -1 || q.Revision > p.Quotes[lockIdx].Revision {
			lockIdx = i
		}
	}
	for i := range p.Quotes {
		if i == lockIdx {
			p.Quotes[i].Locked = true
			continue
		}
		switch p.Quotes[i].Status {
		case domain.QuoteDraft, domain.QuoteSent:
			p.Quotes[i].Status = domain.QuoteSuperseded
		}
	}
}

// generateBOM derives an immutable bill-of-materials from one configuration
// snapshot. Only included items carry over; costs are copied verbatim.
func generateBOM(p *Project, snapshot ConfigurationSnapshot, status domain.BOMStatus, now time.Time) BOMSnapshot {
	bom := BOMSnapshot{
		ID:               uuid.NewString(),
		ConfigSnapshotID: snapshot.ID,
		Sequence:         len(p.BOMSnapshots) + 1,
		Status:           status,
		GeneratedAt:      now,
	}
	for _, item := range snapshot.Configuration.Items {
		if !item.Included {
			continue
		}
		bom.Items = append(bom.Items, BOMItem{
			ArticleCode:      item.ArticleCode,
			Description:      item.Description,
			Quantity:         item.Quantity,
			UnitCostExclVat:  item.UnitPriceExclVat,
			LineTotalExclVat: item.LineTotalExclVat,
			IsEstimated:      item.IsEstimated,
		})
		bom.TotalCostExclVat += item.LineTotalExclVat
		if item.IsEstimated {
			bom.EstimatedCostTotal += item.LineTotalExclVat
		} else {
			bom.ActualCostTotal += item.LineTotalExclVat
		}
	}
	bom.TotalCostExclVat = round2(bom.TotalCostExclVat)
	bom.EstimatedCostTotal = round2(bom.EstimatedCostTotal)
	bom.ActualCostTotal = round2(bom.ActualCostTotal)
	if bom.TotalCostExclVat > 0 {
		bom.CostEstimationRatio = bom.EstimatedCostTotal / bom.TotalCostExclVat
	}
	p.BOMSnapshots = append(p.BOMSnapshots, bom)
	return bom
}

// SetProductionStageStatus updates one pipeline stage. Stage progress is
// independent of the lifecycle but a locked project rejects further changes.
func (s *Service) SetProductionStageStatus(ctx context.Context, id, stageCode string, status domain.StageStatus) (Project, Result, error) {
	switch status {
	case domain.StagePending, domain.StageInProgress, domain.StageCompleted:
	default:
		return Project{}, Result{}, checkErr(domain.Check{}.Fail(fmt.Sprintf("unknown stage status %q", status)))
	}
	var updated Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(id)
		if !ok {
			return ErrProjectNotFound
		}
		if domain.IsLocked(p.Status) {
			return fmt.Errorf("project is locked; production stages can no longer change")
		}
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			for i := range p.ProductionStages {
				if p.ProductionStages[i].Code == stageCode {
					p.ProductionStages[i].Status = status
					return nil
				}
			}
			return fmt.Errorf("production stage %s not found", stageCode)
		})
		return err
	})
	if err != nil {
		return Project{}, res, err
	}
	return updated, res, nil
}

// AttachDocument registers a generated document stored in the blob vault.
// Documents start as DRAFT and are finalized by the DELIVERED milestone.
func (s *Service) AttachDocument(ctx context.Context, id, name, blobKey string) (Project, Result, error) {
	if name == "" || blobKey == "" {
		return Project{}, Result{}, checkErr(domain.Check{}.Fail("document requires a name and a blob key"))
	}
	var updated Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProject(id); !ok {
			return ErrProjectNotFound
		}
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			p.Documents = append(p.Documents, domain.ProjectDocument{
				ID:      uuid.NewString(),
				Name:    name,
				BlobKey: blobKey,
				Status:  domain.DocumentDraft,
			})
			return nil
		})
		return err
	})
	if err != nil {
		return Project{}, res, err
	}
	return updated, res, nil
}
