// Package core implements the project lifecycle service on top of the domain
// model and a persistent store. Every mutation runs inside a store
// transaction; the rules engine evaluates the full change set before commit.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// Service orchestrates project operations over a persistent store.
type Service struct {
	store    PersistentStore
	settings Settings
	logger   *slog.Logger
	metrics  *Metrics
	nowFn    func() time.Time
}

// Option customizes service construction.
type Option func(*Service)

// WithSettings overrides the commercial defaults captured into quotes.
func WithSettings(settings Settings) Option {
	return func(s *Service) { s.settings = settings }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches operation counters.
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Service) { s.nowFn = fn }
}

// NewService constructs a service over the given store.
func NewService(store PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		settings: DefaultSettings(),
		logger:   slog.Default(),
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying persistent store.
func (s *Service) Store() PersistentStore { return s.store }

// Settings returns the commercial defaults in effect.
func (s *Service) Settings() Settings { return s.settings }

// CreateProject registers a new project in DRAFT status. Referenced library
// versions must exist; pricing totals are recomputed from the supplied items.
func (s *Service) CreateProject(ctx context.Context, p Project) (Project, Result, error) {
	if p.Name == "" {
		return Project{}, Result{}, checkErr(domain.Check{}.Fail("project requires a name"))
	}
	switch p.Type {
	case "":
		p.Type = domain.TypeNewBuild
	case domain.TypeNewBuild, domain.TypeRefit, domain.TypeMaintenance:
	default:
		return Project{}, Result{}, checkErr(domain.Check{}.Fail(fmt.Sprintf("unknown project type %q", p.Type)))
	}
	now := s.nowFn()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Code == "" {
		p.Code = "PRJ-" + p.ID[:8]
	}
	p.Status = StatusDraft
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Version = 1
	if p.Configuration.VatRate == 0 {
		p.Configuration.VatRate = s.settings.VatRate
	}
	recomputeTotals(&p.Configuration)

	var created Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if id := p.Configuration.BoatModelVersionID; id != "" {
			if _, ok := tx.FindBoatModelVersion(id); !ok {
				return fmt.Errorf("boat model version %s not found", id)
			}
		}
		if id := p.Configuration.CatalogVersionID; id != "" {
			if _, ok := tx.FindCatalogVersion(id); !ok {
				return fmt.Errorf("catalog version %s not found", id)
			}
		}
		var err error
		created, err = tx.CreateProject(p)
		return err
	})
	if err != nil {
		return Project{}, res, err
	}
	s.logger.Info("project created", "project", created.ID, "code", created.Code)
	return created, res, nil
}

// UpdateProjectDetails changes the descriptive fields of a project. The
// lifecycle and configuration are untouched.
func (s *Service) UpdateProjectDetails(ctx context.Context, id, name, customer string) (Project, Result, error) {
	var updated Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProject(id); !ok {
			return ErrProjectNotFound
		}
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			if name != "" {
				p.Name = name
			}
			if customer != "" {
				p.Customer = customer
			}
			return nil
		})
		return err
	})
	if err != nil {
		return Project{}, res, err
	}
	return updated, res, nil
}

// UpdateConfiguration applies an edit to the working configuration. Only
// editable statuses permit direct edits; frozen projects must use the
// amendment path. Pricing totals are recomputed after the edit.
func (s *Service) UpdateConfiguration(ctx context.Context, id string, mutate func(*ProjectConfiguration) error) (Project, Result, error) {
	var updated Project
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(id)
		if !ok {
			return ErrProjectNotFound
		}
		if !domain.IsEditable(p.Status) {
			return fmt.Errorf("%w: status is %s", ErrNotEditable, p.Status)
		}
		var err error
		updated, err = tx.UpdateProject(id, func(p *Project) error {
			if err := mutate(&p.Configuration); err != nil {
				return err
			}
			if p.Configuration.VatRate == 0 {
				p.Configuration.VatRate = s.settings.VatRate
			}
			recomputeTotals(&p.Configuration)
			return nil
		})
		return err
	})
	if err != nil {
		s.noteViolation(err)
		return Project{}, res, err
	}
	return updated, res, nil
}

// SnapshotConfiguration captures the current configuration as a manual
// snapshot. The capture is read-only with respect to the working
// configuration and is permitted in any status.
func (s *Service) SnapshotConfiguration(ctx context.Context, id, actor string) (ConfigurationSnapshot, Result, error) {
	now := s.nowFn()
	var snapshot ConfigurationSnapshot
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProject(id); !ok {
			return ErrProjectNotFound
		}
		_, err := tx.UpdateProject(id, func(p *Project) error {
			snapshot = appendSnapshot(p, domain.TriggerManual, actor, now)
			return nil
		})
		return err
	})
	if err != nil {
		return ConfigurationSnapshot{}, res, err
	}
	if s.metrics != nil {
		s.metrics.ObserveSnapshot()
	}
	return snapshot, res, nil
}

// GetProject returns the committed state of a project.
func (s *Service) GetProject(id string) (Project, bool) {
	return s.store.GetProject(id)
}

// ListProjects returns all committed projects ordered by code.
func (s *Service) ListProjects() []Project {
	return s.store.ListProjects()
}

// DeleteProject removes a project. Only DRAFT projects may be deleted; every
// later status has commercial history that must be retained.
func (s *Service) DeleteProject(ctx context.Context, id string) (Result, error) {
	return s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(id)
		if !ok {
			return ErrProjectNotFound
		}
		if p.Status != StatusDraft {
			return fmt.Errorf("only draft projects can be deleted; status is %s", p.Status)
		}
		return tx.DeleteProject(id)
	})
}

// CreateBoatModelVersion publishes a boat model revision to the library.
func (s *Service) CreateBoatModelVersion(ctx context.Context, v BoatModelVersion) (BoatModelVersion, Result, error) {
	stampBase(&v.Base, s.nowFn())
	var created BoatModelVersion
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateBoatModelVersion(v)
		return err
	})
	if err != nil {
		return BoatModelVersion{}, res, err
	}
	return created, res, nil
}

// CreateCatalogVersion publishes an equipment catalog revision.
func (s *Service) CreateCatalogVersion(ctx context.Context, v CatalogVersion) (CatalogVersion, Result, error) {
	stampBase(&v.Base, s.nowFn())
	var created CatalogVersion
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateCatalogVersion(v)
		return err
	})
	if err != nil {
		return CatalogVersion{}, res, err
	}
	return created, res, nil
}

// CreateTemplateVersion publishes a document template revision.
func (s *Service) CreateTemplateVersion(ctx context.Context, v TemplateVersion) (TemplateVersion, Result, error) {
	stampBase(&v.Base, s.nowFn())
	var created TemplateVersion
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateTemplateVersion(v)
		return err
	})
	if err != nil {
		return TemplateVersion{}, res, err
	}
	return created, res, nil
}

// CreateProcedureVersion publishes a build procedure revision.
func (s *Service) CreateProcedureVersion(ctx context.Context, v ProcedureVersion) (ProcedureVersion, Result, error) {
	stampBase(&v.Base, s.nowFn())
	var created ProcedureVersion
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateProcedureVersion(v)
		return err
	})
	if err != nil {
		return ProcedureVersion{}, res, err
	}
	return created, res, nil
}

// noteViolation counts transactions aborted by blocking rule violations.
func (s *Service) noteViolation(err error) {
	if s.metrics == nil {
		return
	}
	var rv RuleViolationError
	if errors.As(err, &rv) {
		s.metrics.ObserveViolation()
	}
}

func stampBase(b *Base, now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Version = 1
	b.CreatedAt = now
	b.UpdatedAt = now
}

// appendSnapshot copies the current configuration into the snapshot history.
// The item slice is cloned so later configuration edits cannot alias into the
// frozen copy.
func appendSnapshot(p *Project, trigger domain.SnapshotTrigger, actor string, now time.Time) ConfigurationSnapshot {
	cfg := p.Configuration
	cfg.Items = append([]ConfigurationItem(nil), p.Configuration.Items...)
	snapshot := ConfigurationSnapshot{
		ID:            uuid.NewString(),
		Sequence:      len(p.ConfigurationSnapshots) + 1,
		Trigger:       trigger,
		TakenAt:       now,
		TakenBy:       actor,
		Configuration: cfg,
	}
	p.ConfigurationSnapshots = append(p.ConfigurationSnapshots, snapshot)
	return snapshot
}

// recomputeTotals derives the configuration totals from its included items.
// Line totals themselves come from the pricing collaborator and are taken
// verbatim.
func recomputeTotals(cfg *ProjectConfiguration) {
	var subtotal float64
	for _, item := range cfg.Items {
		if item.Included {
			subtotal += item.LineTotalExclVat
		}
	}
	cfg.SubtotalExclVat = round2(subtotal)
	cfg.VatAmount = round2(subtotal * cfg.VatRate)
	cfg.TotalInclVat = round2(cfg.SubtotalExclVat + cfg.VatAmount)
}

// round2 rounds to whole cents.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
