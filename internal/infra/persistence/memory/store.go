// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"navisolcore/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Project aliases domain.Project for in-memory persistence operations.
	Project = domain.Project
	// BoatModelVersion aliases domain.BoatModelVersion.
	BoatModelVersion = domain.BoatModelVersion
	// CatalogVersion aliases domain.CatalogVersion.
	CatalogVersion = domain.CatalogVersion
	// TemplateVersion aliases domain.TemplateVersion.
	TemplateVersion = domain.TemplateVersion
	// ProcedureVersion aliases domain.ProcedureVersion.
	ProcedureVersion = domain.ProcedureVersion
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
)

type memoryState struct {
	projects   map[string]Project
	boatModels map[string]BoatModelVersion
	catalogs   map[string]CatalogVersion
	templates  map[string]TemplateVersion
	procedures map[string]ProcedureVersion
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Projects   map[string]Project          `json:"projects"`
	BoatModels map[string]BoatModelVersion `json:"boat_models"`
	Catalogs   map[string]CatalogVersion   `json:"catalogs"`
	Templates  map[string]TemplateVersion  `json:"templates"`
	Procedures map[string]ProcedureVersion `json:"procedures"`
}

func newMemoryState() memoryState {
	return memoryState{
		projects:   make(map[string]Project),
		boatModels: make(map[string]BoatModelVersion),
		catalogs:   make(map[string]CatalogVersion),
		templates:  make(map[string]TemplateVersion),
		procedures: make(map[string]ProcedureVersion),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.projects {
		cloned.projects[k] = cloneProject(v)
	}
	for k, v := range s.boatModels {
		cloned.boatModels[k] = v
	}
	for k, v := range s.catalogs {
		cloned.catalogs[k] = v
	}
	for k, v := range s.templates {
		cloned.templates[k] = v
	}
	for k, v := range s.procedures {
		cloned.procedures[k] = v
	}
	return cloned
}

// cloneProject deep-copies the aggregate through a JSON round trip; the
// nested snapshot, quote and compliance slices make field-wise copying
// error-prone.
func cloneProject(p Project) Project {
	raw, err := json.Marshal(p)
	if err != nil {
		panic(fmt.Errorf("memory store clone project: %w", err))
	}
	var out Project
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Errorf("memory store clone project: %w", err))
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu        sync.RWMutex
	state     memoryState
	engine    *RulesEngine
	nowFn     func() time.Time
	observers []func([]Change)
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the transaction clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// Observe registers a callback invoked with the change set of every
// committed transaction.
func (s *Store) Observe(fn func([]Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func newID() string { return uuid.NewString() }

// Transaction represents a mutation set applied to the store state.
type Transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type view struct {
	state *memoryState
}

// RunInTransaction executes fn within a transactional copy of the store
// state. Rules evaluate against the mutated copy; blocking violations abort
// the commit, so a milestone's multi-effect sequence lands as one unit or
// not at all.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (Result, error) {
	s.mu.Lock()

	tx := &Transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			s.mu.Unlock()
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			s.mu.Unlock()
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	observers := append([]func([]Change){}, s.observers...)
	changes := append([]Change(nil), tx.changes...)
	s.mu.Unlock()

	for _, observe := range observers {
		observe(changes)
	}
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(view{state: &snapshot})
}

func (tx *Transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// CreateProject stores a new project within the transaction.
func (tx *Transaction) CreateProject(p Project) (Project, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.projects[p.ID]; exists {
		return Project{}, fmt.Errorf("project %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	p.Base.Version = 1
	tx.state.projects[p.ID] = cloneProject(p)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionCreate, After: cloneProject(p)})
	return cloneProject(p), nil
}

// UpdateProject mutates a project using the provided mutator function. The
// version counter increments on every update; stale-write detection is left
// to the persistence adapter.
func (tx *Transaction) UpdateProject(id string, mutator func(*Project) error) (Project, error) {
	current, ok := tx.state.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("project %q not found", id)
	}
	before := cloneProject(current)
	working := cloneProject(current)
	if err := mutator(&working); err != nil {
		return Project{}, err
	}
	working.ID = id
	working.UpdatedAt = tx.now
	working.Base.Version = before.Base.Version + 1
	tx.state.projects[id] = cloneProject(working)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionUpdate, Before: before, After: cloneProject(working)})
	return cloneProject(working), nil
}

// DeleteProject removes a project from the transaction state.
func (tx *Transaction) DeleteProject(id string) error {
	current, ok := tx.state.projects[id]
	if !ok {
		return fmt.Errorf("project %q not found", id)
	}
	delete(tx.state.projects, id)
	tx.recordChange(Change{Entity: domain.EntityProject, Action: domain.ActionDelete, Before: cloneProject(current)})
	return nil
}

// FindProject retrieves a project from the transactional state.
func (tx *Transaction) FindProject(id string) (Project, bool) {
	p, ok := tx.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// CreateBoatModelVersion stores a published boat model version.
func (tx *Transaction) CreateBoatModelVersion(m BoatModelVersion) (BoatModelVersion, error) {
	if m.ID == "" {
		m.ID = newID()
	}
	if _, exists := tx.state.boatModels[m.ID]; exists {
		return BoatModelVersion{}, fmt.Errorf("boat model version %q already exists", m.ID)
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	m.Base.Version = 1
	tx.state.boatModels[m.ID] = m
	tx.recordChange(Change{Entity: domain.EntityBoatModelVersion, Action: domain.ActionCreate, After: m})
	return m, nil
}

// CreateCatalogVersion stores a published catalog version.
func (tx *Transaction) CreateCatalogVersion(c CatalogVersion) (CatalogVersion, error) {
	if c.ID == "" {
		c.ID = newID()
	}
	if _, exists := tx.state.catalogs[c.ID]; exists {
		return CatalogVersion{}, fmt.Errorf("catalog version %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	c.Base.Version = 1
	tx.state.catalogs[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCatalogVersion, Action: domain.ActionCreate, After: c})
	return c, nil
}

// CreateTemplateVersion stores a document template version.
func (tx *Transaction) CreateTemplateVersion(t TemplateVersion) (TemplateVersion, error) {
	if t.ID == "" {
		t.ID = newID()
	}
	if _, exists := tx.state.templates[t.ID]; exists {
		return TemplateVersion{}, fmt.Errorf("template version %q already exists", t.ID)
	}
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	t.Base.Version = 1
	tx.state.templates[t.ID] = t
	tx.recordChange(Change{Entity: domain.EntityTemplateVersion, Action: domain.ActionCreate, After: t})
	return t, nil
}

// CreateProcedureVersion stores a build procedure version.
func (tx *Transaction) CreateProcedureVersion(p ProcedureVersion) (ProcedureVersion, error) {
	if p.ID == "" {
		p.ID = newID()
	}
	if _, exists := tx.state.procedures[p.ID]; exists {
		return ProcedureVersion{}, fmt.Errorf("procedure version %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	p.Base.Version = 1
	tx.state.procedures[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityProcedureVersion, Action: domain.ActionCreate, After: p})
	return p, nil
}

// FindBoatModelVersion retrieves a boat model version from transactional state.
func (tx *Transaction) FindBoatModelVersion(id string) (BoatModelVersion, bool) {
	m, ok := tx.state.boatModels[id]
	return m, ok
}

// FindCatalogVersion retrieves a catalog version from transactional state.
func (tx *Transaction) FindCatalogVersion(id string) (CatalogVersion, bool) {
	c, ok := tx.state.catalogs[id]
	return c, ok
}

// Rule view --------------------------------------------------------------

// ListProjects returns all projects in the snapshot, ordered by code.
func (v view) ListProjects() []Project {
	out := make([]Project, 0, len(v.state.projects))
	for _, p := range v.state.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// FindProject retrieves a project by id from the snapshot.
func (v view) FindProject(id string) (Project, bool) {
	p, ok := v.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// ListBoatModelVersions returns all boat model versions.
func (v view) ListBoatModelVersions() []BoatModelVersion {
	out := make([]BoatModelVersion, 0, len(v.state.boatModels))
	for _, m := range v.state.boatModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindBoatModelVersion retrieves a boat model version by id.
func (v view) FindBoatModelVersion(id string) (BoatModelVersion, bool) {
	m, ok := v.state.boatModels[id]
	return m, ok
}

// ListCatalogVersions returns all catalog versions.
func (v view) ListCatalogVersions() []CatalogVersion {
	out := make([]CatalogVersion, 0, len(v.state.catalogs))
	for _, c := range v.state.catalogs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindCatalogVersion retrieves a catalog version by id.
func (v view) FindCatalogVersion(id string) (CatalogVersion, bool) {
	c, ok := v.state.catalogs[id]
	return c, ok
}

// ListTemplateVersions returns all template versions.
func (v view) ListTemplateVersions() []TemplateVersion {
	out := make([]TemplateVersion, 0, len(v.state.templates))
	for _, t := range v.state.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListProcedureVersions returns all procedure versions.
func (v view) ListProcedureVersions() []ProcedureVersion {
	out := make([]ProcedureVersion, 0, len(v.state.procedures))
	for _, p := range v.state.procedures {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Read helpers -----------------------------------------------------------

// GetProject retrieves a project by id from committed state.
func (s *Store) GetProject(id string) (Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.projects[id]
	if !ok {
		return Project{}, false
	}
	return cloneProject(p), true
}

// ListProjects returns all projects from committed state, ordered by code.
func (s *Store) ListProjects() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0, len(s.state.projects))
	for _, p := range s.state.projects {
		out = append(out, cloneProject(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ListBoatModelVersions returns all boat model versions from committed state.
func (s *Store) ListBoatModelVersions() []BoatModelVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]BoatModelVersion, 0, len(s.state.boatModels))
	for _, m := range s.state.boatModels {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListCatalogVersions returns all catalog versions from committed state.
func (s *Store) ListCatalogVersions() []CatalogVersion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CatalogVersion, 0, len(s.state.catalogs))
	for _, c := range s.state.catalogs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ExportState returns a deep snapshot of the committed state for durable
// backends.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Projects:   make(map[string]Project, len(s.state.projects)),
		BoatModels: make(map[string]BoatModelVersion, len(s.state.boatModels)),
		Catalogs:   make(map[string]CatalogVersion, len(s.state.catalogs)),
		Templates:  make(map[string]TemplateVersion, len(s.state.templates)),
		Procedures: make(map[string]ProcedureVersion, len(s.state.procedures)),
	}
	for k, v := range s.state.projects {
		snap.Projects[k] = cloneProject(v)
	}
	for k, v := range s.state.boatModels {
		snap.BoatModels[k] = v
	}
	for k, v := range s.state.catalogs {
		snap.Catalogs[k] = v
	}
	for k, v := range s.state.templates {
		snap.Templates[k] = v
	}
	for k, v := range s.state.procedures {
		snap.Procedures[k] = v
	}
	return snap
}

// ImportState replaces the committed state with the supplied snapshot.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snap.Projects {
		state.projects[k] = cloneProject(v)
	}
	for k, v := range snap.BoatModels {
		state.boatModels[k] = v
	}
	for k, v := range snap.Catalogs {
		state.catalogs[k] = v
	}
	for k, v := range snap.Templates {
		state.templates[k] = v
	}
	for k, v := range snap.Procedures {
		state.procedures[k] = v
	}
	s.state = state
}
