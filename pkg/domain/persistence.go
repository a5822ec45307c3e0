package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	CreateProject(Project) (Project, error)
	UpdateProject(id string, mutator func(*Project) error) (Project, error)
	DeleteProject(id string) error
	FindProject(id string) (Project, bool)
	CreateBoatModelVersion(BoatModelVersion) (BoatModelVersion, error)
	CreateCatalogVersion(CatalogVersion) (CatalogVersion, error)
	CreateTemplateVersion(TemplateVersion) (TemplateVersion, error)
	CreateProcedureVersion(ProcedureVersion) (ProcedureVersion, error)
	FindBoatModelVersion(id string) (BoatModelVersion, bool)
	FindCatalogVersion(id string) (CatalogVersion, bool)
}

// TransactionView provides read-only access to snapshot data for callers
// outside a mutation scope.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProject(id string) (Project, bool)
	ListProjects() []Project
	ListBoatModelVersions() []BoatModelVersion
	ListCatalogVersions() []CatalogVersion
	Observe(fn func([]Change))
}
