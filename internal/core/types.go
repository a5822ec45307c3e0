package core

import "navisolcore/pkg/domain"

type (
	EntityType              = domain.EntityType
	ProjectType             = domain.ProjectType
	ProjectStatus           = domain.ProjectStatus
	Severity                = domain.Severity
	Base                    = domain.Base
	Project                 = domain.Project
	ProjectConfiguration    = domain.ProjectConfiguration
	ConfigurationItem       = domain.ConfigurationItem
	ConfigurationSnapshot   = domain.ConfigurationSnapshot
	ProjectQuote            = domain.ProjectQuote
	QuoteInput              = domain.QuoteInput
	BOMSnapshot             = domain.BOMSnapshot
	BOMItem                 = domain.BOMItem
	ProjectAmendment        = domain.ProjectAmendment
	AmendmentInput          = domain.AmendmentInput
	LibraryPins             = domain.LibraryPins
	BoatModelVersion        = domain.BoatModelVersion
	CatalogVersion          = domain.CatalogVersion
	TemplateVersion         = domain.TemplateVersion
	ProcedureVersion        = domain.ProcedureVersion
	ComplianceCertification = domain.ComplianceCertification
	ComplianceChapter       = domain.ComplianceChapter
	ComplianceSection       = domain.ComplianceSection
	ComplianceChecklistItem = domain.ComplianceChecklistItem
	Change                  = domain.Change
	Action                  = domain.Action
	Violation               = domain.Violation
	Result                  = domain.Result
	RuleViolationError      = domain.RuleViolationError
	RulesEngine             = domain.RulesEngine
	TransitionReport        = domain.TransitionReport
	PersistentStore         = domain.PersistentStore
)

const (
	EntityProject          = domain.EntityProject
	EntityBoatModelVersion = domain.EntityBoatModelVersion
	EntityCatalogVersion   = domain.EntityCatalogVersion
)

const (
	StatusDraft            = domain.StatusDraft
	StatusQuoted           = domain.StatusQuoted
	StatusOfferSent        = domain.StatusOfferSent
	StatusOrderConfirmed   = domain.StatusOrderConfirmed
	StatusInProduction     = domain.StatusInProduction
	StatusReadyForDelivery = domain.StatusReadyForDelivery
	StatusDelivered        = domain.StatusDelivered
	StatusClosed           = domain.StatusClosed
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
