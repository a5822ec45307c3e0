package domain

import "fmt"

// ProjectStatus represents the canonical project lifecycle states.
type ProjectStatus string

// Project lifecycle statuses in order.
const (
	StatusDraft            ProjectStatus = "DRAFT"
	StatusQuoted           ProjectStatus = "QUOTED"
	StatusOfferSent        ProjectStatus = "OFFER_SENT"
	StatusOrderConfirmed   ProjectStatus = "ORDER_CONFIRMED"
	StatusInProduction     ProjectStatus = "IN_PRODUCTION"
	StatusReadyForDelivery ProjectStatus = "READY_FOR_DELIVERY"
	StatusDelivered        ProjectStatus = "DELIVERED"
	StatusClosed           ProjectStatus = "CLOSED"
)

// AllStatuses lists every lifecycle status in order.
var AllStatuses = []ProjectStatus{
	StatusDraft,
	StatusQuoted,
	StatusOfferSent,
	StatusOrderConfirmed,
	StatusInProduction,
	StatusReadyForDelivery,
	StatusDelivered,
	StatusClosed,
}

// MilestoneEffectType enumerates the side effects a milestone transition
// must trigger.
type MilestoneEffectType string

// Milestone effect types.
const (
	EffectLockQuote            MilestoneEffectType = "LOCK_QUOTE"
	EffectFreezeConfiguration  MilestoneEffectType = "FREEZE_CONFIGURATION"
	EffectGenerateBOM          MilestoneEffectType = "GENERATE_BOM"
	EffectPinLibraryVersions   MilestoneEffectType = "PIN_LIBRARY_VERSIONS"
	EffectInitializeProduction MilestoneEffectType = "INITIALIZE_PRODUCTION"
	EffectFinalizeDocuments    MilestoneEffectType = "FINALIZE_DOCUMENTS"
)

// MilestoneEffect is one side effect a milestone transition triggers.
// Effects are applied in listed order: GENERATE_BOM depends on the snapshot
// FREEZE_CONFIGURATION just produced, and PIN_LIBRARY_VERSIONS must reference
// that same snapshot.
type MilestoneEffect struct {
	Type MilestoneEffectType `json:"type"`
}

// statusGraph is the fixed adjacency list of the lifecycle. The graph is
// strictly forward-moving except the QUOTED -> DRAFT revision edge; CLOSED
// is terminal.
var statusGraph = map[ProjectStatus][]ProjectStatus{
	StatusDraft:            {StatusQuoted},
	StatusQuoted:           {StatusOfferSent, StatusDraft},
	StatusOfferSent:        {StatusOrderConfirmed},
	StatusOrderConfirmed:   {StatusInProduction},
	StatusInProduction:     {StatusReadyForDelivery},
	StatusReadyForDelivery: {StatusDelivered},
	StatusDelivered:        {StatusClosed},
	StatusClosed:           {},
}

var milestoneEffects = map[ProjectStatus][]MilestoneEffect{
	StatusOfferSent:      {{Type: EffectLockQuote}},
	StatusOrderConfirmed: {{Type: EffectFreezeConfiguration}, {Type: EffectGenerateBOM}, {Type: EffectPinLibraryVersions}},
	StatusInProduction:   {{Type: EffectInitializeProduction}},
	StatusDelivered:      {{Type: EffectFinalizeDocuments}},
}

// CanTransition reports whether to is in the adjacency list for from.
func CanTransition(from, to ProjectStatus) bool {
	for _, next := range statusGraph[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidNextStatuses enumerates the adjacency list for from, in order.
func ValidNextStatuses(from ProjectStatus) []ProjectStatus {
	return append([]ProjectStatus(nil), statusGraph[from]...)
}

// IsMilestone reports whether entering status triggers milestone effects.
func IsMilestone(status ProjectStatus) bool {
	return len(milestoneEffects[status]) > 0
}

// MilestoneEffects returns the ordered side effects entering status triggers.
// Non-milestone statuses return an empty list.
func MilestoneEffects(status ProjectStatus) []MilestoneEffect {
	return append([]MilestoneEffect(nil), milestoneEffects[status]...)
}

// IsEditable reports whether the working configuration may still be edited
// directly. True for DRAFT, QUOTED and OFFER_SENT only.
func IsEditable(status ProjectStatus) bool {
	switch status {
	case StatusDraft, StatusQuoted, StatusOfferSent:
		return true
	}
	return false
}

// IsFrozen reports whether the configuration baseline is frozen. True from
// ORDER_CONFIRMED onward. Every status is either editable or frozen, never
// both.
func IsFrozen(status ProjectStatus) bool {
	switch status {
	case StatusOrderConfirmed, StatusInProduction, StatusReadyForDelivery, StatusDelivered, StatusClosed:
		return true
	}
	return false
}

// IsLocked reports whether the project is fully immutable, with no further
// amendments possible. True only for DELIVERED and CLOSED.
func IsLocked(status ProjectStatus) bool {
	return status == StatusDelivered || status == StatusClosed
}

// TransitionContext carries the project facts business checks need when
// validating a transition.
type TransitionContext struct {
	ConfigurationItemCount int
	HasSentQuote           bool
	HasAcceptedQuote       bool
}

// TransitionReport is the advisory outcome of ValidateTransition. It never
// mutates anything; invalid transitions carry errors and no effects.
type TransitionReport struct {
	IsValid              bool              `json:"is_valid"`
	Errors               []string          `json:"errors,omitempty"`
	Warnings             []string          `json:"warnings,omitempty"`
	RequiresConfirmation bool              `json:"requires_confirmation"`
	MilestoneEffects     []MilestoneEffect `json:"milestone_effects,omitempty"`
}

// ValidateTransition composes CanTransition with context-dependent business
// checks. Milestone targets set RequiresConfirmation and surface their
// effects for an approval step.
func ValidateTransition(from, to ProjectStatus, ctx TransitionContext) TransitionReport {
	report := TransitionReport{}
	if !CanTransition(from, to) {
		report.Errors = append(report.Errors, fmt.Sprintf("transition %s -> %s is not allowed", from, to))
		return report
	}
	switch to {
	case StatusOfferSent:
		if !ctx.HasSentQuote {
			report.Warnings = append(report.Warnings, "no quote has been sent for this project")
		}
	case StatusOrderConfirmed:
		if ctx.ConfigurationItemCount == 0 {
			report.Warnings = append(report.Warnings, "configuration has no items; the frozen baseline will be empty")
		}
		if !ctx.HasAcceptedQuote {
			report.Warnings = append(report.Warnings, "no accepted quote on file")
		}
	}
	report.IsValid = true
	if IsMilestone(to) {
		report.RequiresConfirmation = true
		report.MilestoneEffects = MilestoneEffects(to)
	}
	return report
}
