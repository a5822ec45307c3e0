package domain

import "strings"

// CanAmend gates amendment creation on project status. Amendments exist to
// change frozen baselines: they are rejected before the freeze and once the
// project is locked. Net effect: valid exactly for ORDER_CONFIRMED,
// IN_PRODUCTION and READY_FOR_DELIVERY.
func CanAmend(p Project) Check {
	var c Check
	if !IsFrozen(p.Status) {
		return c.Fail("amendments are only needed for frozen configurations")
	}
	if IsLocked(p.Status) {
		return c.Fail("project is locked; no further amendments are possible")
	}
	return c
}

// AmendmentInput is the caller-supplied portion of a new amendment.
type AmendmentInput struct {
	Type               AmendmentType
	Reason             string
	ApprovedBy         string
	PriceImpactExclVat float64
}

// ValidateAmendmentInput accumulates every violation rather than failing
// fast. A whitespace-only reason counts as blank.
func ValidateAmendmentInput(in AmendmentInput) Check {
	var c Check
	if in.Type == "" {
		c = c.Fail("amendment requires a type")
	}
	if strings.TrimSpace(in.Reason) == "" {
		c = c.Fail("amendment requires a reason")
	}
	if in.ApprovedBy == "" {
		c = c.Fail("amendment requires an approver")
	}
	return c
}
