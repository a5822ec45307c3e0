package core

import (
	"context"

	"navisolcore/pkg/domain"
)

// FrozenConfigurationRule blocks direct edits to a frozen configuration.
// After the order-confirmed freeze, the configuration may only move through
// the amendment path, which records an approval plus before/after snapshots
// alongside the edit in the same transaction.
type FrozenConfigurationRule struct{}

// NewFrozenConfigurationRule constructs the rule instance.
func NewFrozenConfigurationRule() FrozenConfigurationRule {
	return FrozenConfigurationRule{}
}

// Name identifies the rule in violation reports.
func (FrozenConfigurationRule) Name() string { return "frozen_configuration_protected" }

// Evaluate flags configuration content changes on frozen projects unless the
// same transaction also appended an amendment record.
func (r FrozenConfigurationRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	var result Result
	for _, pair := range projectUpdates(changes) {
		before, after := pair[0], pair[1]
		if !before.Configuration.IsFrozen {
			continue
		}
		if jsonEqual(before.Configuration, after.Configuration) {
			continue
		}
		if len(after.Amendments) > len(before.Amendments) {
			continue
		}
		result.Violations = append(result.Violations, Violation{
			Rule:     r.Name(),
			Severity: SeverityBlock,
			Message:  "configuration is frozen; changes require an amendment",
			Entity:   EntityProject,
			EntityID: after.ID,
		})
	}
	return result, nil
}
