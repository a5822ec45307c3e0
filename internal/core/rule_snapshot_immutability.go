package core

import (
	"context"
	"fmt"

	"navisolcore/pkg/domain"
)

// SnapshotImmutabilityRule keeps the historical record append-only.
// Configuration snapshots, BOM snapshots, and amendments may be added within
// a transaction but never removed or rewritten once committed.
type SnapshotImmutabilityRule struct{}

// NewSnapshotImmutabilityRule constructs the rule instance.
func NewSnapshotImmutabilityRule() SnapshotImmutabilityRule {
	return SnapshotImmutabilityRule{}
}

// Name identifies the rule in violation reports.
func (SnapshotImmutabilityRule) Name() string { return "history_append_only" }

// Evaluate compares the historical collections of each updated project
// against their prior committed state.
func (r SnapshotImmutabilityRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	var result Result
	for _, pair := range projectUpdates(changes) {
		before, after := pair[0], pair[1]
		for _, msg := range historyViolations(before, after) {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  msg,
				Entity:   EntityProject,
				EntityID: after.ID,
			})
		}
	}
	return result, nil
}

func historyViolations(before, after Project) []string {
	var msgs []string
	if msg := appendOnly("configuration snapshot", len(before.ConfigurationSnapshots), len(after.ConfigurationSnapshots)); msg != "" {
		msgs = append(msgs, msg)
	} else {
		for i, prev := range before.ConfigurationSnapshots {
			if !jsonEqual(prev, after.ConfigurationSnapshots[i]) {
				msgs = append(msgs, fmt.Sprintf("configuration snapshot %s was modified", prev.ID))
			}
		}
	}
	if msg := appendOnly("bom snapshot", len(before.BOMSnapshots), len(after.BOMSnapshots)); msg != "" {
		msgs = append(msgs, msg)
	} else {
		for i, prev := range before.BOMSnapshots {
			if !jsonEqual(prev, after.BOMSnapshots[i]) {
				msgs = append(msgs, fmt.Sprintf("bom snapshot %s was modified", prev.ID))
			}
		}
	}
	if msg := appendOnly("amendment", len(before.Amendments), len(after.Amendments)); msg != "" {
		msgs = append(msgs, msg)
	} else {
		for i, prev := range before.Amendments {
			if !jsonEqual(prev, after.Amendments[i]) {
				msgs = append(msgs, fmt.Sprintf("amendment %s was modified", prev.ID))
			}
		}
	}
	return msgs
}

func appendOnly(kind string, before, after int) string {
	if after < before {
		return fmt.Sprintf("%s history shrank from %d to %d entries", kind, before, after)
	}
	return ""
}
