package core

import (
	"context"

	"navisolcore/pkg/domain"
)

// BoatModelVersionRule blocks any update that swaps a project's boat model
// version once one has been assigned. The configuration, quotes, BOMs, and
// compliance packs all derive from the model; changing it mid-project would
// invalidate every downstream artifact, so the only supported path is a new
// project.
type BoatModelVersionRule struct{}

// NewBoatModelVersionRule constructs the rule instance.
func NewBoatModelVersionRule() BoatModelVersionRule {
	return BoatModelVersionRule{}
}

// Name identifies the rule in violation reports.
func (BoatModelVersionRule) Name() string { return "boat_model_version_immutable" }

// Evaluate flags every project update whose assigned boat model version
// differs from the stored one.
func (r BoatModelVersionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []Change) (Result, error) {
	var result Result
	for _, pair := range projectUpdates(changes) {
		before, after := pair[0], pair[1]
		if before.Configuration.BoatModelVersionID == "" {
			continue
		}
		if before.Configuration.BoatModelVersionID != after.Configuration.BoatModelVersionID {
			result.Violations = append(result.Violations, Violation{
				Rule:     r.Name(),
				Severity: SeverityBlock,
				Message:  "boat model version cannot change once assigned; start a new project instead",
				Entity:   EntityProject,
				EntityID: after.ID,
			})
		}
	}
	return result, nil
}
