package core

import (
	"encoding/json"

	"navisolcore/pkg/domain"
)

// NewDefaultRulesEngine wires the built-in policies that guard every
// transaction commit: boat model immutability, frozen configuration
// protection, and snapshot immutability.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewBoatModelVersionRule())
	engine.Register(NewFrozenConfigurationRule())
	engine.Register(NewSnapshotImmutabilityRule())
	return engine
}

// projectUpdates extracts the before/after project pairs from a change set.
// Creates and deletes are not update pairs and are skipped.
func projectUpdates(changes []Change) [][2]Project {
	var pairs [][2]Project
	for _, change := range changes {
		if change.Entity != EntityProject || change.Action != ActionUpdate {
			continue
		}
		before, okBefore := change.Before.(Project)
		after, okAfter := change.After.(Project)
		if !okBefore || !okAfter {
			continue
		}
		pairs = append(pairs, [2]Project{before, after})
	}
	return pairs
}

// jsonEqual compares two values by their canonical JSON encoding. Marshal
// failures compare unequal so the guarding rule errs on the blocking side.
func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
