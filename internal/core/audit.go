package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// AuditEntry is one recorded mutation. Before and After hold the committed
// entity states around the change.
type AuditEntry struct {
	ID          string     `json:"id"`
	Entity      EntityType `json:"entity"`
	EntityID    string     `json:"entity_id"`
	Action      Action     `json:"action"`
	Description string     `json:"description"`
	At          time.Time  `json:"at"`
	Before      any        `json:"before,omitempty"`
	After       any        `json:"after,omitempty"`
}

// AuditLog keeps an in-memory trail of committed changes. Attach it to a
// store with store.Observe(log.Record); entries arrive after commit, so the
// trail never contains rolled-back mutations.
type AuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
	nowFn   func() time.Time
}

// NewAuditLog constructs an empty audit trail.
func NewAuditLog() *AuditLog {
	return &AuditLog{nowFn: func() time.Time { return time.Now().UTC() }}
}

// SetNowFunc overrides the clock, for tests.
func (l *AuditLog) SetNowFunc(fn func() time.Time) { l.nowFn = fn }

// Record appends audit entries for a committed change set.
func (l *AuditLog) Record(changes []domain.Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	for _, change := range changes {
		l.entries = append(l.entries, AuditEntry{
			ID:          uuid.NewString(),
			Entity:      change.Entity,
			EntityID:    changeEntityID(change),
			Action:      change.Action,
			Description: fmt.Sprintf("%s %s", change.Action, change.Entity),
			At:          now,
			Before:      change.Before,
			After:       change.After,
		})
	}
}

// Entries returns a copy of the recorded trail in commit order.
func (l *AuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]AuditEntry(nil), l.entries...)
}

// EntriesFor filters the trail to one entity id.
func (l *AuditLog) EntriesFor(entityID string) []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []AuditEntry
	for _, e := range l.entries {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

func changeEntityID(change domain.Change) string {
	state := change.After
	if state == nil {
		state = change.Before
	}
	switch v := state.(type) {
	case Project:
		return v.ID
	case BoatModelVersion:
		return v.ID
	case CatalogVersion:
		return v.ID
	case TemplateVersion:
		return v.ID
	case ProcedureVersion:
		return v.ID
	}
	return ""
}
