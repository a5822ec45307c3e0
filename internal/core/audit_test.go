package core

import (
	"context"
	"testing"
	"time"

	"navisolcore/internal/infra/persistence/memory"
)

func TestAuditLogRecordsCommittedChanges(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	log := NewAuditLog()
	log.SetNowFunc(func() time.Time { return testNow })
	store.Observe(log.Record)
	svc := NewService(store, WithNowFunc(func() time.Time { return testNow }))

	p := seedProject(t, svc)
	entries := log.Entries()
	// Two library versions plus the project itself.
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	last := entries[2]
	if last.Entity != EntityProject || last.Action != ActionCreate || last.EntityID != p.ID {
		t.Fatalf("unexpected entry: %+v", last)
	}
	if last.Before != nil || last.After == nil {
		t.Fatal("create entry must carry only the after state")
	}
	if !last.At.Equal(testNow) {
		t.Fatalf("At = %v", last.At)
	}

	advance(t, svc, p.ID, StatusQuoted)
	forProject := log.EntriesFor(p.ID)
	if len(forProject) != 2 {
		t.Fatalf("expected create + update for project, got %d", len(forProject))
	}
	update := forProject[1]
	if update.Action != ActionUpdate || update.Before == nil {
		t.Fatalf("unexpected update entry: %+v", update)
	}
	before, ok := update.Before.(Project)
	if !ok || before.Status != StatusDraft {
		t.Fatalf("before state = %+v", update.Before)
	}
}

func TestAuditLogSkipsRolledBackMutations(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	log := NewAuditLog()
	store.Observe(log.Record)
	svc := NewService(store)

	p := seedProject(t, svc)
	baseline := len(log.Entries())

	_, _, err := svc.UpdateConfiguration(context.Background(), p.ID, func(cfg *ProjectConfiguration) error {
		cfg.BoatModelVersionID = "swapped"
		return nil
	})
	if err == nil {
		t.Fatal("expected rule violation")
	}
	if len(log.Entries()) != baseline {
		t.Fatal("rolled-back mutation must not be audited")
	}
}
