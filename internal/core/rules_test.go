package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"navisolcore/pkg/domain"
)

func blockedRules(t *testing.T, err error) []string {
	t.Helper()
	var rv RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	var names []string
	for _, v := range rv.Result.Violations {
		names = append(names, v.Rule)
	}
	return names
}

func TestHistoryAppendOnlyBlocksSnapshotRewrite(t *testing.T) {
	svc, store := newTestService(t)
	p := seedProject(t, svc)
	advance(t, svc, p.ID, StatusQuoted, StatusOfferSent, StatusOrderConfirmed)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateProject(p.ID, func(p *Project) error {
			p.ConfigurationSnapshots[0].Configuration.SubtotalExclVat = 1
			return nil
		})
		return err
	})
	rules := blockedRules(t, err)
	if len(rules) != 1 || rules[0] != "history_append_only" {
		t.Fatalf("unexpected rules: %v", rules)
	}
}

func TestHistoryAppendOnlyBlocksTruncation(t *testing.T) {
	svc, store := newTestService(t)
	p := seedProject(t, svc)
	advance(t, svc, p.ID, StatusQuoted, StatusOfferSent, StatusOrderConfirmed)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateProject(p.ID, func(p *Project) error {
			p.BOMSnapshots = nil
			return nil
		})
		return err
	})
	var rv RuleViolationError
	if !errors.As(err, &rv) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !strings.Contains(rv.Error(), "history shrank") {
		t.Fatalf("unexpected message: %v", rv)
	}
}

func TestHistoryAppendOnlyAllowsAppends(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)

	// Manual snapshots append to history and must pass.
	if _, _, err := svc.SnapshotConfiguration(context.Background(), p.ID, "tester"); err != nil {
		t.Fatalf("append snapshot: %v", err)
	}
}

func TestFrozenConfigurationRuleNamesItself(t *testing.T) {
	svc, store := newTestService(t)
	p := seedProject(t, svc)
	advance(t, svc, p.ID, StatusQuoted, StatusOfferSent, StatusOrderConfirmed)

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateProject(p.ID, func(p *Project) error {
			p.Configuration.Items = append(p.Configuration.Items, ConfigurationItem{
				ArticleCode: "X", Quantity: 1, LineTotalExclVat: 10, Included: true,
			})
			return nil
		})
		return err
	})
	rules := blockedRules(t, err)
	found := false
	for _, name := range rules {
		if name == "frozen_configuration_protected" {
			found = true
		}
	}
	if !found {
		t.Fatalf("frozen_configuration_protected rule missing from %v", rules)
	}
}
