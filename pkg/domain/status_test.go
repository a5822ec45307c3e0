package domain

import (
	"reflect"
	"testing"
)

func TestStatusGraphAllowsOnlyDeclaredEdges(t *testing.T) {
	allowed := map[ProjectStatus][]ProjectStatus{
		StatusDraft:            {StatusQuoted},
		StatusQuoted:           {StatusOfferSent, StatusDraft},
		StatusOfferSent:        {StatusOrderConfirmed},
		StatusOrderConfirmed:   {StatusInProduction},
		StatusInProduction:     {StatusReadyForDelivery},
		StatusReadyForDelivery: {StatusDelivered},
		StatusDelivered:        {StatusClosed},
		StatusClosed:           {},
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, next := range allowed[from] {
				if next == to {
					want = true
				}
			}
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestClosedIsTerminal(t *testing.T) {
	if got := ValidNextStatuses(StatusClosed); len(got) != 0 {
		t.Fatalf("CLOSED should have no outgoing transitions, got %v", got)
	}
}

func TestQuotedRevisionEdgeBackToDraft(t *testing.T) {
	if !CanTransition(StatusQuoted, StatusDraft) {
		t.Fatal("QUOTED -> DRAFT revision edge must be allowed")
	}
	if CanTransition(StatusDraft, StatusOfferSent) {
		t.Fatal("DRAFT -> OFFER_SENT must not skip QUOTED")
	}
}

func TestOrderConfirmedEffectsExactOrder(t *testing.T) {
	effects := MilestoneEffects(StatusOrderConfirmed)
	want := []MilestoneEffect{
		{Type: EffectFreezeConfiguration},
		{Type: EffectGenerateBOM},
		{Type: EffectPinLibraryVersions},
	}
	if !reflect.DeepEqual(effects, want) {
		t.Fatalf("ORDER_CONFIRMED effects = %v, want %v", effects, want)
	}
}

func TestMilestoneStatuses(t *testing.T) {
	milestones := map[ProjectStatus]bool{
		StatusOfferSent:      true,
		StatusOrderConfirmed: true,
		StatusInProduction:   true,
		StatusDelivered:      true,
	}
	for _, status := range AllStatuses {
		if got := IsMilestone(status); got != milestones[status] {
			t.Errorf("IsMilestone(%s) = %v, want %v", status, got, milestones[status])
		}
	}
}

func TestEditableAndFrozenPartitionLifecycle(t *testing.T) {
	for _, status := range AllStatuses {
		if IsEditable(status) == IsFrozen(status) {
			t.Errorf("status %s must be exactly one of editable or frozen", status)
		}
	}
	if !IsLocked(StatusDelivered) || !IsLocked(StatusClosed) {
		t.Fatal("DELIVERED and CLOSED must be locked")
	}
	if IsLocked(StatusReadyForDelivery) {
		t.Fatal("READY_FOR_DELIVERY must still accept amendments")
	}
}

func TestValidateTransitionInvalidCarriesNoEffects(t *testing.T) {
	report := ValidateTransition(StatusDraft, StatusDelivered, TransitionContext{})
	if report.IsValid {
		t.Fatal("DRAFT -> DELIVERED must be invalid")
	}
	if len(report.Errors) == 0 {
		t.Fatal("invalid transition must carry errors")
	}
	if len(report.MilestoneEffects) != 0 || report.RequiresConfirmation {
		t.Fatal("invalid transition must not surface milestone effects")
	}
}

func TestValidateTransitionWarnings(t *testing.T) {
	report := ValidateTransition(StatusOfferSent, StatusOrderConfirmed, TransitionContext{})
	if !report.IsValid {
		t.Fatalf("expected valid transition, errors: %v", report.Errors)
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected warnings for empty configuration and missing accepted quote, got %v", report.Warnings)
	}
	if !report.RequiresConfirmation {
		t.Fatal("milestone transition must require confirmation")
	}

	report = ValidateTransition(StatusOfferSent, StatusOrderConfirmed, TransitionContext{
		ConfigurationItemCount: 3,
		HasAcceptedQuote:       true,
	})
	if len(report.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", report.Warnings)
	}
}

func TestValidateTransitionNonMilestone(t *testing.T) {
	report := ValidateTransition(StatusDraft, StatusQuoted, TransitionContext{})
	if !report.IsValid || report.RequiresConfirmation {
		t.Fatalf("DRAFT -> QUOTED should be valid without confirmation: %+v", report)
	}
}
