package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"navisolcore/internal/infra/persistence/memory"
	"navisolcore/pkg/domain"
)

func draftLines() []domain.QuoteLine {
	return []domain.QuoteLine{
		{Description: "Hull and deck", Quantity: 1, UnitPriceExclVat: 100, LineTotalExclVat: 100},
		{Description: "Engine package", Quantity: 1, UnitPriceExclVat: 200, LineTotalExclVat: 200},
		{Description: "Rigging", Quantity: 1, UnitPriceExclVat: 300, LineTotalExclVat: 300},
	}
}

func TestCreateDraftQuoteCapturesSettings(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)

	q, _, err := svc.CreateDraftQuote(context.Background(), p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	settings := DefaultSettings()
	if q.PaymentTerms != settings.PaymentTerms || q.DeliveryTerms != settings.DeliveryTerms {
		t.Fatalf("terms not captured from settings: %+v", q)
	}
	if !q.ValidUntil.Equal(testNow.AddDate(0, 0, settings.QuoteValidityDays)) {
		t.Fatalf("ValidUntil = %v", q.ValidUntil)
	}
	if q.SubtotalExclVat != 600 || q.VatAmount != 126 || q.TotalInclVat != 726 {
		t.Fatalf("totals = %v/%v/%v, want 600/126/726", q.SubtotalExclVat, q.VatAmount, q.TotalInclVat)
	}
	if !strings.HasPrefix(q.QuoteNumber, p.Code+"-Q") || q.Revision != 1 {
		t.Fatalf("quote number = %q revision %d", q.QuoteNumber, q.Revision)
	}
}

func TestQuoteSettingsStickAfterChange(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	settings := DefaultSettings()
	settings.PaymentTerms = "100% up front"
	svc := NewService(store, WithSettings(settings), WithNowFunc(func() time.Time { return testNow }))

	p := seedProject(t, svc)
	q, _, err := svc.CreateDraftQuote(context.Background(), p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if q.PaymentTerms != "100% up front" {
		t.Fatalf("payment terms = %q", q.PaymentTerms)
	}
	// Explicit input wins over settings.
	q2, _, err := svc.CreateDraftQuote(context.Background(), p.ID, QuoteInput{Lines: draftLines(), PaymentTerms: "50/50"})
	if err != nil {
		t.Fatalf("create quote: %v", err)
	}
	if q2.PaymentTerms != "50/50" {
		t.Fatalf("payment terms = %q", q2.PaymentTerms)
	}
	if q2.Revision != 2 || q2.QuoteNumber == q.QuoteNumber {
		t.Fatalf("revision numbering broken: %+v", q2)
	}
}

func TestSendAcceptRejectFlow(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)
	ctx := context.Background()

	q, _, err := svc.CreateDraftQuote(ctx, p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.AcceptQuote(ctx, p.ID, q.ID); err == nil {
		t.Fatal("draft quote must not be acceptable")
	}
	sent, _, err := svc.SendQuote(ctx, p.ID, q.ID)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent.Status != domain.QuoteSent || sent.SentAt == nil {
		t.Fatalf("unexpected sent quote: %+v", sent)
	}
	if _, _, err := svc.SendQuote(ctx, p.ID, q.ID); err == nil {
		t.Fatal("quote must not be sendable twice")
	}
	accepted, _, err := svc.AcceptQuote(ctx, p.ID, q.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.QuoteAccepted || accepted.DecidedAt == nil {
		t.Fatalf("unexpected accepted quote: %+v", accepted)
	}
	if _, _, err := svc.RejectQuote(ctx, p.ID, q.ID); err == nil {
		t.Fatal("accepted quote must not be rejectable")
	}
}

func TestAcceptQuoteAfterExpiryFails(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	now := testNow
	svc := NewService(store, WithNowFunc(func() time.Time { return now }))

	p := seedProject(t, svc)
	ctx := context.Background()
	q, _, err := svc.CreateDraftQuote(ctx, p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.SendQuote(ctx, p.ID, q.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	now = testNow.AddDate(0, 0, DefaultSettings().QuoteValidityDays+1)
	if _, _, err := svc.AcceptQuote(ctx, p.ID, q.ID); err == nil {
		t.Fatal("expired quote must not be acceptable")
	}

	quotes, err := svc.ListQuotes(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if quotes[0].Status != domain.QuoteExpired {
		t.Fatalf("listing must derive EXPIRED, got %s", quotes[0].Status)
	}
	// The stored status stays SENT; expiry is derived, never written.
	got, _ := svc.GetProject(p.ID)
	if got.Quotes[0].Status != domain.QuoteSent {
		t.Fatalf("stored status = %s, want SENT", got.Quotes[0].Status)
	}
}

func TestReviseQuoteSupersedes(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)
	ctx := context.Background()

	q, _, err := svc.CreateDraftQuote(ctx, p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.SendQuote(ctx, p.ID, q.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	revised, _, err := svc.ReviseQuote(ctx, p.ID, q.ID, QuoteInput{Lines: draftLines()[:1]})
	if err != nil {
		t.Fatalf("revise: %v", err)
	}
	if revised.Revision != 2 || revised.Status != domain.QuoteDraft {
		t.Fatalf("unexpected revision: %+v", revised)
	}
	got, _ := svc.GetProject(p.ID)
	if got.Quotes[0].Status != domain.QuoteSuperseded {
		t.Fatalf("old quote = %s, want SUPERSEDED", got.Quotes[0].Status)
	}
	// Superseded content survives untouched.
	if len(got.Quotes[0].Lines) != 3 {
		t.Fatal("superseded quote lines must be preserved")
	}
	if _, _, err := svc.ReviseQuote(ctx, p.ID, q.ID, QuoteInput{Lines: draftLines()}); err == nil {
		t.Fatal("superseded quote must not be revisable")
	}
}

func TestOfferSentLocksAcceptedQuote(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)
	ctx := context.Background()

	first, _, err := svc.CreateDraftQuote(ctx, p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, _, err := svc.CreateDraftQuote(ctx, p.ID, QuoteInput{Lines: draftLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := svc.SendQuote(ctx, p.ID, second.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	advance(t, svc, p.ID, StatusQuoted, StatusOfferSent)
	got, _ := svc.GetProject(p.ID)
	for _, q := range got.Quotes {
		switch q.ID {
		case second.ID:
			if !q.Locked || q.Status != domain.QuoteSent {
				t.Fatalf("sent quote must be locked: %+v", q)
			}
		case first.ID:
			if q.Status != domain.QuoteSuperseded {
				t.Fatalf("open draft must be superseded: %+v", q)
			}
		}
	}
}

func TestCreateDraftQuoteValidation(t *testing.T) {
	svc, _ := newTestService(t)
	p := seedProject(t, svc)
	_, _, err := svc.CreateDraftQuote(context.Background(), p.ID, QuoteInput{})
	if err == nil {
		t.Fatal("quote without lines must be rejected")
	}
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}
