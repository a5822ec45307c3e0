package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"navisolcore/pkg/domain"
)

// CreateDraftQuote creates a new DRAFT quote for a project. Blank commercial
// terms are filled from the settings in effect at creation time and stay with
// the quote afterwards; later settings changes apply to new quotes only.
func (s *Service) CreateDraftQuote(ctx context.Context, projectID string, in QuoteInput) (ProjectQuote, Result, error) {
	now := s.nowFn()
	s.applyQuoteDefaults(&in, now)
	if err := checkErr(domain.ValidateQuoteInput(in)); err != nil {
		return ProjectQuote{}, Result{}, err
	}
	var quote ProjectQuote
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindProject(projectID); !ok {
			return ErrProjectNotFound
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			quote = buildQuote(p, in, s.settings.VatRate, now)
			p.Quotes = append(p.Quotes, quote)
			return nil
		})
		return err
	})
	if err != nil {
		return ProjectQuote{}, res, err
	}
	s.logger.Info("quote drafted", "project", projectID, "quote", quote.QuoteNumber)
	return quote, res, nil
}

// SendQuote marks a DRAFT quote as SENT, locking its lines and totals.
func (s *Service) SendQuote(ctx context.Context, projectID, quoteID string) (ProjectQuote, Result, error) {
	now := s.nowFn()
	return s.updateQuote(ctx, projectID, quoteID, func(q *ProjectQuote) error {
		if err := checkErr(domain.CanSendQuote(*q)); err != nil {
			return err
		}
		sentAt := now
		q.Status = domain.QuoteSent
		q.SentAt = &sentAt
		return nil
	})
}

// AcceptQuote records customer acceptance of a SENT quote. Acceptance past
// the validity window is rejected.
func (s *Service) AcceptQuote(ctx context.Context, projectID, quoteID string) (ProjectQuote, Result, error) {
	now := s.nowFn()
	return s.updateQuote(ctx, projectID, quoteID, func(q *ProjectQuote) error {
		if err := checkErr(domain.CanAcceptQuote(*q, now)); err != nil {
			return err
		}
		decidedAt := now
		q.Status = domain.QuoteAccepted
		q.DecidedAt = &decidedAt
		return nil
	})
}

// RejectQuote records customer rejection of a SENT quote.
func (s *Service) RejectQuote(ctx context.Context, projectID, quoteID string) (ProjectQuote, Result, error) {
	now := s.nowFn()
	return s.updateQuote(ctx, projectID, quoteID, func(q *ProjectQuote) error {
		if q.Status != domain.QuoteSent {
			return checkErr(domain.Check{}.Fail("only sent quotes can be rejected"))
		}
		decidedAt := now
		q.Status = domain.QuoteRejected
		q.DecidedAt = &decidedAt
		return nil
	})
}

// ReviseQuote supersedes an open quote with a fresh DRAFT carrying an
// incremented revision and a new quote number. The superseded quote keeps its
// content; quote history is never rewritten.
func (s *Service) ReviseQuote(ctx context.Context, projectID, quoteID string, in QuoteInput) (ProjectQuote, Result, error) {
	now := s.nowFn()
	s.applyQuoteDefaults(&in, now)
	if err := checkErr(domain.ValidateQuoteInput(in)); err != nil {
		return ProjectQuote{}, Result{}, err
	}
	var revised ProjectQuote
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(projectID)
		if !ok {
			return ErrProjectNotFound
		}
		old, ok := p.FindQuote(quoteID)
		if !ok {
			return ErrQuoteNotFound
		}
		switch old.Status {
		case domain.QuoteDraft, domain.QuoteSent:
		default:
			return checkErr(domain.Check{}.Fail(fmt.Sprintf("quote in status %s cannot be revised", old.Status)))
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			for i := range p.Quotes {
				if p.Quotes[i].ID == quoteID {
					p.Quotes[i].Status = domain.QuoteSuperseded
				}
			}
			revised = buildQuote(p, in, s.settings.VatRate, now)
			p.Quotes = append(p.Quotes, revised)
			return nil
		})
		return err
	})
	if err != nil {
		return ProjectQuote{}, res, err
	}
	s.logger.Info("quote revised", "project", projectID, "superseded", quoteID, "quote", revised.QuoteNumber)
	return revised, res, nil
}

// ListQuotes returns a project's quotes with the derived EXPIRED status
// applied; a SENT quote past its validity window reads as EXPIRED without a
// stored transition.
func (s *Service) ListQuotes(projectID string) ([]ProjectQuote, error) {
	p, ok := s.store.GetProject(projectID)
	if !ok {
		return nil, ErrProjectNotFound
	}
	now := s.nowFn()
	quotes := append([]ProjectQuote(nil), p.Quotes...)
	for i := range quotes {
		quotes[i].Status = domain.EffectiveQuoteStatus(quotes[i], now)
	}
	return quotes, nil
}

func (s *Service) updateQuote(ctx context.Context, projectID, quoteID string, mutate func(*ProjectQuote) error) (ProjectQuote, Result, error) {
	var quote ProjectQuote
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		p, ok := tx.FindProject(projectID)
		if !ok {
			return ErrProjectNotFound
		}
		if _, ok := p.FindQuote(quoteID); !ok {
			return ErrQuoteNotFound
		}
		_, err := tx.UpdateProject(projectID, func(p *Project) error {
			for i := range p.Quotes {
				if p.Quotes[i].ID == quoteID {
					if err := mutate(&p.Quotes[i]); err != nil {
						return err
					}
					quote = p.Quotes[i]
					return nil
				}
			}
			return ErrQuoteNotFound
		})
		return err
	})
	if err != nil {
		return ProjectQuote{}, res, err
	}
	return quote, res, nil
}

func (s *Service) applyQuoteDefaults(in *QuoteInput, now time.Time) {
	if in.PaymentTerms == "" {
		in.PaymentTerms = s.settings.PaymentTerms
	}
	if in.DeliveryTerms == "" {
		in.DeliveryTerms = s.settings.DeliveryTerms
	}
	if in.ValidUntil.IsZero() {
		in.ValidUntil = now.AddDate(0, 0, s.settings.QuoteValidityDays)
	}
}

// buildQuote assembles a DRAFT quote with the next revision number for the
// project. Totals derive from the supplied lines; the VAT rate is captured
// from settings at creation.
func buildQuote(p *Project, in QuoteInput, vatRate float64, now time.Time) ProjectQuote {
	revision := 1
	for _, q := range p.Quotes {
		if q.Revision >= revision {
			revision = q.Revision + 1
		}
	}
	quote := ProjectQuote{
		ID:            uuid.NewString(),
		QuoteNumber:   fmt.Sprintf("%s-Q%d", p.Code, revision),
		Revision:      revision,
		Status:        domain.QuoteDraft,
		Lines:         append([]domain.QuoteLine(nil), in.Lines...),
		VatRate:       vatRate,
		ValidUntil:    in.ValidUntil,
		PaymentTerms:  in.PaymentTerms,
		DeliveryTerms: in.DeliveryTerms,
		CreatedAt:     now,
	}
	var subtotal float64
	for _, line := range quote.Lines {
		subtotal += line.LineTotalExclVat
	}
	quote.SubtotalExclVat = round2(subtotal)
	quote.VatAmount = round2(subtotal * vatRate)
	quote.TotalInclVat = round2(quote.SubtotalExclVat + quote.VatAmount)
	return quote
}
