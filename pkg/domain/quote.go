package domain

import "time"

// QuoteStatus represents the state of a single quote document.
type QuoteStatus string

// Quote statuses. EXPIRED is derived from ValidUntil at read time and never
// stored; SUPERSEDED replaces a quote when a newer revision is created.
const (
	QuoteDraft      QuoteStatus = "DRAFT"
	QuoteSent       QuoteStatus = "SENT"
	QuoteAccepted   QuoteStatus = "ACCEPTED"
	QuoteRejected   QuoteStatus = "REJECTED"
	QuoteExpired    QuoteStatus = "EXPIRED"
	QuoteSuperseded QuoteStatus = "SUPERSEDED"
)

// CanEditQuote permits edits on DRAFT quotes only.
func CanEditQuote(q ProjectQuote) Check {
	var c Check
	if q.Status != QuoteDraft {
		return c.Fail("only draft quotes can be edited")
	}
	return c
}

// CanSendQuote permits sending a DRAFT quote that has lines and a positive
// total.
func CanSendQuote(q ProjectQuote) Check {
	var c Check
	if q.Status != QuoteDraft {
		c = c.Fail("only draft quotes can be sent")
	}
	if len(q.Lines) == 0 {
		c = c.Fail("quote has no lines")
	}
	if q.TotalInclVat <= 0 {
		c = c.Fail("quote total must be positive")
	}
	return c
}

// CanAcceptQuote permits accepting a SENT quote whose validity window has not
// passed at the given instant.
func CanAcceptQuote(q ProjectQuote, now time.Time) Check {
	var c Check
	if q.Status != QuoteSent {
		return c.Fail("only sent quotes can be accepted")
	}
	if now.After(q.ValidUntil) {
		return c.Fail("quote has expired")
	}
	return c
}

// QuoteImmutable reports whether the quote's lines and totals are locked.
// True for every status except DRAFT.
func QuoteImmutable(q ProjectQuote) bool {
	return q.Status != QuoteDraft
}

// EffectiveQuoteStatus derives the observed status: a SENT quote past its
// validity window reads as EXPIRED without a stored transition.
func EffectiveQuoteStatus(q ProjectQuote, now time.Time) QuoteStatus {
	if q.Status == QuoteSent && now.After(q.ValidUntil) {
		return QuoteExpired
	}
	return q.Status
}

// QuoteInput is the caller-supplied portion of a new quote.
type QuoteInput struct {
	Lines         []QuoteLine
	ValidUntil    time.Time
	PaymentTerms  string
	DeliveryTerms string
}

// ValidateQuoteInput accumulates every violation in the input rather than
// short-circuiting.
func ValidateQuoteInput(in QuoteInput) Check {
	var c Check
	if len(in.Lines) == 0 {
		c = c.Fail("quote requires at least one line")
	}
	if in.ValidUntil.IsZero() {
		c = c.Fail("quote requires a validity date")
	}
	if in.PaymentTerms == "" {
		c = c.Fail("quote requires payment terms")
	}
	if in.DeliveryTerms == "" {
		c = c.Fail("quote requires delivery terms")
	}
	return c
}
