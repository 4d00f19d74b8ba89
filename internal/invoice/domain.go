// Package invoice owns invoices, their line items and the totals shown on them.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicely/invoicely/internal/shared"
)

var (
	// ErrNotFound indicates the invoice does not exist or belongs to someone else.
	ErrNotFound = fmt.Errorf("invoice: %w", shared.ErrNotFound)
	// ErrValidation wraps field-level input errors.
	ErrValidation = fmt.Errorf("invoice: %w", shared.ErrValidation)
)

// DefaultVATRate is the rate proposed for new invoices, in percent.
const DefaultVATRate = 20

// Invoice is the billable document.
type Invoice struct {
	ID            string
	OwnerID       int64
	Name          string
	IssuerName    string
	IssuerAddress string
	ClientName    string
	ClientAddress string
	InvoiceDate   time.Time
	DueDate       time.Time
	VATActive     bool
	VATRate       float64
	Lines         []Line
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Line is one billable row.
type Line struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

// Amount is quantity times unit price.
func (l Line) Amount() decimal.Decimal {
	return decimal.NewFromFloat(l.Quantity).Mul(decimal.NewFromFloat(l.UnitPrice))
}

// Totals are the aggregate amounts printed at the bottom of an invoice.
type Totals struct {
	TotalHT  decimal.Decimal
	TotalVAT decimal.Decimal
	TotalTTC decimal.Decimal
}

// ComputeTotals derives the pre-tax, VAT and tax-inclusive totals.
func ComputeTotals(inv Invoice) Totals {
	ht := decimal.Zero
	for _, line := range inv.Lines {
		ht = ht.Add(line.Amount())
	}
	vat := decimal.Zero
	if inv.VATActive {
		vat = ht.Mul(decimal.NewFromFloat(inv.VATRate)).Div(decimal.NewFromInt(100))
	}
	return Totals{TotalHT: ht, TotalVAT: vat, TotalTTC: ht.Add(vat)}
}

// UpdateInput carries the editable fields of an invoice.
type UpdateInput struct {
	Name          string      `validate:"required,max=120"`
	IssuerName    string      `validate:"max=200"`
	IssuerAddress string      `validate:"max=500"`
	ClientName    string      `validate:"max=200"`
	ClientAddress string      `validate:"max=500"`
	InvoiceDate   time.Time
	DueDate       time.Time
	VATActive     bool
	VATRate       float64     `validate:"gte=0,lte=100"`
	Lines         []LineInput `validate:"max=200,dive"`
}

// LineInput is one submitted line item.
type LineInput struct {
	Description string  `validate:"max=500"`
	Quantity    float64 `validate:"gte=0,lte=9999999999"`
	UnitPrice   float64 `validate:"gte=0,lte=9999999999"`
}

// ValidationError lists the offending fields by name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	return "invoice: invalid fields: " + strings.Join(keys, ", ")
}

// Unwrap lets callers match with errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error { return ErrValidation }
