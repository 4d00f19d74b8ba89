package invoice

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/invoicely/invoicely/internal/i18n"
)

// Preview is the display form of an invoice. Amounts are already formatted;
// totals are taken as given and never recomputed from the lines.
type Preview struct {
	ID            string
	Name          string
	IssuerName    string
	IssuerAddress string
	ClientName    string
	ClientAddress string
	InvoiceDate   string
	DueDate       string
	Lines         []PreviewLine
	VATActive     bool
	VATRate       string
	TotalHT       string
	TotalVAT      string
	TotalTTC      string
}

// PreviewLine is one formatted table row. Number is 1-based.
type PreviewLine struct {
	Number      int
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// NewPreview formats inv and totals for loc.
func NewPreview(inv Invoice, totals Totals, loc i18n.Locale) Preview {
	p := Preview{
		ID:            inv.ID,
		Name:          inv.Name,
		IssuerName:    inv.IssuerName,
		IssuerAddress: inv.IssuerAddress,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		InvoiceDate:   i18n.FormatDate(inv.InvoiceDate, loc),
		DueDate:       i18n.FormatDate(inv.DueDate, loc),
		Lines:         make([]PreviewLine, 0, len(inv.Lines)),
		VATActive:     inv.VATActive,
		VATRate:       strconv.FormatFloat(inv.VATRate, 'f', -1, 64),
		TotalHT:       FormatMoney(totals.TotalHT),
		TotalVAT:      FormatMoney(totals.TotalVAT),
		TotalTTC:      FormatMoney(totals.TotalTTC),
	}
	for i, line := range inv.Lines {
		p.Lines = append(p.Lines, PreviewLine{
			Number:      i + 1,
			Description: line.Description,
			Quantity:    strconv.FormatFloat(line.Quantity, 'f', -1, 64),
			UnitPrice:   FormatMoney(decimal.NewFromFloat(line.UnitPrice)),
			Amount:      FormatMoney(line.Amount()),
		})
	}
	return p
}

// FormatMoney renders an amount with two decimals and a euro suffix.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " €"
}

// Filename is the download name of the exported PDF.
func Filename(inv Invoice) string {
	return "facture-" + inv.Name + ".pdf"
}
