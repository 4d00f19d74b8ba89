package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicely/invoicely/internal/i18n"
)

func sampleInvoice() Invoice {
	return Invoice{
		ID:            "7f1f4a3e-8a4b-4b7e-9a59-0e0f3f8c2d11",
		Name:          "2024-001",
		IssuerName:    "Atelier Dupont",
		IssuerAddress: "12 rue des Lilas",
		ClientName:    "Société Martin",
		ClientAddress: "4 avenue Foch",
		InvoiceDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		VATActive:     true,
		VATRate:       20,
		Lines: []Line{
			{Description: "Design", Quantity: 2, UnitPrice: 150},
			{Description: "Hosting", Quantity: 1.5, UnitPrice: 29.9},
		},
		UpdatedAt: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
	}
}

func TestPreviewTakesTotalsAsGiven(t *testing.T) {
	// Totals deliberately unrelated to the lines.
	totals := Totals{
		TotalHT:  decimal.RequireFromString("1"),
		TotalVAT: decimal.RequireFromString("0.125"),
		TotalTTC: decimal.RequireFromString("999.999"),
	}
	p := NewPreview(sampleInvoice(), totals, i18n.English)

	assert.Equal(t, "1.00 €", p.TotalHT)
	assert.Equal(t, "0.13 €", p.TotalVAT)
	assert.Equal(t, "1000.00 €", p.TotalTTC)
}

func TestPreviewLines(t *testing.T) {
	inv := sampleInvoice()
	p := NewPreview(inv, ComputeTotals(inv), i18n.French)

	require.Len(t, p.Lines, 2)
	assert.Equal(t, PreviewLine{Number: 1, Description: "Design", Quantity: "2", UnitPrice: "150.00 €", Amount: "300.00 €"}, p.Lines[0])
	assert.Equal(t, "1.5", p.Lines[1].Quantity)
	assert.Equal(t, "44.85 €", p.Lines[1].Amount)
	assert.Equal(t, "01 mars 2024", p.InvoiceDate)
	assert.Equal(t, "31 mars 2024", p.DueDate)
	assert.Equal(t, "20", p.VATRate)
	assert.True(t, p.VATActive)
}

func TestPreviewWithoutLines(t *testing.T) {
	inv := sampleInvoice()
	inv.Lines = nil
	inv.VATActive = false
	inv.InvoiceDate = time.Time{}

	p := NewPreview(inv, ComputeTotals(inv), i18n.English)
	assert.Empty(t, p.Lines)
	assert.NotNil(t, p.Lines)
	assert.False(t, p.VATActive)
	assert.Equal(t, "0.00 €", p.TotalHT)
	assert.Equal(t, "0.00 €", p.TotalTTC)
	assert.Equal(t, "", p.InvoiceDate)
	assert.Equal(t, "Mar 31, 2024", p.DueDate)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "facture-2024-001.pdf", Filename(Invoice{Name: "2024-001"}))
	assert.Equal(t, "facture-Été 2024.pdf", Filename(Invoice{Name: "Été 2024"}))
}
