package invoice

import "time"

type totalsJSON struct {
	TotalHT  string `json:"totalHT"`
	TotalVAT string `json:"totalVAT"`
	TotalTTC string `json:"totalTTC"`
}

type lineJSON struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type invoiceJSON struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	IssuerName    string     `json:"issuerName"`
	IssuerAddress string     `json:"issuerAddress"`
	ClientName    string     `json:"clientName"`
	ClientAddress string     `json:"clientAddress"`
	InvoiceDate   string     `json:"invoiceDate,omitempty"`
	DueDate       string     `json:"dueDate,omitempty"`
	VATActive     bool       `json:"vatActive"`
	VATRate       float64    `json:"vatRate"`
	Lines         []lineJSON `json:"lines"`
	Totals        totalsJSON `json:"totals"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

type summaryJSON struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ClientName string    `json:"clientName"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func newInvoiceJSON(inv Invoice, totals Totals) invoiceJSON {
	out := invoiceJSON{
		ID:            inv.ID,
		Name:          inv.Name,
		IssuerName:    inv.IssuerName,
		IssuerAddress: inv.IssuerAddress,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		InvoiceDate:   isoDate(inv.InvoiceDate),
		DueDate:       isoDate(inv.DueDate),
		VATActive:     inv.VATActive,
		VATRate:       inv.VATRate,
		Lines:         make([]lineJSON, 0, len(inv.Lines)),
		Totals: totalsJSON{
			TotalHT:  totals.TotalHT.StringFixed(2),
			TotalVAT: totals.TotalVAT.StringFixed(2),
			TotalTTC: totals.TotalTTC.StringFixed(2),
		},
		UpdatedAt: inv.UpdatedAt,
	}
	for _, l := range inv.Lines {
		out.Lines = append(out.Lines, lineJSON(l))
	}
	return out
}

func newSummaryJSON(inv Invoice) summaryJSON {
	return summaryJSON{ID: inv.ID, Name: inv.Name, ClientName: inv.ClientName, UpdatedAt: inv.UpdatedAt}
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
