package invoice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/invoice/export"
)

// CaptureTemplate is the standalone A4 document that gets rasterized.
const CaptureTemplate = "reports/invoice_capture.html"

// TemplateExecutor renders a named template; satisfied by *view.Engine.
type TemplateExecutor interface {
	Execute(w io.Writer, name string, data any) error
}

// CaptureData feeds CaptureTemplate.
type CaptureData struct {
	Locale   i18n.Locale
	Messages i18n.Messages
	Preview  Preview
	WidthPx  int
	Scale    int
}

// PDFRenderer turns an invoice into a paginated PDF, caching the result per
// invoice revision and locale.
type PDFRenderer struct {
	templates TemplateExecutor
	exporter  *export.Exporter
	cache     *export.Cache
	catalog   *i18n.Catalog
}

// NewPDFRenderer wires the capture template, exporter and cache. cache may be nil.
func NewPDFRenderer(templates TemplateExecutor, exporter *export.Exporter, cache *export.Cache, catalog *i18n.Catalog) *PDFRenderer {
	return &PDFRenderer{templates: templates, exporter: exporter, cache: cache, catalog: catalog}
}

// CacheKey identifies one rendered revision of an invoice.
func CacheKey(inv Invoice, loc i18n.Locale) string {
	return export.Key(inv.ID, strconv.FormatInt(inv.UpdatedAt.UnixMicro(), 10), string(loc))
}

// Render returns the PDF for inv in loc. cached reports whether it was served
// from the cache.
func (p *PDFRenderer) Render(ctx context.Context, inv Invoice, totals Totals, loc i18n.Locale) (export.Document, bool, error) {
	return p.cache.Fetch(ctx, CacheKey(inv, loc), func(ctx context.Context) (export.Document, error) {
		html, err := p.CaptureHTML(inv, totals, loc)
		if err != nil {
			return export.Document{}, err
		}
		return p.exporter.Export(ctx, html)
	})
}

// CaptureHTML renders the document handed to the rasterizer.
func (p *PDFRenderer) CaptureHTML(inv Invoice, totals Totals, loc i18n.Locale) (string, error) {
	loc, msgs := p.catalog.Load(string(loc))
	var buf bytes.Buffer
	err := p.templates.Execute(&buf, CaptureTemplate, CaptureData{
		Locale:   loc,
		Messages: msgs,
		Preview:  NewPreview(inv, totals, loc),
		WidthPx:  export.CaptureWidthPx,
		Scale:    export.CaptureScale,
	})
	if err != nil {
		return "", fmt.Errorf("invoice: render capture: %w", err)
	}
	return buf.String(), nil
}
