package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

var (
	// ErrCapture wraps rasterization failures.
	ErrCapture = errors.New("export: capture failed")
	// ErrAssemble wraps PDF assembly failures.
	ErrAssemble = errors.New("export: assemble failed")
)

// Document is a finished PDF.
type Document struct {
	Data  []byte
	Pages int
}

// Recorder observes export outcomes.
type Recorder interface {
	ObserveExport(result string, pages int)
}

// Exporter rasterizes HTML and lays the bitmap out on A4 pages.
type Exporter struct {
	Capturer Capturer
	Page     PageSize
	Recorder Recorder
}

// NewExporter returns an A4 exporter.
func NewExporter(capturer Capturer, recorder Recorder) *Exporter {
	return &Exporter{Capturer: capturer, Page: A4, Recorder: recorder}
}

// Export captures html and assembles the PDF. Errors wrap ErrCapture or ErrAssemble.
func (e *Exporter) Export(ctx context.Context, html string) (Document, error) {
	if e == nil || e.Capturer == nil {
		return Document{}, fmt.Errorf("%w: exporter not configured", ErrCapture)
	}
	bmp, err := e.Capturer.Capture(ctx, html)
	if err != nil {
		e.observe("capture_error", 0)
		return Document{}, fmt.Errorf("%w: %w", ErrCapture, err)
	}
	doc, err := e.Assemble(bmp)
	if err != nil {
		e.observe("assemble_error", 0)
		return Document{}, err
	}
	e.observe("ok", doc.Pages)
	return doc, nil
}

// Assemble builds the PDF from an already captured bitmap.
func (e *Exporter) Assemble(bmp Bitmap) (Document, error) {
	page := e.Page
	if page.Width == 0 {
		page = A4
	}
	layout, err := Paginate(bmp.Width, bmp.Height, page)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrAssemble, err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)

	const imageName = "invoice"
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(bmp.PNG))
	for _, y := range layout.Offsets {
		pdf.AddPage()
		pdf.ImageOptions(imageName, 0, y, layout.ImageWidth, layout.ImageHeight, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrAssemble, err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrAssemble, err)
	}
	return Document{Data: buf.Bytes(), Pages: layout.Pages()}, nil
}

func (e *Exporter) observe(result string, pages int) {
	if e.Recorder != nil {
		e.Recorder.ObserveExport(result, pages)
	}
}
