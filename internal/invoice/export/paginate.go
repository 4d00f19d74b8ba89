// Package export turns rendered invoice HTML into a paginated A4 PDF: the page
// is rasterized once, then the bitmap is sliced across as many pages as its
// height requires.
package export

import "errors"

const (
	// CaptureWidthPx is the CSS width of the off-screen A4 document (A4 at ~96dpi).
	CaptureWidthPx = 794
	// CaptureScale is the device scale used when rasterizing.
	CaptureScale = 2

	// remainderEpsilon absorbs float noise when the image height is an exact
	// multiple of the page height.
	remainderEpsilon = 1e-6
)

// ErrEmptyCapture is returned for bitmaps without area.
var ErrEmptyCapture = errors.New("export: capture has no area")

// PageSize is a page format in millimetres.
type PageSize struct {
	Width  float64
	Height float64
}

// A4 portrait.
var A4 = PageSize{Width: 210, Height: 297}

// Layout places one bitmap on consecutive pages.
type Layout struct {
	// ImageWidth and ImageHeight are the placed image size in millimetres.
	ImageWidth  float64
	ImageHeight float64
	// Offsets holds the vertical position of the image on each page. The first
	// page starts at 0 and every following page is shifted up by one more page height.
	Offsets []float64
}

// Pages returns the number of pages the layout produces.
func (l Layout) Pages() int { return len(l.Offsets) }

// Paginate scales a bitmap of widthPx × heightPx to the page width and slices
// it vertically. Content that fits one page produces exactly one page.
func Paginate(widthPx, heightPx int, page PageSize) (Layout, error) {
	if widthPx <= 0 || heightPx <= 0 || page.Width <= 0 || page.Height <= 0 {
		return Layout{}, ErrEmptyCapture
	}
	imgW := page.Width
	imgH := float64(heightPx) * imgW / float64(widthPx)

	layout := Layout{ImageWidth: imgW, ImageHeight: imgH, Offsets: []float64{0}}
	remaining := imgH - page.Height
	for remaining > remainderEpsilon {
		layout.Offsets = append(layout.Offsets, -(imgH - remaining))
		remaining -= page.Height
	}
	return layout, nil
}
