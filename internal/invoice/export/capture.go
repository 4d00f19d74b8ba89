package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
)

// Bitmap is a rasterized document.
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// Capturer rasterizes an HTML document.
type Capturer interface {
	Capture(ctx context.Context, html string) (Bitmap, error)
}

// ScreenshotOptions are forwarded to the screenshot backend.
type ScreenshotOptions struct {
	Width  int
	Format string
}

// Screenshotter takes a full-page screenshot of an HTML document.
type Screenshotter interface {
	ScreenshotHTML(ctx context.Context, html string, opts ScreenshotOptions) ([]byte, error)
}

// ScreenshotCapturer adapts a Screenshotter to Capturer and reads the bitmap
// dimensions from the returned PNG.
type ScreenshotCapturer struct {
	Backend Screenshotter
	// WidthPx is the viewport width; defaults to CaptureWidthPx × CaptureScale.
	WidthPx int
}

// Capture implements Capturer.
func (c ScreenshotCapturer) Capture(ctx context.Context, html string) (Bitmap, error) {
	if c.Backend == nil {
		return Bitmap{}, errors.New("export: screenshot backend not configured")
	}
	width := c.WidthPx
	if width <= 0 {
		width = CaptureWidthPx * CaptureScale
	}
	data, err := c.Backend.ScreenshotHTML(ctx, html, ScreenshotOptions{Width: width, Format: "png"})
	if err != nil {
		return Bitmap{}, err
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Bitmap{}, fmt.Errorf("export: decode screenshot: %w", err)
	}
	if format != "png" {
		return Bitmap{}, fmt.Errorf("export: unexpected screenshot format %q", format)
	}
	return Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}
