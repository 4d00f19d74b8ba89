package perf

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"
	"testing"
	"time"

	"github.com/invoicely/invoicely/internal/invoice/export"
)

// captureBitmap builds a white bitmap at the capture width, like the
// screenshot backend returns.
func captureBitmap(tb testing.TB, height int) export.Bitmap {
	tb.Helper()
	width := export.CaptureWidthPx * export.CaptureScale
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return export.Bitmap{PNG: buf.Bytes(), Width: width, Height: height}
}

func TestExportLatencyTargets(t *testing.T) {
	if testing.Short() {
		t.Skip("latency targets skipped in short mode")
	}
	scenarios := []struct {
		name      string
		height    int
		pages     int
		threshold time.Duration
	}{
		{name: "single page", height: 2000, pages: 1, threshold: 500 * time.Millisecond},
		{name: "three pages", height: 6000, pages: 3, threshold: 2 * time.Second},
	}

	exporter := export.NewExporter(nil, nil)
	for _, scenario := range scenarios {
		bmp := captureBitmap(t, scenario.height)
		samples := make([]time.Duration, 0, 10)
		for i := 0; i < 10; i++ {
			start := time.Now()
			doc, err := exporter.Assemble(bmp)
			samples = append(samples, time.Since(start))
			if err != nil {
				t.Fatalf("%s: assemble: %v", scenario.name, err)
			}
			if doc.Pages != scenario.pages {
				t.Fatalf("%s: pages=%d want %d", scenario.name, doc.Pages, scenario.pages)
			}
		}
		p95 := percentile95(samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s assembly regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func BenchmarkAssemble(b *testing.B) {
	exporter := export.NewExporter(nil, nil)
	bmp := captureBitmap(b, 4400)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := exporter.Assemble(bmp); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPaginate(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := export.Paginate(1588, 20000, export.A4); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
