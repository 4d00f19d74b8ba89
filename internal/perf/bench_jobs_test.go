package perf

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/invoicely/invoicely/internal/invoice/export"
	jobmetrics "github.com/invoicely/invoicely/internal/jobs"
	"github.com/invoicely/invoicely/jobs"
)

func TestPDFWarmupThroughputAndReliability(t *testing.T) {
	if testing.Short() {
		t.Skip("throughput targets skipped in short mode")
	}
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)
	exporter := export.NewExporter(nil, nil)
	bmp := captureBitmap(t, 4400)

	for i := 0; i < 20; i++ {
		tracker := metrics.Track(jobs.TaskInvoicePDFWarmup)
		doc, err := exporter.Assemble(bmp)
		if err := tracker.End(err); err != nil {
			t.Fatalf("unexpected assemble error: %v", err)
		}
		metrics.AddWarmedPages("fr", doc.Pages)
	}

	// An empty capture is the one failure mode reachable without a backend.
	for i := 0; i < 2; i++ {
		tracker := metrics.Track(jobs.TaskInvoicePDFWarmup)
		_, err := exporter.Assemble(export.Bitmap{})
		if err := tracker.End(err); !errors.Is(err, export.ErrAssemble) {
			t.Fatalf("expected assemble error, got %v", err)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "invoicely_jobs_total", map[string]string{"job": jobs.TaskInvoicePDFWarmup, "status": "success"})
	failure := metricValue(t, families, "invoicely_jobs_total", map[string]string{"job": jobs.TaskInvoicePDFWarmup, "status": "failure"})
	if success+failure != 22 {
		t.Fatalf("recorded %v executions, want 22", success+failure)
	}
	if ratio := success / (success + failure); ratio < 0.9 {
		t.Fatalf("warm-up success ratio too low: %f", ratio)
	}

	pages := metricValue(t, families, "invoicely_pdf_warmed_pages_total", map[string]string{"locale": "fr"})
	if pages != 40 {
		t.Fatalf("warmed pages = %v, want 40", pages)
	}

	mean := histogramMean(t, families, "invoicely_job_duration_seconds", map[string]string{"job": jobs.TaskInvoicePDFWarmup})
	if mean > 2.0 {
		t.Fatalf("warm-up duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
