package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestHTTPMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.ObserveRequest(http.MethodPost, "/api/v1/checkout/session", http.StatusCreated, 120*time.Millisecond)
	metrics.ObserveRequest(http.MethodPost, "/api/v1/checkout/session", http.StatusCreated, 80*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "201"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 2 {
		t.Fatalf("expected requests=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/checkout/session"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestHTTPMetricsNilSafe(t *testing.T) {
	var metrics *HTTPMetrics
	metrics.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	empty := NewHTTPMetrics(nil)
	empty.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
}

func TestBookingMetricsObserveBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewBookingMetrics(reg)
	metrics.ObserveBooking("event", 1350, true)
	metrics.ObserveBooking("event", 500, false)
	metrics.ObserveBooking("", 0, false)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "bookings_total", "category", "event"); err != nil {
		t.Fatalf("fetch bookings: %v", err)
	} else if got != 2 {
		t.Fatalf("expected bookings=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "coupon_redemptions_total", "category", "event"); err != nil {
		t.Fatalf("fetch redemptions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected redemptions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "booking_grand_total_units", "category", "event"); err != nil {
		t.Fatalf("fetch grand total: %v", err)
	} else if got != 1850 {
		t.Fatalf("expected grand total=1850, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "bookings_total", "category", "unknown"); err != nil {
		t.Fatalf("fetch unknown bookings: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown bookings=1, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
