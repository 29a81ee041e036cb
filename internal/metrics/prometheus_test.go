package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordImportRows(t *testing.T) {
	before := testutil.ToFloat64(importRows.WithLabelValues("preview", "invalid"))
	RecordImportRows("preview", 4, 2)
	after := testutil.ToFloat64(importRows.WithLabelValues("preview", "invalid"))
	if after-before != 2 {
		t.Fatalf("expected invalid rows to grow by 2, got %v", after-before)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	RecordHTTPRequest("GET /v1/metrics", "GET", 200, 15*time.Millisecond)
	RecordComputation("portfolio", 12)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`mindful_http_requests_total{method="GET",route="GET /v1/metrics",status="200"}`,
		`mindful_analytics_computations_total{calculator="portfolio"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("expected %s in scrape output", want)
		}
	}
}
