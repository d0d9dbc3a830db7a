package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/shopspring/decimal"
)

func testSummarizer(baseURL string) *HTTPSummarizer {
	return &HTTPSummarizer{
		client:  &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
		apiKey:  "test-key",
	}
}

func sampleBuckets() []models.AgingBucket {
	return models.ComputeAging([]models.Invoice{
		{ID: "INV-1", DueDate: models.ParseDateString("2024-05-31"), BalanceDue: decimal.NewFromInt(5000)},
	}, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC))
}

func TestHTTPSummarizer_ReturnsServiceText(t *testing.T) {
	t.Setenv("SUMMARY_DISABLED", "")

	var gotPath, gotAuth string
	var gotReq summaryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(summaryResponse{Text: "Receivables are concentrated in the 31-60 day bucket."})
	}))
	defer srv.Close()

	got := testSummarizer(srv.URL).SummarizeAudit(context.Background(), 3, sampleBuckets())
	if got != "Receivables are concentrated in the 31-60 day bucket." {
		t.Fatalf("unexpected narrative: %q", got)
	}
	if gotPath != "/summaries" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotReq.Kind != "audit" {
		t.Fatalf("unexpected request kind: %q", gotReq.Kind)
	}
}

func TestHTTPSummarizer_FailuresDegradeToPlaceholder(t *testing.T) {
	t.Setenv("SUMMARY_DISABLED", "")

	errorSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer errorSrv.Close()
	emptySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(summaryResponse{Text: "   "})
	}))
	defer emptySrv.Close()

	cases := []struct {
		name string
		s    *HTTPSummarizer
	}{
		{"no base url", testSummarizer("")},
		{"unreachable", testSummarizer("http://127.0.0.1:1")},
		{"non-200 status", testSummarizer(errorSrv.URL)},
		{"blank summary text", testSummarizer(emptySrv.URL)},
	}
	for _, tc := range cases {
		if got := tc.s.SummarizeAudit(context.Background(), 0, nil); got != SummaryPlaceholder {
			t.Fatalf("%s: expected placeholder, got %q", tc.name, got)
		}
	}
}

func TestHTTPSummarizer_DisabledFlagShortCircuits(t *testing.T) {
	t.Setenv("SUMMARY_DISABLED", "true")

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		json.NewEncoder(w).Encode(summaryResponse{Text: "should not be used"})
	}))
	defer srv.Close()

	got := testSummarizer(srv.URL).SummarizeCreditRisk(context.Background(), models.Customer{ID: "C-1"}, nil)
	if got != SummaryPlaceholder {
		t.Fatalf("expected placeholder when disabled, got %q", got)
	}
	if called {
		t.Fatalf("disabled summarizer must not call the service")
	}
}
