package workflow

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/audit_backend/config"
	"github.com/mmdatafocus/audit_backend/models"
)

// SummaryPlaceholder is shown whenever the narrative service cannot answer.
// Collaborator failures degrade to this text; they never abort a request or
// touch the audit store.
const SummaryPlaceholder = "AI commentary is unavailable right now. Please review the reported figures directly."

// Summarizer produces free-text commentary for structured audit findings.
// Both methods are best-effort: they return placeholder text on failure and
// never return an error to the caller.
type Summarizer interface {
	SummarizeAudit(ctx context.Context, issueCount int, buckets []models.AgingBucket) string
	SummarizeCreditRisk(ctx context.Context, customer models.Customer, invoices []models.Invoice) string
}

// HTTPSummarizer posts findings to an external generative-AI service.
// Successful summaries are cached in redis keyed by a hash of the findings,
// so repeated reads of an unchanged dataset reuse the same narrative.
type HTTPSummarizer struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPSummarizer() *HTTPSummarizer {
	return &HTTPSummarizer{
		client:  &http.Client{Timeout: 60 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("SUMMARY_API_URL")), "/"),
		apiKey:  strings.TrimSpace(os.Getenv("SUMMARY_API_KEY")),
	}
}

type summaryRequest struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

type summaryResponse struct {
	Text string `json:"text"`
}

func (s *HTTPSummarizer) SummarizeAudit(ctx context.Context, issueCount int, buckets []models.AgingBucket) string {
	return s.summarize(ctx, summaryRequest{
		Kind: "audit",
		Payload: map[string]any{
			"compliance_issue_count": issueCount,
			"aging_buckets":          buckets,
		},
	})
}

func (s *HTTPSummarizer) SummarizeCreditRisk(ctx context.Context, customer models.Customer, invoices []models.Invoice) string {
	return s.summarize(ctx, summaryRequest{
		Kind: "credit_risk",
		Payload: map[string]any{
			"customer": customer,
			"invoices": invoices,
		},
	})
}

func (s *HTTPSummarizer) summarize(ctx context.Context, req summaryRequest) string {
	ctx, span := tracer.Start(ctx, "summary."+req.Kind)
	defer span.End()

	logger := config.GetLogger()
	if config.SummaryDisabled() {
		return SummaryPlaceholder
	}
	if s.baseURL == "" {
		return SummaryPlaceholder
	}

	body, err := json.Marshal(req)
	if err != nil {
		config.LogError(logger, "workflow", "summarize", "Marshal request", req.Kind, err)
		return SummaryPlaceholder
	}

	cacheKey := "Summary:" + summaryHash(body)
	var cached string
	if exists, err := config.GetRedisObject(cacheKey, &cached); err == nil && exists && cached != "" {
		return cached
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/summaries", bytes.NewReader(body))
	if err != nil {
		config.LogError(logger, "workflow", "summarize", "NewRequest", req.Kind, err)
		return SummaryPlaceholder
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		config.LogError(logger, "workflow", "summarize", "Do request", req.Kind, err)
		return SummaryPlaceholder
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		config.LogError(logger, "workflow", "summarize", "Response status", req.Kind,
			fmt.Errorf("summary service returned %d", resp.StatusCode))
		return SummaryPlaceholder
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		config.LogError(logger, "workflow", "summarize", "Read response", req.Kind, err)
		return SummaryPlaceholder
	}
	var parsed summaryResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil || strings.TrimSpace(parsed.Text) == "" {
		if err == nil {
			err = errors.New("empty summary text")
		}
		config.LogError(logger, "workflow", "summarize", "Unmarshal response", req.Kind, err)
		return SummaryPlaceholder
	}

	if err := config.SetRedisObject(cacheKey, parsed.Text, 24*time.Hour); err != nil {
		config.LogError(logger, "workflow", "summarize", "Cache summary", cacheKey, err)
	}
	return parsed.Text
}

func summaryHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
