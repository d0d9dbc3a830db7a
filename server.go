package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/audit_backend/config"
	"github.com/mmdatafocus/audit_backend/middlewares"
	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/models/reports"
	"github.com/mmdatafocus/audit_backend/utils"
	"github.com/mmdatafocus/audit_backend/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

type replaceDatasetRequest struct {
	Kind    models.RecordKind `json:"kind" binding:"required"`
	Records json.RawMessage   `json:"records" binding:"required"`
}

func replaceDatasetHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req replaceDatasetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var vErrs validator.ValidationErrors
			if errors.As(err, &vErrs) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		var applyErr error
		var count int
		switch req.Kind {
		case models.RecordKindAccounts:
			var records []models.Account
			if err := json.Unmarshal(req.Records, &records); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "records do not match kind " + string(req.Kind)})
				return
			}
			count = len(records)
			applyErr = store.Replace(req.Kind, records)
		case models.RecordKindCustomers:
			var records []models.Customer
			if err := json.Unmarshal(req.Records, &records); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "records do not match kind " + string(req.Kind)})
				return
			}
			count = len(records)
			applyErr = store.Replace(req.Kind, records)
		case models.RecordKindInvoices:
			var records []models.Invoice
			if err := json.Unmarshal(req.Records, &records); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "records do not match kind " + string(req.Kind)})
				return
			}
			count = len(records)
			applyErr = store.Replace(req.Kind, records)
		case models.RecordKindTransactions:
			var records []models.Transaction
			if err := json.Unmarshal(req.Records, &records); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "records do not match kind " + string(req.Kind)})
				return
			}
			count = len(records)
			applyErr = store.Replace(req.Kind, records)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record kind"})
			return
		}
		if applyErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": applyErr.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"kind":         req.Kind,
			"record_count": count,
		})
	}
}

func datasetHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": store.Dataset()})
	}
}

func complianceHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		issues := store.ComplianceIssues()
		c.JSON(http.StatusOK, gin.H{
			"data":  issues,
			"count": len(issues),
		})
	}
}

// asOfFromQuery reads the caller-supplied reference date. "Today" is only a
// convenience default at this boundary; the aging engine itself always gets
// an explicit date.
func asOfFromQuery(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("as_of"))
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}
	d := models.ParseDateString(raw)
	if d.IsZero() {
		return time.Time{}, false
	}
	return d.Time(), true
}

func agingHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf, ok := asOfFromQuery(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a date (YYYY-MM-DD)"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"as_of": asOf.Format("2006-01-02"),
			"data":  store.AgingBuckets(asOf),
		})
	}
}

func agingExportHandler(store *models.AuditStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf, ok := asOfFromQuery(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a date (YYYY-MM-DD)"})
			return
		}
		buckets := store.AgingBuckets(asOf)
		details := reports.GetAgingDetailReport(store.Dataset(), asOf)

		f, err := reports.ExportAgingExcel(buckets, details, asOf)
		if err != nil {
			config.LogError(config.GetLogger(), "server.go", "agingExportHandler", "ExportAgingExcel", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build export"})
			return
		}

		c.Writer.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Writer.Header().Set("Content-Disposition", "attachment; filename=ar_aging_"+asOf.Format("2006-01-02")+".xlsx")
		c.Status(http.StatusOK)
		if err := f.Write(c.Writer); err != nil {
			config.LogError(config.GetLogger(), "server.go", "agingExportHandler", "Write export", nil, err)
		}
	}
}

func auditSummaryHandler(store *models.AuditStore, summarizer workflow.Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		asOf, ok := asOfFromQuery(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "as_of must be a date (YYYY-MM-DD)"})
			return
		}
		issues := store.ComplianceIssues()
		buckets := store.AgingBuckets(asOf)
		narrative := summarizer.SummarizeAudit(c.Request.Context(), len(issues), buckets)

		c.JSON(http.StatusOK, gin.H{
			"as_of":                  asOf.Format("2006-01-02"),
			"compliance_issue_count": len(issues),
			"aging_buckets":          buckets,
			"narrative":              narrative,
		})
	}
}

func creditRiskHandler(store *models.AuditStore, summarizer workflow.Summarizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerId := strings.TrimSpace(c.Param("customerId"))
		customer, found := store.Customer(customerId)
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		invoices := store.CustomerInvoices(customerId)
		narrative := summarizer.SummarizeCreditRisk(c.Request.Context(), customer, invoices)

		c.JSON(http.StatusOK, gin.H{
			"customer":          customer,
			"latest_risk_score": customer.LatestRiskScore(),
			"risk_trend":        customer.RiskTrend(),
			"invoices":          invoices,
			"narrative":         narrative,
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// One store per process: created at session start, replaced wholesale on
	// ingestion, discarded at process end.
	store := models.NewAuditStore()
	summarizer := workflow.NewHTTPSummarizer()

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS: explicit allowlist via CORS_ALLOWED_ORIGINS in
	// production, allow all elsewhere.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = utils.UniqueSlice(splitAndTrim(allowedOrigins))
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.ErrorLoggerMiddleware(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.POST("/ingest", ingestHandler(store))
	r.POST("/internal/dataset/replace", replaceDatasetHandler(store))
	r.GET("/dataset", datasetHandler(store))
	r.GET("/compliance", complianceHandler(store))
	r.GET("/aging", agingHandler(store))
	r.GET("/aging/export", agingExportHandler(store))
	r.GET("/reports/audit-summary", auditSummaryHandler(store, summarizer))
	r.GET("/reports/credit-risk/:customerId", creditRiskHandler(store, summarizer))
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Redis is optional; connect after the port is open.
	config.ConnectRedis()

	logger.WithFields(logrus.Fields{
		"info": "Listening",
	}).Info("audit backend listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
