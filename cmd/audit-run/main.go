package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/models/reports"
	"github.com/mmdatafocus/audit_backend/workflow"
)

// audit-run ingests local CSV/JSON/XLSX files and prints the compliance and
// aging findings, for running an audit pass without the HTTP server.
func main() {
	asOfFlag := flag.String("as-of", "", "Reference date for aging (YYYY-MM-DD). Defaults to today UTC.")
	exportPath := flag.String("export", "", "Optional: write the aging workbook to this .xlsx path.")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: audit-run [-as-of YYYY-MM-DD] [-export out.xlsx] file...")
		os.Exit(2)
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if *asOfFlag != "" {
		d := models.ParseDateString(*asOfFlag)
		if d.IsZero() {
			fmt.Fprintln(os.Stderr, "invalid -as-of date:", *asOfFlag)
			os.Exit(2)
		}
		asOf = d.Time()
	}

	files := make([]workflow.IngestFile, 0, flag.NArg())
	for _, path := range flag.Args() {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read:", err)
			os.Exit(1)
		}
		files = append(files, workflow.IngestFile{
			Name:    filepath.Base(path),
			Format:  formatFromExtension(path),
			Content: content,
		})
	}

	store := models.NewAuditStore()
	outcome := workflow.IngestBatch(context.Background(), store, files)
	for _, f := range outcome.Files {
		if f.Rejected {
			fmt.Printf("%-30s REJECTED: %s\n", f.FileName, f.Reason)
			continue
		}
		fmt.Printf("%-30s %d records (%v)\n", f.FileName, f.RecordCount, f.Kinds)
	}
	if outcome.NothingRecognized {
		fmt.Fprintln(os.Stderr, "no file contained a recognizable dataset")
		os.Exit(1)
	}

	fmt.Println()
	issues := store.ComplianceIssues()
	fmt.Printf("Compliance issues: %d\n", len(issues))
	for _, issue := range issues {
		fmt.Printf("  [%s] %s\n", issue.Severity, issue.Description)
	}

	fmt.Printf("\nAR aging as of %s\n", asOf.Format("2006-01-02"))
	buckets := store.AgingBuckets(asOf)
	for _, b := range buckets {
		fmt.Printf("  %-12s %4d invoices  total %12s  allowance %12s\n",
			b.Label, b.InvoiceCount, b.TotalAmount.String(), b.EstimatedAllowance.String())
	}

	if *exportPath != "" {
		details := reports.GetAgingDetailReport(store.Dataset(), asOf)
		f, err := reports.ExportAgingExcel(buckets, details, asOf)
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(1)
		}
		if err := f.SaveAs(*exportPath); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(1)
		}
		fmt.Println("\nwrote", *exportPath)
	}
}

func formatFromExtension(path string) models.SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return models.SourceFormatJSON
	case ".xlsx":
		return models.SourceFormatXLSX
	default:
		return models.SourceFormatCSV
	}
}
