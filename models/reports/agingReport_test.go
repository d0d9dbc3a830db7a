package reports_test

import (
	"testing"
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/models/reports"
	"github.com/shopspring/decimal"
)

func refDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleDataset() models.Dataset {
	return models.Dataset{
		Customers: []models.Customer{
			{ID: "C-1", Name: "Acme"},
		},
		Invoices: []models.Invoice{
			{
				ID:         "INV-1",
				CustomerID: "C-1",
				DueDate:    models.ParseDateString("2024-05-31"),
				BalanceDue: decimal.NewFromInt(5000),
				Status:     models.InvoiceStatusOpen,
			},
			{
				ID:         "INV-2",
				CustomerID: "C-2",
				DueDate:    models.ParseDateString("2024-03-31"),
				BalanceDue: decimal.NewFromInt(1200),
				Status:     models.InvoiceStatusOpen,
			},
			{
				ID:         "INV-3",
				CustomerID: "C-1",
				DueDate:    models.ParseDateString("2024-06-30"),
				BalanceDue: decimal.Zero,
				Status:     models.InvoiceStatusPaid,
			},
		},
	}
}

func TestGetAgingDetailReport(t *testing.T) {
	rows := reports.GetAgingDetailReport(sampleDataset(), refDate("2024-07-01"))
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows (settled invoice skipped), got %d", len(rows))
	}

	if rows[0].InvoiceID != "INV-1" || rows[1].InvoiceID != "INV-2" {
		t.Fatalf("rows out of input order: %s, %s", rows[0].InvoiceID, rows[1].InvoiceID)
	}
	if rows[0].CustomerName != "Acme" {
		t.Fatalf("expected customer name resolved, got %q", rows[0].CustomerName)
	}
	if rows[0].DaysOverdue != 31 || rows[0].Bucket != "31-60 Days" {
		t.Fatalf("INV-1: got age %d bucket %q", rows[0].DaysOverdue, rows[0].Bucket)
	}
	if rows[1].DaysOverdue != 92 || rows[1].Bucket != "90+ Days" {
		t.Fatalf("INV-2: got age %d bucket %q", rows[1].DaysOverdue, rows[1].Bucket)
	}
	if rows[1].CustomerName != "" {
		t.Fatalf("unknown customer should have empty name, got %q", rows[1].CustomerName)
	}
}

func TestExportAgingExcel(t *testing.T) {
	ds := sampleDataset()
	ref := refDate("2024-07-01")
	buckets := models.ComputeAging(ds.Invoices, ref)
	details := reports.GetAgingDetailReport(ds, ref)

	f, err := reports.ExportAgingExcel(buckets, details, ref)
	if err != nil {
		t.Fatalf("ExportAgingExcel: %v", err)
	}
	defer f.Close()

	asOf, err := f.GetCellValue("Summary", "B1")
	if err != nil || asOf != "2024-07-01" {
		t.Fatalf("As Of cell: %q, %v", asOf, err)
	}
	label, err := f.GetCellValue("Summary", "A4")
	if err != nil || label != "Current" {
		t.Fatalf("first bucket label: %q, %v", label, err)
	}
	total, err := f.GetCellValue("Summary", "C6")
	if err != nil || total != "5000" {
		t.Fatalf("31-60 Days total: %q, %v", total, err)
	}

	customer, err := f.GetCellValue("Detail", "B2")
	if err != nil || customer != "Acme" {
		t.Fatalf("detail customer: %q, %v", customer, err)
	}
	fallback, err := f.GetCellValue("Detail", "B3")
	if err != nil || fallback != "C-2" {
		t.Fatalf("detail fallback customer: %q, %v", fallback, err)
	}
}
