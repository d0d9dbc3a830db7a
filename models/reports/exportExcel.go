package reports

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportAgingExcel renders the aging summary and per-invoice detail as an
// Excel workbook. Amounts are written as strings to keep the exact decimal
// representation.
func ExportAgingExcel(buckets []models.AgingBucket, details []*AgingDetailRow, asOf time.Time) (*excelize.File, error) {

	f := excelize.NewFile()
	summary := "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}

	f.SetCellValue(summary, "A1", "As Of")
	f.SetCellValue(summary, "B1", asOf.Format("2006-01-02"))

	f.SetCellValue(summary, "A3", "Bucket")
	f.SetCellValue(summary, "B3", "InvoiceCount")
	f.SetCellValue(summary, "C3", "TotalAmount")
	f.SetCellValue(summary, "D3", "AllowanceRate")
	f.SetCellValue(summary, "E3", "EstimatedAllowance")

	for i, b := range buckets {
		rowNo := i + 4
		f.SetCellValue(summary, "A"+fmt.Sprint(rowNo), b.Label)
		f.SetCellValue(summary, "B"+fmt.Sprint(rowNo), b.InvoiceCount)
		f.SetCellValue(summary, "C"+fmt.Sprint(rowNo), b.TotalAmount.String())
		f.SetCellValue(summary, "D"+fmt.Sprint(rowNo), b.AllowanceRate.String())
		f.SetCellValue(summary, "E"+fmt.Sprint(rowNo), b.EstimatedAllowance.String())
	}

	detail := "Detail"
	if _, err := f.NewSheet(detail); err != nil {
		return nil, err
	}
	f.SetCellValue(detail, "A1", "InvoiceId")
	f.SetCellValue(detail, "B1", "Customer")
	f.SetCellValue(detail, "C1", "DueDate")
	f.SetCellValue(detail, "D1", "DaysOverdue")
	f.SetCellValue(detail, "E1", "Bucket")
	f.SetCellValue(detail, "F1", "BalanceDue")

	for i, d := range details {
		rowNo := i + 2
		customer := d.CustomerName
		if customer == "" {
			customer = d.CustomerID
		}
		f.SetCellValue(detail, "A"+fmt.Sprint(rowNo), d.InvoiceID)
		f.SetCellValue(detail, "B"+fmt.Sprint(rowNo), customer)
		f.SetCellValue(detail, "C"+fmt.Sprint(rowNo), d.DueDate.Time().Format("2006-01-02"))
		f.SetCellValue(detail, "D"+fmt.Sprint(rowNo), d.DaysOverdue)
		f.SetCellValue(detail, "E"+fmt.Sprint(rowNo), d.Bucket)
		f.SetCellValue(detail, "F"+fmt.Sprint(rowNo), d.BalanceDue.String())
	}

	return f, nil
}
