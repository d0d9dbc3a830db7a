package reports

import (
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/shopspring/decimal"
)

// AgingDetailRow is one outstanding invoice with its bucket assignment,
// backing the detail sheet of the aging export.
type AgingDetailRow struct {
	InvoiceID    string            `json:"invoice_id"`
	CustomerID   string            `json:"customer_id"`
	CustomerName string            `json:"customer_name,omitempty"`
	DueDate      models.DateString `json:"due_date"`
	DaysOverdue  int               `json:"days_overdue"`
	Bucket       string            `json:"bucket"`
	BalanceDue   decimal.Decimal   `json:"balance_due"`
}

// GetAgingDetailReport lists every invoice with a positive balance in input
// order, labeled with the same bucket the summary engine assigns it.
func GetAgingDetailReport(ds models.Dataset, referenceDate time.Time) []*AgingDetailRow {
	names := make(map[string]string, len(ds.Customers))
	for _, c := range ds.Customers {
		names[c.ID] = c.Name
	}

	rows := []*AgingDetailRow{}
	for _, inv := range ds.Invoices {
		if inv.BalanceDue.Sign() <= 0 {
			continue
		}
		age := models.AgeInDays(referenceDate, inv.DueDate.Time())
		rows = append(rows, &AgingDetailRow{
			InvoiceID:    inv.ID,
			CustomerID:   inv.CustomerID,
			CustomerName: names[inv.CustomerID],
			DueDate:      inv.DueDate,
			DaysOverdue:  age,
			Bucket:       models.BucketLabelForAge(age),
			BalanceDue:   inv.BalanceDue,
		})
	}
	return rows
}
