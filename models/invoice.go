package models

import "github.com/shopspring/decimal"

// Invoice is a receivable document. BalanceDue reflects
// OriginalAmount - AmountPaid at ingestion time; the aging engine consumes
// it as-is and never recomputes it.
type Invoice struct {
	ID             string          `json:"id"`
	CustomerID     string          `json:"customer_id"`
	InvoiceDate    DateString      `json:"invoice_date"`
	DueDate        DateString      `json:"due_date"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	Status         InvoiceStatus   `json:"status"`
}

func decodeInvoice(row rawRecord, c *coercion) Invoice {
	return Invoice{
		ID:             row.str("invoice_id", "id"),
		CustomerID:     row.str("customer_id"),
		InvoiceDate:    c.date(row.value("invoice_date")),
		DueDate:        c.date(row.value("due_date")),
		OriginalAmount: c.amount(row.value("original_amount")),
		AmountPaid:     c.amount(row.value("amount_paid")),
		BalanceDue:     c.amount(row.value("balance_due")),
		Status:         InvoiceStatus(row.str("status")),
	}
}
