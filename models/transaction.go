package models

import "github.com/shopspring/decimal"

// Transaction is a single journal entry line pair: one debit account, one
// credit account, one amount. No positivity or self-reference rule is
// enforced here; the compliance checker only validates account existence.
type Transaction struct {
	ID                 string          `json:"id"`
	Date               DateString      `json:"date"`
	DebitAccountID     string          `json:"debit_account_id"`
	CreditAccountID    string          `json:"credit_account_id"`
	Amount             decimal.Decimal `json:"amount"`
	ReferenceInvoiceID string          `json:"reference_invoice_id,omitempty"`
	Description        string          `json:"description"`
}

func decodeTransaction(row rawRecord, c *coercion) Transaction {
	return Transaction{
		ID:                 row.str("transaction_id", "id"),
		Date:               c.date(row.value("transaction_date", "date")),
		DebitAccountID:     row.str("debit_account_id"),
		CreditAccountID:    row.str("credit_account_id"),
		Amount:             c.amount(row.value("amount")),
		ReferenceInvoiceID: row.str("reference_invoice_id"),
		Description:        row.str("description"),
	}
}
