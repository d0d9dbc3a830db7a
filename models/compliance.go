package models

import "fmt"

// ComplianceIssue is a detected reference from a transaction to a ledger
// account that does not exist in the chart of accounts.
type ComplianceIssue struct {
	TransactionID string        `json:"transaction_id"`
	Kind          IssueKind     `json:"kind"`
	Description   string        `json:"description"`
	Severity      IssueSeverity `json:"severity"`
}

// CheckCompliance validates every transaction's account references against
// the chart of accounts. Pure and deterministic: issues appear in input
// transaction order, and a single transaction can produce up to two issues
// (one per side). No other integrity rule is evaluated here.
func CheckCompliance(transactions []Transaction, accounts []Account) []ComplianceIssue {
	valid := AccountIDSet(accounts)

	issues := []ComplianceIssue{}
	for _, txn := range transactions {
		if _, ok := valid[txn.DebitAccountID]; !ok {
			issues = append(issues, ComplianceIssue{
				TransactionID: txn.ID,
				Kind:          IssueKindInvalidDebitAccount,
				Description:   fmt.Sprintf("transaction %s debits unknown account %q", txn.ID, txn.DebitAccountID),
				Severity:      IssueSeverityHigh,
			})
		}
		if _, ok := valid[txn.CreditAccountID]; !ok {
			issues = append(issues, ComplianceIssue{
				TransactionID: txn.ID,
				Kind:          IssueKindInvalidCreditAccount,
				Description:   fmt.Sprintf("transaction %s credits unknown account %q", txn.ID, txn.CreditAccountID),
				Severity:      IssueSeverityHigh,
			})
		}
	}
	return issues
}
