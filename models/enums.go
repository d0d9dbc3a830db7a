package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

type InvoiceStatus string

const (
	InvoiceStatusOpen InvoiceStatus = "Open"
	InvoiceStatusPaid InvoiceStatus = "Paid"
	InvoiceStatusVoid InvoiceStatus = "Void"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusOpen, InvoiceStatusPaid, InvoiceStatusVoid:
		return true
	}
	return false
}

type IssueKind string

const (
	IssueKindInvalidDebitAccount  IssueKind = "InvalidDebitAccount"
	IssueKindInvalidCreditAccount IssueKind = "InvalidCreditAccount"
	IssueKindDataIntegrity        IssueKind = "DataIntegrity"
)

type IssueSeverity string

const (
	IssueSeverityHigh   IssueSeverity = "High"
	IssueSeverityMedium IssueSeverity = "Medium"
	IssueSeverityLow    IssueSeverity = "Low"
)

// RecordKind names one of the four primary record sets owned by the store.
type RecordKind string

const (
	RecordKindAccounts     RecordKind = "accounts"
	RecordKindCustomers    RecordKind = "customers"
	RecordKindInvoices     RecordKind = "invoices"
	RecordKindTransactions RecordKind = "transactions"
)

func (k *RecordKind) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("record kind must be string")
	}
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "accounts", "coa":
		*k = RecordKindAccounts
	case "customers":
		*k = RecordKindCustomers
	case "invoices":
		*k = RecordKindInvoices
	case "transactions":
		*k = RecordKindTransactions
	default:
		return errors.New("invalid record kind")
	}
	return nil
}

type SourceFormat string

const (
	SourceFormatCSV  SourceFormat = "csv"
	SourceFormatJSON SourceFormat = "json"
	SourceFormatXLSX SourceFormat = "xlsx"
)

// DateString is a calendar date at midnight precision. Ingested values are
// coerced leniently: unparseable input yields the zero date, never an error.
type DateString time.Time

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
}

func ParseDateString(value string) DateString {
	value = strings.TrimSpace(value)
	if value == "" {
		return DateString{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return DateString(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
		}
	}
	return DateString{}
}

func (d DateString) Time() time.Time {
	return time.Time(d)
}

func (d DateString) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d DateString) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(strconv.Quote(time.Time(d).Format("2006-01-02"))), nil
}

func (d *DateString) UnmarshalJSON(data []byte) error {
	str, err := strconv.Unquote(string(data))
	if err != nil {
		return errors.New("date must be string")
	}
	*d = ParseDateString(str)
	return nil
}
