package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket is a derived day-range classification of overdue receivables
// with its estimated allowance for doubtful accounts. Recomputed on demand,
// never persisted independently of its inputs.
type AgingBucket struct {
	Label              string          `json:"label"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
	InvoiceCount       int             `json:"invoice_count"`
	AllowanceRate      decimal.Decimal `json:"allowance_rate"`
	EstimatedAllowance decimal.Decimal `json:"estimated_allowance"`
}

type bucketSpec struct {
	label  string
	maxAge int // inclusive upper bound in days; -1 means unbounded
	rate   decimal.Decimal
}

// Fixed buckets and allowance rates, not configurable at call time.
var bucketSpecs = []bucketSpec{
	{label: "Current", maxAge: 0, rate: decimal.New(1, -2)},
	{label: "1-30 Days", maxAge: 30, rate: decimal.New(5, -2)},
	{label: "31-60 Days", maxAge: 60, rate: decimal.New(1, -1)},
	{label: "61-90 Days", maxAge: 90, rate: decimal.New(25, -2)},
	{label: "90+ Days", maxAge: -1, rate: decimal.New(5, -1)},
}

// ComputeAging buckets outstanding invoice balances by days overdue as of
// referenceDate. Pure and deterministic: the engine has no implicit "now",
// the caller always supplies the reference date. Invoices with a
// non-positive balance are skipped entirely.
func ComputeAging(invoices []Invoice, referenceDate time.Time) []AgingBucket {
	buckets := make([]AgingBucket, len(bucketSpecs))
	for i, spec := range bucketSpecs {
		buckets[i] = AgingBucket{
			Label:         spec.label,
			TotalAmount:   decimal.Zero,
			AllowanceRate: spec.rate,
		}
	}

	for _, inv := range invoices {
		if inv.BalanceDue.Sign() <= 0 {
			continue
		}
		idx := bucketIndex(AgeInDays(referenceDate, inv.DueDate.Time()))
		buckets[idx].TotalAmount = buckets[idx].TotalAmount.Add(inv.BalanceDue)
		buckets[idx].InvoiceCount++
	}

	// Allowance is computed once per bucket as a final pass, not
	// incrementally per invoice.
	for i := range buckets {
		buckets[i].EstimatedAllowance = buckets[i].TotalAmount.Mul(buckets[i].AllowanceRate)
	}
	return buckets
}

// BucketLabelForAge returns the label of the bucket an invoice of the given
// age lands in.
func BucketLabelForAge(age int) string {
	return bucketSpecs[bucketIndex(age)].label
}

func bucketIndex(age int) int {
	for i, spec := range bucketSpecs {
		if spec.maxAge < 0 || age <= spec.maxAge {
			return i
		}
	}
	return len(bucketSpecs) - 1
}

// AgeInDays is ceil((referenceDate - dueDate) / 1 day) over calendar dates
// at midnight precision; any time-of-day component is dropped first.
func AgeInDays(referenceDate, dueDate time.Time) int {
	ref := atMidnightUTC(referenceDate)
	due := atMidnightUTC(dueDate)
	diff := ref.Sub(due)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

func atMidnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
