package models_test

import (
	"reflect"
	"testing"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/shopspring/decimal"
)

func seedStore(t *testing.T) *models.AuditStore {
	t.Helper()
	store := models.NewAuditStore()
	if err := store.Replace(models.RecordKindAccounts, chart); err != nil {
		t.Fatalf("replace accounts: %v", err)
	}
	if err := store.Replace(models.RecordKindTransactions, []models.Transaction{
		txn("T-1", "1100", "9999"),
	}); err != nil {
		t.Fatalf("replace transactions: %v", err)
	}
	if err := store.Replace(models.RecordKindInvoices, []models.Invoice{
		invoice("INV-1", "2024-05-31", 5000),
	}); err != nil {
		t.Fatalf("replace invoices: %v", err)
	}
	return store
}

func TestAuditStore_ReplaceInvalidatesCompliance(t *testing.T) {
	store := seedStore(t)

	issues := store.ComplianceIssues()
	if len(issues) != 1 || issues[0].Kind != models.IssueKindInvalidCreditAccount {
		t.Fatalf("expected one invalid-credit issue, got %+v", issues)
	}

	// Adding the missing account to the chart clears the issue on next read.
	extended := append([]models.Account{}, chart...)
	extended = append(extended, models.Account{ID: "9999", Name: "Suspense", Type: models.AccountTypeLiability})
	if err := store.Replace(models.RecordKindAccounts, extended); err != nil {
		t.Fatalf("replace accounts: %v", err)
	}
	if issues := store.ComplianceIssues(); len(issues) != 0 {
		t.Fatalf("expected no issues after chart replacement, got %+v", issues)
	}
}

func TestAuditStore_ReplaceInvoicesInvalidatesAging(t *testing.T) {
	store := seedStore(t)
	ref := date("2024-07-01")

	buckets := store.AgingBuckets(ref)
	if buckets[2].InvoiceCount != 1 {
		t.Fatalf("expected invoice in 31-60 Days, got %v", bucketCounts(buckets))
	}

	if err := store.Replace(models.RecordKindInvoices, []models.Invoice{}); err != nil {
		t.Fatalf("replace invoices: %v", err)
	}
	buckets = store.AgingBuckets(ref)
	for i, b := range buckets {
		if b.InvoiceCount != 0 || !b.TotalAmount.IsZero() {
			t.Fatalf("bucket[%d] should be empty after replacement, got %+v", i, b)
		}
	}
}

func TestAuditStore_AgingRecomputesForNewReferenceDate(t *testing.T) {
	store := seedStore(t)

	// age 31 on 2024-07-01, age 1 on 2024-06-01
	if buckets := store.AgingBuckets(date("2024-07-01")); buckets[2].InvoiceCount != 1 {
		t.Fatalf("expected 31-60 Days on 2024-07-01, got %v", bucketCounts(buckets))
	}
	if buckets := store.AgingBuckets(date("2024-06-01")); buckets[1].InvoiceCount != 1 {
		t.Fatalf("expected 1-30 Days on 2024-06-01, got %v", bucketCounts(buckets))
	}
}

func TestAuditStore_IngestIsIdempotent(t *testing.T) {
	raw := []byte("invoice_id,customer_id,invoice_date,due_date,original_amount,amount_paid,balance_due,status\n" +
		"INV-1,C-1,2024-05-01,2024-05-31,5000,0,5000,Open")
	store := models.NewAuditStore()

	var first, second []models.AgingBucket
	for i := 0; i < 2; i++ {
		ds, err := models.Normalize(raw, models.SourceFormatCSV)
		if err != nil {
			t.Fatalf("Normalize: %v", err)
		}
		if err := store.ApplyDataset(ds); err != nil {
			t.Fatalf("ApplyDataset: %v", err)
		}
		buckets := store.AgingBuckets(date("2024-07-01"))
		if i == 0 {
			first = buckets
		} else {
			second = buckets
		}
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("derived collections differ across identical ingestions:\n%v\n%v", first, second)
	}
}

func TestAuditStore_SnapshotsAreCopies(t *testing.T) {
	store := seedStore(t)

	ds := store.Dataset()
	if len(ds.Invoices) != 1 {
		t.Fatalf("expected 1 invoice in snapshot, got %d", len(ds.Invoices))
	}
	ds.Invoices[0].BalanceDue = decimal.NewFromInt(1)

	fresh := store.Dataset()
	if !fresh.Invoices[0].BalanceDue.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("mutating a snapshot must not affect the store, got %s", fresh.Invoices[0].BalanceDue)
	}
}

func TestAuditStore_SnapshotRiskHistoryDoesNotAliasStore(t *testing.T) {
	store := models.NewAuditStore()
	if err := store.Replace(models.RecordKindCustomers, []models.Customer{
		{ID: "C-1", Name: "Acme", RiskScoreHistory: []float64{40, 55}},
	}); err != nil {
		t.Fatalf("replace customers: %v", err)
	}

	ds := store.Dataset()
	ds.Customers[0].RiskScoreHistory[0] = 99

	fromStore, found := store.Customer("C-1")
	if !found {
		t.Fatalf("expected to find C-1")
	}
	if fromStore.RiskScoreHistory[0] != 40 {
		t.Fatalf("mutating a snapshot's risk history must not affect the store, got %v", fromStore.RiskScoreHistory)
	}

	fromStore.RiskScoreHistory[1] = 99
	again, _ := store.Customer("C-1")
	if again.RiskScoreHistory[1] != 55 {
		t.Fatalf("mutating a looked-up customer's history must not affect the store, got %v", again.RiskScoreHistory)
	}
}

func TestAuditStore_ReplaceRejectsMismatchedRecords(t *testing.T) {
	store := models.NewAuditStore()
	if err := store.Replace(models.RecordKindAccounts, []models.Invoice{}); err == nil {
		t.Fatalf("expected type mismatch error")
	}
	if err := store.Replace(models.RecordKind("widgets"), []models.Account{}); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestAuditStore_CustomerLookup(t *testing.T) {
	store := models.NewAuditStore()
	if err := store.Replace(models.RecordKindCustomers, []models.Customer{
		{ID: "C-1", Name: "Acme", RiskScoreHistory: []float64{40, 55, 70}},
	}); err != nil {
		t.Fatalf("replace customers: %v", err)
	}
	if err := store.Replace(models.RecordKindInvoices, []models.Invoice{
		{ID: "INV-1", CustomerID: "C-1", BalanceDue: decimal.NewFromInt(100)},
		{ID: "INV-2", CustomerID: "C-2", BalanceDue: decimal.NewFromInt(200)},
	}); err != nil {
		t.Fatalf("replace invoices: %v", err)
	}

	customer, found := store.Customer("C-1")
	if !found {
		t.Fatalf("expected to find C-1")
	}
	if customer.LatestRiskScore() != 70 {
		t.Fatalf("expected latest score 70, got %v", customer.LatestRiskScore())
	}
	if customer.RiskTrend() != 30 {
		t.Fatalf("expected trend +30, got %v", customer.RiskTrend())
	}

	invoices := store.CustomerInvoices("C-1")
	if len(invoices) != 1 || invoices[0].ID != "INV-1" {
		t.Fatalf("expected only INV-1 for C-1, got %+v", invoices)
	}

	if _, found := store.Customer("missing"); found {
		t.Fatalf("unexpected hit for missing customer")
	}
}
