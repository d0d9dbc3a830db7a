package models

import (
	"fmt"
	"sync"
	"time"
)

// Dataset is a read-only snapshot of the four primary record sets.
type Dataset struct {
	Accounts     []Account     `json:"accounts"`
	Customers    []Customer    `json:"customers"`
	Invoices     []Invoice     `json:"invoices"`
	Transactions []Transaction `json:"transactions"`
}

// AuditStore exclusively owns the four primary record sets for the lifetime
// of a session. Primary sets are replaced wholesale, never patched; derived
// collections (compliance issues, aging buckets) are pure functions of that
// state, tracked with explicit dirty flags and recomputed lazily on the next
// read after a relevant replace. Reads hand out copies so callers never
// observe a half-replaced dataset.
type AuditStore struct {
	mu sync.RWMutex

	accounts     []Account
	customers    []Customer
	invoices     []Invoice
	transactions []Transaction

	complianceDirty bool
	issues          []ComplianceIssue

	agingDirty bool
	agingAsOf  time.Time
	buckets    []AgingBucket
}

func NewAuditStore() *AuditStore {
	return &AuditStore{
		complianceDirty: true,
		agingDirty:      true,
	}
}

// Replace swaps one primary set wholesale. Replacing accounts or
// transactions invalidates cached compliance issues; replacing invoices
// invalidates cached aging buckets.
func (s *AuditStore) Replace(kind RecordKind, records any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case RecordKindAccounts:
		recs, ok := records.([]Account)
		if !ok {
			return fmt.Errorf("replace %s: expected []Account, got %T", kind, records)
		}
		s.accounts = recs
		s.complianceDirty = true
	case RecordKindCustomers:
		recs, ok := records.([]Customer)
		if !ok {
			return fmt.Errorf("replace %s: expected []Customer, got %T", kind, records)
		}
		s.customers = recs
	case RecordKindInvoices:
		recs, ok := records.([]Invoice)
		if !ok {
			return fmt.Errorf("replace %s: expected []Invoice, got %T", kind, records)
		}
		s.invoices = recs
		s.agingDirty = true
	case RecordKindTransactions:
		recs, ok := records.([]Transaction)
		if !ok {
			return fmt.Errorf("replace %s: expected []Transaction, got %T", kind, records)
		}
		s.transactions = recs
		s.complianceDirty = true
	default:
		return fmt.Errorf("replace: unknown record kind %q", kind)
	}
	return nil
}

// ApplyDataset replaces every primary set the partial dataset detected.
func (s *AuditStore) ApplyDataset(ds *PartialDataset) error {
	for _, kind := range ds.Kinds {
		var err error
		switch kind {
		case RecordKindAccounts:
			err = s.Replace(kind, ds.Accounts)
		case RecordKindCustomers:
			err = s.Replace(kind, ds.Customers)
		case RecordKindInvoices:
			err = s.Replace(kind, ds.Invoices)
		case RecordKindTransactions:
			err = s.Replace(kind, ds.Transactions)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Dataset returns a copy of the current primary sets.
func (s *AuditStore) Dataset() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Dataset{
		Accounts:     copySlice(s.accounts),
		Customers:    copyCustomers(s.customers),
		Invoices:     copySlice(s.invoices),
		Transactions: copySlice(s.transactions),
	}
}

// Customer looks a customer up by id in the current snapshot.
func (s *AuditStore) Customer(id string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.ID == id {
			c.RiskScoreHistory = append([]float64{}, c.RiskScoreHistory...)
			return c, true
		}
	}
	return Customer{}, false
}

// CustomerInvoices returns the invoices referencing the given customer.
func (s *AuditStore) CustomerInvoices(customerId string) []Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Invoice{}
	for _, inv := range s.invoices {
		if inv.CustomerID == customerId {
			out = append(out, inv)
		}
	}
	return out
}

// ComplianceIssues recomputes lazily after any replace of accounts or
// transactions. Recomputation is synchronous and total; it has no failure
// path.
func (s *AuditStore) ComplianceIssues() []ComplianceIssue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.complianceDirty {
		s.issues = CheckCompliance(s.transactions, s.accounts)
		s.complianceDirty = false
	}
	return copySlice(s.issues)
}

// AgingBuckets recomputes when invoices changed or when the requested
// reference date differs from the cached one.
func (s *AuditStore) AgingBuckets(referenceDate time.Time) []AgingBucket {
	ref := atMidnightUTC(referenceDate)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agingDirty || !s.agingAsOf.Equal(ref) {
		s.buckets = ComputeAging(s.invoices, ref)
		s.agingAsOf = ref
		s.agingDirty = false
	}
	return copySlice(s.buckets)
}

func copySlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// copyCustomers also copies each risk history, which copySlice would leave
// aliased to store state.
func copyCustomers(in []Customer) []Customer {
	out := make([]Customer, len(in))
	for i, c := range in {
		c.RiskScoreHistory = append([]float64{}, c.RiskScoreHistory...)
		out[i] = c
	}
	return out
}
