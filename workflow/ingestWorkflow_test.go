package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/mmdatafocus/audit_backend/models"
	"github.com/mmdatafocus/audit_backend/workflow"
)

const accountsCSV = "account_id,account_name,account_type\n1100,Cash,Asset\n4000,Sales,Revenue"

func csvFile(name, content string) workflow.IngestFile {
	return workflow.IngestFile{Name: name, Format: models.SourceFormatCSV, Content: []byte(content)}
}

func TestIngestBatch_LastWriterWins(t *testing.T) {
	store := models.NewAuditStore()
	outcome := workflow.IngestBatch(context.Background(), store, []workflow.IngestFile{
		csvFile("accounts_v1.csv", accountsCSV),
		csvFile("accounts_v2.csv", "account_id,account_name,account_type\n1200,AR,Asset"),
	})

	if outcome.NothingRecognized {
		t.Fatalf("expected batch to be recognized: %+v", outcome)
	}
	if len(outcome.Files) != 2 {
		t.Fatalf("expected 2 file outcomes, got %d", len(outcome.Files))
	}
	for _, f := range outcome.Files {
		if f.Rejected {
			t.Fatalf("unexpected rejection: %+v", f)
		}
	}

	ds := store.Dataset()
	if len(ds.Accounts) != 1 || ds.Accounts[0].ID != "1200" {
		t.Fatalf("expected the later file to replace the account set, got %+v", ds.Accounts)
	}
}

func TestIngestBatch_NothingRecognized(t *testing.T) {
	store := models.NewAuditStore()
	outcome := workflow.IngestBatch(context.Background(), store, []workflow.IngestFile{
		csvFile("notes.csv", "title,body\nhello,world"),
	})

	if !outcome.NothingRecognized {
		t.Fatalf("expected NothingRecognized, got %+v", outcome)
	}
	if len(outcome.Files) != 1 || !outcome.Files[0].Rejected {
		t.Fatalf("expected the file to be rejected, got %+v", outcome.Files)
	}
	if outcome.Files[0].Reason == "" {
		t.Fatalf("rejection should carry a reason")
	}
}

func TestIngestBatch_RejectedFileDoesNotClobberStore(t *testing.T) {
	store := models.NewAuditStore()

	first := workflow.IngestBatch(context.Background(), store, []workflow.IngestFile{
		csvFile("accounts.csv", accountsCSV),
	})
	if first.NothingRecognized {
		t.Fatalf("seed batch not recognized: %+v", first)
	}

	second := workflow.IngestBatch(context.Background(), store, []workflow.IngestFile{
		csvFile("garbage.csv", "no,recognizable,headers\n1,2,3"),
	})
	if !second.NothingRecognized {
		t.Fatalf("expected second batch to be a no-op, got %+v", second)
	}

	if ds := store.Dataset(); len(ds.Accounts) != 2 {
		t.Fatalf("rejected batch must leave the store untouched, got %+v", ds.Accounts)
	}
}

func TestIngestBatch_MixedBatchRecognizesGoodFiles(t *testing.T) {
	store := models.NewAuditStore()
	outcome := workflow.IngestBatch(context.Background(), store, []workflow.IngestFile{
		csvFile("bad.csv", "x,y\n1,2"),
		csvFile("invoices.csv", "invoice_id,customer_id,invoice_date,due_date,original_amount,amount_paid,balance_due,status\n"+
			"INV-1,C-1,2024-05-01,2024-05-31,5000,0,5000,Open"),
	})

	if outcome.NothingRecognized {
		t.Fatalf("one good file should mark the batch recognized: %+v", outcome)
	}
	if !outcome.Files[0].Rejected || outcome.Files[1].Rejected {
		t.Fatalf("unexpected per-file outcomes: %+v", outcome.Files)
	}
	if outcome.Files[1].RecordCount != 1 {
		t.Fatalf("expected 1 record from invoices file, got %d", outcome.Files[1].RecordCount)
	}
	if got := outcome.Files[1].Kinds; len(got) != 1 || got[0] != models.RecordKindInvoices {
		t.Fatalf("expected invoices kind, got %v", got)
	}

	ref, _ := time.Parse("2006-01-02", "2024-07-01")
	buckets := store.AgingBuckets(ref)
	if buckets[2].InvoiceCount != 1 {
		t.Fatalf("ingested invoice should land in 31-60 Days, got %+v", buckets)
	}
}
