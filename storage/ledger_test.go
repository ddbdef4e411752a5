package storage

import (
	"context"
	"testing"
	"time"
)

func TestLedgerRecordAndRecent(t *testing.T) {
	ledger, err := NewLedgerInMemory()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ledger.Close()

	ctx := context.Background()
	expiry := time.Now().Add(LinkValidity).Truncate(time.Second)

	obj := UploadedObject{
		Key:      "uploads/abc/file.png",
		URL:      "https://bucket.example/uploads/abc/file.png",
		MIMEType: "image/png",
		Size:     1234,
		Expiry:   expiry,
	}
	if err := ledger.Record(ctx, obj); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	recent, err := ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(recent))
	}
	if recent[0].Key != obj.Key {
		t.Errorf("expected key %q, got %q", obj.Key, recent[0].Key)
	}
	if recent[0].Size != 1234 {
		t.Errorf("expected size 1234, got %d", recent[0].Size)
	}
	if !recent[0].Expiry.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, recent[0].Expiry)
	}
}

func TestWithLedgerRecordsSuccesses(t *testing.T) {
	ledger, err := NewLedgerInMemory()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer ledger.Close()

	fs, err := NewFSUploader(t.TempDir(), "http://localhost/files")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	audited := WithLedger(fs, ledger)
	ctx := context.Background()

	if _, err := audited.Upload(ctx, []byte("data"), "text/plain", "a.txt"); err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	recent, err := ledger.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected audited upload in ledger, got %d entries", len(recent))
	}
}
