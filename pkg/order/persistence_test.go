package order

import (
	"path/filepath"
	"testing"

	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

func TestResultStoreArchivesAndReloadsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	rs, err := OpenResultStore(dbPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer rs.Close()

	s := NewStore()
	o := newTestOrder("A")
	if err := s.Add(o); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Status = StatusFilled
	o.FilledAmount = decimal.NewFromInt(1)
	o.UpdatedAt = clock.Now()
	if err := s.Update("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rs.Archive(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := rs.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "A" {
		t.Errorf("expected archived id [A], got %v", ids)
	}
}
