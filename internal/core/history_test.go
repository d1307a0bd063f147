package core

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRunStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRunStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		rec := RunRecord{ID: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save(%s): %v", id, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("Recent(2) = %+v, want c then b", recent)
	}

	removed, err := store.Prune(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune removed %d, want 2", removed)
	}

	all, _ := store.Recent(ctx, 0)
	if len(all) != 1 || all[0].ID != "c" {
		t.Errorf("after Prune, records = %+v, want only c", all)
	}
}

func TestNewRunRecord_CarriesClient(t *testing.T) {
	ctx := WithClient(context.Background(), "10.0.0.1", "curl/8")
	run := &Run{
		ID:            "r1",
		FileName:      "orders.xlsx",
		AddressColumn: "收件人地址",
		Summary:       Summary{Total: 3, HasDistrict: 3},
	}

	rec := NewRunRecord(ctx, run)
	if rec.ClientIP != "10.0.0.1" || rec.UserAgent != "curl/8" {
		t.Errorf("client = %q / %q", rec.ClientIP, rec.UserAgent)
	}
	if rec.Summary.Total != 3 || rec.AddressColumn != "收件人地址" {
		t.Errorf("record = %+v", rec)
	}
}
