package dialer

import (
	"context"
	"errors"
	"testing"

	"autodialer-platform/internal/ledger"
	"autodialer-platform/internal/telephony"
)

func TestDispatchBatch_EmptyList(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{}, Options{})
	if _, err := svc.DispatchBatch(context.Background(), nil, "hi"); !errors.Is(err, ErrEmptyBatch) {
		t.Fatalf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestDispatchBatch_ResultsInInputOrder(t *testing.T) {
	svc, led := newTestService(&fakeProvider{}, Options{BatchConcurrency: 4})

	dests := []string{"+15550001", "+15550002", "+15550003", "+15550004", "+15550005"}
	items, err := svc.DispatchBatch(context.Background(), dests, "hi")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(items) != len(dests) {
		t.Fatalf("expected %d items, got %d", len(dests), len(items))
	}
	for i, item := range items {
		if item.Destination != dests[i] {
			t.Fatalf("item %d out of order: %+v", i, item)
		}
		if item.Err != nil {
			t.Fatalf("item %d failed: %v", i, item.Err)
		}
		if item.Outcome.ProviderSID != "SID-"+dests[i] {
			t.Fatalf("item %d has wrong sid: %+v", i, item)
		}
	}
	if led.Len() != len(dests) {
		t.Fatalf("expected %d records, got %d", len(dests), led.Len())
	}
}

func TestDispatchBatch_PerItemIsolation(t *testing.T) {
	svc, led := newTestService(&fakeProvider{}, Options{})

	// The empty destination fails without a record; the others go through.
	items, err := svc.DispatchBatch(context.Background(), []string{"+15550001", "", "+15550003"}, "hi")
	if err != nil {
		t.Fatalf("batch itself must not fail: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Err != nil || items[2].Err != nil {
		t.Fatalf("siblings must not be affected: %+v", items)
	}
	if !errors.Is(items[1].Err, ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination, got %v", items[1].Err)
	}
	if led.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", led.Len())
	}
}

func TestDispatchBatch_UnconfiguredProviderFailsEveryItem(t *testing.T) {
	svc, led := newTestService(&fakeProvider{err: telephony.ErrNotConfigured}, Options{})

	dests := []string{"+15550001", "+15550002", "+15550003"}
	items, err := svc.DispatchBatch(context.Background(), dests, "hi")
	if err != nil {
		t.Fatalf("batch itself must not fail: %v", err)
	}
	for i, item := range items {
		if !errors.Is(item.Err, ErrProviderUnavailable) {
			t.Fatalf("item %d: expected ErrProviderUnavailable, got %v", i, item.Err)
		}
	}

	snap := led.Snapshot()
	if len(snap) != len(dests) {
		t.Fatalf("every failed attempt must be recorded, got %d", len(snap))
	}
	for _, r := range snap {
		if r.State != ledger.StateFailed {
			t.Fatalf("unexpected state: %+v", r)
		}
	}
}

func TestDispatchBatch_TrimsDestinations(t *testing.T) {
	svc, led := newTestService(&fakeProvider{}, Options{})

	items, err := svc.DispatchBatch(context.Background(), []string{" +15550001 "}, "hi")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// input preserved on the item, trimmed on the record
	if items[0].Destination != " +15550001 " {
		t.Fatalf("input destination rewritten: %+v", items[0])
	}
	if got := led.Snapshot()[0].Destination; got != "+15550001" {
		t.Fatalf("expected trimmed destination, got %q", got)
	}
}
