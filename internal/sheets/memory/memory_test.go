package memory

import (
	"context"
	"errors"
	"testing"

	"payflow/internal/core"
)

func TestMemoryStoreAppend(t *testing.T) {
	s := New()
	sh := core.Shift{
		ID:        7,
		Date:      core.NewDate(2024, 1, 7),
		StartTime: core.MustClock("18:00"),
		EndTime:   core.MustClock("23:00"),
		Break:     &core.TimeRange{Start: core.MustClock("21:00"), End: core.MustClock("21:30")},
		TotalWage: 4750,
	}

	ref, err := s.AppendShift(context.Background(), sh)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	rows := s.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][1] != core.UnassignedJob || rows[0][5] != "21:00-21:30" || rows[0][10] != "7" {
		t.Fatalf("unexpected row: %v", rows[0])
	}
}

func TestMemoryStoreRejects(t *testing.T) {
	s := New()
	if _, err := s.AppendShift(context.Background(), core.Shift{}); err == nil {
		t.Fatalf("expected error for shift without id")
	}

	boom := errors.New("boom")
	s.FailWith(boom)
	if _, err := s.AppendShift(context.Background(), core.Shift{ID: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	s.FailWith(nil)
	if _, err := s.AppendShift(context.Background(), core.Shift{ID: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
