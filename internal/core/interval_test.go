package core

import (
	"reflect"
	"testing"
)

func TestIntervalSubtract(t *testing.T) {
	work := Interval{Start: 600, End: 1080}
	cases := []struct {
		name string
		cut  Interval
		want []Interval
	}{
		{"middle", Interval{720, 780}, []Interval{{600, 720}, {780, 1080}}},
		{"leading", Interval{600, 660}, []Interval{{660, 1080}}},
		{"trailing", Interval{1020, 1080}, []Interval{{600, 1020}}},
		{"disjoint", Interval{0, 100}, []Interval{{600, 1080}}},
		{"whole", Interval{500, 1200}, nil},
	}
	for _, tc := range cases {
		if got := work.Subtract(tc.cut); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIntervalIntersect(t *testing.T) {
	a := Interval{Start: 0, End: 100}
	if got := a.Intersect(Interval{50, 150}); got.Len() != 50 {
		t.Fatalf("got %v", got)
	}
	if got := a.Intersect(Interval{200, 300}); !got.Empty() {
		t.Fatalf("expected empty, got %v", got)
	}
	if (Interval{Start: 5, End: 1}).Len() != 0 {
		t.Fatalf("inverted interval should be empty")
	}
}

func TestOverlapMinutes(t *testing.T) {
	pieces := []Interval{{1200, 1260}, {1290, 1380}}
	night := DefaultWageConfig().nightWindows(Interval{1200, 1380})
	if got := overlapMinutes(pieces, night); got != 60 {
		t.Fatalf("got %d", got)
	}
}

func TestNightWindows(t *testing.T) {
	cfg := DefaultWageConfig()
	early := cfg
	early.NightStart, early.NightEnd = MustClock("01:00"), MustClock("04:00")

	cases := []struct {
		name string
		cfg  WageConfig
		work Interval
		want []Interval
	}{
		{"wrapping window, same day", cfg, Interval{540, 1020}, []Interval{{1320, 1440}, {0, 300}}},
		{"wrapping window, shift past midnight", cfg, Interval{180, 1560}, []Interval{{1320, 1440}, {1440, 1740}}},
		{"wrapping window, shift ends at midnight", cfg, Interval{1200, 1440}, []Interval{{1320, 1440}, {0, 300}}},
		{"plain window, same day", early, Interval{0, 600}, []Interval{{60, 240}}},
		{"plain window, shift past midnight", early, Interval{1320, 1800}, []Interval{{60, 240}, {1500, 1680}}},
	}
	for _, tc := range cases {
		if got := tc.cfg.nightWindows(tc.work); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}
