package core

// Interval is a half-open span [Start, End) in minutes on a timeline that
// starts at midnight of the shift date and may run past 1440.
type Interval struct {
	Start int
	End   int
}

// Len returns the length in minutes, zero for empty or inverted spans.
func (i Interval) Len() int {
	if i.End <= i.Start {
		return 0
	}
	return i.End - i.Start
}

func (i Interval) Empty() bool { return i.Len() == 0 }

// Intersect returns the overlap of i and o, possibly empty.
func (i Interval) Intersect(o Interval) Interval {
	out := Interval{Start: max(i.Start, o.Start), End: min(i.End, o.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Subtract removes o from i. The result has zero, one or two non-empty
// pieces in ascending order.
func (i Interval) Subtract(o Interval) []Interval {
	if i.Empty() {
		return nil
	}
	cut := i.Intersect(o)
	if cut.Empty() {
		return []Interval{i}
	}
	var out []Interval
	if left := (Interval{Start: i.Start, End: cut.Start}); !left.Empty() {
		out = append(out, left)
	}
	if right := (Interval{Start: cut.End, End: i.End}); !right.Empty() {
		out = append(out, right)
	}
	return out
}

// overlapMinutes sums the overlap of every span in a with every span in b.
func overlapMinutes(a, b []Interval) int {
	total := 0
	for _, x := range a {
		for _, y := range b {
			total += x.Intersect(y).Len()
		}
	}
	return total
}
