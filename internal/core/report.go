package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ReportFilter narrows a report. Nil bounds are open; an empty JobIDs list
// means every job.
type ReportFilter struct {
	Start  *Date
	End    *Date
	JobIDs []int64
}

type PeriodTotals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

type Periods struct {
	Week  PeriodTotals `json:"week"`
	Month PeriodTotals `json:"month"`
	Year  PeriodTotals `json:"year"`
}

type Report struct {
	IncomeTotal  float64            `json:"income_total"`
	ExpenseTotal float64            `json:"expense_total"`
	Net          float64            `json:"net"`
	ByJob        map[string]float64 `json:"by_job"`
	ByCategory   map[string]float64 `json:"by_category"`
	Periods      Periods            `json:"periods"`
}

// ParseJobIDs reads a comma separated id list. Any malformed entry makes the
// whole list empty so the report falls back to every job.
func ParseJobIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

// ParseReportFilter builds a filter from query values. Unparseable dates
// are ignored rather than rejected.
func ParseReportFilter(start, end, jobIDs string) ReportFilter {
	var f ReportFilter
	if d, err := ParseDate(start); err == nil {
		f.Start = &d
	}
	if d, err := ParseDate(end); err == nil {
		f.End = &d
	}
	f.JobIDs = ParseJobIDs(jobIDs)
	return f
}

// CacheKey identifies the filter for a given day.
func (f ReportFilter) CacheKey(today Date) string {
	var b strings.Builder
	b.WriteString(today.String())
	b.WriteByte('|')
	if f.Start != nil {
		b.WriteString(f.Start.String())
	}
	b.WriteByte('|')
	if f.End != nil {
		b.WriteString(f.End.String())
	}
	b.WriteByte('|')
	ids := slices.Clone(f.JobIDs)
	slices.Sort(ids)
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}

func (f ReportFilter) inRange(d Date) bool {
	if d.IsZero() {
		return f.Start == nil && f.End == nil
	}
	if f.Start != nil && d.Before(f.Start.Time) {
		return false
	}
	if f.End != nil && d.After(f.End.Time) {
		return false
	}
	return true
}

func (f ReportFilter) matchesJob(jobID *int64) bool {
	if len(f.JobIDs) == 0 {
		return true
	}
	return jobID != nil && slices.Contains(f.JobIDs, *jobID)
}

type periodStarts struct {
	today, week, month, year Date
}

func newPeriodStarts(today Date) periodStarts {
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return periodStarts{
		today: Date{Time: t},
		week:  Date{Time: t.AddDate(0, 0, -offset)},
		month: Date{Time: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)},
		year:  Date{Time: time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
}

// apply adds v to every period whose window holds d. Undated and future
// records count nowhere.
func (p periodStarts) apply(periods *Periods, d Date, v float64, income bool) {
	if d.IsZero() || d.After(p.today.Time) {
		return
	}
	add := func(pt *PeriodTotals, from Date) {
		if d.Before(from.Time) {
			return
		}
		if income {
			pt.Income += v
		} else {
			pt.Expense += v
		}
	}
	add(&periods.Week, p.week)
	add(&periods.Month, p.month)
	add(&periods.Year, p.year)
}

// BuildReport aggregates income from shifts and spending from expenses.
// Range filtering applies to the totals and breakdowns; the week, month and
// year periods always end today and ignore the range. The job filter
// applies to income only.
func BuildReport(shifts []Shift, expenses []Expense, f ReportFilter, today Date) Report {
	r := Report{
		ByJob:      make(map[string]float64),
		ByCategory: make(map[string]float64),
	}
	starts := newPeriodStarts(today)

	for _, s := range shifts {
		if !f.matchesJob(s.JobID) {
			continue
		}
		wage := finiteOrZero(s.TotalWage)
		starts.apply(&r.Periods, s.Date, wage, true)
		if !f.inRange(s.Date) {
			continue
		}
		r.IncomeTotal += wage
		r.ByJob[s.JobLabel()] += wage
	}

	for _, e := range expenses {
		amount, _ := e.Amount.Float64()
		starts.apply(&r.Periods, e.Date, amount, false)
		if !f.inRange(e.Date) {
			continue
		}
		r.ExpenseTotal += amount
		r.ByCategory[e.Category] += amount
	}

	r.Net = r.IncomeTotal - r.ExpenseTotal
	for _, pt := range []*PeriodTotals{&r.Periods.Week, &r.Periods.Month, &r.Periods.Year} {
		pt.Net = pt.Income - pt.Expense
	}
	return r
}
