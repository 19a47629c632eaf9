package core

import (
	"reflect"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func dated(date string, wage float64, jobID *int64, jobName string) Shift {
	s := Shift{TotalWage: wage, JobID: jobID, JobName: jobName}
	if date != "" {
		d, err := ParseDate(date)
		if err != nil {
			panic(err)
		}
		s.Date = d
	}
	return s
}

func TestBuildReportTotalsAndPeriods(t *testing.T) {
	today := NewDate(2024, 5, 15) // Wednesday
	shifts := []Shift{
		dated("2024-05-13", 1000, ptr(int64(1)), "Cafe"), // this week
		dated("2024-05-02", 2000, ptr(int64(2)), "Bar"),  // this month
		dated("2024-02-10", 4000, nil, ""),               // this year
		dated("2024-05-20", 8000, ptr(int64(1)), "Cafe"), // future
		dated("", 16, nil, ""),                           // undated
	}
	expenses := []Expense{
		expense("2024-05-14", "Food", 100),
		expense("2023-12-31", "Rent", 300),
	}

	r := BuildReport(shifts, expenses, ReportFilter{}, today)
	if r.IncomeTotal != 15016 || r.ExpenseTotal != 400 || r.Net != 14616 {
		t.Fatalf("unexpected totals: %+v", r)
	}
	wantJobs := map[string]float64{"Cafe": 9000, "Bar": 2000, UnassignedJob: 4016}
	if !reflect.DeepEqual(r.ByJob, wantJobs) {
		t.Fatalf("by job: %v", r.ByJob)
	}
	if r.ByCategory["Food"] != 100 || r.ByCategory["Rent"] != 300 {
		t.Fatalf("by category: %v", r.ByCategory)
	}

	want := Periods{
		Week:  PeriodTotals{Income: 1000, Expense: 100, Net: 900},
		Month: PeriodTotals{Income: 3000, Expense: 100, Net: 2900},
		Year:  PeriodTotals{Income: 7000, Expense: 100, Net: 6900},
	}
	if r.Periods != want {
		t.Fatalf("periods: %+v", r.Periods)
	}
}

func TestBuildReportRangeAndJobs(t *testing.T) {
	today := NewDate(2024, 5, 15)
	shifts := []Shift{
		dated("2024-05-13", 1000, ptr(int64(1)), "Cafe"),
		dated("2024-05-02", 2000, ptr(int64(2)), "Bar"),
		dated("", 16, nil, ""),
	}
	expenses := []Expense{
		expense("2024-05-14", "Food", 100),
		expense("2024-05-01", "Food", 50),
	}

	f := ReportFilter{Start: ptr(NewDate(2024, 5, 10)), JobIDs: []int64{1}}
	r := BuildReport(shifts, expenses, f, today)
	if r.IncomeTotal != 1000 || r.ExpenseTotal != 100 {
		t.Fatalf("unexpected totals: %+v", r)
	}
	if _, ok := r.ByJob[UnassignedJob]; ok {
		t.Fatalf("undated shift must be excluded once a bound is set")
	}
	// periods ignore the range but honour the job filter
	if r.Periods.Month.Income != 1000 || r.Periods.Month.Expense != 150 {
		t.Fatalf("unexpected month period: %+v", r.Periods.Month)
	}
}

func TestBuildReportWeekStartsMonday(t *testing.T) {
	today := NewDate(2024, 5, 19) // Sunday
	r := BuildReport([]Shift{
		dated("2024-05-13", 10, nil, ""), // Monday
		dated("2024-05-12", 20, nil, ""), // previous Sunday
	}, nil, ReportFilter{}, today)
	if r.Periods.Week.Income != 10 {
		t.Fatalf("week income %v", r.Periods.Week.Income)
	}
}

func TestParseReportFilter(t *testing.T) {
	f := ParseReportFilter("2024/05/01", "bogus", "3, 1,,2")
	if f.Start == nil || f.Start.String() != "2024-05-01" || f.End != nil {
		t.Fatalf("unexpected bounds: %+v", f)
	}
	if !reflect.DeepEqual(f.JobIDs, []int64{3, 1, 2}) {
		t.Fatalf("job ids %v", f.JobIDs)
	}
	if ids := ParseJobIDs("1,x"); ids != nil {
		t.Fatalf("malformed list should be ignored, got %v", ids)
	}
	if f.CacheKey(NewDate(2024, 5, 15)) != "2024-05-15|2024-05-01||1,2,3" {
		t.Fatalf("cache key %q", f.CacheKey(NewDate(2024, 5, 15)))
	}
}
