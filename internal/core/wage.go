package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// NightMultiplier is the pay factor for minutes inside the night window.
const NightMultiplier = 1.25

var (
	ErrMissingDate       = errors.New("date is required")
	ErrMissingStartTime  = errors.New("start time is required")
	ErrMissingEndTime    = errors.New("end time is required")
	ErrMissingHourlyWage = errors.New("hourly wage is required")
	ErrInvalidHourlyWage = errors.New("hourly wage must be a positive number")
	ErrInvalidWageConfig = errors.New("invalid wage configuration")
)

// WageConfig holds the pay rules applied to every shift. It is passed
// explicitly to CalculateWage; there is no package-level state.
type WageConfig struct {
	EnableNightShift   bool    `json:"enable_night_shift"`
	NightStart         Clock   `json:"night_start"`
	NightEnd           Clock   `json:"night_end"`
	EnableOvertime     bool    `json:"enable_overtime"`
	OvertimeThreshold  float64 `json:"overtime_threshold"` // hours
	OvertimeRate       float64 `json:"overtime_rate"`      // percent of base rate
	MealAllowance      float64 `json:"meal_allowance"`
	TransportAllowance float64 `json:"transport_allowance"`
	WeekendBonus       float64 `json:"weekend_bonus"` // percent
}

func DefaultWageConfig() WageConfig {
	return WageConfig{
		NightStart:        MustClock("22:00"),
		NightEnd:          MustClock("05:00"),
		OvertimeThreshold: 8,
		OvertimeRate:      150,
	}
}

func (c WageConfig) Validate() error {
	var problems []string
	if c.NightStart < 0 || c.NightStart > MinutesPerDay {
		problems = append(problems, "night start out of range")
	}
	if c.NightEnd < 0 || c.NightEnd > MinutesPerDay {
		problems = append(problems, "night end out of range")
	}
	check := func(name string, v float64) {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			problems = append(problems, name+" must be a non-negative number")
		}
	}
	check("overtime threshold", c.OvertimeThreshold)
	check("overtime rate", c.OvertimeRate)
	check("meal allowance", c.MealAllowance)
	check("transport allowance", c.TransportAllowance)
	check("weekend bonus", c.WeekendBonus)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidWageConfig, strings.Join(problems, "; "))
	}
	return nil
}

// nightWindows places the night window on the timeline of work. A window
// that wraps midnight becomes [start, 1440) plus [0, end), the latter moved
// to the next day when work runs past midnight.
func (c WageConfig) nightWindows(work Interval) []Interval {
	nS, nE := int(c.NightStart), int(c.NightEnd)
	crosses := work.End > MinutesPerDay
	if nE <= nS {
		early := Interval{Start: 0, End: nE}
		if crosses {
			early = Interval{Start: MinutesPerDay, End: MinutesPerDay + nE}
		}
		return []Interval{{Start: nS, End: MinutesPerDay}, early}
	}
	out := []Interval{{Start: nS, End: nE}}
	if crosses {
		out = append(out, Interval{Start: nS + MinutesPerDay, End: nE + MinutesPerDay})
	}
	return out
}

type TimeRange struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

func (r TimeRange) Minutes() int { return r.Start.Until(r.End) }

// ShiftForm is the raw, string-typed shift as it arrives from a client.
type ShiftForm struct {
	Date       string   `json:"date"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	BreakStart string   `json:"break_start"`
	BreakEnd   string   `json:"break_end"`
	ShiftType  string   `json:"shift_type"`
	HourlyWage *float64 `json:"hourly_wage"`
	Currency   string   `json:"currency"`
}

// Parse turns the form into a ShiftInput. Missing required fields are
// rejected; a break with only one side filled in is treated as no break.
func (f ShiftForm) Parse() (ShiftInput, error) {
	var in ShiftInput
	if strings.TrimSpace(f.Date) == "" {
		return in, ErrMissingDate
	}
	d, err := ParseDate(f.Date)
	if err != nil {
		return in, err
	}
	if strings.TrimSpace(f.StartTime) == "" {
		return in, ErrMissingStartTime
	}
	if strings.TrimSpace(f.EndTime) == "" {
		return in, ErrMissingEndTime
	}
	start, err := ParseClock(f.StartTime)
	if err != nil {
		return in, fmt.Errorf("start time: %w", err)
	}
	end, err := ParseClock(f.EndTime)
	if err != nil {
		return in, fmt.Errorf("end time: %w", err)
	}
	if f.HourlyWage == nil {
		return in, ErrMissingHourlyWage
	}

	in = ShiftInput{
		Date:       d,
		Start:      start,
		End:        end,
		ShiftType:  strings.TrimSpace(f.ShiftType),
		HourlyWage: *f.HourlyWage,
		Currency:   strings.TrimSpace(f.Currency),
	}

	bs, be := strings.TrimSpace(f.BreakStart), strings.TrimSpace(f.BreakEnd)
	if bs != "" && be != "" {
		s, err := ParseClock(bs)
		if err != nil {
			return in, fmt.Errorf("break start: %w", err)
		}
		e, err := ParseClock(be)
		if err != nil {
			return in, fmt.Errorf("break end: %w", err)
		}
		in.Break = &TimeRange{Start: s, End: e}
	}
	return in, in.Validate()
}

// ShiftInput is a parsed shift ready for wage calculation.
type ShiftInput struct {
	Date       Date
	Start      Clock
	End        Clock
	Break      *TimeRange
	ShiftType  string
	HourlyWage float64
	Currency   string
}

func (in ShiftInput) Validate() error {
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if in.Start < 0 || in.Start > MinutesPerDay {
		return fmt.Errorf("start time: %w", ErrInvalidClock)
	}
	if in.End < 0 || in.End > MinutesPerDay {
		return fmt.Errorf("end time: %w", ErrInvalidClock)
	}
	if math.IsNaN(in.HourlyWage) || math.IsInf(in.HourlyWage, 0) || in.HourlyWage <= 0 {
		return ErrInvalidHourlyWage
	}
	return nil
}

// WorkInterval is the shift span on the two-day timeline.
func (in ShiftInput) WorkInterval() Interval {
	s := int(in.Start)
	return Interval{Start: s, End: s + in.Start.Until(in.End)}
}

// BreakInterval places the break on the same timeline as WorkInterval.
// It returns false when there is no break or the break is empty.
func (in ShiftInput) BreakInterval() (Interval, bool) {
	if in.Break == nil || in.Break.Minutes() == 0 {
		return Interval{}, false
	}
	bs := int(in.Break.Start)
	if bs < int(in.Start) {
		bs += MinutesPerDay
	}
	return Interval{Start: bs, End: bs + in.Break.Minutes()}, true
}

type WageResult struct {
	Date          Date       `json:"date"`
	ShiftType     string     `json:"shift_type"`
	StartTime     Clock      `json:"start_time"`
	EndTime       Clock      `json:"end_time"`
	Break         *TimeRange `json:"break,omitempty"`
	HourlyWage    float64    `json:"hourly_wage"`
	Currency      string     `json:"currency"`
	NormalHours   float64    `json:"total_normal_hours"`
	NightHours    float64    `json:"total_night_hours"`
	OvertimeHours float64    `json:"overtime_hours"`
	TotalHours    float64    `json:"total_hours"`
	TotalWage     float64    `json:"total_wage"`
}

// CalculateWage computes pay for a single shift under cfg.
func CalculateWage(in ShiftInput, cfg WageConfig) (WageResult, error) {
	if err := in.Validate(); err != nil {
		return WageResult{}, err
	}

	// The break length counts in full even when it lies partly or wholly
	// outside the shift; only the overlapping part is cut from the pieces.
	work := in.WorkInterval()
	pieces := []Interval{work}
	breakMinutes := 0
	if brk, ok := in.BreakInterval(); ok {
		breakMinutes = brk.Len()
		pieces = work.Subtract(brk)
	}
	netMinutes := max(work.Len()-breakMinutes, 0)
	netHours := float64(netMinutes) / 60
	rate := in.HourlyWage

	var normalHours, nightHours, wage float64
	if cfg.EnableNightShift {
		// normal + night == net
		nightMinutes := min(overlapMinutes(pieces, cfg.nightWindows(work)), netMinutes)
		normalHours = float64(netMinutes-nightMinutes) / 60
		nightHours = float64(nightMinutes) / 60
		wage = normalHours*rate + nightHours*rate*NightMultiplier
	} else {
		normalHours = netHours
		wage = netHours * rate
	}

	var overtimeHours float64
	if worked := normalHours + nightHours; cfg.EnableOvertime && worked > cfg.OvertimeThreshold {
		overtimeHours = worked - cfg.OvertimeThreshold
		wage += overtimeHours * rate * (cfg.OvertimeRate/100 - 1)
	}

	wage += cfg.MealAllowance + cfg.TransportAllowance

	if cfg.WeekendBonus > 0 && in.Date.IsWeekend() {
		wage *= 1 + cfg.WeekendBonus/100
	}

	return WageResult{
		Date:          in.Date,
		ShiftType:     in.ShiftType,
		StartTime:     in.Start,
		EndTime:       in.End,
		Break:         in.Break,
		HourlyWage:    rate,
		Currency:      in.Currency,
		NormalHours:   normalHours,
		NightHours:    nightHours,
		OvertimeHours: overtimeHours,
		TotalHours:    math.Round(netHours*100) / 100,
		TotalWage:     roundHalfUp(wage),
	}, nil
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
