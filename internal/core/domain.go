package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultCurrency        = "¥"
	DefaultJobColor        = "#4f46e5"
	DefaultExpenseCategory = "General"
	UnassignedJob          = "Unassigned"
)

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

type (
	SyncStatus string

	Date struct {
		time.Time
	}

	Job struct {
		ID         int64     `json:"id"`
		Name       string    `json:"name"`
		HourlyWage float64   `json:"hourly_wage"`
		Currency   string    `json:"currency"`
		Color      string    `json:"color"`
		CreatedAt  time.Time `json:"created_at"`
	}

	// Shift is a persisted shift with the wage figures computed at save time.
	Shift struct {
		ID          int64      `json:"id"`
		Date        Date       `json:"date"`
		ShiftType   string     `json:"shift_type"`
		StartTime   Clock      `json:"start_time"`
		EndTime     Clock      `json:"end_time"`
		Break       *TimeRange `json:"break,omitempty"`
		NormalHours float64    `json:"normal_hours"`
		NightHours  float64    `json:"night_hours"`
		TotalHours  float64    `json:"total_hours"`
		HourlyWage  float64    `json:"hourly_wage"`
		Currency    string     `json:"currency"`
		TotalWage   float64    `json:"total_wage"`
		JobID       *int64     `json:"job_id"`
		JobName     string     `json:"job_name,omitempty"`
		JobColor    string     `json:"job_color,omitempty"`
		SyncStatus  SyncStatus `json:"sync_status"`
		CreatedAt   time.Time  `json:"created_at"`
	}

	Expense struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// Budget caps spending for one category in one month (YYYY-MM).
	Budget struct {
		ID       int64           `json:"id"`
		Month    string          `json:"month"`
		Category string          `json:"category"`
		Amount   decimal.Decimal `json:"amount"`
	}

	Receipt struct {
		ID         int64         `json:"id"`
		Title      string        `json:"title"`
		Date       string        `json:"date"`
		Note       string        `json:"note"`
		Subtotal   float64       `json:"subtotal"`
		TaxTotal   float64       `json:"tax_total"`
		GrandTotal float64       `json:"grand_total"`
		CreatedAt  time.Time     `json:"created_at"`
		Items      []ReceiptItem `json:"items"`
	}

	ReceiptItem struct {
		ID          int64   `json:"id"`
		Position    int     `json:"position"`
		Date        string  `json:"date"`
		Category    string  `json:"category"`
		Description string  `json:"description"`
		Quantity    float64 `json:"quantity"`
		UnitPrice   float64 `json:"unit_price"`
		TaxRate     float64 `json:"tax_rate"`
		LineTotal   float64 `json:"line_total"`
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("name is required")
	ErrEmptyCategory   = errors.New("category is required")
	ErrInvalidColor    = errors.New("color must be a #rrggbb hex value")
	ErrNoReceiptItems  = errors.New("at least one line item is required")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
	ErrInvalidJobWage  = errors.New("hourly wage must not be negative")
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var dateLayouts = []string{"2006-01-02", "2006/01/02"}

// ParseDate accepts YYYY-MM-DD and YYYY/MM/DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01")
}

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// MarshalJSON shadows the time.Time encoder so dates travel as YYYY-MM-DD.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, b)
	}
	return d.UnmarshalText([]byte(s))
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	v, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseMonth validates a YYYY-MM key.
func ParseMonth(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return t.Format("2006-01"), nil
}

// CurrentMonth returns now's YYYY-MM in UTC.
func CurrentMonth(now time.Time) string {
	return now.UTC().Format("2006-01")
}

// Normalize trims fields and fills defaults for a new job.
func (j *Job) Normalize() {
	j.Name = strings.TrimSpace(j.Name)
	j.Currency = strings.TrimSpace(j.Currency)
	if j.Currency == "" {
		j.Currency = DefaultCurrency
	}
	j.Color = strings.TrimSpace(j.Color)
	if j.Color == "" {
		j.Color = DefaultJobColor
	}
}

func (j Job) Validate() error {
	if j.Name == "" {
		return ErrEmptyName
	}
	if len(j.Name) > 150 {
		return errors.New("name too long (max 150 characters)")
	}
	if math.IsNaN(j.HourlyWage) || math.IsInf(j.HourlyWage, 0) || j.HourlyWage < 0 {
		return ErrInvalidJobWage
	}
	if !hexColor.MatchString(j.Color) {
		return ErrInvalidColor
	}
	return nil
}

// ShiftFromWage builds the record persisted for a calculated shift.
func ShiftFromWage(res WageResult, jobID *int64) Shift {
	return Shift{
		Date:        res.Date,
		ShiftType:   res.ShiftType,
		StartTime:   res.StartTime,
		EndTime:     res.EndTime,
		Break:       res.Break,
		NormalHours: res.NormalHours,
		NightHours:  res.NightHours,
		TotalHours:  res.TotalHours,
		HourlyWage:  res.HourlyWage,
		Currency:    res.Currency,
		TotalWage:   res.TotalWage,
		JobID:       jobID,
		SyncStatus:  SyncPending,
	}
}

// JobLabel is the job name used in reports and exports.
func (s Shift) JobLabel() string {
	if s.JobName == "" {
		return UnassignedJob
	}
	return s.JobName
}

func (e *Expense) Normalize() {
	e.Category = strings.TrimSpace(e.Category)
	if e.Category == "" {
		e.Category = DefaultExpenseCategory
	}
	e.Description = strings.TrimSpace(e.Description)
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(e.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (b Budget) Validate() error {
	if _, err := ParseMonth(b.Month); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// NewReceipt aggregates items into a receipt ready to be stored.
func NewReceipt(title, date, note string, items []LineItem) (Receipt, error) {
	if len(items) == 0 {
		return Receipt{}, ErrNoReceiptItems
	}
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return Receipt{}, fmt.Errorf("item %d: %w", i+1, err)
		}
	}
	sum := SummarizeReceipt(items)
	r := Receipt{
		Title:      strings.TrimSpace(title),
		Date:       strings.TrimSpace(date),
		Note:       strings.TrimSpace(note),
		Subtotal:   sum.Subtotal,
		TaxTotal:   sum.Tax,
		GrandTotal: sum.Grand,
		Items:      make([]ReceiptItem, 0, len(sum.Detailed)),
	}
	for i, d := range sum.Detailed {
		r.Items = append(r.Items, ReceiptItem{
			Position:    i,
			Date:        strings.TrimSpace(d.Date),
			Category:    strings.TrimSpace(d.Category),
			Description: strings.TrimSpace(d.Description),
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			TaxRate:     d.TaxRate,
			LineTotal:   d.LineTotal,
		})
	}
	return r, nil
}
