package core

import (
	"regexp"
	"strings"
	"time"
)

const (
	Monthly RepetitionType = "monthly"
	Yearly  RepetitionType = "yearly"
	Weekly  RepetitionType = "weekly"
	Daily   RepetitionType = "daily"
)

const (
	KindExpense CategoryKind = "expense"
	KindIncome  CategoryKind = "income"
)

const (
	SyncPending SyncState = "pending"
	SyncDone    SyncState = "synced"
	SyncError   SyncState = "error"
)

type (
	RepetitionType string

	CategoryKind string

	// SyncState tracks an expense through the export pipeline.
	SyncState string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID        int64        `json:"id"`
		UserID    int64        `json:"user_id"`
		Name      string       `json:"name"`
		Kind      CategoryKind `json:"kind"`
		Color     string       `json:"color"`
		Position  int          `json:"position"`
		CreatedAt time.Time    `json:"created_at"`
	}

	Expense struct {
		ID          int64      `json:"id"`
		UserID      int64      `json:"user_id"`
		CategoryID  int64      `json:"category_id"`
		Date        Date       `json:"date"`
		Description string     `json:"description"`
		Amount      Money      `json:"amount_cents"`
		Note        string     `json:"note"`
		SyncState   SyncState  `json:"sync_state"`
		Version     int64      `json:"version"`
		CreatedAt   time.Time  `json:"created_at"`
		UpdatedAt   time.Time  `json:"updated_at"`
		DeletedAt   *time.Time `json:"-"`
	}

	RecurringExpense struct {
		ID          int64          `json:"id"`
		UserID      int64          `json:"user_id"`
		CategoryID  int64          `json:"category_id"`
		Description string         `json:"description"`
		Amount      Money          `json:"amount_cents"`
		Every       RepetitionType `json:"every"`
		StartDate   Date           `json:"start_date"`
		EndDate     Date           `json:"end_date"` // zero means open-ended
		LastRun     Date           `json:"last_run"` // zero until first materialization
		Active      bool           `json:"active"`
	}
)

// ValidationError marks a domain rule violation. Transports match on it
// to separate client mistakes from infrastructure failures.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

func invalid(msg string) error { return ValidationError(msg) }

var (
	ErrInvalidDay       error = ValidationError("invalid day")
	ErrInvalidMonth     error = ValidationError("invalid month")
	ErrInvalidAmount    error = ValidationError("invalid amount")
	ErrEmptyDescription error = ValidationError("empty description")
	ErrEmptyName        error = ValidationError("empty name")
	ErrInvalidCategory  error = ValidationError("invalid category")
	ErrInvalidColor     error = ValidationError("invalid color")
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func (d Date) Validate() error {
	if d.IsZero() {
		return invalid("date cannot be zero")
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

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day precision in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses the wire format YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("invalid date, want YYYY-MM-DD")
	}
	return Date{Time: t.UTC()}, nil
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the date as "YYYY-MM-DD"; zero dates render as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (k CategoryKind) Validate() error {
	switch k {
	case KindExpense, KindIncome:
		return nil
	}
	return invalid("invalid category kind")
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 60 {
		return invalid("name too long (max 60 characters)")
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if c.Color != "" && !colorRe.MatchString(c.Color) {
		return ErrInvalidColor
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return invalid("description too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.CategoryID <= 0 {
		return ErrInvalidCategory
	}
	if len(e.Note) > 500 {
		return invalid("note too long (max 500 characters)")
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if err := re.StartDate.Validate(); err != nil {
		return invalid("invalid start date: " + err.Error())
	}

	if !re.EndDate.IsZero() {
		if err := re.EndDate.Validate(); err != nil {
			return invalid("invalid end date: " + err.Error())
		}
		if re.EndDate.Before(re.StartDate.Time) {
			return invalid("end date must be after start date")
		}
	}

	switch re.Every {
	case Daily, Weekly, Monthly, Yearly:
	default:
		return invalid("invalid repetition type")
	}

	if len(strings.TrimSpace(re.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(re.Description) > 200 {
		return invalid("description too long (max 200 characters)")
	}

	if err := re.Amount.Validate(); err != nil {
		return err
	}

	if re.CategoryID <= 0 {
		return ErrInvalidCategory
	}

	return nil
}
