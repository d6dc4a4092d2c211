package core

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Monthly Period = "monthly"
	Weekly  Period = "weekly"

	Deposit    SavingsEntryType = "deposit"
	Withdrawal SavingsEntryType = "withdrawal"
)

type (
	TransactionType  string
	Period           string
	SavingsEntryType string

	// Date is a calendar day. The time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	}

	// Budget caps spending for one category. Spent is derived from the
	// transaction list and is never authoritative.
	Budget struct {
		ID        string    `json:"id"`
		Category  string    `json:"category"`
		Limit     Money     `json:"limit"`
		Spent     Money     `json:"spent"`
		Period    Period    `json:"period"`
		CreatedAt time.Time `json:"createdAt"`
	}

	SavingsGoal struct {
		ID                    string    `json:"id"`
		Name                  string    `json:"name"`
		Target                Money     `json:"target"`
		Current               Money     `json:"current"`
		Deadline              *Date     `json:"deadline,omitempty"`
		LastNotifiedMilestone int       `json:"lastNotifiedMilestone"`
		CreatedAt             time.Time `json:"createdAt"`
	}

	// SavingsTransaction records one applied change to a goal's Current.
	SavingsTransaction struct {
		ID        string           `json:"id"`
		SavingsID string           `json:"savingsId"`
		Amount    Money            `json:"amount"`
		Type      SavingsEntryType `json:"type"`
		Date      Date             `json:"date"`
	}

	// AppState is the root aggregate persisted as a single document.
	AppState struct {
		Transactions        []Transaction        `json:"transactions"`
		Budgets             []Budget             `json:"budgets"`
		Savings             []SavingsGoal        `json:"savings"`
		SavingsTransactions []SavingsTransaction `json:"savingsTransactions"`
		TotalIncome         Money                `json:"totalIncome"`
		TotalExpense        Money                `json:"totalExpense"`
		Balance             Money                `json:"balance"`
	}
)

var (
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrEmptyID            = errors.New("empty id")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyName          = errors.New("empty name")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
)

const maxDescriptionRunes = 200

var validationErrors = []error{
	ErrZeroDate, ErrInvalidDay, ErrInvalidMonth, ErrInvalidAmount, ErrInvalidType,
	ErrInvalidPeriod, ErrEmptyID, ErrEmptyCategory, ErrEmptyName, ErrDescriptionTooLong,
}

// IsValidationError reports whether err was caused by invalid user input.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (t TransactionType) Valid() bool { return t == Income || t == Expense }
func (p Period) Valid() bool { return p == Monthly || p == Weekly }

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
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

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// SameDay reports whether both dates name the same calendar day.
func (d Date) SameDay(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month() && d.Day() == o.Day()
}

// DaysUntil returns the number of calendar days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD and full RFC3339 timestamps; only the
// calendar day is kept.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s", data)
	}
	s := string(data[1 : len(data)-1])
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = DateOf(t)
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	return t.validateFields()
}

func (t Transaction) validateFields() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionRunes {
		return ErrDescriptionTooLong
	}
	return t.Date.Validate()
}

// ValidateNew validates a transaction that has not been assigned an id yet.
func (t Transaction) ValidateNew() error {
	return t.validateFields()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return ErrEmptyID
	}
	return b.ValidateNew()
}

func (b Budget) ValidateNew() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Limit.Validate(); err != nil {
		return fmt.Errorf("limit: %w", err)
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return ErrEmptyID
	}
	return g.ValidateNew()
}

func (g SavingsGoal) ValidateNew() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if err := g.Target.Validate(); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	if g.Current.IsNegative() {
		return fmt.Errorf("current: %w", ErrInvalidAmount)
	}
	if g.Deadline != nil {
		if err := g.Deadline.Validate(); err != nil {
			return fmt.Errorf("invalid deadline: %w", err)
		}
	}
	return nil
}

func (s SavingsTransaction) Validate() error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.SavingsID) == "" {
		return ErrEmptyID
	}
	if s.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if s.Type != Deposit && s.Type != Withdrawal {
		return ErrInvalidType
	}
	return s.Date.Validate()
}

// DefaultState returns the zeroed aggregate used before anything is stored.
func DefaultState() AppState {
	return AppState{
		Transactions:        []Transaction{},
		Budgets:             []Budget{},
		Savings:             []SavingsGoal{},
		SavingsTransactions: []SavingsTransaction{},
	}
}

// Clone returns a deep copy so callers can mutate it freely.
func (s AppState) Clone() AppState {
	out := s
	out.Transactions = append(make([]Transaction, 0, len(s.Transactions)), s.Transactions...)
	for i, t := range out.Transactions {
		if t.CreatedAt != nil {
			c := *t.CreatedAt
			out.Transactions[i].CreatedAt = &c
		}
	}
	out.Budgets = append(make([]Budget, 0, len(s.Budgets)), s.Budgets...)
	out.Savings = append(make([]SavingsGoal, 0, len(s.Savings)), s.Savings...)
	for i, g := range out.Savings {
		if g.Deadline != nil {
			d := *g.Deadline
			out.Savings[i].Deadline = &d
		}
	}
	out.SavingsTransactions = append(make([]SavingsTransaction, 0, len(s.SavingsTransactions)), s.SavingsTransactions...)
	return out
}

func (s AppState) FindTransaction(id string) int {
	for i, t := range s.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s AppState) FindBudget(id string) int {
	for i, b := range s.Budgets {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func (s AppState) FindSavings(id string) int {
	for i, g := range s.Savings {
		if g.ID == id {
			return i
		}
	}
	return -1
}
