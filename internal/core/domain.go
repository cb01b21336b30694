package core

import (
	"errors"
	"strings"
	"time"
)

// Purposes an expense can be recorded under. The set is fixed; early
// deployments that allowed free text are migrated into Miscellaneous.
const (
	PurposeBooks         Purpose = "Books"
	PurposeElectronics   Purpose = "Electronics"
	PurposeEvent         Purpose = "Event"
	PurposeMarketing     Purpose = "Marketing"
	PurposeOperations    Purpose = "Operations"
	PurposeTravel        Purpose = "Travel"
	PurposeMiscellaneous Purpose = "Miscellaneous"
)

// Roles attached to user accounts. RoleAdmin is only ever created by the
// schema seed or the adduser CLI, never through web registration.
const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "Developer"
	RoleEmployee  Role = "Employee"
)

type (
	Purpose string

	Role string

	// Date is a calendar date without a time component. The zero value is
	// "no date".
	Date struct {
		time.Time
	}

	Expense struct {
		ID             int64
		CreatedAt      time.Time // assigned server-side at insert, immutable
		Amount         Money
		Purpose        Purpose
		Description    string
		PurchaseDate   Date
		Receipt        []byte // optional bill image, raw bytes
		CompanyName    string
		ContactDetails string
	}

	User struct {
		Username     string
		PasswordHash string
		Role         Role
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyPurpose       = errors.New("empty purpose")
	ErrUnknownPurpose     = errors.New("unknown purpose")
	ErrMissingDate        = errors.New("purchase date is required")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrEmptyUsername      = errors.New("empty username")
	ErrEmptyPassword      = errors.New("empty password")
	ErrUnknownRole        = errors.New("unknown role")
)

// AllPurposes returns the fixed purpose set in display order.
func AllPurposes() []Purpose {
	return []Purpose{
		PurposeBooks,
		PurposeElectronics,
		PurposeEvent,
		PurposeMarketing,
		PurposeOperations,
		PurposeTravel,
		PurposeMiscellaneous,
	}
}

func (p Purpose) Validate() error {
	if strings.TrimSpace(string(p)) == "" {
		return ErrEmptyPurpose
	}
	for _, known := range AllPurposes() {
		if p == known {
			return nil
		}
	}
	return ErrUnknownPurpose
}

func (r Role) Validate() error {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleEmployee:
		return nil
	}
	return ErrUnknownRole
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, the storage and wire format.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// Validate checks the creation invariants: positive amount, known non-empty
// purpose, a purchase date, and a bounded description. Receipt, company name
// and contact details are optional.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Purpose.Validate(); err != nil {
		return err
	}
	if err := e.PurchaseDate.Validate(); err != nil {
		return err
	}
	if len(e.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if u.PasswordHash == "" {
		return ErrEmptyPassword
	}
	return u.Role.Validate()
}
