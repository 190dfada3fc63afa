package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// MaxInstallments bounds the number of payments an expense can be
	// split across.
	MaxInstallments = 36

	// MaxFixedExpenseMonths bounds the amortization window of a fixed
	// expense.
	MaxFixedExpenseMonths = 20
)

// Field error codes reported to the client, keyed by form field.
const (
	CodeNameRequired      = "NAME_REQUIRED"
	CodeTitleRequired     = "TITLE_REQUIRED"
	CodeAmountRequired    = "AMOUNT_REQUIRED"
	CodeBadFormat         = "BAD_FORMAT"
	CodeBadDateFormat     = "BAD_DATE_FORMAT"
	CodeBadCategoryData   = "BAD_CATEGORY_DATA"
	CodeInvalidID         = "INVALID_ID"
	CodeCategoryEmpty     = "CATEGORY_EMPTY"
	CodeCategoryDuplicate = "CATEGORY_DUPLICATE"
)

var (
	ErrTitleRequired      = errors.New("title is required")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidInstallment = errors.New("installments out of range")
	ErrCategoryRequired   = errors.New("category is required")
	ErrDuplicateCategory  = errors.New("duplicate category title")
	ErrInvalidMonthCount  = errors.New("amount of months out of range")
	ErrNotFound           = errors.New("record not found")
)

type (
	// Category is a user-owned label referenced by expenses. Titles are
	// unique per user with exact-string comparison. Deleting a category
	// leaves referencing expenses untouched; a dangling reference is
	// tolerated and simply stops rendering.
	Category struct {
		ID     string
		UserID string
		Title  string
	}

	// Expense is a single spend record. Unit is the per-item price for
	// multi-unit purchases and may be nil; Amount is always the total
	// charged. An expense belongs to zero or more categories.
	Expense struct {
		ID           string
		UserID       string
		Title        string
		Amount       Money
		Unit         *Money
		Datetime     time.Time
		Installments int
		CategoryIDs  []string
	}

	// TransactionExpenseInput is an expense line submitted as part of a
	// transaction. Unlike a standalone Expense it carries exactly one
	// category; the datetime and owner come from the transaction header.
	TransactionExpenseInput struct {
		Title        string
		Amount       Money
		Unit         *Money
		Installments int
		CategoryID   string
	}

	// Transaction bundles expenses under a location and date. Total is a
	// materialized sum of the linked expenses' amounts, recomputed inside
	// the same atomic unit whenever the expense set changes.
	Transaction struct {
		ID         string
		UserID     string
		Location   string
		Datetime   time.Time
		Total      Money
		ExpenseIDs []string
	}

	// FixedExpense is a recurring monthly obligation. When VaryingCosts is
	// set, AmountPerMonth holds one value per month (length AmountOfMonths);
	// otherwise every month uses Amount.
	FixedExpense struct {
		ID             string
		UserID         string
		Title          string
		CategoryID     string
		StartDate      time.Time
		AmountOfMonths int
		VaryingCosts   bool
		Amount         Money
		AmountPerMonth []Money
	}
)

// Validate checks the invariants of a standalone expense.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if e.Datetime.IsZero() {
		return ErrInvalidDate
	}
	if e.Installments < 1 || e.Installments > MaxInstallments {
		return ErrInvalidInstallment
	}
	return nil
}

// Validate checks the invariants of a transaction expense line.
func (in TransactionExpenseInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrTitleRequired
	}
	if in.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if in.Installments < 1 || in.Installments > MaxInstallments {
		return ErrInvalidInstallment
	}
	if in.CategoryID == "" {
		return ErrCategoryRequired
	}
	return nil
}

// Validate checks the invariants of a transaction header.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Location) == "" {
		return ErrTitleRequired
	}
	if t.Datetime.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the invariants of a fixed expense definition.
func (f FixedExpense) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return ErrTitleRequired
	}
	if f.CategoryID == "" {
		return ErrCategoryRequired
	}
	if f.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if f.AmountOfMonths < 1 || f.AmountOfMonths > MaxFixedExpenseMonths {
		return ErrInvalidMonthCount
	}
	if f.VaryingCosts && len(f.AmountPerMonth) != f.AmountOfMonths {
		return ErrInvalidMonthCount
	}
	return nil
}

// MonthlyAmount returns the amount charged in month slot idx. With varying
// costs the per-month sequence is used; otherwise the flat amount applies.
// Out-of-range slots are zero.
func (f FixedExpense) MonthlyAmount(idx int) Money {
	if idx < 0 || idx >= f.AmountOfMonths {
		return Money{}
	}
	if !f.VaryingCosts {
		return f.Amount
	}
	if idx >= len(f.AmountPerMonth) {
		return Money{}
	}
	return f.AmountPerMonth[idx]
}
