package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// CreateFixedExpense inserts a fixed expense definition. The per-month
// amounts are stored as a JSON array of cents.
func (r *Repository) CreateFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f.ID = uuid.NewString()
	perMonth, err := marshalPerMonth(f.AmountPerMonth)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO fixed_expenses (id, user_id, title, category_id, start_date, amount_of_months, varying_costs, amount_cents, amount_per_month)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.UserID, f.Title, f.CategoryID, f.StartDate.UTC(), f.AmountOfMonths, boolToInt(f.VaryingCosts), f.Amount.Cents, perMonth)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("create fixed expense: %w", err)
	}
	return f, nil
}

// UpdateFixedExpense rewrites a fixed expense definition in full.
func (r *Repository) UpdateFixedExpense(ctx context.Context, f core.FixedExpense) error {
	perMonth, err := marshalPerMonth(f.AmountPerMonth)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE fixed_expenses SET title = ?, category_id = ?, start_date = ?, amount_of_months = ?, varying_costs = ?, amount_cents = ?, amount_per_month = ?
		 WHERE id = ? AND user_id = ?`,
		f.Title, f.CategoryID, f.StartDate.UTC(), f.AmountOfMonths, boolToInt(f.VaryingCosts), f.Amount.Cents, perMonth, f.ID, f.UserID)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteFixedExpense removes a fixed expense definition.
func (r *Repository) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetFixedExpense returns a single fixed expense definition.
func (r *Repository) GetFixedExpense(ctx context.Context, userID, id string) (core.FixedExpense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, category_id, start_date, amount_of_months, varying_costs, amount_cents, amount_per_month
		 FROM fixed_expenses WHERE id = ? AND user_id = ?`, id, userID)
	f, err := scanFixedExpense(row)
	if err != nil {
		if IsNotFound(err) {
			return core.FixedExpense{}, core.ErrNotFound
		}
		return core.FixedExpense{}, fmt.Errorf("get fixed expense: %w", err)
	}
	return f, nil
}

// ListFixedExpenses returns a user's fixed expenses ordered by start date.
func (r *Repository) ListFixedExpenses(ctx context.Context, userID string, page core.Page) ([]core.FixedExpense, error) {
	page = page.Normalize()
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, category_id, start_date, amount_of_months, varying_costs, amount_cents, amount_per_month
		 FROM fixed_expenses WHERE user_id = ? ORDER BY start_date ASC LIMIT ? OFFSET ?`,
		userID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	fixed := make([]core.FixedExpense, 0)
	for rows.Next() {
		f, err := scanFixedExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		fixed = append(fixed, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixed expenses: %w", err)
	}
	return fixed, nil
}

// CountFixedExpenses counts a user's fixed expenses.
func (r *Repository) CountFixedExpenses(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fixed_expenses WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count fixed expenses: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFixedExpense(row rowScanner) (core.FixedExpense, error) {
	var f core.FixedExpense
	var varying int
	var perMonth string
	err := row.Scan(&f.ID, &f.UserID, &f.Title, &f.CategoryID, &f.StartDate,
		&f.AmountOfMonths, &varying, &f.Amount.Cents, &perMonth)
	if err != nil {
		return core.FixedExpense{}, err
	}
	f.VaryingCosts = varying != 0
	f.AmountPerMonth, err = unmarshalPerMonth(perMonth)
	if err != nil {
		return core.FixedExpense{}, err
	}
	return f, nil
}

func marshalPerMonth(amounts []core.Money) (string, error) {
	cents := make([]int64, len(amounts))
	for i, m := range amounts {
		cents[i] = m.Cents
	}
	raw, err := json.Marshal(cents)
	if err != nil {
		return "", fmt.Errorf("marshal per-month amounts: %w", err)
	}
	return string(raw), nil
}

func unmarshalPerMonth(raw string) ([]core.Money, error) {
	if raw == "" {
		return []core.Money{}, nil
	}
	var cents []int64
	if err := json.Unmarshal([]byte(raw), &cents); err != nil {
		return nil, fmt.Errorf("unmarshal per-month amounts: %w", err)
	}
	amounts := make([]core.Money, len(cents))
	for i, c := range cents {
		amounts[i] = core.Money{Cents: c}
	}
	return amounts, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
