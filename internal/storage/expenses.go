package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// CreateExpense inserts an expense and its category links in one
// transaction. Ownership of the supplied category ids is not verified;
// links to foreign or vanished categories are simply never rendered.
func (r *Repository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = uuid.NewString()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertExpense(ctx, tx, e); err != nil {
			return err
		}
		return insertCategoryLinks(ctx, tx, e.ID, e.CategoryIDs)
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

// UpdateExpense rewrites an expense row and fully replaces its category
// links with the supplied set.
func (r *Repository) UpdateExpense(ctx context.Context, e core.Expense) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET title = ?, amount_cents = ?, unit_cents = ?, datetime = ?, installments = ?
			 WHERE id = ? AND user_id = ?`,
			e.Title, e.Amount.Cents, unitCents(e.Unit), e.Datetime.UTC(), e.Installments, e.ID, e.UserID)
		if err != nil {
			return fmt.Errorf("update expense row: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories_on_expense WHERE expense_id = ?`, e.ID); err != nil {
			return fmt.Errorf("clear category links: %w", err)
		}
		return insertCategoryLinks(ctx, tx, e.ID, e.CategoryIDs)
	})
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return nil
}

// DeleteExpense removes the expense and its category links. Whether the
// expense is referenced by a transaction is not checked here; the service
// layer owns that policy.
func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete expense row: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.ErrNotFound
		}
		// link rows cascade on the expense side; keep the explicit delete
		// for databases restored without foreign keys enabled
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories_on_expense WHERE expense_id = ?`, id); err != nil {
			return fmt.Errorf("delete category links: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM expenses_in_transaction WHERE expense_id = ?`, id); err != nil {
			return fmt.Errorf("delete transaction links: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// GetExpense returns a single expense with its category ids.
func (r *Repository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	var e core.Expense
	var unit sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, amount_cents, unit_cents, datetime, installments
		 FROM expenses WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &unit, &e.Datetime, &e.Installments)
	if err != nil {
		if IsNotFound(err) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if unit.Valid {
		e.Unit = &core.Money{Cents: unit.Int64}
	}
	if err := r.loadCategoryLinks(ctx, []*core.Expense{&e}); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ListExpenses returns the plain paginated expense listing.
func (r *Repository) ListExpenses(ctx context.Context, userID string, page core.Page) ([]core.Expense, error) {
	return r.listExpenses(ctx, expenseWhere(userID, core.ExpenseFilter{}), page.Normalize())
}

// CountExpenses counts a user's expenses.
func (r *Repository) CountExpenses(ctx context.Context, userID string) (int, error) {
	return r.countExpenses(ctx, expenseWhere(userID, core.ExpenseFilter{}))
}

// ListExpensesByFilter returns expenses matching the filter. Note the date
// comparison directions: StartDate is an upper bound and EndDate a lower
// bound on datetime.
func (r *Repository) ListExpensesByFilter(ctx context.Context, userID string, filter core.ExpenseFilter, page core.Page) ([]core.Expense, error) {
	return r.listExpenses(ctx, expenseWhere(userID, filter), page.Normalize())
}

// CountExpensesByFilter counts expenses matching the filter.
func (r *Repository) CountExpensesByFilter(ctx context.Context, userID string, filter core.ExpenseFilter) (int, error) {
	return r.countExpenses(ctx, expenseWhere(userID, filter))
}

// ListExpensesByIDs resolves an explicit id set, always reading from offset
// zero.
func (r *Repository) ListExpensesByIDs(ctx context.Context, userID string, ids []string, limit int) ([]core.Expense, error) {
	if len(ids) == 0 {
		return []core.Expense{}, nil
	}
	if limit <= 0 {
		limit = core.DefaultDataLimit
	}
	where := idSetWhere(userID, ids)
	return r.listExpenses(ctx, where, core.Page{Offset: 0, Limit: limit})
}

// CountExpensesByIDs counts how many of the given ids belong to the user.
func (r *Repository) CountExpensesByIDs(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.countExpenses(ctx, idSetWhere(userID, ids))
}

type whereClause struct {
	sql  string
	args []any
}

func expenseWhere(userID string, filter core.ExpenseFilter) whereClause {
	var conds []string
	var args []any

	conds = append(conds, "e.user_id = ?")
	args = append(args, userID)

	if filter.Title != "" {
		conds = append(conds, "e.title LIKE '%' || ? || '%'")
		args = append(args, filter.Title)
	}
	// startDate bounds datetime from above and endDate from below,
	// mirroring the shipped query shape (see DESIGN.md)
	if filter.StartDate != nil {
		conds = append(conds, "e.datetime <= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conds = append(conds, "e.datetime >= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if len(filter.CategoryIDs) > 0 {
		cond := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM categories_on_expense coe WHERE coe.expense_id = e.id AND coe.category_id IN (%s))",
			placeholders(len(filter.CategoryIDs)))
		conds = append(conds, cond)
		for _, id := range filter.CategoryIDs {
			args = append(args, id)
		}
	}

	return whereClause{sql: strings.Join(conds, " AND "), args: args}
}

func idSetWhere(userID string, ids []string) whereClause {
	args := []any{userID}
	for _, id := range ids {
		args = append(args, id)
	}
	return whereClause{
		sql:  fmt.Sprintf("e.user_id = ? AND e.id IN (%s)", placeholders(len(ids))),
		args: args,
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (r *Repository) listExpenses(ctx context.Context, where whereClause, page core.Page) ([]core.Expense, error) {
	query := fmt.Sprintf(
		`SELECT e.id, e.user_id, e.title, e.amount_cents, e.unit_cents, e.datetime, e.installments
		 FROM expenses e WHERE %s ORDER BY e.datetime ASC LIMIT ? OFFSET ?`, where.sql)
	args := append(append([]any{}, where.args...), page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		var e core.Expense
		var unit sql.NullInt64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &unit, &e.Datetime, &e.Installments); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if unit.Valid {
			e.Unit = &core.Money{Cents: unit.Int64}
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	refs := make([]*core.Expense, len(expenses))
	for i := range expenses {
		refs[i] = &expenses[i]
	}
	if err := r.loadCategoryLinks(ctx, refs); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *Repository) countExpenses(ctx context.Context, where whereClause) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM expenses e WHERE %s`, where.sql)
	var count int
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return count, nil
}

// loadCategoryLinks fills CategoryIDs for the given expenses with one query.
func (r *Repository) loadCategoryLinks(ctx context.Context, expenses []*core.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	byID := make(map[string]*core.Expense, len(expenses))
	args := make([]any, 0, len(expenses))
	for _, e := range expenses {
		e.CategoryIDs = []string{}
		byID[e.ID] = e
		args = append(args, e.ID)
	}

	query := fmt.Sprintf(
		`SELECT expense_id, category_id FROM categories_on_expense WHERE expense_id IN (%s) ORDER BY category_id`,
		placeholders(len(expenses)))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load category links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var expenseID, categoryID string
		if err := rows.Scan(&expenseID, &categoryID); err != nil {
			return fmt.Errorf("scan category link: %w", err)
		}
		if e, ok := byID[expenseID]; ok {
			e.CategoryIDs = append(e.CategoryIDs, categoryID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate category links: %w", err)
	}
	return nil
}

func insertExpense(ctx context.Context, tx *sql.Tx, e core.Expense) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, user_id, title, amount_cents, unit_cents, datetime, installments)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Amount.Cents, unitCents(e.Unit), e.Datetime.UTC(), e.Installments)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func insertCategoryLinks(ctx context.Context, tx *sql.Tx, expenseID string, categoryIDs []string) error {
	for _, categoryID := range categoryIDs {
		if categoryID == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories_on_expense (expense_id, category_id) VALUES (?, ?)`,
			expenseID, categoryID); err != nil {
			return fmt.Errorf("insert category link: %w", err)
		}
	}
	return nil
}

func unitCents(unit *core.Money) any {
	if unit == nil {
		return nil
	}
	return unit.Cents
}
