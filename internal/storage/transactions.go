package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// CreateTransaction inserts the header, materializes every expense line as
// a real expense row owned by the same user, links them, and stores the
// recomputed total. The whole write happens inside one transaction so a
// partial bundle can never be observed.
func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction, lines []core.TransactionExpenseInput) (core.Transaction, error) {
	t.ID = uuid.NewString()
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		expenseIDs, total, err := insertTransactionLines(ctx, tx, t, lines)
		if err != nil {
			return err
		}
		t.ExpenseIDs = expenseIDs
		t.Total = total

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, user_id, location, datetime, total_cents)
			 VALUES (?, ?, ?, ?, ?)`,
			t.ID, t.UserID, t.Location, t.Datetime.UTC(), t.Total.Cents); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return linkTransactionExpenses(ctx, tx, t.ID, expenseIDs)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction rewrites the header and fully replaces the linked
// expense set: the previously linked expenses are deleted and the submitted
// lines materialized fresh, with the total recomputed from them.
func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction, lines []core.TransactionExpenseInput) (core.Transaction, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		oldIDs, err := linkedExpenseIDs(ctx, tx, t.ID)
		if err != nil {
			return err
		}
		if err := deleteExpenseRows(ctx, tx, t.UserID, oldIDs); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM expenses_in_transaction WHERE transaction_id = ?`, t.ID); err != nil {
			return fmt.Errorf("clear expense links: %w", err)
		}

		expenseIDs, total, err := insertTransactionLines(ctx, tx, t, lines)
		if err != nil {
			return err
		}
		t.ExpenseIDs = expenseIDs
		t.Total = total

		res, err := tx.ExecContext(ctx,
			`UPDATE transactions SET location = ?, datetime = ?, total_cents = ?
			 WHERE id = ? AND user_id = ?`,
			t.Location, t.Datetime.UTC(), t.Total.Cents, t.ID, t.UserID)
		if err != nil {
			return fmt.Errorf("update transaction row: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.ErrNotFound
		}
		return linkTransactionExpenses(ctx, tx, t.ID, expenseIDs)
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return t, nil
}

// DeleteTransaction removes the header and every expense that was created
// as part of it.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := linkedExpenseIDs(ctx, tx, id)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("delete transaction row: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return core.ErrNotFound
		}
		return deleteExpenseRows(ctx, tx, userID, ids)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// GetTransaction returns a single transaction with its linked expense ids.
func (r *Repository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	var t core.Transaction
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, location, datetime, total_cents
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&t.ID, &t.UserID, &t.Location, &t.Datetime, &t.Total.Cents)
	if err != nil {
		if IsNotFound(err) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if err := r.loadExpenseLinks(ctx, []*core.Transaction{&t}); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// ListTransactions returns the plain paginated transaction listing.
func (r *Repository) ListTransactions(ctx context.Context, userID string, page core.Page) ([]core.Transaction, error) {
	return r.listTransactions(ctx, transactionWhere(userID, core.TransactionFilter{}), page.Normalize())
}

// CountTransactions counts a user's transactions.
func (r *Repository) CountTransactions(ctx context.Context, userID string) (int, error) {
	return r.countTransactions(ctx, transactionWhere(userID, core.TransactionFilter{}))
}

// ListTransactionsByFilter returns transactions in the filtered window. The
// date bounds follow the same inverted comparison as the expense filter.
func (r *Repository) ListTransactionsByFilter(ctx context.Context, userID string, filter core.TransactionFilter, page core.Page) ([]core.Transaction, error) {
	return r.listTransactions(ctx, transactionWhere(userID, filter), page.Normalize())
}

// CountTransactionsByFilter counts transactions in the filtered window.
func (r *Repository) CountTransactionsByFilter(ctx context.Context, userID string, filter core.TransactionFilter) (int, error) {
	return r.countTransactions(ctx, transactionWhere(userID, filter))
}

func transactionWhere(userID string, filter core.TransactionFilter) whereClause {
	conds := []string{"t.user_id = ?"}
	args := []any{userID}
	if filter.StartDate != nil {
		conds = append(conds, "t.datetime <= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conds = append(conds, "t.datetime >= ?")
		args = append(args, filter.EndDate.UTC())
	}
	return whereClause{sql: strings.Join(conds, " AND "), args: args}
}

func (r *Repository) listTransactions(ctx context.Context, where whereClause, page core.Page) ([]core.Transaction, error) {
	query := fmt.Sprintf(
		`SELECT t.id, t.user_id, t.location, t.datetime, t.total_cents
		 FROM transactions t WHERE %s ORDER BY t.datetime ASC LIMIT ? OFFSET ?`, where.sql)
	args := append(append([]any{}, where.args...), page.Limit, page.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]core.Transaction, 0)
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Location, &t.Datetime, &t.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	refs := make([]*core.Transaction, len(transactions))
	for i := range transactions {
		refs[i] = &transactions[i]
	}
	if err := r.loadExpenseLinks(ctx, refs); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *Repository) countTransactions(ctx context.Context, where whereClause) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM transactions t WHERE %s`, where.sql)
	var count int
	if err := r.db.QueryRowContext(ctx, query, where.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

func (r *Repository) loadExpenseLinks(ctx context.Context, transactions []*core.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	byID := make(map[string]*core.Transaction, len(transactions))
	args := make([]any, 0, len(transactions))
	for _, t := range transactions {
		t.ExpenseIDs = []string{}
		byID[t.ID] = t
		args = append(args, t.ID)
	}

	query := fmt.Sprintf(
		`SELECT transaction_id, expense_id FROM expenses_in_transaction WHERE transaction_id IN (%s) ORDER BY expense_id`,
		placeholders(len(transactions)))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load expense links: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var transactionID, expenseID string
		if err := rows.Scan(&transactionID, &expenseID); err != nil {
			return fmt.Errorf("scan expense link: %w", err)
		}
		if t, ok := byID[transactionID]; ok {
			t.ExpenseIDs = append(t.ExpenseIDs, expenseID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate expense links: %w", err)
	}
	return nil
}

// insertTransactionLines materializes every line as an expense row dated at
// the transaction's datetime and returns the created ids with the summed
// total.
func insertTransactionLines(ctx context.Context, tx *sql.Tx, t core.Transaction, lines []core.TransactionExpenseInput) ([]string, core.Money, error) {
	ids := make([]string, 0, len(lines))
	amounts := make([]core.Money, 0, len(lines))
	for _, line := range lines {
		e := core.Expense{
			ID:           uuid.NewString(),
			UserID:       t.UserID,
			Title:        line.Title,
			Amount:       line.Amount,
			Unit:         line.Unit,
			Datetime:     t.Datetime,
			Installments: line.Installments,
		}
		if err := insertExpense(ctx, tx, e); err != nil {
			return nil, core.Money{}, err
		}
		if err := insertCategoryLinks(ctx, tx, e.ID, []string{line.CategoryID}); err != nil {
			return nil, core.Money{}, err
		}
		ids = append(ids, e.ID)
		amounts = append(amounts, line.Amount)
	}
	return ids, core.Sum(amounts), nil
}

func linkTransactionExpenses(ctx context.Context, tx *sql.Tx, transactionID string, expenseIDs []string) error {
	for _, expenseID := range expenseIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO expenses_in_transaction (expense_id, transaction_id) VALUES (?, ?)`,
			expenseID, transactionID); err != nil {
			return fmt.Errorf("link expense: %w", err)
		}
	}
	return nil
}

func linkedExpenseIDs(ctx context.Context, tx *sql.Tx, transactionID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT expense_id FROM expenses_in_transaction WHERE transaction_id = ?`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("load linked expense ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan linked expense id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked expense ids: %w", err)
	}
	return ids, nil
}

func deleteExpenseRows(ctx context.Context, tx *sql.Tx, userID string, ids []string) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories_on_expense WHERE expense_id = ?`, id); err != nil {
			return fmt.Errorf("delete category links: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return fmt.Errorf("delete expense row: %w", err)
		}
	}
	return nil
}
