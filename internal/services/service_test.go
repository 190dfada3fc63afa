package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *storage.Repository) storage.User {
	t.Helper()
	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	u, err := repo.CreateUser(context.Background(), "test@example.com", "Test", hash)
	require.NoError(t, err)
	return u
}

func TestCreateCategoryRejectsDuplicates(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewCategoryService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	_, err := svc.CreateCategory(ctx, u.ID, "groceries")
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, u.ID, "groceries")
	require.ErrorIs(t, err, core.ErrDuplicateCategory)

	// comparison is exact, differing case is a different category
	_, err = svc.CreateCategory(ctx, u.ID, "Groceries")
	require.NoError(t, err)

	_, err = svc.CreateCategory(ctx, u.ID, "   ")
	require.ErrorIs(t, err, core.ErrCategoryRequired)
}

func TestUpdateCategoryAllowsKeepingOwnTitle(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewCategoryService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	a, err := svc.CreateCategory(ctx, u.ID, "food")
	require.NoError(t, err)
	b, err := svc.CreateCategory(ctx, u.ID, "travel")
	require.NoError(t, err)

	// renaming onto its own current title is not a duplicate
	require.NoError(t, svc.UpdateCategory(ctx, u.ID, a.ID, "food"))
	// renaming onto another category's title is
	require.ErrorIs(t, svc.UpdateCategory(ctx, u.ID, b.ID, "food"), core.ErrDuplicateCategory)
}

func TestExpenseQueryModePrecedence(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, title := range []string{"rent", "groceries", "cinema"} {
		e, err := svc.CreateExpense(ctx, core.Expense{
			UserID:       u.ID,
			Title:        title,
			Amount:       core.Money{Cents: int64(1000 * (i + 1))},
			Datetime:     base.AddDate(0, 0, i),
			Installments: 1,
		})
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}

	// ids beat a filter that matches nothing
	list, err := svc.ListExpenses(ctx, u.ID, ExpenseQuery{
		IDs:    ids[:2],
		Filter: core.ExpenseFilter{Title: "no-such-title"},
	})
	require.NoError(t, err)
	require.Len(t, list.Expenses, 2)
	require.Equal(t, 2, list.Total)

	// filter beats the plain listing
	list, err = svc.ListExpenses(ctx, u.ID, ExpenseQuery{
		Filter: core.ExpenseFilter{Title: "groceries"},
	})
	require.NoError(t, err)
	require.Len(t, list.Expenses, 1)
	require.Equal(t, 1, list.Total)

	// plain listing
	list, err = svc.ListExpenses(ctx, u.ID, ExpenseQuery{})
	require.NoError(t, err)
	require.Len(t, list.Expenses, 3)
	require.Equal(t, 3, list.Total)
}

func TestCreateExpenseValidation(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewExpenseService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	_, err := svc.CreateExpense(ctx, core.Expense{
		UserID:       u.ID,
		Title:        "",
		Amount:       core.Money{Cents: 100},
		Datetime:     time.Now(),
		Installments: 1,
	})
	require.ErrorIs(t, err, core.ErrTitleRequired)

	_, err = svc.CreateExpense(ctx, core.Expense{
		UserID:       u.ID,
		Title:        "tv",
		Amount:       core.Money{Cents: 100},
		Datetime:     time.Now(),
		Installments: core.MaxInstallments + 1,
	})
	require.ErrorIs(t, err, core.ErrInvalidInstallment)
}

func TestTransactionBundleTotals(t *testing.T) {
	repo := newTestStorage(t)
	catSvc := NewCategoryService(repo, nil)
	txSvc := NewTransactionService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	cat, err := catSvc.CreateCategory(ctx, u.ID, "groceries")
	require.NoError(t, err)

	created, err := txSvc.CreateTransaction(ctx, core.Transaction{
		UserID:   u.ID,
		Location: "market",
		Datetime: time.Date(2024, 4, 4, 10, 0, 0, 0, time.UTC),
	}, []core.TransactionExpenseInput{
		{Title: "fruit", Amount: core.Money{Cents: 820}, Installments: 1, CategoryID: cat.ID},
		{Title: "fish", Amount: core.Money{Cents: 2180}, Installments: 1, CategoryID: cat.ID},
	})
	require.NoError(t, err)
	require.Equal(t, int64(3000), created.Total.Cents)

	// a line missing its category never reaches storage
	_, err = txSvc.CreateTransaction(ctx, core.Transaction{
		UserID:   u.ID,
		Location: "market",
		Datetime: time.Now(),
	}, []core.TransactionExpenseInput{
		{Title: "fruit", Amount: core.Money{Cents: 100}, Installments: 1},
	})
	require.ErrorIs(t, err, core.ErrCategoryRequired)

	list, err := txSvc.ListTransactions(ctx, u.ID, core.TransactionFilter{}, core.Page{})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Transactions, 1)
}

func TestFixedExpenseResizesVaryingCosts(t *testing.T) {
	repo := newTestStorage(t)
	catSvc := NewCategoryService(repo, nil)
	svc := NewFixedExpenseService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	cat, err := catSvc.CreateCategory(ctx, u.ID, "utilities")
	require.NoError(t, err)

	// three amounts for five months: grown with zeroes
	created, err := svc.CreateFixedExpense(ctx, core.FixedExpense{
		UserID:         u.ID,
		Title:          "electricity",
		CategoryID:     cat.ID,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AmountOfMonths: 5,
		VaryingCosts:   true,
		Amount:         core.Money{Cents: 1000},
		AmountPerMonth: []core.Money{{Cents: 1000}, {Cents: 2000}, {Cents: 3000}},
	})
	require.NoError(t, err)
	require.Equal(t, []core.Money{{Cents: 1000}, {Cents: 2000}, {Cents: 3000}, {}, {}}, created.AmountPerMonth)

	// shrinking truncates
	created.AmountOfMonths = 2
	require.NoError(t, svc.UpdateFixedExpense(ctx, created))
	got, err := repo.GetFixedExpense(ctx, u.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, []core.Money{{Cents: 1000}, {Cents: 2000}}, got.AmountPerMonth)
}

func TestFixedExpenseMonthBounds(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewFixedExpenseService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	_, err := svc.CreateFixedExpense(ctx, core.FixedExpense{
		UserID:         u.ID,
		Title:          "lease",
		CategoryID:     "cat-1",
		StartDate:      time.Now(),
		AmountOfMonths: core.MaxFixedExpenseMonths + 1,
		Amount:         core.Money{Cents: 100},
	})
	require.ErrorIs(t, err, core.ErrInvalidMonthCount)
}

func TestScheduleLabelsAndAmounts(t *testing.T) {
	repo := newTestStorage(t)
	catSvc := NewCategoryService(repo, nil)
	svc := NewFixedExpenseService(repo, nil)
	ctx := context.Background()
	u := newTestUser(t, repo)

	cat, err := catSvc.CreateCategory(ctx, u.ID, "housing")
	require.NoError(t, err)

	created, err := svc.CreateFixedExpense(ctx, core.FixedExpense{
		UserID:         u.ID,
		Title:          "rent",
		CategoryID:     cat.ID,
		StartDate:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		AmountOfMonths: 3,
		Amount:         core.Money{Cents: 90000},
	})
	require.NoError(t, err)

	schedule, err := svc.Schedule(ctx, u.ID, created.ID)
	require.NoError(t, err)
	require.Len(t, schedule, 3)
	// slot 0 labels the month after the start month
	require.Equal(t, core.MonthLabel{Month: time.February, Year: 2024}, schedule[0].Label)
	require.Equal(t, core.MonthLabel{Month: time.April, Year: 2024}, schedule[2].Label)
	for _, entry := range schedule {
		require.Equal(t, int64(90000), entry.Amount.Cents)
	}
}

func TestLoginAndLogout(t *testing.T) {
	repo := newTestStorage(t)
	svc := NewAuthService(repo, time.Hour)
	ctx := context.Background()
	newTestUser(t, repo)

	token, err := svc.Login(ctx, "test@example.com", "password")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ResolveSession(ctx, token)
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	require.NoError(t, svc.Logout(ctx, token))
	userID, err = svc.ResolveSession(ctx, token)
	require.NoError(t, err)
	require.Empty(t, userID)

	_, err = svc.Login(ctx, "test@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "missing@example.com", "password")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
