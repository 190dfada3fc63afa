package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func seedExpense(t *testing.T, repo *Repository, userID, title string, cents int64, at time.Time, categoryIDs ...string) core.Expense {
	t.Helper()
	e, err := repo.CreateExpense(context.Background(), core.Expense{
		UserID:       userID,
		Title:        title,
		Amount:       core.Money{Cents: cents},
		Datetime:     at,
		Installments: 1,
		CategoryIDs:  categoryIDs,
	})
	require.NoError(t, err)
	return e
}

func TestExpenseCreateGetUpdateDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)
	cat, err := repo.CreateCategory(ctx, u.ID, "groceries")
	require.NoError(t, err)

	unit := &core.Money{Cents: 250}
	created, err := repo.CreateExpense(ctx, core.Expense{
		UserID:       u.ID,
		Title:        "apples",
		Amount:       core.Money{Cents: 1250},
		Unit:         unit,
		Datetime:     time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		Installments: 1,
		CategoryIDs:  []string{cat.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repo.GetExpense(ctx, u.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "apples", got.Title)
	require.Equal(t, int64(1250), got.Amount.Cents)
	require.NotNil(t, got.Unit)
	require.Equal(t, int64(250), got.Unit.Cents)
	require.Equal(t, []string{cat.ID}, got.CategoryIDs)

	other, err := repo.CreateCategory(ctx, u.ID, "market")
	require.NoError(t, err)

	got.Title = "pears"
	got.Amount = core.Money{Cents: 900}
	got.Unit = nil
	got.CategoryIDs = []string{other.ID}
	require.NoError(t, repo.UpdateExpense(ctx, got))

	updated, err := repo.GetExpense(ctx, u.ID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "pears", updated.Title)
	require.Nil(t, updated.Unit)
	require.Equal(t, []string{other.ID}, updated.CategoryIDs)

	require.NoError(t, repo.DeleteExpense(ctx, u.ID, created.ID))
	_, err = repo.GetExpense(ctx, u.ID, created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateExpenseWrongUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)
	e := seedExpense(t, repo, u.ID, "coffee", 450, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	e.UserID = "someone-else"
	e.Title = "hijacked"
	require.ErrorIs(t, repo.UpdateExpense(ctx, e), core.ErrNotFound)

	require.ErrorIs(t, repo.DeleteExpense(ctx, "someone-else", e.ID), core.ErrNotFound)
}

func TestListExpensesPagination(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		seedExpense(t, repo, u.ID, "item", 100, base.AddDate(0, 0, i))
	}

	// default page size
	page1, err := repo.ListExpenses(ctx, u.ID, core.Page{})
	require.NoError(t, err)
	require.Len(t, page1, core.DefaultDataLimit)

	page2, err := repo.ListExpenses(ctx, u.ID, core.Page{Offset: 10})
	require.NoError(t, err)
	require.Len(t, page2, 5)

	// chronological order
	require.True(t, page1[0].Datetime.Before(page1[9].Datetime))

	count, err := repo.CountExpenses(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 15, count)
}

func TestListExpensesByFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)
	food, err := repo.CreateCategory(ctx, u.ID, "food")
	require.NoError(t, err)
	travel, err := repo.CreateCategory(ctx, u.ID, "travel")
	require.NoError(t, err)

	jan := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	may := time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
	seedExpense(t, repo, u.ID, "groceries run", 3000, jan, food.ID)
	seedExpense(t, repo, u.ID, "train ticket", 5000, mar, travel.ID)
	seedExpense(t, repo, u.ID, "restaurant", 7000, may, food.ID)

	t.Run("title substring", func(t *testing.T) {
		got, err := repo.ListExpensesByFilter(ctx, u.ID, core.ExpenseFilter{Title: "ticket"}, core.Page{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "train ticket", got[0].Title)
	})

	t.Run("start date is an upper bound", func(t *testing.T) {
		cutoff := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
		got, err := repo.ListExpensesByFilter(ctx, u.ID, core.ExpenseFilter{StartDate: &cutoff}, core.Page{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, e := range got {
			require.True(t, !e.Datetime.After(cutoff))
		}
	})

	t.Run("end date is a lower bound", func(t *testing.T) {
		cutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		got, err := repo.ListExpensesByFilter(ctx, u.ID, core.ExpenseFilter{EndDate: &cutoff}, core.Page{})
		require.NoError(t, err)
		require.Len(t, got, 2)
		for _, e := range got {
			require.True(t, !e.Datetime.Before(cutoff))
		}
	})

	t.Run("category membership", func(t *testing.T) {
		got, err := repo.ListExpensesByFilter(ctx, u.ID, core.ExpenseFilter{CategoryIDs: []string{food.ID}}, core.Page{})
		require.NoError(t, err)
		require.Len(t, got, 2)

		count, err := repo.CountExpensesByFilter(ctx, u.ID, core.ExpenseFilter{CategoryIDs: []string{food.ID}})
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})

	t.Run("combined criteria", func(t *testing.T) {
		cutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		got, err := repo.ListExpensesByFilter(ctx, u.ID, core.ExpenseFilter{
			EndDate:     &cutoff,
			CategoryIDs: []string{food.ID},
		}, core.Page{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, "restaurant", got[0].Title)
	})
}

func TestListExpensesByIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := seedExpense(t, repo, u.ID, "a", 100, base)
	seedExpense(t, repo, u.ID, "b", 200, base.AddDate(0, 0, 1))
	c := seedExpense(t, repo, u.ID, "c", 300, base.AddDate(0, 0, 2))

	got, err := repo.ListExpensesByIDs(ctx, u.ID, []string{a.ID, c.ID, "unknown"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	count, err := repo.CountExpensesByIDs(ctx, u.ID, []string{a.ID, c.ID, "unknown"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	got, err = repo.ListExpensesByIDs(ctx, u.ID, nil, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExpensesScopedByUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := newTestUser(t, repo)
	bob, err := repo.CreateUser(ctx, "bob@example.com", "Bob", "hash")
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	seedExpense(t, repo, alice.ID, "alice groceries", 100, at)
	seedExpense(t, repo, bob.ID, "bob groceries", 200, at)

	got, err := repo.ListExpenses(ctx, alice.ID, core.Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice groceries", got[0].Title)
}
