package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, repo *Repository) User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), "test@example.com", "Test", "hashed")
	require.NoError(t, err)
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, "alice@example.com", "Alice", "bcrypt-hash")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
	require.Equal(t, "bcrypt-hash", byEmail.PasswordHash)

	byID, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	require.Error(t, err)
	require.True(t, IsNotFound(err))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateUser(ctx, "dup@example.com", "One", "h1")
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "dup@example.com", "Two", "h2")
	require.Error(t, err)
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	require.NoError(t, repo.CreateSession(ctx, "tok-1", u.ID, time.Now().Add(time.Hour)))

	userID, err := repo.GetSessionUser(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)

	// unknown token resolves to no user, not an error
	userID, err = repo.GetSessionUser(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, userID)

	require.NoError(t, repo.DeleteSession(ctx, "tok-1"))
	userID, err = repo.GetSessionUser(ctx, "tok-1")
	require.NoError(t, err)
	require.Empty(t, userID)
}

func TestExpiredSessionResolvesToNoUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	require.NoError(t, repo.CreateSession(ctx, "stale", u.ID, time.Now().Add(-time.Minute)))

	userID, err := repo.GetSessionUser(ctx, "stale")
	require.NoError(t, err)
	require.Empty(t, userID)

	n, err := repo.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func TestCategoryLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	groceries, err := repo.CreateCategory(ctx, u.ID, "groceries")
	require.NoError(t, err)
	_, err = repo.CreateCategory(ctx, u.ID, "travel")
	require.NoError(t, err)

	found, err := repo.GetCategoryByTitle(ctx, u.ID, "groceries")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, groceries.ID, found.ID)

	// exact match only
	found, err = repo.GetCategoryByTitle(ctx, u.ID, "Groceries")
	require.NoError(t, err)
	require.Nil(t, found)

	require.NoError(t, repo.UpdateCategoryTitle(ctx, groceries.ID, "food"))
	list, err := repo.ListCategories(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "food", list[0].Title)
	require.Equal(t, "travel", list[1].Title)

	require.NoError(t, repo.DeleteCategory(ctx, groceries.ID))
	list, err = repo.ListCategories(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestUpdateCategoryTitleNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateCategoryTitle(context.Background(), "no-such-id", "anything")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteCategoryKeepsExpenseLinks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := newTestUser(t, repo)

	cat, err := repo.CreateCategory(ctx, u.ID, "electronics")
	require.NoError(t, err)

	e, err := repo.CreateExpense(ctx, core.Expense{
		UserID:       u.ID,
		Title:        "headphones",
		Amount:       core.Money{Cents: 9900},
		Datetime:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Installments: 1,
		CategoryIDs:  []string{cat.ID},
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteCategory(ctx, cat.ID))

	// the link survives as a dangling reference
	got, err := repo.GetExpense(ctx, u.ID, e.ID)
	require.NoError(t, err)
	require.Equal(t, []string{cat.ID}, got.CategoryIDs)
}
