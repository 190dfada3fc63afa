package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// CreateCategory inserts a category owned by userID. Duplicate-title
// checking happens in the service layer with an exact-match lookup.
func (r *Repository) CreateCategory(ctx context.Context, userID, title string) (core.Category, error) {
	c := core.Category{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, title) VALUES (?, ?, ?)`,
		c.ID, c.UserID, c.Title)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// GetCategoryByTitle finds a category by exact title match for a user.
// Returns (nil, nil) when no such category exists.
func (r *Repository) GetCategoryByTitle(ctx context.Context, userID, title string) (*core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title FROM categories WHERE user_id = ? AND title = ?`,
		userID, title).Scan(&c.ID, &c.UserID, &c.Title)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category by title: %w", err)
	}
	return &c, nil
}

// UpdateCategoryTitle renames a category.
func (r *Repository) UpdateCategoryTitle(ctx context.Context, id, title string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteCategory removes the category row only. Expenses keep their link
// rows; listings skip references to categories that no longer exist.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ListCategories returns every category a user owns, ordered by title.
func (r *Repository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title FROM categories WHERE user_id = ? ORDER BY title`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}
