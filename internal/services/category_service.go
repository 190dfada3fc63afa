// Package services orchestrates domain operations across storage and the
// event stream. Mutations publish change messages after the database write
// succeeds; a publish failure is logged and never fails the request.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/storage"
)

// CategoryService owns category rules: per-user title uniqueness with
// exact-string comparison, and deletes that leave expense links dangling.
type CategoryService struct {
	storage *storage.Repository
	events  *events.Client
}

func NewCategoryService(storage *storage.Repository, eventsClient *events.Client) *CategoryService {
	return &CategoryService{storage: storage, events: eventsClient}
}

// CreateCategory adds a category unless the user already has one with the
// exact same title.
func (s *CategoryService) CreateCategory(ctx context.Context, userID, title string) (core.Category, error) {
	if strings.TrimSpace(title) == "" {
		return core.Category{}, core.ErrCategoryRequired
	}

	existing, err := s.storage.GetCategoryByTitle(ctx, userID, title)
	if err != nil {
		return core.Category{}, fmt.Errorf("check duplicate category: %w", err)
	}
	if existing != nil {
		return core.Category{}, core.ErrDuplicateCategory
	}

	c, err := s.storage.CreateCategory(ctx, userID, title)
	if err != nil {
		return core.Category{}, err
	}
	s.publish(ctx, events.ActionCreated, c.ID, userID)
	return c, nil
}

// UpdateCategory renames a category. The new title goes through the same
// duplicate check as creation.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id, title string) error {
	if strings.TrimSpace(title) == "" {
		return core.ErrCategoryRequired
	}

	existing, err := s.storage.GetCategoryByTitle(ctx, userID, title)
	if err != nil {
		return fmt.Errorf("check duplicate category: %w", err)
	}
	if existing != nil && existing.ID != id {
		return core.ErrDuplicateCategory
	}

	if err := s.storage.UpdateCategoryTitle(ctx, id, title); err != nil {
		return err
	}
	s.publish(ctx, events.ActionUpdated, id, userID)
	return nil
}

// DeleteCategory removes the category. Expenses that referenced it keep
// their link rows and simply stop showing the label.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.ActionDeleted, id, userID)
	return nil
}

// ListCategories returns all of a user's categories ordered by title.
func (s *CategoryService) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, userID)
}

func (s *CategoryService) publish(ctx context.Context, action, id, userID string) {
	if s.events == nil {
		return
	}
	msg := events.NewChangeMessage(events.EntityCategory, action, id, userID)
	if err := s.events.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish category change",
			"action", action, "id", id, "error", err)
	}
}
