package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/storage"
)

// ExpenseService orchestrates standalone expense operations.
type ExpenseService struct {
	storage *storage.Repository
	events  *events.Client
}

func NewExpenseService(storage *storage.Repository, eventsClient *events.Client) *ExpenseService {
	return &ExpenseService{storage: storage, events: eventsClient}
}

// ExpenseQuery selects one of three listing modes. An explicit id set wins
// over a filter, and a filter wins over the plain paginated listing.
type ExpenseQuery struct {
	IDs    []string
	Filter core.ExpenseFilter
	Page   core.Page
}

// ExpenseList is a page of expenses with the total count for the same
// criteria, so clients can render pagination.
type ExpenseList struct {
	Expenses []core.Expense
	Total    int
}

// CreateExpense validates and stores a standalone expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, events.ActionCreated, created.ID, created.UserID)
	return created, nil
}

// UpdateExpense validates and rewrites an expense, replacing its category
// set in full.
func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return err
	}
	s.publish(ctx, events.ActionUpdated, e.ID, e.UserID)
	return nil
}

// DeleteExpense removes an expense and its category links.
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, events.ActionDeleted, id, userID)
	return nil
}

// ListExpenses runs the query in its selected mode, fetching the page and
// the matching total concurrently. In id mode the page always starts at
// offset zero.
func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, q ExpenseQuery) (ExpenseList, error) {
	var list ExpenseList
	g, ctx := errgroup.WithContext(ctx)

	switch {
	case len(q.IDs) > 0:
		g.Go(func() error {
			expenses, err := s.storage.ListExpensesByIDs(ctx, userID, q.IDs, q.Page.Limit)
			list.Expenses = expenses
			return err
		})
		g.Go(func() error {
			total, err := s.storage.CountExpensesByIDs(ctx, userID, q.IDs)
			list.Total = total
			return err
		})
	case !q.Filter.Empty():
		g.Go(func() error {
			expenses, err := s.storage.ListExpensesByFilter(ctx, userID, q.Filter, q.Page)
			list.Expenses = expenses
			return err
		})
		g.Go(func() error {
			total, err := s.storage.CountExpensesByFilter(ctx, userID, q.Filter)
			list.Total = total
			return err
		})
	default:
		g.Go(func() error {
			expenses, err := s.storage.ListExpenses(ctx, userID, q.Page)
			list.Expenses = expenses
			return err
		})
		g.Go(func() error {
			total, err := s.storage.CountExpenses(ctx, userID)
			list.Total = total
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return ExpenseList{}, err
	}
	return list, nil
}

func (s *ExpenseService) publish(ctx context.Context, action, id, userID string) {
	if s.events == nil {
		return
	}
	msg := events.NewChangeMessage(events.EntityExpense, action, id, userID)
	if err := s.events.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense change",
			"action", action, "id", id, "error", err)
	}
}
