package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/storage"
)

// FixedExpenseService orchestrates recurring expense definitions and their
// amortization schedules.
type FixedExpenseService struct {
	storage *storage.Repository
	events  *events.Client
}

func NewFixedExpenseService(storage *storage.Repository, eventsClient *events.Client) *FixedExpenseService {
	return &FixedExpenseService{storage: storage, events: eventsClient}
}

// FixedExpenseList is a page of fixed expenses with the user's total count.
type FixedExpenseList struct {
	FixedExpenses []core.FixedExpense
	Total         int
}

// ScheduleEntry is one month of a fixed expense's amortization schedule.
type ScheduleEntry struct {
	Label  core.MonthLabel
	Amount core.Money
}

// CreateFixedExpense stores a recurring expense. With varying costs the
// per-month sequence is first resized to the month count, growing with
// zeroes or truncating.
func (s *FixedExpenseService) CreateFixedExpense(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f = normalizeFixedExpense(f)
	if err := f.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	created, err := s.storage.CreateFixedExpense(ctx, f)
	if err != nil {
		return core.FixedExpense{}, err
	}
	s.publish(ctx, events.ActionCreated, created.ID, created.UserID)
	return created, nil
}

// UpdateFixedExpense rewrites a recurring expense, resizing the per-month
// sequence when the month count changed.
func (s *FixedExpenseService) UpdateFixedExpense(ctx context.Context, f core.FixedExpense) error {
	f = normalizeFixedExpense(f)
	if err := f.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateFixedExpense(ctx, f); err != nil {
		return err
	}
	s.publish(ctx, events.ActionUpdated, f.ID, f.UserID)
	return nil
}

// DeleteFixedExpense removes a recurring expense definition.
func (s *FixedExpenseService) DeleteFixedExpense(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteFixedExpense(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, events.ActionDeleted, id, userID)
	return nil
}

// ListFixedExpenses fetches a page and the total count concurrently.
func (s *FixedExpenseService) ListFixedExpenses(ctx context.Context, userID string, page core.Page) (FixedExpenseList, error) {
	var list FixedExpenseList
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fixed, err := s.storage.ListFixedExpenses(ctx, userID, page)
		list.FixedExpenses = fixed
		return err
	})
	g.Go(func() error {
		total, err := s.storage.CountFixedExpenses(ctx, userID)
		list.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return FixedExpenseList{}, err
	}
	return list, nil
}

// Schedule expands a fixed expense into one entry per month slot, each
// carrying its calendar label and the amount charged that month.
func (s *FixedExpenseService) Schedule(ctx context.Context, userID, id string) ([]ScheduleEntry, error) {
	f, err := s.storage.GetFixedExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	entries := make([]ScheduleEntry, f.AmountOfMonths)
	for idx := range entries {
		entries[idx] = ScheduleEntry{
			Label:  core.LabelForSlot(f.StartDate, idx),
			Amount: f.MonthlyAmount(idx),
		}
	}
	return entries, nil
}

func normalizeFixedExpense(f core.FixedExpense) core.FixedExpense {
	if f.VaryingCosts {
		f.AmountPerMonth = core.ResizeAmounts(f.AmountPerMonth, f.AmountOfMonths)
	} else {
		f.AmountPerMonth = nil
	}
	return f
}

func (s *FixedExpenseService) publish(ctx context.Context, action, id, userID string) {
	if s.events == nil {
		return
	}
	msg := events.NewChangeMessage(events.EntityFixedExpense, action, id, userID)
	if err := s.events.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish fixed expense change",
			"action", action, "id", id, "error", err)
	}
}
