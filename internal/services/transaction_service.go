package services

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/events"
	"ledger/internal/storage"
)

// TransactionService orchestrates transaction bundles. The header, its
// expense lines and the recomputed total always change together in one
// database transaction.
type TransactionService struct {
	storage *storage.Repository
	events  *events.Client
}

func NewTransactionService(storage *storage.Repository, eventsClient *events.Client) *TransactionService {
	return &TransactionService{storage: storage, events: eventsClient}
}

// TransactionList is a page of transactions with the total count for the
// same criteria.
type TransactionList struct {
	Transactions []core.Transaction
	Total        int
}

// CreateTransaction validates the header and every line, then stores the
// bundle atomically.
func (s *TransactionService) CreateTransaction(ctx context.Context, t core.Transaction, lines []core.TransactionExpenseInput) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return core.Transaction{}, err
		}
	}

	created, err := s.storage.CreateTransaction(ctx, t, lines)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, events.ActionCreated, created.ID, created.UserID)
	return created, nil
}

// UpdateTransaction replaces the bundle: the previously linked expenses are
// dropped and the submitted lines become the new set, total included.
func (s *TransactionService) UpdateTransaction(ctx context.Context, t core.Transaction, lines []core.TransactionExpenseInput) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return core.Transaction{}, err
		}
	}

	updated, err := s.storage.UpdateTransaction(ctx, t, lines)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, events.ActionUpdated, updated.ID, updated.UserID)
	return updated, nil
}

// DeleteTransaction removes the header together with every expense created
// as part of it.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, events.ActionDeleted, id, userID)
	return nil
}

// ListTransactions fetches a page and the matching total concurrently,
// applying the date filter when one is set.
func (s *TransactionService) ListTransactions(ctx context.Context, userID string, filter core.TransactionFilter, page core.Page) (TransactionList, error) {
	var list TransactionList
	g, ctx := errgroup.WithContext(ctx)

	if filter.Empty() {
		g.Go(func() error {
			transactions, err := s.storage.ListTransactions(ctx, userID, page)
			list.Transactions = transactions
			return err
		})
		g.Go(func() error {
			total, err := s.storage.CountTransactions(ctx, userID)
			list.Total = total
			return err
		})
	} else {
		g.Go(func() error {
			transactions, err := s.storage.ListTransactionsByFilter(ctx, userID, filter, page)
			list.Transactions = transactions
			return err
		})
		g.Go(func() error {
			total, err := s.storage.CountTransactionsByFilter(ctx, userID, filter)
			list.Total = total
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return TransactionList{}, err
	}
	return list, nil
}

func (s *TransactionService) publish(ctx context.Context, action, id, userID string) {
	if s.events == nil {
		return
	}
	msg := events.NewChangeMessage(events.EntityTransaction, action, id, userID)
	if err := s.events.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction change",
			"action", action, "id", id, "error", err)
	}
}
