package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ledger/internal/core"
)

type transactionJSON struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Datetime   string   `json:"datetime"`
	Total      float64  `json:"total"`
	ExpenseIDs []string `json:"expenseIds"`
}

func transactionToJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:         t.ID,
		Title:      t.Location,
		Datetime:   t.Datetime.UTC().Format(time.RFC3339),
		Total:      t.Total.Float(),
		ExpenseIDs: t.ExpenseIDs,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPut:
		s.upsertTransaction(w, r)
	case http.MethodDelete:
		s.deleteTransaction(w, r)
	default:
		MethodNotAllowedResponse(http.MethodGet, http.MethodPut, http.MethodDelete).Write(w, r)
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUserID(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	if userID == "" {
		NewResponse().Data("transactions", []transactionJSON{}).Data("total", 0).Write(w, r)
		return
	}

	query := r.URL.Query()
	list, err := s.transactions.ListTransactions(r.Context(), userID,
		parseTransactionFilter(query), parsePage(query))
	if err != nil {
		slog.ErrorContext(r.Context(), "List transactions failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	out := make([]transactionJSON, 0, len(list.Transactions))
	for _, t := range list.Transactions {
		out = append(out, transactionToJSON(t))
	}
	NewResponse().Data("transactions", out).Data("total", list.Total).Write(w, r)
}

// upsertTransaction handles the PUT form: title, date and an expenses JSON
// array. The stored total is always recomputed from the submitted lines.
func (s *Server) upsertTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	title := formValue(r, "title")
	if title == "" {
		NewResponse().FieldError("title", core.CodeTitleRequired).Write(w, r)
		return
	}

	date, err := parseDate(formValue(r, "date"))
	if err != nil {
		NewResponse().FieldError("date", core.CodeBadDateFormat).Write(w, r)
		return
	}

	lines, err := parseTransactionLines(r.FormValue("expenses"))
	if err != nil {
		NewResponse().FieldError("expenses", core.CodeBadFormat).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	t := core.Transaction{
		ID:       formValue(r, "id"),
		UserID:   userID,
		Location: title,
		Datetime: date,
	}

	if t.ID != "" {
		_, err = s.transactions.UpdateTransaction(r.Context(), t, lines)
	} else {
		_, err = s.transactions.CreateTransaction(r.Context(), t, lines)
	}
	if err != nil {
		s.writeTransactionError(w, r, err)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	id := formValue(r, "id")
	if id == "" {
		// same error slot the delete form uses for a missing id
		NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), userID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) writeTransactionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrTitleRequired):
		NewResponse().FieldError("title", core.CodeTitleRequired).Write(w, r)
	case errors.Is(err, core.ErrInvalidDate):
		NewResponse().FieldError("date", core.CodeBadDateFormat).Write(w, r)
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidInstallment),
		errors.Is(err, core.ErrCategoryRequired):
		NewResponse().FieldError("expenses", core.CodeBadFormat).Write(w, r)
	case errors.Is(err, core.ErrNotFound):
		NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
	default:
		slog.ErrorContext(r.Context(), "Upsert transaction failed", "error", err)
		InternalErrorResponse().Write(w, r)
	}
}
