package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ledger/internal/core"
	"ledger/internal/services"
)

type expenseJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Amount       float64  `json:"amount"`
	Unit         *float64 `json:"unit"`
	Datetime     string   `json:"datetime"`
	Installments int      `json:"installments"`
	CategoryIDs  []string `json:"categoryIds"`
}

func expenseToJSON(e core.Expense) expenseJSON {
	out := expenseJSON{
		ID:           e.ID,
		Title:        e.Title,
		Amount:       e.Amount.Float(),
		Datetime:     e.Datetime.UTC().Format(time.RFC3339),
		Installments: e.Installments,
		CategoryIDs:  e.CategoryIDs,
	}
	if e.Unit != nil {
		unit := e.Unit.Float()
		out.Unit = &unit
	}
	return out
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPut:
		s.upsertExpense(w, r)
	case http.MethodDelete:
		s.deleteExpense(w, r)
	default:
		MethodNotAllowedResponse(http.MethodGet, http.MethodPut, http.MethodDelete).Write(w, r)
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUserID(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	if userID == "" {
		NewResponse().Data("expenses", []expenseJSON{}).Data("total", 0).Write(w, r)
		return
	}

	query := r.URL.Query()
	list, err := s.expenses.ListExpenses(r.Context(), userID, services.ExpenseQuery{
		IDs:    parseCSV(query.Get("ids")),
		Filter: parseExpenseFilter(query),
		Page:   parsePage(query),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	out := make([]expenseJSON, 0, len(list.Expenses))
	for _, e := range list.Expenses {
		out = append(out, expenseToJSON(e))
	}
	NewResponse().Data("expenses", out).Data("total", list.Total).Write(w, r)
}

// upsertExpense handles the PUT form: an empty id creates, a present id
// updates. Field validation runs before the session check, mirroring the
// form's error reporting.
func (s *Server) upsertExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	name := formValue(r, "name")
	if name == "" {
		NewResponse().FieldError("name", core.CodeNameRequired).Write(w, r)
		return
	}

	amount := formValue(r, "amount")
	if amount == "" {
		NewResponse().FieldError("amount", core.CodeAmountRequired).Write(w, r)
		return
	}

	installmentsRaw := formValue(r, "installments")
	installments, err := strconv.Atoi(installmentsRaw)
	if err != nil || installments > core.MaxInstallments {
		NewResponse().FieldError("installments", core.CodeBadFormat).Write(w, r)
		return
	}

	date, err := parseDate(formValue(r, "date"))
	if err != nil {
		NewResponse().FieldError("date", core.CodeBadDateFormat).Write(w, r)
		return
	}

	categoryIDs, err := parseCategoryInput(r.FormValue("categories"))
	if err != nil {
		NewResponse().FieldError("categories", core.CodeBadCategoryData).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	e := core.Expense{
		ID:           formValue(r, "id"),
		UserID:       userID,
		Title:        name,
		Amount:       core.ParseDecimal(amount),
		Datetime:     date,
		Installments: installments,
		CategoryIDs:  categoryIDs,
	}
	if unit := formValue(r, "unit"); unit != "" {
		u := core.ParseDecimal(unit)
		e.Unit = &u
	}

	if e.ID != "" {
		err = s.expenses.UpdateExpense(r.Context(), e)
	} else {
		_, err = s.expenses.CreateExpense(r.Context(), e)
	}
	if err != nil {
		s.writeExpenseError(w, r, err)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	id := formValue(r, "id")
	if id == "" {
		// the form surfaces id problems in its categories error slot
		NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.expenses.DeleteExpense(r.Context(), userID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Delete expense failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) writeExpenseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrTitleRequired):
		NewResponse().FieldError("name", core.CodeNameRequired).Write(w, r)
	case errors.Is(err, core.ErrInvalidAmount):
		NewResponse().FieldError("amount", core.CodeBadFormat).Write(w, r)
	case errors.Is(err, core.ErrInvalidInstallment):
		NewResponse().FieldError("installments", core.CodeBadFormat).Write(w, r)
	case errors.Is(err, core.ErrInvalidDate):
		NewResponse().FieldError("date", core.CodeBadDateFormat).Write(w, r)
	case errors.Is(err, core.ErrNotFound):
		NewResponse().FieldError("categories", core.CodeInvalidID).Write(w, r)
	default:
		slog.ErrorContext(r.Context(), "Upsert expense failed", "error", err)
		InternalErrorResponse().Write(w, r)
	}
}
