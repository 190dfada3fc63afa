package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"ledger/internal/core"
)

type fixedExpenseJSON struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CategoryID     string    `json:"categoryId"`
	StartDate      string    `json:"startDate"`
	AmountOfMonths int       `json:"amountOfMonths"`
	VaryingCosts   bool      `json:"varyingCosts"`
	Amount         float64   `json:"amount"`
	AmountPerMonth []float64 `json:"amountPerMonth"`
}

type scheduleEntryJSON struct {
	Month  int     `json:"month"`
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

func fixedExpenseToJSON(f core.FixedExpense) fixedExpenseJSON {
	perMonth := make([]float64, len(f.AmountPerMonth))
	for i, m := range f.AmountPerMonth {
		perMonth[i] = m.Float()
	}
	return fixedExpenseJSON{
		ID:             f.ID,
		Title:          f.Title,
		CategoryID:     f.CategoryID,
		StartDate:      f.StartDate.UTC().Format(time.RFC3339),
		AmountOfMonths: f.AmountOfMonths,
		VaryingCosts:   f.VaryingCosts,
		Amount:         f.Amount.Float(),
		AmountPerMonth: perMonth,
	}
}

func (s *Server) handleFixedExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listFixedExpenses(w, r)
	case http.MethodPut:
		s.upsertFixedExpense(w, r)
	case http.MethodDelete:
		s.deleteFixedExpense(w, r)
	default:
		MethodNotAllowedResponse(http.MethodGet, http.MethodPut, http.MethodDelete).Write(w, r)
	}
}

// listFixedExpenses returns the paginated definitions; with ?schedule=<id>
// it instead expands that definition into its per-month schedule.
func (s *Server) listFixedExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUserID(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	query := r.URL.Query()
	if scheduleID := query.Get("schedule"); scheduleID != "" {
		s.fixedExpenseSchedule(w, r, userID, scheduleID)
		return
	}

	if userID == "" {
		NewResponse().Data("fixedExpenses", []fixedExpenseJSON{}).Data("total", 0).Write(w, r)
		return
	}

	list, err := s.fixedExpenses.ListFixedExpenses(r.Context(), userID, parsePage(query))
	if err != nil {
		slog.ErrorContext(r.Context(), "List fixed expenses failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	out := make([]fixedExpenseJSON, 0, len(list.FixedExpenses))
	for _, f := range list.FixedExpenses {
		out = append(out, fixedExpenseToJSON(f))
	}
	NewResponse().Data("fixedExpenses", out).Data("total", list.Total).Write(w, r)
}

func (s *Server) fixedExpenseSchedule(w http.ResponseWriter, r *http.Request, userID, id string) {
	if userID == "" {
		NewResponse().Data("schedule", []scheduleEntryJSON{}).Write(w, r)
		return
	}

	schedule, err := s.fixedExpenses.Schedule(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Fixed expense schedule failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	out := make([]scheduleEntryJSON, 0, len(schedule))
	for _, entry := range schedule {
		out = append(out, scheduleEntryJSON{
			Month:  int(entry.Label.Month),
			Year:   entry.Label.Year,
			Amount: entry.Amount.Float(),
		})
	}
	NewResponse().Data("schedule", out).Write(w, r)
}

// upsertFixedExpense handles the PUT form: title, startDate, amount,
// amountOfMonths, categoryId, varyingCosts (1/0) and the amountPerMonth
// "[a,b,...]" list.
func (s *Server) upsertFixedExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	title := formValue(r, "title")
	if title == "" {
		NewResponse().FieldError("title", core.CodeTitleRequired).Write(w, r)
		return
	}

	dateRaw := formValue(r, "startDate")
	if dateRaw == "" {
		dateRaw = formValue(r, "date")
	}
	startDate, err := parseDate(dateRaw)
	if err != nil {
		NewResponse().FieldError("startDate", core.CodeBadDateFormat).Write(w, r)
		return
	}

	months, err := strconv.Atoi(formValue(r, "amountOfMonths"))
	if err != nil {
		NewResponse().FieldError("amountOfMonths", core.CodeBadFormat).Write(w, r)
		return
	}

	categoryID := formValue(r, "categoryId")
	if categoryID == "" {
		NewResponse().FieldError("categoryId", core.CodeBadCategoryData).Write(w, r)
		return
	}

	perMonth, err := parseAmountPerMonth(r.FormValue("amountPerMonth"))
	if err != nil {
		NewResponse().FieldError("amountPerMonth", core.CodeBadFormat).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	f := core.FixedExpense{
		ID:             formValue(r, "id"),
		UserID:         userID,
		Title:          title,
		CategoryID:     categoryID,
		StartDate:      startDate,
		AmountOfMonths: months,
		VaryingCosts:   formValue(r, "varyingCosts") == "1",
		Amount:         core.ParseDecimal(formValue(r, "amount")),
		AmountPerMonth: perMonth,
	}

	if f.ID != "" {
		err = s.fixedExpenses.UpdateFixedExpense(r.Context(), f)
	} else {
		_, err = s.fixedExpenses.CreateFixedExpense(r.Context(), f)
	}
	if err != nil {
		s.writeFixedExpenseError(w, r, err)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) deleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		NewResponse().Status(http.StatusBadRequest).Write(w, r)
		return
	}

	id := formValue(r, "id")
	if id == "" {
		NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := s.fixedExpenses.DeleteFixedExpense(r.Context(), userID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Delete fixed expense failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) writeFixedExpenseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrTitleRequired):
		NewResponse().FieldError("title", core.CodeTitleRequired).Write(w, r)
	case errors.Is(err, core.ErrInvalidDate):
		NewResponse().FieldError("startDate", core.CodeBadDateFormat).Write(w, r)
	case errors.Is(err, core.ErrCategoryRequired):
		NewResponse().FieldError("categoryId", core.CodeBadCategoryData).Write(w, r)
	case errors.Is(err, core.ErrInvalidMonthCount):
		NewResponse().FieldError("amountOfMonths", core.CodeBadFormat).Write(w, r)
	case errors.Is(err, core.ErrNotFound):
		NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
	default:
		slog.ErrorContext(r.Context(), "Upsert fixed expense failed", "error", err)
		InternalErrorResponse().Write(w, r)
	}
}
