// This file implements utilities for parsing and validating request data:
// form fields, masked amounts, date strings and the JSON blobs the upsert
// forms submit.

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
)

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// parsePage reads limit/offset query parameters. Missing or malformed
// values fall back to the defaults via Page.Normalize.
func parsePage(query url.Values) core.Page {
	var page core.Page
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Limit = n
		}
	}
	if v := strings.TrimSpace(query.Get("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			page.Offset = n
		}
	}
	return page.Normalize()
}

// parseCSV splits a comma-separated query parameter, dropping empty parts.
func parseCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseExpenseFilter builds an expense filter from the list query
// parameters: title, startDate, endDate, categories (csv).
func parseExpenseFilter(query url.Values) core.ExpenseFilter {
	filter := core.ExpenseFilter{
		Title:       strings.TrimSpace(query.Get("title")),
		CategoryIDs: parseCSV(query.Get("categories")),
	}
	if v := strings.TrimSpace(query.Get("startDate")); v != "" {
		if t, err := parseDate(v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := strings.TrimSpace(query.Get("endDate")); v != "" {
		if t, err := parseDate(v); err == nil {
			filter.EndDate = &t
		}
	}
	return filter
}

// parseTransactionFilter builds a transaction filter from startDate/endDate
// query parameters.
func parseTransactionFilter(query url.Values) core.TransactionFilter {
	var filter core.TransactionFilter
	if v := strings.TrimSpace(query.Get("startDate")); v != "" {
		if t, err := parseDate(v); err == nil {
			filter.StartDate = &t
		}
	}
	if v := strings.TrimSpace(query.Get("endDate")); v != "" {
		if t, err := parseDate(v); err == nil {
			filter.EndDate = &t
		}
	}
	return filter
}

// categoryInput is one entry of the categories JSON an expense form
// submits: a tag with the category id and its display text.
type categoryInput struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// parseCategoryInput decodes the categories form field into category ids.
func parseCategoryInput(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var tags []categoryInput
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	ids := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag.ID != "" {
			ids = append(ids, tag.ID)
		}
	}
	return ids, nil
}

// transactionLineInput is one entry of the expenses JSON a transaction form
// submits. Amounts arrive as decimal numbers in major units.
type transactionLineInput struct {
	Title        string   `json:"title"`
	Amount       float64  `json:"amount"`
	Unit         *float64 `json:"unit"`
	Installments int      `json:"installments"`
	CategoryID   string   `json:"categoryId"`
}

// parseTransactionLines decodes the expenses form field into expense line
// inputs.
func parseTransactionLines(s string) ([]core.TransactionExpenseInput, error) {
	var raw []transactionLineInput
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("parse transaction expenses: %w", err)
	}
	lines := make([]core.TransactionExpenseInput, 0, len(raw))
	for _, in := range raw {
		line := core.TransactionExpenseInput{
			Title:        in.Title,
			Amount:       core.FromFloat(in.Amount),
			Installments: in.Installments,
			CategoryID:   in.CategoryID,
		}
		if in.Unit != nil {
			unit := core.FromFloat(*in.Unit)
			line.Unit = &unit
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// parseAmountPerMonth decodes the "[a,b,...]" form field of a varying-cost
// fixed expense. Values are decimal amounts in major units.
func parseAmountPerMonth(s string) ([]core.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return nil, nil
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	parts := strings.Split(inner, ",")
	amounts := make([]core.Money, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			amounts = append(amounts, core.Money{})
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("parse amount per month %q: %w", p, err)
		}
		amounts = append(amounts, core.FromFloat(f))
	}
	return amounts, nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// formValue reads a sanitized form field.
func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.FormValue(key))
}

// clientIP extracts the client address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
