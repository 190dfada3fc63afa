package http

import (
	"errors"
	"log/slog"
	"net/http"

	"ledger/internal/core"
)

type categoryJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// handleCategories serves the category tab: GET lists, POST creates, PATCH
// renames, DELETE removes. Category errors use a single top-level code.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCategories(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	case http.MethodPatch:
		s.renameCategory(w, r)
	case http.MethodDelete:
		s.deleteCategory(w, r)
	default:
		MethodNotAllowedResponse(http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete).Write(w, r)
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := s.currentUserID(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	if userID == "" {
		NewResponse().Data("categories", []categoryJSON{}).Write(w, r)
		return
	}

	categories, err := s.categories.ListCategories(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}

	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryJSON{ID: c.ID, Title: c.Title})
	}
	NewResponse().Data("categories", out).Write(w, r)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	title := formValue(r, "category")
	if title == "" {
		NewResponse().ErrorCode(core.CodeCategoryEmpty).Write(w, r)
		return
	}

	if _, err := s.categories.CreateCategory(r.Context(), userID, title); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateCategory):
			NewResponse().ErrorCode(core.CodeCategoryDuplicate).Write(w, r)
		case errors.Is(err, core.ErrCategoryRequired):
			NewResponse().ErrorCode(core.CodeCategoryEmpty).Write(w, r)
		default:
			slog.ErrorContext(r.Context(), "Create category failed", "error", err)
			InternalErrorResponse().Write(w, r)
		}
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) renameCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	id := formValue(r, "id")
	if id == "" {
		NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
		return
	}
	title := formValue(r, "title")
	if title == "" {
		NewResponse().ErrorCode(core.CodeCategoryEmpty).Write(w, r)
		return
	}

	if err := s.categories.UpdateCategory(r.Context(), userID, id, title); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateCategory):
			NewResponse().ErrorCode(core.CodeCategoryDuplicate).Write(w, r)
		case errors.Is(err, core.ErrNotFound):
			NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
		default:
			slog.ErrorContext(r.Context(), "Rename category failed", "error", err)
			InternalErrorResponse().Write(w, r)
		}
		return
	}
	NewResponse().Write(w, r)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	id := formValue(r, "id")
	if id == "" {
		NewResponse().ErrorCode(core.CodeInvalidID).Write(w, r)
		return
	}

	if err := s.categories.DeleteCategory(r.Context(), userID, id); err != nil {
		slog.ErrorContext(r.Context(), "Delete category failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return
	}
	NewResponse().Write(w, r)
}

// requireUser resolves the session for a write handler, answering 403 when
// no user is logged in. The bool reports whether the handler may proceed.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.currentUserID(r)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session lookup failed", "error", err)
		InternalErrorResponse().Write(w, r)
		return "", false
	}
	if userID == "" {
		ForbiddenResponse().Write(w, r)
		return "", false
	}
	return userID, true
}
