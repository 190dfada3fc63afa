package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeAndDecode(t *testing.T, b *ResponseBuilder, method string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "/", nil)
	b.Write(w, r)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return w, body
}

func TestResponseBuilder_Basic(t *testing.T) {
	w, body := writeAndDecode(t, NewResponse(), http.MethodGet)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
	if body["method"] != "GET" {
		t.Errorf("method = %v, want GET", body["method"])
	}
	if _, ok := body["errors"]; ok {
		t.Error("errors should be omitted when empty")
	}
	if _, ok := body["error"]; ok {
		t.Error("error should be omitted when unset")
	}
}

func TestResponseBuilder_FieldError(t *testing.T) {
	w, body := writeAndDecode(t, NewResponse().FieldError("name", "NAME_REQUIRED"), http.MethodPut)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
	errs, ok := body["errors"].(map[string]any)
	if !ok {
		t.Fatalf("errors = %v, want a map", body["errors"])
	}
	if errs["name"] != "NAME_REQUIRED" {
		t.Errorf("errors.name = %v, want NAME_REQUIRED", errs["name"])
	}
}

func TestResponseBuilder_ErrorCode(t *testing.T) {
	w, body := writeAndDecode(t, NewResponse().ErrorCode("CATEGORY_DUPLICATE"), http.MethodPost)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body["error"] != "CATEGORY_DUPLICATE" {
		t.Errorf("error = %v, want CATEGORY_DUPLICATE", body["error"])
	}
}

func TestResponseBuilder_DataMergesIntoEnvelope(t *testing.T) {
	b := NewResponse().Data("expenses", []string{}).Data("total", 3)
	_, body := writeAndDecode(t, b, http.MethodGet)

	if body["total"] != float64(3) {
		t.Errorf("total = %v, want 3", body["total"])
	}
	if _, ok := body["expenses"]; !ok {
		t.Error("expenses payload key missing")
	}
}

func TestResponseBuilder_CustomHeader(t *testing.T) {
	w, _ := writeAndDecode(t, NewResponse().Header("Retry-After", "60"), http.MethodGet)

	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want %q", got, "60")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestMethodNotAllowedResponse(t *testing.T) {
	w, body := writeAndDecode(t, MethodNotAllowedResponse(http.MethodGet, http.MethodPut), http.MethodPost)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if got := w.Header().Get("Allow"); got != "GET, PUT" {
		t.Errorf("Allow = %q, want %q", got, "GET, PUT")
	}
	if body["success"] != false {
		t.Errorf("success = %v, want false", body["success"])
	}
}
