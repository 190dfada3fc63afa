// Package http provides the JSON API server.
//
// Every response uses the same envelope: {success, method, errors?, error?}
// plus any payload keys a handler adds. Field validation problems come back
// as a field-keyed code map under "errors"; category routes report a single
// code under "error".
package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ResponseBuilder provides a fluent API for building envelope responses.
type ResponseBuilder struct {
	statusCode int
	success    bool
	errors     map[string]string
	errorCode  string
	data       map[string]any
	headers    map[string]string
}

// NewResponse creates a builder with a 200 success default.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		success:    true,
		data:       make(map[string]any),
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code. Any code of 400 or above marks the
// response as failed.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	if code >= http.StatusBadRequest {
		b.success = false
	}
	return b
}

// FieldError reports a validation code for a specific form field and forces
// a 400 response.
func (b *ResponseBuilder) FieldError(field, code string) *ResponseBuilder {
	if b.errors == nil {
		b.errors = make(map[string]string)
	}
	b.errors[field] = code
	return b.Status(http.StatusBadRequest)
}

// ErrorCode reports a single top-level error code and forces a 400 response.
func (b *ResponseBuilder) ErrorCode(code string) *ResponseBuilder {
	b.errorCode = code
	return b.Status(http.StatusBadRequest)
}

// Data attaches a payload value under the given key.
func (b *ResponseBuilder) Data(key string, value any) *ResponseBuilder {
	b.data[key] = value
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built envelope, tagging it with the request method.
func (b *ResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	body := map[string]any{
		"success": b.success,
		"method":  r.Method,
	}
	if len(b.errors) > 0 {
		body["errors"] = b.errors
	}
	if b.errorCode != "" {
		body["error"] = b.errorCode
	}
	for key, value := range b.data {
		body[key] = value
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// ForbiddenResponse is the answer to an unauthenticated write.
func ForbiddenResponse() *ResponseBuilder {
	return NewResponse().Status(http.StatusForbidden)
}

// InternalErrorResponse is the generic failure shape. Details stay in the
// server log, never in the body.
func InternalErrorResponse() *ResponseBuilder {
	return NewResponse().Status(http.StatusInternalServerError)
}

// MethodNotAllowedResponse answers an unsupported method with an Allow
// header.
func MethodNotAllowedResponse(allowedMethods ...string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", strings.Join(allowedMethods, ", "))
}
