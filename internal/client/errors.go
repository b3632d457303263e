package client

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("not found")
	ErrNotConfigured = errors.New("backend not configured")
)

// errorBody — тело ошибки гейтвея.
type errorBody struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Errors []struct {
		Code    string `json:"code"`
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ValidationError — 422 от гейтвея; форма показывает сообщения по полям.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

func (e *ValidationError) FieldErrors() map[string]string { return e.Fields }

// HTTPError — прочие статусы.
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, msg)
}

// NetworkError — запрос не дошёл; текст исходной ошибки сохраняется.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

func decodeError(status int, b errorBody) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		ve := &ValidationError{Message: b.Error, Fields: map[string]string{}}
		for _, fe := range b.Errors {
			if fe.Field != "" {
				ve.Fields[fe.Field] = fe.Message
			}
		}
		return ve
	}
	if b.Code == "not_configured" {
		return ErrNotConfigured
	}
	return &HTTPError{Status: status, Code: b.Code, Message: b.Error}
}
