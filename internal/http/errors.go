package http

import (
	"net/http"

	"github.com/oddsock-dev/tokend/pkg/httpx"
)

// ErrorResponse is the OAuth2-style error body used for protocol failures.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, description string) {
	httpx.WriteJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// ValidationError is one item of a 422 (or 409) validation body. Clients see
// a list of these, each locating the offending field.
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func missingField(field string) ValidationError {
	return ValidationError{
		Loc:  []string{"body", field},
		Msg:  "field required",
		Type: "value_error.missing",
	}
}

func invalidBody(msg string) ValidationError {
	return ValidationError{
		Loc:  []string{"body"},
		Msg:  msg,
		Type: "value_error.body",
	}
}

func writeValidationErrors(w http.ResponseWriter, status int, errs ...ValidationError) {
	httpx.WriteJSON(w, status, errs)
}
