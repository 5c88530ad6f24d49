package stools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxJSONBodyBytes = 1 << 20

// BadRequestError is returned for any client-side problem with a JSON
// request body. The message is safe to echo back to the caller.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// DecodeJSONBody decodes a JSON request body into dst, rejecting unknown
// fields, trailing data, and bodies over 1MB. All client-facing failures
// come back as *BadRequestError.
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return &BadRequestError{Message: "Content-Type header is not application/json"}
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxErr):
			return &BadRequestError{Message: fmt.Sprintf("request body contains malformed JSON (at position %d)", syntaxErr.Offset)}
		case errors.Is(err, io.ErrUnexpectedEOF):
			return &BadRequestError{Message: "request body contains malformed JSON"}
		case errors.As(err, &typeErr):
			return &BadRequestError{Message: fmt.Sprintf("request body contains an invalid value for the %q field", typeErr.Field)}
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return &BadRequestError{Message: fmt.Sprintf("request body contains unknown field %s", field)}
		case errors.Is(err, io.EOF):
			return &BadRequestError{Message: "request body must not be empty"}
		case errors.As(err, &maxBytesErr):
			return &BadRequestError{Message: "request body must not be larger than 1MB"}
		default:
			return fmt.Errorf("error decoding JSON: %w", err)
		}
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return &BadRequestError{Message: "request body must only contain a single JSON object"}
	}
	return nil
}
