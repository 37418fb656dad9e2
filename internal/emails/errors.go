package emails

import (
	"errors"
	"fmt"
	"strings"
)

const (
	ErrorCodeValidation    = "validation_error"
	ErrorCodeRemoteService = "remote_service_error"
	ErrorCodeMalformed     = "malformed_response"
	ErrorCodeTooLarge      = "payload_too_large"
	ErrorCodeInternal      = "internal_error"
)

// ErrEmptyCompletion is wrapped when the completion text is blank after cleanup.
var ErrEmptyCompletion = errors.New("empty completion")

// FieldIssue names one invalid request field.
type FieldIssue struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ValidationError reports missing or invalid request fields.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+" "+issue.Issue)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, issue string) {
	e.Issues = append(e.Issues, FieldIssue{Field: field, Issue: issue})
}

func (e *ValidationError) orNil() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// MalformedResponseError means the completion text could not be read as the expected
// JSON shape. Raw holds the text as received, for operator logs only.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed completion: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
