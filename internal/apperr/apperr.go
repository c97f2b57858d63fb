package apperr

import "fmt"

// Code identifies a failure class so callers can branch on it without
// parsing messages.
type Code string

const (
	CodeFetch              Code = "FETCH_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeCreate             Code = "CREATE_ERROR"
	CodeUpdate             Code = "UPDATE_ERROR"
	CodeDelete             Code = "DELETE_ERROR"
	CodeDuplicateSKU       Code = "DUPLICATE_SKU"
	CodeDuplicateName      Code = "DUPLICATE_NAME"
	CodeSearch             Code = "SEARCH_ERROR"
	CodeBatchCreate        Code = "BATCH_CREATE_ERROR"
	CodeBatchUpdate        Code = "BATCH_UPDATE_ERROR"
	CodeBatchUpdatePartial Code = "BATCH_UPDATE_PARTIAL_ERROR"
	CodeStats              Code = "STATS_ERROR"
)

// Error is the error half of the result envelope. Operations hand it to
// callers instead of letting failures escape, so it is JSON-serializable
// as-is.
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func WithDetails(code Code, message string, details interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Wrap keeps the cause text in Details so the envelope stays flat.
func Wrap(code Code, message string, cause error) *Error {
	e := &Error{Code: code, Message: message}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// HTTPStatus maps an error code to the status the HTTP layer responds with.
func HTTPStatus(e *Error) int {
	if e == nil {
		return 200
	}
	switch e.Code {
	case CodeNotFound:
		return 404
	case CodeDuplicateSKU, CodeDuplicateName:
		return 409
	case CodeCreate, CodeUpdate, CodeDelete, CodeFetch,
		CodeBatchCreate, CodeBatchUpdate, CodeBatchUpdatePartial:
		return 400
	default:
		return 500
	}
}
