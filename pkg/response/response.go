package response

import (
	"net/http"

	"github.com/nestfold/provisioning/pkg/apperr"
)

type APIResponseCode int

const (
	APIResponseCodeOK         APIResponseCode = 0
	APIResponseCodeBadRequest APIResponseCode = 40000
	APIResponseCodeForbidden  APIResponseCode = 40300
	APIResponseCodeNotFound   APIResponseCode = 40400
	APIResponseCodeConflict   APIResponseCode = 40900
	APIResponseCodeCapacity   APIResponseCode = 42200
	APIResponseCodeError      APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:         "ok",
	APIResponseCodeBadRequest: "bad request",
	APIResponseCodeForbidden:  "forbidden",
	APIResponseCodeNotFound:   "not found",
	APIResponseCodeConflict:   "conflict",
	APIResponseCodeCapacity:   "capacity exceeded",
	APIResponseCodeError:      "unexpected error",
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with the code's canonical message and
// optional data (typically the error detail string).
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// FromError maps an error kind to its HTTP status and envelope code.
func FromError(err error) (int, APIResponseCode) {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return http.StatusNotFound, APIResponseCodeNotFound
	case apperr.KindConflict:
		return http.StatusConflict, APIResponseCodeConflict
	case apperr.KindCapacity:
		return http.StatusUnprocessableEntity, APIResponseCodeCapacity
	case apperr.KindInvalid:
		return http.StatusBadRequest, APIResponseCodeBadRequest
	default:
		return http.StatusInternalServerError, APIResponseCodeError
	}
}
