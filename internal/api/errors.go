package api

import (
	"fmt"
	"net/http"
	"strings"
)

// ApiError is the error shape every handler returns to clients. The
// wrapped error is logged server-side and never serialized.
type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func newStatusError(code int, err error) *ApiError {
	return &ApiError{
		StatusCode: code,
		Message:    strings.ToLower(http.StatusText(code)),
		Err:        err,
	}
}

func NewBadRequestError() *ApiError {
	return newStatusError(http.StatusBadRequest, nil)
}

func NewNotFoundError() *ApiError {
	return newStatusError(http.StatusNotFound, nil)
}

func NewMethodNotAllowedError() *ApiError {
	return newStatusError(http.StatusMethodNotAllowed, nil)
}

func NewUnauthorizedError() *ApiError {
	return newStatusError(http.StatusUnauthorized, nil)
}

func NewInternalServerError(err error) *ApiError {
	return newStatusError(http.StatusInternalServerError, err)
}
