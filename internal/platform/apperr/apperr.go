// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error vocabulary shared by every Gibiteca service.

An [AppError] pairs a stable machine code with a client-safe message and the
HTTP status respond.Error renders it with. The wrapped Cause is logged but
never serialized.

	NOT_FOUND            404  collection, issue, user, reset token
	UNAUTHORIZED         401  missing or bad session, wrong password
	FORBIDDEN            403  admin-only routes, self role change
	CONFLICT             409  email or username already taken
	VALIDATION_ERROR     400  field details in Details
	PERSISTENCE_ERROR    500  storage boundary failures
	INTERNAL_ERROR       500  anything unclassified
	CATALOG_*            4xx/5xx  see package catalog
*/
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeValidation   = "VALIDATION_ERROR"
	CodePersistence  = "PERSISTENCE_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError names the JSON field that failed and why.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

// New is for codes outside the constructors below, such as the catalog codes.
func New(status int, code, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, HTTPStatus: status, Cause: cause}
}

// # 4xx

// NotFound builds "<resource> not found".
func NotFound(resource string) *AppError {
	return New(http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

func Unauthorized(msg string) *AppError {
	return New(http.StatusUnauthorized, CodeUnauthorized, msg, nil)
}

func Forbidden(msg string) *AppError {
	return New(http.StatusForbidden, CodeForbidden, msg, nil)
}

func Conflict(msg string) *AppError {
	return New(http.StatusConflict, CodeConflict, msg, nil)
}

func ValidationError(msg string, details ...FieldError) *AppError {
	appErr := New(http.StatusBadRequest, CodeValidation, msg, nil)
	appErr.Details = details
	return appErr
}

// # 5xx

func Internal(cause error) *AppError {
	return New(http.StatusInternalServerError, CodeInternal, "An unexpected error occurred", cause)
}

// Persistence reports a failed storage action. The snake_case action becomes
// the message: "create_issue" renders as "Could not create issue".
func Persistence(action string, cause error) *AppError {
	return New(http.StatusInternalServerError, CodePersistence, "Could not "+strings.ReplaceAll(action, "_", " "), cause)
}

// BadGateway reports a failing upstream such as a catalog provider.
func BadGateway(code, msg string, cause error) *AppError {
	return New(http.StatusBadGateway, code, msg, cause)
}

// # Inspection

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsAppError(err error) bool {
	return As(err) != nil
}

func IsCode(err error, code string) bool {
	appErr := As(err)
	return appErr != nil && appErr.Code == code
}

func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}
