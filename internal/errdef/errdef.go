package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown       Code = "unknown"
	CodeNotFound      Code = "not_found"
	CodeSchemaMissing Code = "schema_missing"
	CodeHTTP          Code = "http"
	CodeSecrets       Code = "secrets"
	CodeMasking       Code = "masking"
	CodeStore         Code = "store"
	CodeHistory       Code = "history"
	CodeParse         Code = "parse"
	CodeFilesystem    Code = "filesystem"
	CodeExport        Code = "export"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return CodeUnknown
}

// Message returns the human-facing message without duplicating wrapped chains.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Error()
	}
	return err.Error()
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
