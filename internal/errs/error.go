package errs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrArgument   = errors.New("sequel: invalid argument")
	ErrConversion = errors.New("sequel: conversion failed")
	ErrMapping    = errors.New("sequel: mapping failed")
	ErrCanceled   = errors.New("sequel: command canceled")

	ErrPointerOnly    = errors.New("sequel: only pointers to structs are supported")
	ErrInsertZeroRows = fmt.Errorf("%w: no records to insert", ErrArgument)
)

func NewErrEmptyParameterName() error {
	return fmt.Errorf("%w: parameter name must not be empty", ErrArgument)
}

func NewErrNotASequence(name string, val any) error {
	return fmt.Errorf("%w: parameter %s expects a slice or array, got %T", ErrArgument, name, val)
}

func NewErrTableNameRequired() error {
	return fmt.Errorf("%w: The 'tableName' parameter must be provided when the object supplied is an anonymous type.", ErrArgument)
}

func NewErrInvalidRecord(idx int, reason string) error {
	return fmt.Errorf("%w: record %d %s", ErrArgument, idx, reason)
}

func NewErrInvalidIdentifier(name string) error {
	return fmt.Errorf("%w: %q is not a valid column name", ErrArgument, name)
}

func NewErrInvalidTagContent(pair string) error {
	return fmt.Errorf("%w: invalid tag content %s", ErrArgument, pair)
}

func NewErrUnknownDialect(name string) error {
	return fmt.Errorf("%w: unknown dialect %q", ErrArgument, name)
}

func NewErrConversion(src any, typ reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %v (%T) to %s", ErrConversion, src, src, typ)
}

func NewErrConversionCause(src any, typ reflect.Type, cause error) error {
	return fmt.Errorf("%w: cannot convert %v (%T) to %s: %w", ErrConversion, src, src, typ, cause)
}

func NewErrUnconstructable(typ reflect.Type) error {
	return fmt.Errorf("%w: cannot construct an instance of %s", ErrMapping, typ)
}

func NewErrNoColumns() error {
	return fmt.Errorf("%w: result set has no columns", ErrMapping)
}

func NewErrUnknownField(name string) error {
	return fmt.Errorf("%w: unknown field %s", ErrMapping, name)
}

// NewErrCanceled keeps the driver error in the chain so errors.Is still
// reports context.Canceled or context.DeadlineExceeded.
func NewErrCanceled(ctxErr, err error) error {
	if errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return fmt.Errorf("%w: %w: %w", ErrCanceled, ctxErr, err)
}

func NewErrFailedToRollbackTx(bizErr error, rbErr error, panicked bool) error {
	return fmt.Errorf("sequel: rollback failed, business error: %w, rollback error: %s, panicked: %t",
		bizErr, rbErr, panicked)
}

func NewErrEmptyCommandText() error {
	return fmt.Errorf("%w: command text must not be empty", ErrArgument)
}

func NewErrUnexpectedResult(typ string, res any) error {
	return fmt.Errorf("%w: %s returned unexpected result %T", ErrMapping, typ, res)
}
