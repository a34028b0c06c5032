package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies a store failure.
type Kind string

const (
	// KindDuplicateKey means the card number is already taken.
	KindDuplicateKey Kind = "duplicate_key"
	// KindNotFound means no card matched the card number.
	KindNotFound Kind = "not_found"
	// KindStorageUnavailable means storage could not be opened or locked in time.
	KindStorageUnavailable Kind = "storage_unavailable"
	// KindValidation means the caller supplied an unusable record.
	KindValidation Kind = "validation"
	// KindStorage covers every other storage failure.
	KindStorage Kind = "storage"
)

// Messages reported for completed operations.
const (
	MsgAdded     = "Card added successfully"
	MsgUpdated   = "Card updated successfully"
	MsgDeleted   = "Card deleted successfully"
	MsgDuplicate = "Card number already exists"
	MsgNotFound  = "Card not found"
)

// Error is the only error type returned across the store boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrDuplicateKey) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Err == nil && other.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrDuplicateKey       = &Error{Kind: KindDuplicateKey, Message: MsgDuplicate}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: MsgNotFound}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid card"}
)

// KindOf returns the kind of err, or an empty kind when err is nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return KindStorage
}

// Outcome reduces err to the success flag and message shown to the user.
func Outcome(err error, okMessage string) (bool, string) {
	if err == nil {
		return true, okMessage
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return false, storeErr.Message
	}
	return false, err.Error()
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

// classify converts a storage error into a *Error.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr
	}
	switch {
	case isDuplicate(err):
		return &Error{Kind: KindDuplicateKey, Message: MsgDuplicate, Err: err}
	case isUnavailable(err):
		return &Error{Kind: KindStorageUnavailable, Message: op + ": storage unavailable", Err: err}
	default:
		return &Error{Kind: KindStorage, Message: op + " failed", Err: err}
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") || strings.Contains(lower, "duplicate key")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, marker := range []string{
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"unable to open database",
		"lock timeout",
		"connection refused",
		"sql: database is closed",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
