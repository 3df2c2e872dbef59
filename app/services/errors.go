package services

import (
	"errors"
	"fmt"
)

// Admission and reporting failures. Callers match them with errors.Is; the
// HTTP layer maps them to status codes via KindOf.
var (
	ErrPastDate           = errors.New("date is in the past")
	ErrCutoffPassed       = errors.New("order cutoff has passed")
	ErrDateBlocked        = errors.New("ordering is closed on this date")
	ErrMissingSelection   = errors.New("vendor and menu item are required")
	ErrVendorNotFound     = errors.New("vendor not found")
	ErrItemNotFound       = errors.New("menu item not found")
	ErrWeekdayUnavailable = errors.New("menu item is not served on this weekday")
	ErrDuplicateOrder     = errors.New("an order already exists for this date")
	ErrNotFound           = errors.New("not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrStorage            = errors.New("storage failure")

	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid employee id or password")
)

// Kind is the taxonomy name of an engine error.
type Kind string

const (
	KindPastDate           Kind = "PastDate"
	KindCutoffPassed       Kind = "CutoffPassed"
	KindDateBlocked        Kind = "DateBlocked"
	KindMissingSelection   Kind = "MissingSelection"
	KindVendorNotFound     Kind = "VendorNotFound"
	KindItemNotFound       Kind = "ItemNotFound"
	KindWeekdayUnavailable Kind = "WeekdayUnavailable"
	KindDuplicateOrder     Kind = "DuplicateOrder"
	KindNotFound           Kind = "NotFound"
	KindPermissionDenied   Kind = "PermissionDenied"
	KindStorage            Kind = "StorageFailure"
	KindConflict           Kind = "Conflict"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUnknown            Kind = "Unknown"
)

// Order matters: a storage failure caused by a duplicate key is still a
// storage failure to the caller.
var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrStorage, KindStorage},
	{ErrPastDate, KindPastDate},
	{ErrCutoffPassed, KindCutoffPassed},
	{ErrDateBlocked, KindDateBlocked},
	{ErrMissingSelection, KindMissingSelection},
	{ErrVendorNotFound, KindVendorNotFound},
	{ErrItemNotFound, KindItemNotFound},
	{ErrWeekdayUnavailable, KindWeekdayUnavailable},
	{ErrDuplicateOrder, KindDuplicateOrder},
	{ErrNotFound, KindNotFound},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrConflict, KindConflict},
	{ErrInvalidCredentials, KindInvalidCredentials},
}

// KindOf returns the taxonomy name of err, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrPermissionDenied}, args...)...)
}
