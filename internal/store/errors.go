package store

import (
	"errors"
	"strings"
)

// ValidationError reports input the store refused to write. No row is
// appended when it is returned.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrTextNotString = &ValidationError{Message: "Text must be a string."}
	ErrTextRequired  = &ValidationError{Message: "Text is required."}
)

// ErrSheetNotFound is returned by Workbook.SheetByName for a missing sheet.
var ErrSheetNotFound = errors.New("sheet not found")

// ErrBadSheetName is returned for sheet names that could escape the
// workbook's directory.
var ErrBadSheetName = errors.New("sheet name must not contain path separators or be . or ..")

// CheckSheetName rejects names some backends would turn into a path outside
// their storage directory.
func CheckSheetName(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return ErrBadSheetName
	}
	return nil
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
