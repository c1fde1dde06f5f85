package keymap

import (
	"errors"
	"fmt"
)

// Kind classifies configuration errors.
type Kind uint8

const (
	// KindUnknown is used for errors that did not originate here.
	KindUnknown Kind = iota
	// KindInvalidConfig indicates the config object itself is malformed.
	KindInvalidConfig
	// KindInvalidSite indicates a site entry is empty or not a hostname.
	KindInvalidSite
	// KindDuplicateSite indicates a site is already configured.
	KindDuplicateSite
	// KindStorage indicates the persistent store failed.
	KindStorage
	// KindInvalidMapping indicates a mapping source or target is malformed.
	KindInvalidMapping
	// KindDuplicateMapping indicates a mapping source already exists.
	// It is a warning; the mapping is overwritten.
	KindDuplicateMapping
	// KindInvalidKeyInfo indicates a key record lacks required fields or
	// carries ill-typed ones.
	KindInvalidKeyInfo
	// KindBackup indicates a backup snapshot could not be written.
	KindBackup
	// KindRestore indicates a backup snapshot could not be restored.
	KindRestore
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "invalid-config"
	case KindInvalidSite:
		return "invalid-site"
	case KindDuplicateSite:
		return "duplicate-site"
	case KindStorage:
		return "storage-error"
	case KindInvalidMapping:
		return "invalid-mapping"
	case KindDuplicateMapping:
		return "duplicate-mapping"
	case KindInvalidKeyInfo:
		return "invalid-key-info"
	case KindBackup:
		return "backup-error"
	case KindRestore:
		return "restore-error"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against an *Error of the same kind.
var (
	ErrInvalidConfig    = &Error{Kind: KindInvalidConfig}
	ErrInvalidSite      = &Error{Kind: KindInvalidSite}
	ErrDuplicateSite    = &Error{Kind: KindDuplicateSite}
	ErrStorage          = &Error{Kind: KindStorage}
	ErrInvalidMapping   = &Error{Kind: KindInvalidMapping}
	ErrDuplicateMapping = &Error{Kind: KindDuplicateMapping}
	ErrInvalidKeyInfo   = &Error{Kind: KindInvalidKeyInfo}
	ErrBackup           = &Error{Kind: KindBackup}
	ErrRestore          = &Error{Kind: KindRestore}
)

// Error is a classified configuration error.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes the failure.
	Message string
	// Err is the underlying error, if any.
	Err error
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
