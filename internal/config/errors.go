package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed matches every *ValidationError.
var ErrValidationFailed = errors.New("invalid settings")

// ParseError reports a settings file that is not valid TOML.
type ParseError struct {
	Path    string
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	where := e.Path
	switch {
	case e.Line > 0 && e.Column > 0:
		where = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column)
	case e.Line > 0:
		where = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return "settings " + where + ": " + e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError names a setting with an unusable value.
type ValidationError struct {
	// Field is the dotted setting name, e.g. "editor.autosave_delay".
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "setting " + e.Field + " " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
