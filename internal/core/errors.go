package core

import (
	"errors"
	"fmt"
)

var (
	ErrShape      = errors.New("invalid record shape")
	ErrBonusArity = errors.New("invalid bonus entry")
	ErrParse      = errors.New("invalid JSON")
	ErrRead       = errors.New("read failed")
)

// Error categories reported in logs and events.
const (
	KindShape      = "shape"
	KindBonusArity = "bonus_arity"
	KindParse      = "parse"
	KindRead       = "read"
	KindInternal   = "internal"
)

// ShapeError reports a missing, mistyped or length-mismatched top-level field.
type ShapeError struct {
	Field  string
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("field %q %s; need 'years', 'annualSalaries', 'monthlySalaries' and 'bonuses' arrays of equal length", e.Field, e.Reason)
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// BonusArityError reports a year whose bonus entry is not exactly 4 numbers.
// Year is 1-indexed.
type BonusArityError struct {
	Year int
}

func (e *BonusArityError) Error() string {
	return fmt.Sprintf("bonus data for year %d must contain %d numbers (year-end, second-half performance, dividend, first-half performance)", e.Year, BonusArity)
}

func (e *BonusArityError) Is(target error) bool { return target == ErrBonusArity }

// ParseError wraps a decoding failure for input coming from Source.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ReadError wraps an I/O failure while reading a named input.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrRead }

// Classify maps an error to one of the Kind* categories.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBonusArity):
		return KindBonusArity
	case errors.Is(err, ErrShape):
		return KindShape
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrRead):
		return KindRead
	default:
		return KindInternal
	}
}

// IsUserError reports whether err was caused by the supplied data rather
// than by the system.
func IsUserError(err error) bool {
	switch Classify(err) {
	case KindShape, KindBonusArity, KindParse, KindRead:
		return true
	}
	return false
}
