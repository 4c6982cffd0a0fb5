// Package validation provides reusable input validators for table and
// selection checks. Every validator reports failures as *errors.DataFrameError
// so callers can classify them with errors.Is.
package validation

import (
	"fmt"

	"github.com/paveg/bikeshare/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
}

// RowCounter interface for types that report a row count
type RowCounter interface {
	Len() int
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	df      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(df ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		df:      df,
		columns: columns,
		op:      op,
	}
}

// Validate reports the first missing column
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.df.HasColumn(column) {
			return errors.NewMissingColumnError(v.op, column)
		}
	}
	return nil
}

// RangeValidator validates that a value lies within [lo, hi]
type RangeValidator struct {
	name   string
	value  int
	lo, hi int
	op     string
}

// NewRangeValidator creates a validator for inclusive bounds
func NewRangeValidator(op, name string, value, lo, hi int) *RangeValidator {
	return &RangeValidator{name: name, value: value, lo: lo, hi: hi, op: op}
}

// Validate checks if value is within bounds
func (v *RangeValidator) Validate() error {
	if v.value < v.lo || v.value > v.hi {
		return errors.NewInvalidInputError(v.op,
			fmt.Sprintf("%s %d out of range [%d, %d]", v.name, v.value, v.lo, v.hi))
	}
	return nil
}

// NotEmptyValidator reports an empty table as an empty result
type NotEmptyValidator struct {
	df RowCounter
	op string
}

// NewNotEmptyValidator creates a validator for empty table checks
func NewNotEmptyValidator(df RowCounter, op string) *NotEmptyValidator {
	return &NotEmptyValidator{df: df, op: op}
}

// Validate checks if the table has rows
func (v *NotEmptyValidator) Validate() error {
	if v.df.Len() == 0 {
		return errors.NewEmptyResultError(v.op)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateColumns is a convenience function for column validation
func ValidateColumns(df ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(df, op, columns...).Validate()
}

// ValidateNotEmpty is a convenience function for empty table validation
func ValidateNotEmpty(df RowCounter, op string) error {
	return NewNotEmptyValidator(df, op).Validate()
}
