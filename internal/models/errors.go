package models

import (
	"fmt"
)

// LoadError means the dataset could not be read or has an incompatible schema.
// It is the only error that is fatal to a session.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("load %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsTransient returns false as a broken source stays broken
func (e *LoadError) IsTransient() bool {
	return false
}

// EmptySelectionWarning means the filter criteria matched zero records
type EmptySelectionWarning struct {
	Year  int
	Month int
}

func (e *EmptySelectionWarning) Error() string {
	if e.Month == 0 {
		return fmt.Sprintf("no records for year %d", e.Year)
	}
	return fmt.Sprintf("no records for %04d-%02d", e.Year, e.Month)
}

func (e *EmptySelectionWarning) IsTransient() bool {
	return false
}

// InsufficientDataError means a series is too short or sparse to decompose
type InsufficientDataError struct {
	Period    int
	Required  int
	Available int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("decomposition with period %d needs %d valid observations, got %d",
		e.Period, e.Required, e.Available)
}

func (e *InsufficientDataError) IsTransient() bool {
	return false
}

// InvalidFieldError means a column name is not part of the schema
type InvalidFieldError struct {
	Name string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

func (e *InvalidFieldError) IsTransient() bool {
	return false
}

// InvalidParameterError means a request or configuration parameter is out of range
type InvalidParameterError struct {
	Name   string
	Value  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Name, e.Value, e.Reason)
}

func (e *InvalidParameterError) IsTransient() bool {
	return false
}
