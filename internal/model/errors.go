package model

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a metric that cannot be computed: its role is
// unbound or its denominator is zero. It flows through aggregation results
// as data; callers branch on it rather than treating it as a failure.
var ErrUnavailable = errors.New("metric unavailable")

// BindingError reports an invalid role binding: a required role left
// unbound, a named column missing from the source, or a column whose
// values do not fit the role's type.
type BindingError struct {
	Role   Role
	Column string
	Reason string
}

func (e *BindingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("binding: role %q: %s", e.Role, e.Reason)
	}
	return fmt.Sprintf("binding: role %q (column %q): %s", e.Role, e.Column, e.Reason)
}

// HierarchyBindingError reports a non-admin assertion naming a level whose
// column is unbound. Such a user must not silently see everything.
type HierarchyBindingError struct {
	Level Level
}

func (e *HierarchyBindingError) Error() string {
	return fmt.Sprintf("hierarchy: level %s is not bound to a column", e.Level)
}

// TemplateError reports an unreadable or malformed deck template. It is
// fatal for the report request; no partial deck is produced.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
