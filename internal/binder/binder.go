// Package binder validates the mapping from semantic roles to source
// columns. Everything downstream is column-name-agnostic: columns are
// resolved here, exactly once.
package binder

import (
	"fmt"
	"strings"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// probeLimit caps how many sample values are type-checked per column.
const probeLimit = 20

// Validate checks a requested binding against the source header and sample
// rows and returns the validated binding. It fails with *model.BindingError
// when a required role is unbound, a named column is absent from the
// header, or a column's sampled values do not fit the role's type. A
// non-empty dateHint replaces the date cascade, as it does during row
// parsing.
func Validate(requested map[model.Role]string, header []string, sample [][]string, dateHint string) (model.Binding, error) {
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	columns := make(map[model.Role]string, len(requested))
	for role, col := range requested {
		if _, err := model.ParseRole(string(role)); err != nil {
			return model.Binding{}, &model.BindingError{Role: role, Reason: "unknown role"}
		}
		if strings.TrimSpace(col) == "" {
			return model.Binding{}, &model.BindingError{Role: role, Reason: "bound to empty column name; omit the role to leave it unbound"}
		}
		idx, ok := colIndex[strings.TrimSpace(col)]
		if !ok {
			return model.Binding{}, &model.BindingError{Role: role, Column: col, Reason: "column not found in source"}
		}
		if err := probeColumn(role, col, idx, sample, dateHint); err != nil {
			return model.Binding{}, err
		}
		columns[role] = strings.TrimSpace(col)
	}

	for _, role := range model.RequiredRoles {
		if _, ok := columns[role]; !ok {
			return model.Binding{}, &model.BindingError{Role: role, Reason: "required role is unbound"}
		}
	}

	return model.Binding{Columns: columns}, nil
}

// probeColumn type-checks up to probeLimit non-empty sample values. The
// probe detects a column of the wrong type, not the occasional dirty cell:
// it fails only when no sampled value fits the role. Stray unparseable
// rows are skipped and counted during ingestion instead.
func probeColumn(role model.Role, col string, idx int, sample [][]string, dateHint string) error {
	checked, failed := 0, 0
	var firstBad string
	for _, row := range sample {
		if checked >= probeLimit {
			break
		}
		if idx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[idx])
		if raw == "" {
			continue
		}
		checked++

		var err error
		switch role {
		case model.RoleDate:
			_, _, err = ParseDate(raw, dateHint)
		case model.RoleValue, model.RoleTonnage:
			_, err = ParseDecimal(raw)
		case model.RoleQuantity:
			_, err = ParseQuantity(raw)
		default:
			// dimension roles accept any text
		}
		if err != nil {
			failed++
			if firstBad == "" {
				firstBad = raw
			}
		}
	}
	if checked > 0 && failed == checked {
		return &model.BindingError{
			Role:   role,
			Column: col,
			Reason: fmt.Sprintf("no sampled value fits: %q is not a valid %s", firstBad, role),
		}
	}
	return nil
}
