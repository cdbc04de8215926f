// Package hierarchy narrows a table view to the rows a user is entitled
// to see, based on a single (level, allowed-values) assertion.
package hierarchy

import (
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Apply restricts table to the rows admitted by the assertion.
//
// An admin assertion (LevelNone) returns the table unchanged. A non-admin
// assertion whose level has no bound column fails with
// *model.HierarchyBindingError: an unmappable user must not see everything
// by accident.
func Apply(a model.Assertion, table *model.Table) (*model.Table, error) {
	if a.Admin() {
		return table, nil
	}

	role := a.Level.Role()
	if !table.Binding.Bound(role) {
		return nil, &model.HierarchyBindingError{Level: a.Level}
	}

	idx := role.OrgIndex()
	kept := make([]model.Row, 0, len(table.Rows))
	for _, r := range table.Rows {
		if a.Admits(r.Org[idx]) {
			kept = append(kept, r)
		}
	}
	return table.Subset(kept), nil
}
