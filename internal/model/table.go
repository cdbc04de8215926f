package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
)

// Kind distinguishes the two transaction tables.
type Kind string

const (
	KindSales   Kind = "sales"
	KindReturns Kind = "returns"
)

// Row is one canonical transaction after binding. Fields for unbound roles
// hold zero values; whether a role is bound is tracked by the table's
// Binding, never inferred from the data.
type Row struct {
	Date     time.Time
	Month    calendar.Key
	Value    decimal.Decimal
	Quantity int64
	Tonnage  float64
	Product  string
	Line     string
	Customer string
	Org      [7]string // L1..L7
}

// Dim returns the row's value for a grouping role. For RoleDate the
// commercial-month label is used.
func (r Row) Dim(role Role) string {
	switch role {
	case RoleProduct:
		return r.Product
	case RoleLine:
		return r.Line
	case RoleCustomer:
		return r.Customer
	case RoleDate:
		return r.Month.Label()
	}
	if i := role.OrgIndex(); i >= 0 {
		return r.Org[i]
	}
	return ""
}

// Table is an immutable canonical transaction table. Consumers receive
// row-slice views and must not mutate them.
type Table struct {
	Kind    Kind
	Binding Binding
	Rows    []Row
}

// Subset returns a table sharing this table's identity with a restricted
// row set.
func (t *Table) Subset(rows []Row) *Table {
	return &Table{Kind: t.Kind, Binding: t.Binding, Rows: rows}
}
