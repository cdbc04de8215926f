// Package ingest loads raw transaction workbooks and normalizes them into
// canonical tables: columns resolved through the binding, dates bucketed
// into commercial months, rows outside the configured window dropped.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/binder"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Workbook wraps a loaded source file.
type Workbook struct {
	file *excelize.File
}

// LoadWorkbook opens a workbook from a stream.
func LoadWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// Sheets lists sheet names.
func (w *Workbook) Sheets() []string {
	return w.file.GetSheetList()
}

// FirstSheet returns the first sheet name.
func (w *Workbook) FirstSheet() (string, error) {
	sheets := w.file.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	return sheets[0], nil
}

// Columns returns the header row of a sheet.
func (w *Workbook) Columns(sheet string) ([]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty sheet")
	}
	return rows[0], nil
}

// Preview returns up to limit data rows for the binding UI.
func (w *Workbook) Preview(sheet string, limit int) ([][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}
	end := limit + 1
	if end > len(rows) {
		end = len(rows)
	}
	return rows[1:end], nil
}

// rows returns header and data rows.
func (w *Workbook) rows(sheet string) ([]string, [][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, errors.New("empty sheet")
	}
	return rows[0], rows[1:], nil
}

// Options tunes one ingestion run.
type Options struct {
	DateHint string        // explicit date layout; empty means cascade
	From, To *calendar.Key // commercial-month window; nil means unbounded
}

// Summary reports what one ingestion run kept and discarded.
type Summary struct {
	Kind       model.Kind `json:"kind"`
	Rows       int        `json:"rows"`
	Dropped    int        `json:"dropped"` // date outside window
	Skipped    int        `json:"skipped"` // unparseable
	DateFormat string     `json:"date_format"`
}

// Ingest validates the requested binding against the sheet and converts
// every data row into canonical form.
func Ingest(w *Workbook, sheet string, kind model.Kind, requested map[model.Role]string, cal *calendar.Calendar, opts Options) (*model.Table, *Summary, error) {
	header, data, err := w.rows(sheet)
	if err != nil {
		return nil, nil, err
	}

	b, err := binder.Validate(requested, header, data, opts.DateHint)
	if err != nil {
		return nil, nil, err
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}
	at := func(row []string, role model.Role) (string, bool) {
		col, ok := b.Column(role)
		if !ok {
			return "", false
		}
		idx, ok := colIndex[col]
		if !ok || idx >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[idx]), true
	}

	summary := &Summary{Kind: kind}
	out := make([]model.Row, 0, len(data))

	for _, raw := range data {
		if isBlank(raw) {
			continue
		}

		dateRaw, _ := at(raw, model.RoleDate)
		date, format, err := binder.ParseDate(dateRaw, opts.DateHint)
		if err != nil {
			summary.Skipped++
			continue
		}
		if summary.DateFormat == "" {
			summary.DateFormat = format
		}

		key := cal.Bucket(date)
		if outsideWindow(key, opts.From, opts.To) {
			summary.Dropped++
			continue
		}

		valueRaw, _ := at(raw, model.RoleValue)
		value, err := binder.ParseDecimal(valueRaw)
		if err != nil {
			summary.Skipped++
			continue
		}

		r := model.Row{Date: date, Month: key, Value: value}

		if q, ok := at(raw, model.RoleQuantity); ok && q != "" {
			if n, err := binder.ParseQuantity(q); err == nil {
				r.Quantity = n
			} else {
				summary.Skipped++
				continue
			}
		}
		if t, ok := at(raw, model.RoleTonnage); ok && t != "" {
			if d, err := binder.ParseDecimal(t); err == nil {
				r.Tonnage, _ = d.Float64()
			} else {
				summary.Skipped++
				continue
			}
		}
		r.Product, _ = at(raw, model.RoleProduct)
		r.Line, _ = at(raw, model.RoleLine)
		r.Customer, _ = at(raw, model.RoleCustomer)
		for i, role := range model.OrgRoles {
			r.Org[i], _ = at(raw, role)
		}

		out = append(out, r)
		summary.Rows++
	}

	if summary.DateFormat != "" {
		log.Printf("ingest %s: %d rows kept, %d outside window, %d skipped (date format: %s)",
			kind, summary.Rows, summary.Dropped, summary.Skipped, summary.DateFormat)
	}

	return &model.Table{Kind: kind, Binding: b, Rows: out}, summary, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func outsideWindow(k calendar.Key, from, to *calendar.Key) bool {
	if from != nil && k.Before(*from) {
		return true
	}
	if to != nil && to.Before(k) {
		return true
	}
	return false
}
