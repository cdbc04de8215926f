package binder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateCascade is tried in order when no explicit format hint is given;
// the first format that parses wins.
var dateCascade = []struct {
	Name   string
	Layout string
}{
	{"iso8601", "2006-01-02"},
	{"iso8601t", time.RFC3339},
	{"dmy", "02/01/2006"},
	{"mdy", "01/02/2006"},
}

// ParseDate parses a raw date cell. With a non-empty hint only that layout
// is tried; otherwise the fixed cascade applies. The returned format name
// identifies which layout won, so ingestion can log it.
func ParseDate(raw, hint string) (time.Time, string, error) {
	raw = strings.TrimSpace(raw)
	if hint != "" {
		t, err := time.Parse(hint, raw)
		if err != nil {
			return time.Time{}, "", fmt.Errorf("date %q does not match format %q", raw, hint)
		}
		return t, "hint", nil
	}
	for _, c := range dateCascade {
		if t, err := time.Parse(c.Layout, raw); err == nil {
			return t, c.Name, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("date %q matches no supported format", raw)
}

// ParseDecimal parses a monetary or tonnage cell, tolerating thousand
// separators and a decimal comma.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, " ", "")
	switch {
	case strings.Contains(raw, ",") && strings.Contains(raw, "."):
		// whichever separator comes last is the decimal mark
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case strings.Contains(raw, ","):
		raw = strings.Replace(raw, ",", ".", 1)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}
	return d, nil
}

// ParseQuantity parses a non-negative integer cell.
func ParseQuantity(raw string) (int64, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("quantity must be non-negative, got %d", n)
	}
	return n, nil
}
