package calendar

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

// TestBucketCutDay26 covers the configured cut-day boundary.
func TestBucketCutDay26(t *testing.T) {
	cal, err := New(26)
	if err != nil {
		t.Fatalf("New(26): %v", err)
	}

	tests := []struct {
		name string
		date time.Time
		want Key
	}{
		{"on cut day", date(2024, 3, 26), Key{2024, 4}},
		{"day before cut", date(2024, 3, 25), Key{2024, 3}},
		{"first of month", date(2024, 3, 1), Key{2024, 3}},
		{"end of month", date(2024, 3, 31), Key{2024, 4}},
		{"year rollover", date(2024, 12, 26), Key{2025, 1}},
		{"february", date(2024, 2, 26), Key{2024, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cal.Bucket(tt.date); got != tt.want {
				t.Errorf("Bucket(%s) = %v, want %v", tt.date.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

// TestBucketCutDay1 recovers plain calendar months.
func TestBucketCutDay1(t *testing.T) {
	cal, err := New(1)
	if err != nil {
		t.Fatalf("New(1): %v", err)
	}

	for m := 1; m <= 12; m++ {
		first := date(2024, m, 1)
		last := first.AddDate(0, 1, -1)
		if got := cal.Bucket(first); got != (Key{2024, m}) {
			t.Errorf("Bucket(%v) = %v, want %v", first, got, Key{2024, m})
		}
		if got := cal.Bucket(last); got != (Key{2024, m}) {
			t.Errorf("Bucket(%v) = %v, want %v", last, got, Key{2024, m})
		}
	}
}

func TestNewRejectsDegenerateCutDays(t *testing.T) {
	for _, d := range []int{0, -1, 29, 30, 31} {
		if _, err := New(d); err == nil {
			t.Errorf("New(%d): expected error", d)
		}
	}
}

func TestLabelRoundTrip(t *testing.T) {
	keys := []Key{{2024, 1}, {2024, 3}, {2024, 12}, {2025, 2}}
	for _, k := range keys {
		label := k.Label()
		back, err := ParseLabel(label)
		if err != nil {
			t.Fatalf("ParseLabel(%q): %v", label, err)
		}
		if back != k {
			t.Errorf("round trip %v → %q → %v", k, label, back)
		}
		sk, err := SortKeyOf(label)
		if err != nil {
			t.Fatalf("SortKeyOf(%q): %v", label, err)
		}
		if sk != k.SortKey() {
			t.Errorf("SortKeyOf(%q) = %d, want %d", label, sk, k.SortKey())
		}
	}
}

// TestSortKeyOrdersByYearThenMonth guards against lexicographic ordering
// of labels.
func TestSortKeyOrdersByYearThenMonth(t *testing.T) {
	dec2023 := Key{2023, 12}
	jan2024 := Key{2024, 1}
	if dec2023.SortKey() >= jan2024.SortKey() {
		t.Errorf("Dec/2023 (%d) must sort before Jan/2024 (%d)", dec2023.SortKey(), jan2024.SortKey())
	}
	// "Apr/2024" < "Jan/2024" lexicographically; sort keys must disagree
	apr := Key{2024, 4}
	jan := Key{2024, 1}
	if apr.SortKey() <= jan.SortKey() {
		t.Errorf("Apr/2024 must sort after Jan/2024")
	}
}

func TestWindow(t *testing.T) {
	got := Window(Key{2024, 2}, 4)
	want := []Key{{2023, 11}, {2023, 12}, {2024, 1}, {2024, 2}}
	if len(got) != len(want) {
		t.Fatalf("Window length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Window[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWindowLabels(t *testing.T) {
	got, err := WindowLabels("Feb/2024", 3)
	if err != nil {
		t.Fatalf("WindowLabels: %v", err)
	}
	want := []string{"Dec/2023", "Jan/2024", "Feb/2024"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("WindowLabels[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
