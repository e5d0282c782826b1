package main

import (
	"testing"
	"time"

	"github.com/signalsfoundry/gridprep/costs"
)

func TestParseTime(t *testing.T) {
	ts, err := parseTime("2013-01-01")
	if err != nil {
		t.Fatalf("parseTime date: %v", err)
	}
	if !ts.Equal(time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parsed = %v, want 2013-01-01T00:00:00Z", ts)
	}

	ts, err = parseTime("2013-06-01T12:00:00Z")
	if err != nil {
		t.Fatalf("parseTime RFC3339: %v", err)
	}
	if ts.Hour() != 12 {
		t.Errorf("parsed hour = %d, want 12", ts.Hour())
	}

	if _, err := parseTime(""); err == nil {
		t.Errorf("parseTime accepted empty input")
	}
	if _, err := parseTime("last tuesday"); err == nil {
		t.Errorf("parseTime accepted garbage input")
	}
}

func TestCostTableIsSortedLongForm(t *testing.T) {
	tc := costs.TechCosts{
		"solar": {"investment": 600e3, "FOM": 2},
		"coal":  {"fuel": 8},
	}

	tbl := costTable(tc)
	if len(tbl.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(tbl.Rows))
	}

	// Technologies sorted, parameters sorted within each technology.
	wantFirst := []string{"coal", "fuel", "8"}
	for i, cell := range wantFirst {
		if tbl.Rows[0][i] != cell {
			t.Errorf("row 0 col %d = %q, want %q", i, tbl.Rows[0][i], cell)
		}
	}
	if tbl.Rows[1][1] != "FOM" || tbl.Rows[2][1] != "investment" {
		t.Errorf("solar params not sorted: %v, %v", tbl.Rows[1], tbl.Rows[2])
	}
}
