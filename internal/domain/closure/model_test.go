package closure_test

import (
	"errors"
	"testing"
	"time"

	"teniszklub/internal/domain/closure"
)

func hourPtr(h int) *int { return &h }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestClosure_Validate tests validation of Closure.
func TestClosure_Validate(t *testing.T) {
	start := date(2026, 4, 3)
	end := date(2026, 4, 6)

	tests := []struct {
		name    string
		c       closure.Closure
		wantErr error
	}{
		{"full-day range", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end}, nil},
		{"single hour-ranged day", closure.Closure{CourtID: "c1", StartDate: start, EndDate: start, StartHour: hourPtr(9), EndHour: hourPtr(11)}, nil},
		{"whole day as hours", closure.Closure{CourtID: "c1", StartDate: start, EndDate: start, StartHour: hourPtr(0), EndHour: hourPtr(24)}, nil},
		{"missing court", closure.Closure{StartDate: start, EndDate: end}, closure.ErrEmptyCourt},
		{"zero start date", closure.Closure{CourtID: "c1", EndDate: end}, closure.ErrEmptyStartDate},
		{"zero end date", closure.Closure{CourtID: "c1", StartDate: start}, closure.ErrEmptyEndDate},
		{"start after end", closure.Closure{CourtID: "c1", StartDate: end, EndDate: start}, closure.ErrInvalidDates},
		{"only start hour", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end, StartHour: hourPtr(9)}, closure.ErrHourNullMismatch},
		{"only end hour", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end, EndHour: hourPtr(9)}, closure.ErrHourNullMismatch},
		{"empty hour range", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end, StartHour: hourPtr(9), EndHour: hourPtr(9)}, closure.ErrInvalidHours},
		{"end hour past midnight", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end, StartHour: hourPtr(20), EndHour: hourPtr(25)}, closure.ErrInvalidHours},
		{"negative start hour", closure.Closure{CourtID: "c1", StartDate: start, EndDate: end, StartHour: hourPtr(-1), EndHour: hourPtr(4)}, closure.ErrInvalidHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.c.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Closure.Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestClosure_Blocks covers full-day and hour-ranged closures.
func TestClosure_Blocks(t *testing.T) {
	fullDay := closure.Closure{CourtID: "c1", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 6)}
	ranged := closure.Closure{CourtID: "c1", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 4), StartHour: hourPtr(9), EndHour: hourPtr(11)}

	for hour := 0; hour < 24; hour++ {
		for _, d := range []time.Time{date(2026, 4, 3), date(2026, 4, 5), date(2026, 4, 6)} {
			if !fullDay.Blocks(d, hour) {
				t.Errorf("full-day closure should block %s %d:00", d.Format("2006-01-02"), hour)
			}
		}
		if fullDay.Blocks(date(2026, 4, 2), hour) || fullDay.Blocks(date(2026, 4, 7), hour) {
			t.Errorf("full-day closure should not block outside its range at %d:00", hour)
		}

		want := hour == 9 || hour == 10
		if got := ranged.Blocks(date(2026, 4, 4), hour); got != want {
			t.Errorf("ranged closure Blocks(%d) = %v, want %v", hour, got, want)
		}
		if ranged.Blocks(date(2026, 4, 5), hour) {
			t.Errorf("ranged closure should not block the day after its range at %d:00", hour)
		}
	}
}

func TestClosure_ContainsIgnoresLocation(t *testing.T) {
	c := closure.Closure{CourtID: "c1", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 3)}
	budapestEvening := time.Date(2026, 4, 3, 23, 30, 0, 0, time.FixedZone("CEST", 2*60*60))
	if !c.Contains(budapestEvening) {
		t.Error("a local date on the closure day should be contained")
	}
}

func TestAnyBlocks(t *testing.T) {
	list := []closure.Closure{
		{CourtID: "c1", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 3), StartHour: hourPtr(9), EndHour: hourPtr(11)},
		{CourtID: "c1", StartDate: date(2026, 4, 3), EndDate: date(2026, 4, 3), StartHour: hourPtr(18), EndHour: hourPtr(20)},
	}
	if !closure.AnyBlocks(list, date(2026, 4, 3), 19) {
		t.Error("second closure should block 19:00")
	}
	if closure.AnyBlocks(list, date(2026, 4, 3), 12) {
		t.Error("no closure covers 12:00")
	}
	if closure.AnyBlocks(nil, date(2026, 4, 3), 12) {
		t.Error("empty list blocks nothing")
	}
}
