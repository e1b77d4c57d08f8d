package expiry

import (
	"testing"
	"time"
)

func TestEndOfMonth(t *testing.T) {
	d := time.Date(2030, time.June, 15, 0, 0, 0, 0, time.UTC)
	end := EndOfMonth(d, nil)

	if end.Month() != time.June || end.Day() != 30 {
		t.Fatalf("expected last day of June, got %v", end)
	}
	if !end.Before(time.Date(2030, time.July, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end of month must precede the first of the next month, got %v", end)
	}
}

func TestEndOfMonth_February(t *testing.T) {
	leap := EndOfMonth(time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC), nil)
	if leap.Day() != 29 {
		t.Fatalf("expected Feb 29 in a leap year, got %v", leap)
	}

	regular := EndOfMonth(time.Date(2030, time.February, 1, 0, 0, 0, 0, time.UTC), nil)
	if regular.Day() != 28 {
		t.Fatalf("expected Feb 28, got %v", regular)
	}
}

func TestExpired(t *testing.T) {
	exp := time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"well before", time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC), false},
		{"last day of month", time.Date(2030, time.June, 30, 23, 0, 0, 0, time.UTC), false},
		{"first instant after", time.Date(2030, time.July, 1, 0, 0, 0, 0, time.UTC), true},
		{"long after", time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Expired(exp, tc.at); got != tc.want {
				t.Fatalf("Expired(%v, %v) = %v, want %v", exp, tc.at, got, tc.want)
			}
		})
	}
}

func TestReissueDue(t *testing.T) {
	exp := time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC)

	if ReissueDue(exp, time.Date(2030, time.May, 1, 0, 0, 0, 0, time.UTC), 30) {
		t.Fatal("a month before the window should not be due")
	}
	if !ReissueDue(exp, time.Date(2030, time.June, 15, 0, 0, 0, 0, time.UTC), 30) {
		t.Fatal("inside the window should be due")
	}
	if ReissueDue(exp, time.Date(2030, time.July, 2, 0, 0, 0, 0, time.UTC), 30) {
		t.Fatal("past the end of month should not be due")
	}
}
