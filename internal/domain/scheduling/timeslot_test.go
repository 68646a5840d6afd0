package scheduling

import (
	"errors"
	"testing"
	"time"
)

func mustSlot(t *testing.T, start, end time.Time) TimeSlot {
	t.Helper()
	ts, err := NewTimeSlot(start, end)
	if err != nil {
		t.Fatalf("NewTimeSlot(%v, %v) returned error: %v", start, end, err)
	}
	return ts
}

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 1, hour, min, 0, 0, time.UTC)
}

func TestNewTimeSlot_RejectsInvalidIntervals(t *testing.T) {
	cases := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"zero start", time.Time{}, at(11, 0)},
		{"zero end", at(10, 0), time.Time{}},
		{"start equals end", at(10, 0), at(10, 0)},
		{"start after end", at(11, 0), at(10, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTimeSlot(tc.start, tc.end); !errors.Is(err, ErrInvalidInterval) {
				t.Fatalf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}
}

func TestNewTimeSlotFromDuration(t *testing.T) {
	ts, err := NewTimeSlotFromDuration(at(10, 0), 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ts.End().Equal(at(11, 30)) {
		t.Fatalf("expected end 11:30, got %v", ts.End())
	}
	if ts.DurationMinutes() != 90 {
		t.Fatalf("expected 90 minutes, got %d", ts.DurationMinutes())
	}

	for _, minutes := range []int{0, -15} {
		if _, err := NewTimeSlotFromDuration(at(10, 0), minutes); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("minutes=%d: expected ErrInvalidDuration, got %v", minutes, err)
		}
	}
}

func TestTimeSlot_DurationRoundsToWholeMinutes(t *testing.T) {
	// 29m40s redondea a 30, no trunca a 29.
	ts := mustSlot(t, at(10, 0), at(10, 0).Add(29*time.Minute+40*time.Second))
	if got := ts.DurationMinutes(); got != 30 {
		t.Fatalf("expected 30 minutes, got %d", got)
	}

	ts = mustSlot(t, at(10, 0), at(10, 0).Add(29*time.Minute+20*time.Second))
	if got := ts.DurationMinutes(); got != 29 {
		t.Fatalf("expected 29 minutes, got %d", got)
	}
}

func TestTimeSlot_OverlapsIsSymmetric(t *testing.T) {
	cases := []struct {
		name string
		a, b TimeSlot
		want bool
	}{
		{"partial overlap", mustSlot(t, at(10, 0), at(12, 0)), mustSlot(t, at(11, 0), at(13, 0)), true},
		{"contained", mustSlot(t, at(10, 0), at(14, 0)), mustSlot(t, at(11, 0), at(12, 0)), true},
		{"identical", mustSlot(t, at(10, 0), at(12, 0)), mustSlot(t, at(10, 0), at(12, 0)), true},
		{"disjoint", mustSlot(t, at(8, 0), at(9, 0)), mustSlot(t, at(10, 0), at(11, 0)), false},
		{"back to back", mustSlot(t, at(10, 0), at(12, 0)), mustSlot(t, at(12, 0), at(14, 0)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("a.Overlaps(b) = %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("b.Overlaps(a) = %v, want %v (asymmetric)", got, tc.want)
			}
		})
	}
}

func TestTimeSlot_Contains(t *testing.T) {
	outer := mustSlot(t, at(10, 0), at(14, 0))
	inner := mustSlot(t, at(11, 0), at(12, 0))

	if !outer.Contains(inner) {
		t.Fatalf("expected outer to contain inner")
	}
	if inner.Contains(outer) {
		t.Fatalf("inner must not contain outer")
	}
	// Reflexividad
	if !outer.Contains(outer) {
		t.Fatalf("a slot must contain itself")
	}

	shifted := mustSlot(t, at(9, 0), at(11, 0))
	if outer.Contains(shifted) {
		t.Fatalf("partially outside slot must not be contained")
	}
}

func TestTimeSlot_IncludesTimeIsInclusive(t *testing.T) {
	ts := mustSlot(t, at(10, 0), at(12, 0))

	if !ts.IncludesTime(at(10, 0)) {
		t.Fatalf("start bound must be included")
	}
	if !ts.IncludesTime(at(12, 0)) {
		t.Fatalf("end bound must be included")
	}
	if !ts.IncludesTime(at(11, 15)) {
		t.Fatalf("interior instant must be included")
	}
	if ts.IncludesTime(at(9, 59)) || ts.IncludesTime(at(12, 1)) {
		t.Fatalf("instants outside the slot must not be included")
	}
}

func TestTimeSlot_Equal(t *testing.T) {
	a := mustSlot(t, at(10, 0), at(12, 0))
	b := mustSlot(t, at(10, 0), at(12, 0))
	c := mustSlot(t, at(10, 0), at(12, 30))

	if !a.Equal(b) {
		t.Fatalf("slots with same bounds must be equal")
	}
	if a.Equal(c) {
		t.Fatalf("slots with different bounds must not be equal")
	}
}
