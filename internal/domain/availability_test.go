package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func slot(t *testing.T, date, start, end, requestID string) Slot {
	t.Helper()
	d, err := ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", date, err)
	}
	return Slot{Date: d, Start: MustParseTimeOfDay(start), End: MustParseTimeOfDay(end), RequestID: requestID}
}

func TestSlot_Validate(t *testing.T) {
	assert.NoError(t, slot(t, "2025-06-14", "10:00", "12:00", "").Validate())
	assert.ErrorIs(t, slot(t, "2025-06-14", "12:00", "12:00", "").Validate(), ErrInvalidTimeRange)
	assert.ErrorIs(t, slot(t, "2025-06-14", "12:00", "10:00", "").Validate(), ErrInvalidTimeRange)
	assert.ErrorIs(t, Slot{Start: 0, End: 60}.Validate(), ErrInvalidDate)
}

func TestSlot_ConflictsWith(t *testing.T) {
	existing := slot(t, "2025-06-14", "10:00", "12:00", "req-1")

	tests := []struct {
		name      string
		candidate Slot
		want      bool
	}{
		{"overlapping", slot(t, "2025-06-14", "11:00", "13:00", "req-2"), true},
		{"inside travel buffer after", slot(t, "2025-06-14", "13:29", "15:00", "req-2"), true},
		{"exactly at buffer end after", slot(t, "2025-06-14", "13:30", "15:00", "req-2"), false},
		{"inside travel buffer before", slot(t, "2025-06-14", "07:00", "08:31", "req-2"), true},
		{"exactly at buffer before", slot(t, "2025-06-14", "07:00", "08:30", "req-2"), false},
		{"far apart", slot(t, "2025-06-14", "18:00", "20:00", "req-2"), false},
		{"different date", slot(t, "2025-06-15", "10:00", "12:00", "req-2"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, existing.ConflictsWith(tt.candidate, DefaultTravelBuffer))
		})
	}
}

// Any committed booking [s1,e1) blocks every window with s2 < e1+90 and s1 < e2+90.
func TestSlot_ConflictsWith_MatchesPredicate(t *testing.T) {
	existing := slot(t, "2025-06-14", "14:00", "16:00", "req-1")
	buffer := TimeOfDay(DefaultTravelBuffer / time.Second)

	for s := 0; s < 24*60; s += 15 {
		for length := 15; s+length < 24*60; length += 45 {
			candidate := Slot{
				Date:  existing.Date,
				Start: TimeOfDay(s * 60),
				End:   TimeOfDay((s + length) * 60),
			}
			want := candidate.Start < existing.End+buffer && existing.Start < candidate.End+buffer
			if got := existing.ConflictsWith(candidate, DefaultTravelBuffer); got != want {
				t.Fatalf("ConflictsWith(%s-%s) = %v, want %v", candidate.Start, candidate.End, got, want)
			}
		}
	}
}

func TestEvaluateAvailability(t *testing.T) {
	candidate := slot(t, "2025-06-14", "11:00", "13:00", "req-new")
	committed := []Slot{
		slot(t, "2025-06-14", "09:00", "10:00", "req-a"),
		slot(t, "2025-06-14", "09:00", "10:00", "req-a"), // same booking seen via block and request
		slot(t, "2025-06-14", "18:00", "19:00", "req-b"),
		slot(t, "2025-06-14", "11:00", "13:00", "req-new"),
	}

	result := EvaluateAvailability(committed, candidate, DefaultTravelBuffer)

	assert.False(t, result.IsAvailable)
	assert.Equal(t, 1, result.ConflictingCount)
	assert.Equal(t, ReasonConflict, result.Reason)

	free := EvaluateAvailability(committed[2:], candidate, DefaultTravelBuffer)
	assert.True(t, free.IsAvailable)
	assert.Zero(t, free.ConflictingCount)
}

func TestUnverified_FailsClosed(t *testing.T) {
	r := Unverified()
	assert.False(t, r.IsAvailable)
	assert.Equal(t, ReasonCheckFailed, r.Reason)
}
