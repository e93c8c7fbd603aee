package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"hours and minutes", "10:30", TimeOfDay(10*3600 + 30*60), false},
		{"with seconds", "23:59:59", TimeOfDay(23*3600 + 59*60 + 59), false},
		{"single digit hour", "9:05", TimeOfDay(9*3600 + 5*60), false},
		{"midnight", "00:00", 0, false},
		{"surrounding spaces", " 08:00 ", TimeOfDay(8 * 3600), false},
		{"hour out of range", "24:00", 0, true},
		{"minute out of range", "10:60", 0, true},
		{"single digit minute", "10:5", 0, true},
		{"missing minutes", "10", 0, true},
		{"too many parts", "10:00:00:00", 0, true},
		{"sign", "-1:00", 0, true},
		{"letters", "ab:cd", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeFormat) {
					t.Errorf("ParseTimeOfDay(%q) error = %v, want ErrInvalidTimeFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) unexpected error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTimeOfDay(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTimeOfDay_String(t *testing.T) {
	if got := MustParseTimeOfDay("9:05").String(); got != "09:05" {
		t.Errorf("String() = %q, want 09:05", got)
	}
	if got := MustParseTimeOfDay("18:30:15").String(); got != "18:30:15" {
		t.Errorf("String() = %q, want 18:30:15", got)
	}
}

func TestTimeOfDay_On(t *testing.T) {
	loc, err := time.LoadLocation("America/Santo_Domingo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	date, err := ParseDate("2025-06-14")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}

	got := MustParseTimeOfDay("20:15").On(date, loc)
	want := time.Date(2025, 6, 14, 20, 15, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("On() = %v, want %v", got, want)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "2025-13-01", "14/06/2025", "2025-02-30"} {
		if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", in, err)
		}
	}
}

func TestDurationBetween(t *testing.T) {
	start := MustParseTimeOfDay("10:00")
	end := MustParseTimeOfDay("12:30")

	if got := DurationBetween(start, end); got != 150*time.Minute {
		t.Errorf("DurationBetween() = %v, want 2h30m", got)
	}
	if got := DurationBetween(end, start); got != -150*time.Minute {
		t.Errorf("DurationBetween() inverted = %v, want -2h30m", got)
	}
}
