package jalali

import (
	"errors"
	"testing"
	"time"

	"github.com/mshojaei77/tsetmc-go/models"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name, in, want string
		wantErr        bool
	}{
		{"canonical", "1403-01-01", "1403-01-01", false},
		{"slash separators", "1403/01/01", "1403-01-01", false},
		{"dot separators", "1403.1.1", "1403-01-01", false},
		{"unpadded", "1403-1-9", "1403-01-09", false},
		{"leap year day", "1403-12-30", "1403-12-30", false},
		{"non leap year day", "1402-12-30", "", true},
		{"month 13", "1403-13-01", "", true},
		{"day 32", "1403-01-32", "", true},
		{"year out of range", "1200-01-01", "", true},
		{"garbage", "not-a-date", "", true},
		{"empty", "", "", true},
		{"two parts", "1403-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) = %q, want error", tt.in, got)
				}
				if !errors.Is(err, models.ErrInvalidDate) {
					t.Errorf("error %v does not wrap ErrInvalidDate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestToGregorian(t *testing.T) {
	// Nowruz 1403 fell on 2024-03-20.
	got, err := ToGregorian("1403-01-01")
	if err != nil {
		t.Fatalf("ToGregorian failed: %v", err)
	}
	want := time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ToGregorian(1403-01-01) = %v, want %v", got, want)
	}
}

func TestFromGregorianRoundTrip(t *testing.T) {
	for _, jdate := range []string{"1402-06-15", "1403-01-01", "1403-12-30"} {
		g, err := ToGregorian(jdate)
		if err != nil {
			t.Fatalf("ToGregorian(%s) failed: %v", jdate, err)
		}
		if back := FromGregorian(g); back != jdate {
			t.Errorf("round trip %s -> %v -> %s", jdate, g, back)
		}
	}
}

func TestParseYYYYMMDD(t *testing.T) {
	date, jdate, err := ParseYYYYMMDD("20240320")
	if err != nil {
		t.Fatalf("ParseYYYYMMDD failed: %v", err)
	}
	if jdate != "1403-01-01" {
		t.Errorf("jalali = %s, want 1403-01-01", jdate)
	}
	if date.Year() != 2024 || date.Month() != time.March || date.Day() != 20 {
		t.Errorf("gregorian = %v, want 2024-03-20", date)
	}

	for _, bad := range []string{"", "2024032", "2024-3-20", "abcdefgh"} {
		if _, _, err := ParseYYYYMMDD(bad); err == nil {
			t.Errorf("ParseYYYYMMDD(%q) succeeded, want error", bad)
		}
	}
}

func TestCompactGregorian(t *testing.T) {
	got, err := CompactGregorian("1403-01-01")
	if err != nil {
		t.Fatalf("CompactGregorian failed: %v", err)
	}
	if got != "20240320" {
		t.Errorf("CompactGregorian = %s, want 20240320", got)
	}
}

func TestValidateRange(t *testing.T) {
	start, end, err := ValidateRange("1402/01/01", "1403-06-31")
	if err != nil {
		t.Fatalf("ValidateRange failed: %v", err)
	}
	if start != "1402-01-01" || end != "1403-06-31" {
		t.Errorf("got (%s, %s)", start, end)
	}

	_, _, err = ValidateRange("1403-06-01", "1402-01-01")
	if !errors.Is(err, models.ErrInvalidDateRange) {
		t.Errorf("reversed range error = %v, want ErrInvalidDateRange", err)
	}
}
