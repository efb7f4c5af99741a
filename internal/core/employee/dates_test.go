package employee

import (
	"testing"
	"time"
)

func TestParseDate_Layouts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"iso", "1990-05-15", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"us slash padded", "05/15/1990", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"us slash short", "5/15/1990", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"eu slash", "15/05/1990", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"eu slash short", "15/5/1990", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"year first slash", "1990/05/15", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"eu dash", "15-05-1990", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
		{"surrounding spaces", "  1990-05-15  ", time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseDate(tc.value)
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tc.value)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseDate(%q) = %s, want %s", tc.value, got, tc.want)
			}
		})
	}
}

func TestParseDate_AmbiguousValuesPreferUSOrder(t *testing.T) {
	t.Parallel()

	// 01/02/2006 形式が 02/01/2006 より先に試されるため、
	// どちらにも解釈できる値は月/日として読まれる。
	got, ok := ParseDate("03/04/1990")
	if !ok {
		t.Fatalf("ParseDate failed")
	}
	want := time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ParseDate(03/04/1990) = %s, want %s", got, want)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"", "   ", "not-a-date", "1990-13-40", "31/02/1990"} {
		if _, ok := ParseDate(value); ok {
			t.Fatalf("expected ParseDate(%q) to fail", value)
		}
	}
}

func TestParseDateWithFallback_PreferredFirst(t *testing.T) {
	t.Parallel()

	// 欧州形式を優先レイアウトにすると、曖昧な値が日/月として読まれる。
	got, ok := ParseDateWithFallback("03/04/1990", "02/01/2006")
	if !ok {
		t.Fatalf("ParseDateWithFallback failed")
	}
	want := time.Date(1990, 4, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestParseDateWithFallback_FallsBack(t *testing.T) {
	t.Parallel()

	// 優先レイアウトで解釈できない値は共通レイアウトへフォールバックする。
	got, ok := ParseDateWithFallback("1990-05-15", "02/01/2006")
	if !ok {
		t.Fatalf("ParseDateWithFallback failed")
	}
	want := time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestFormatISODate(t *testing.T) {
	t.Parallel()

	if got := FormatISODate(nil); got != "" {
		t.Fatalf("expected empty string for nil, got %q", got)
	}

	d := time.Date(1990, 5, 15, 0, 0, 0, 0, time.UTC)
	if got := FormatISODate(&d); got != "1990-05-15" {
		t.Fatalf("got %q, want 1990-05-15", got)
	}
}
