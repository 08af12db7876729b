package strptime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format string
		want   time.Time
	}{
		{
			name:   "day first with time",
			value:  "30/12/2023 12:52:23",
			format: "%d/%m/%Y %H:%M:%S",
			want:   time.Date(2023, 12, 30, 12, 52, 23, 0, time.UTC),
		},
		{
			name:   "iso date",
			value:  "2020-01-01",
			format: "%Y-%m-%d",
			want:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "compact",
			value:  "20231230",
			format: "%Y%m%d",
			want:   time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "unpadded day and month",
			value:  "1-2-2020",
			format: "%d-%m-%Y",
			want:   time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "month and weekday names",
			value:  "Saturday, DEC 30 2023",
			format: "%A, %b %d %Y",
			want:   time.Date(2023, 12, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "full month name",
			value:  "5 September 2021",
			format: "%d %B %Y",
			want:   time.Date(2021, 9, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "twelve hour clock pm",
			value:  "03/04/21 07:05 pm",
			format: "%d/%m/%y %I:%M %p",
			want:   time.Date(2021, 4, 3, 19, 5, 0, 0, time.UTC),
		},
		{
			name:   "twelve am is midnight",
			value:  "12:30 AM",
			format: "%I:%M %p",
			want:   time.Date(1900, 1, 1, 0, 30, 0, 0, time.UTC),
		},
		{
			name:   "two digit year pivot",
			value:  "01/01/70",
			format: "%d/%m/%y",
			want:   time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "fractional seconds",
			value:  "2023-12-30T12:52:23.5",
			format: "%Y-%m-%dT%H:%M:%S.%f",
			want:   time.Date(2023, 12, 30, 12, 52, 23, 500000000, time.UTC),
		},
		{
			name:   "day of year",
			value:  "2024 060",
			format: "%Y %j",
			want:   time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "whitespace run",
			value:  "2023-12-30   10:00",
			format: "%Y-%m-%d %H:%M",
			want:   time.Date(2023, 12, 30, 10, 0, 0, 0, time.UTC),
		},
		{
			name:   "adjacent unpadded hour and minute",
			value:  "930",
			format: "%H%M",
			want:   time.Date(1900, 1, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "adjacent unpadded month backs off",
			value:  "1122020",
			format: "%d%m%Y",
			want:   time.Date(2020, 2, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "adjacent padded fields",
			value:  "0930",
			format: "%H%M",
			want:   time.Date(1900, 1, 1, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "literal percent",
			value:  "50% 2020",
			format: "50%% %Y",
			want:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.value, tt.format)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParse_StrictWidth(t *testing.T) {
	_, err := Parse("1-2-2020", "%d-%m-%Y", WithStrictWidth())
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "1-2-2020", mismatch.Value)

	got, err := Parse("01-02-2020", "%d-%m-%Y", WithStrictWidth())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParse_AdjacentFieldsStrict(t *testing.T) {
	got, err := Parse("0930", "%H%M", WithStrictWidth())
	require.NoError(t, err)
	assert.Equal(t, time.Date(1900, 1, 1, 9, 30, 0, 0, time.UTC), got)

	got, err = Parse("11022020", "%d%m%Y", WithStrictWidth())
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 2, 11, 0, 0, 0, 0, time.UTC), got)

	_, err = Parse("930", "%H%M", WithStrictWidth())
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "hour", rangeErr.Field)
	assert.Equal(t, 93, rangeErr.Value)
	assert.Equal(t, "930", rangeErr.Input)

	_, err = Parse("1122020", "%d%m%Y", WithStrictWidth())
	assert.Error(t, err)
}

func TestParse_BackoffKeepsFirstError(t *testing.T) {
	// "24" is out of range and "2" leaves ":" unmatched; the range error wins.
	_, err := Parse("24:00", "%H:%M")
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 24, rangeErr.Value)

	_, err = Parse("2020-01-01x", "%Y-%m-%d")
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Contains(t, mismatch.Reason, "unconverted data remains")
	assert.Equal(t, "2020-01-01x", mismatch.Value)
}

func TestParse_Mismatch(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format string
	}{
		{"trailing data", "2020-01-01x", "%Y-%m-%d"},
		{"wrong separator", "2020/01/01", "%Y-%m-%d"},
		{"short year", "20-01-01", "%Y-%m-%d"},
		{"missing value", "2020-01-", "%Y-%m-%d"},
		{"bad am pm", "10 xm", "%I %p"},
		{"bad month name", "Foo 1 2020", "%b %d %Y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.value, tt.format)
			var mismatch *MismatchError
			assert.ErrorAs(t, err, &mismatch)
		})
	}
}

func TestParse_Range(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format string
		field  string
	}{
		{"month 13", "2023-13-01", "%Y-%m-%d", "month"},
		{"day 32", "2023-01-32", "%Y-%m-%d", "day"},
		{"feb 30", "2023-02-30", "%Y-%m-%d", "day"},
		{"non leap feb 29", "29/02/2023", "%d/%m/%Y", "day"},
		{"hour 24", "24:00", "%H:%M", "hour"},
		{"minute 60", "10:60", "%H:%M", "minute"},
		{"day of year 366 in common year", "2023 366", "%Y %j", "day of year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.value, tt.format)
			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.field, rangeErr.Field)
			assert.Equal(t, tt.value, rangeErr.Input)
		})
	}
}

func TestParse_UnsupportedDirective(t *testing.T) {
	for _, format := range []string{"%Q", "%Y%"} {
		_, err := Parse("2020", format)
		var unsupported *UnsupportedDirectiveError
		assert.ErrorAs(t, err, &unsupported, format)
	}
}

func TestParse_Location(t *testing.T) {
	loc := time.FixedZone("X", 3600)
	got, err := Parse("2020-01-01", "%Y-%m-%d", WithLocation(loc))
	require.NoError(t, err)
	assert.Equal(t, loc, got.Location())
}
