package decoder

import (
	"strings"
	"testing"

	"github.com/jonathan/datedetective/internal/labels"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bio expands a compact per-character field spec into raw tags. Each byte of
// spec is a directive code, '.' for None, or '+' to continue the previous field.
func bio(spec string) []string {
	tags := make([]string, len(spec))
	var last byte
	for i := 0; i < len(spec); i++ {
		switch c := spec[i]; c {
		case '.':
			tags[i] = "None"
		case '+':
			tags[i] = "I-" + string(last)
		default:
			tags[i] = "B-" + string(c)
			last = c
		}
	}
	return tags
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		tags  []string
		want  string
	}{
		{
			name:  "day first date with time",
			input: "30/12/2023 12:52:23",
			tags:  bio("d+.m+.Y+++.H+.M+.S+"),
			want:  "%d/%m/%Y %H:%M:%S",
		},
		{
			name:  "iso date",
			input: "2020-01-01",
			tags:  bio("Y+++.m+.d+"),
			want:  "%Y-%m-%d",
		},
		{
			name:  "long field names and bare tags",
			input: "01-02",
			tags:  []string{"B-Day", "I-Day", "None", "Month", "Month"},
			want:  "%d-%m",
		},
		{
			name:  "adjacent different fields",
			input: "20231230",
			tags:  bio("Y+++m+d+"),
			want:  "%Y%m%d",
		},
		{
			name:  "month name",
			input: "Dec 5, 2023",
			tags:  bio("b++.d..Y+++"),
			want:  "%b %d, %Y",
		},
		{
			name:  "same field as last character still opens a placeholder",
			input: "2023/2023",
			tags:  bio("Y+++.Y+++"),
			want:  "%Y/%Y",
		},
		{
			name:  "empty input",
			input: "",
			tags:  []string{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.tags, []rune(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_AllNoneIsIdentity(t *testing.T) {
	for _, s := range []string{"hello", "--//::", "ünïcödé", "  "} {
		chars := []rune(s)
		tags := make([]string, len(chars))
		for i := range tags {
			tags[i] = "None"
		}
		got, err := Decode(tags, chars)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestDecode_AdjacentSameFieldMerges(t *testing.T) {
	// Two separate day occurrences with nothing between them collapse.
	got, err := Decode([]string{"B-d", "I-d", "B-d", "I-d"}, []rune("0102"))
	require.NoError(t, err)
	assert.Equal(t, "%d", got)
}

func TestDecode_ShapeMismatch(t *testing.T) {
	_, err := Decode([]string{"None"}, []rune("ab"))
	var shape *ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 1, shape.Tags)
	assert.Equal(t, 2, shape.Chars)
}

func TestDecode_UnknownTag(t *testing.T) {
	_, err := Decode([]string{"B-Q"}, []rune("a"))
	var unknown *labels.UnknownTagError
	assert.ErrorAs(t, err, &unknown)
}

func TestRuns_MatchPlaceholders(t *testing.T) {
	inputs := map[string]string{
		"30/12/2023 12:52:23": "d+.m+.Y+++.H+.M+.S+",
		"20231230":            "Y+++m+d+",
		"x":                   ".",
		"Dec 5, 2023":         "b++.d..Y+++",
	}
	for input, spec := range inputs {
		tags, err := labels.ParseTags(bio(spec))
		require.NoError(t, err)

		format, err := DecodeTags(tags, []rune(input))
		require.NoError(t, err)

		runs := Runs(tags)
		assert.Equal(t, len(runs), strings.Count(format, "%"), input)
		assert.LessOrEqual(t, len(format)-len(runs), len(input), input)
	}
}

func TestRuns_Spans(t *testing.T) {
	tags, err := labels.ParseTags(bio("d+.m+"))
	require.NoError(t, err)
	assert.Equal(t, []Run{
		{Field: labels.Day, Start: 0, End: 2},
		{Field: labels.Month, Start: 3, End: 5},
	}, Runs(tags))
}
