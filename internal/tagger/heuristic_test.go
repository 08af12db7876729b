package tagger

import (
	"context"
	"testing"

	"github.com/jonathan/datedetective/internal/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_Formats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"30/12/2023 12:52:23", "%d/%m/%Y %H:%M:%S"},
		{"2020-01-01", "%Y-%m-%d"},
		{"2023-12-30T12:52:23", "%Y-%m-%dT%H:%M:%S"},
		{"2023-12-30T12:52:23.123456", "%Y-%m-%dT%H:%M:%S.%f"},
		{"2023-12-30T12:52:23+01:00", "%Y-%m-%dT%H:%M:%S+01:00"},
		{"12/31/2020", "%m/%d/%Y"},
		{"01-02-2020", "%d-%m-%Y"},
		{"1-2-2020", "%d-%m-%Y"},
		{"30.12.23", "%d.%m.%y"},
		{"2023/30/12", "%Y/%d/%m"},
		{"20231230", "%Y%m%d"},
		{"30122023", "%d%m%Y"},
		{"20231230125223", "%Y%m%d%H%M%S"},
		{"Dec 5, 2023", "%b %d, %Y"},
		{"Saturday, 30 December 2023", "%A, %d %B %Y"},
		{"Sat 30 Dec 23", "%a %d %b %y"},
		{"12/2023", "%m/%Y"},
		{"2023", "%Y"},
		{"03/04/2021 7:05 PM", "%d/%m/%Y %I:%M %p"},
		{"12:52", "%H:%M"},
		{"hello", "hello"},
	}

	h := NewHeuristic()
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tags, err := h.Tag(context.Background(), tt.input)
			require.NoError(t, err)
			require.NoError(t, CheckShape(tt.input, tags))

			format, err := decoder.Decode(tags, []rune(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}

func TestHeuristic_Markers(t *testing.T) {
	tags, err := NewHeuristic().Tag(context.Background(), "2020-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"B-Y", "I-Y", "I-Y", "I-Y", "None", "B-m", "I-m"}, tags)
}

func TestHeuristic_Deterministic(t *testing.T) {
	h := NewHeuristic()
	first, err := h.Tag(context.Background(), "30/12/2023 12:52:23")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := h.Tag(context.Background(), "30/12/2023 12:52:23")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestHeuristic_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHeuristic().Tag(ctx, "2020-01-01")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckShape(t *testing.T) {
	assert.NoError(t, CheckShape("ab", []string{"None", "None"}))

	err := CheckShape("é1", []string{"None"})
	var shape *decoder.ShapeMismatchError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 2, shape.Chars)
}
