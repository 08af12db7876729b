package tagger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	getErr  error
	saveErr error
}

func (f *failingStore) GetTags(context.Context, string, string) ([]string, error) {
	return nil, f.getErr
}

func (f *failingStore) SaveTags(context.Context, string, string, []string) error {
	return f.saveErr
}

func countingTagger(calls *int) Func {
	return Func{
		ID: "counting",
		Fn: func(_ context.Context, input string) ([]string, error) {
			*calls++
			tags := make([]string, len([]rune(input)))
			for i := range tags {
				tags[i] = "None"
			}
			return tags, nil
		},
	}
}

func TestCached_HitsStore(t *testing.T) {
	calls := 0
	store := NewMemoryStore()
	c := NewCached(countingTagger(&calls), store, nil)

	for i := 0; i < 3; i++ {
		tags, err := c.Tag(context.Background(), "abc")
		require.NoError(t, err)
		assert.Len(t, tags, 3)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "counting", c.Name())
}

func TestCached_IgnoresWrongShape(t *testing.T) {
	calls := 0
	store := NewMemoryStore()
	require.NoError(t, store.SaveTags(context.Background(), "counting", "abc", []string{"None"}))

	c := NewCached(countingTagger(&calls), store, nil)
	tags, err := c.Tag(context.Background(), "abc")
	require.NoError(t, err)
	assert.Len(t, tags, 3)
	assert.Equal(t, 1, calls)
}

func TestCached_StoreErrors(t *testing.T) {
	calls := 0
	readErr := errors.New("connection refused")

	_, err := NewCached(countingTagger(&calls), &failingStore{getErr: readErr}, nil).Tag(context.Background(), "x")
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, 0, calls)

	tags, err := NewCached(countingTagger(&calls), &failingStore{saveErr: errors.New("read only")}, nil).Tag(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"None"}, tags)
}

func TestCached_PropagatesTaggerError(t *testing.T) {
	boom := errors.New("model unavailable")
	c := NewCached(Func{Fn: func(context.Context, string) ([]string, error) { return nil, boom }}, NewMemoryStore(), nil)
	_, err := c.Tag(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "func", c.Name())
}
