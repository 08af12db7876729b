package detective

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TallyEntry counts one distinct format string within a batch.
type TallyEntry struct {
	Format     string `json:"format"`
	Count      int    `json:"count"`
	FirstIndex int    `json:"first_index"`
}

// Tally holds format counts in first-seen order.
type Tally struct {
	Entries []TallyEntry
	Total   int
}

// NewTally counts formats by exact string equality.
func NewTally(formats []string) *Tally {
	t := &Tally{Total: len(formats)}
	pos := make(map[string]int, len(formats))
	for i, f := range formats {
		if j, ok := pos[f]; ok {
			t.Entries[j].Count++
			continue
		}
		pos[f] = len(t.Entries)
		t.Entries = append(t.Entries, TallyEntry{Format: f, Count: 1, FirstIndex: i})
	}
	return t
}

// Winner returns the entry with the highest count. Among tied entries the one
// whose format appeared first in the batch wins. The zero entry is returned
// for an empty tally.
func (t *Tally) Winner() TallyEntry {
	var best TallyEntry
	for i, e := range t.Entries {
		if i == 0 || e.Count > best.Count {
			best = e
		}
	}
	return best
}

// Ranked returns the entries by descending count, first-seen order within ties.
func (t *Tally) Ranked() []TallyEntry {
	ranked := make([]TallyEntry, len(t.Entries))
	copy(ranked, t.Entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// BatchResult is the outcome of resolving a list of dates.
type BatchResult struct {
	Tally  *Tally
	Format string
	Times  []time.Time
}

// Consensus tags every value and tallies the resulting formats.
func (d *Detective) Consensus(ctx context.Context, values []string) (*Tally, error) {
	if len(values) == 0 {
		return nil, ErrEmptyBatch
	}
	formats, err := d.formats(ctx, values)
	if err != nil {
		return nil, err
	}
	tally := NewTally(formats)
	winner := tally.Winner()
	d.logger.Debug("format consensus",
		zap.String("tagger", d.tagger.Name()),
		zap.Int("items", len(values)),
		zap.Int("distinct", len(tally.Entries)),
		zap.String("format", winner.Format),
		zap.Int("votes", winner.Count))
	return tally, nil
}

// ListFormat returns the plurality format of values.
func (d *Detective) ListFormat(ctx context.Context, values []string) (string, error) {
	tally, err := d.Consensus(ctx, values)
	if err != nil {
		return "", err
	}
	return tally.Winner().Format, nil
}

// ListDateTime parses every value with the batch's consensus format. The
// result has the same length and order as values.
func (d *Detective) ListDateTime(ctx context.Context, values []string) ([]time.Time, error) {
	res, err := d.ResolveList(ctx, values)
	if err != nil {
		return nil, err
	}
	return res.Times, nil
}

// ResolveList runs consensus over values and parses each one with the winner.
// Any value that does not fit the winning format fails the whole batch.
func (d *Detective) ResolveList(ctx context.Context, values []string) (*BatchResult, error) {
	tally, err := d.Consensus(ctx, values)
	if err != nil {
		return nil, err
	}
	format := tally.Winner().Format
	times := make([]time.Time, len(values))
	for i, v := range values {
		t, err := d.parse(i, v, format)
		if err != nil {
			return nil, err
		}
		times[i] = t
	}
	return &BatchResult{Tally: tally, Format: format, Times: times}, nil
}

// formats resolves one format per value. Results are index-addressed, so the
// tally sees them in input order regardless of worker scheduling. On failure
// the error for the lowest failing index is returned.
func (d *Detective) formats(ctx context.Context, values []string) ([]string, error) {
	out := make([]string, len(values))
	if d.workers <= 1 || len(values) == 1 {
		for i, v := range values {
			f, err := d.Format(ctx, v)
			if err != nil {
				return nil, &ItemError{Index: i, Value: v, Cause: err}
			}
			out[i] = f
		}
		return out, nil
	}

	errs := make([]error, len(values))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, v := range values {
		g.Go(func() error {
			f, err := d.Format(gctx, v)
			if err != nil {
				errs[i] = &ItemError{Index: i, Value: v, Cause: err}
				return errs[i]
			}
			out[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, e := range errs {
			var item *ItemError
			if errors.As(e, &item) && !errors.Is(item.Cause, context.Canceled) {
				return nil, item
			}
		}
		return nil, err
	}
	return out, nil
}
