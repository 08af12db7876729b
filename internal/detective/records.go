package detective

import (
	"context"
	"errors"
	"fmt"
)

// Record is a flat key-value record with one date-bearing field.
type Record = map[string]any

// OriginalSuffix is appended to the date key to name the preserved original value.
const OriginalSuffix = "_original"

// RecordsResult is the outcome of projecting a record collection.
type RecordsResult struct {
	Tally   *Tally
	Format  string
	Records []Record
}

// RecordsFormat returns the consensus format of the values stored under key.
// Records without the key, or with a nil value, do not vote.
func (d *Detective) RecordsFormat(ctx context.Context, records []Record, key string) (string, error) {
	tally, err := d.RecordsConsensus(ctx, records, key)
	if err != nil {
		return "", err
	}
	return tally.Winner().Format, nil
}

// RecordsConsensus tallies the formats of the values stored under key.
func (d *Detective) RecordsConsensus(ctx context.Context, records []Record, key string) (*Tally, error) {
	tally, _, err := d.recordsConsensus(ctx, records, key)
	return tally, err
}

// RecordsDateTime replaces the value under key with its parsed time in every
// record that has it.
func (d *Detective) RecordsDateTime(ctx context.Context, records []Record, key string, preserveOriginal bool) ([]Record, error) {
	res, err := d.ResolveRecords(ctx, records, key, preserveOriginal)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// ResolveRecords computes the consensus format over records and parses each
// date with it. The input is never modified: touched records are shallow
// copies, untouched records are returned as they are, in their original
// positions. With preserveOriginal the string is kept under key+"_original".
func (d *Detective) ResolveRecords(ctx context.Context, records []Record, key string, preserveOriginal bool) (*RecordsResult, error) {
	tally, positions, err := d.recordsConsensus(ctx, records, key)
	if err != nil {
		return nil, err
	}
	format := tally.Winner().Format

	out := make([]Record, len(records))
	copy(out, records)
	for _, i := range positions {
		value := records[i][key].(string)
		t, err := d.parse(i, value, format)
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(records[i])+1)
		for k, v := range records[i] {
			rec[k] = v
		}
		if preserveOriginal {
			rec[key+OriginalSuffix] = value
		}
		rec[key] = t
		out[i] = rec
	}
	return &RecordsResult{Tally: tally, Format: format, Records: out}, nil
}

// recordsConsensus extracts the date strings under key and tallies their
// formats. positions maps each extracted value back to its record index.
func (d *Detective) recordsConsensus(ctx context.Context, records []Record, key string) (*Tally, []int, error) {
	values, positions, err := extract(records, key)
	if err != nil {
		return nil, nil, err
	}
	if len(values) == 0 {
		return nil, nil, &EmptyBatchError{Key: key}
	}
	tally, err := d.Consensus(ctx, values)
	if err != nil {
		var item *ItemError
		if errors.As(err, &item) {
			return nil, nil, &ItemError{Index: positions[item.Index], Value: item.Value, Cause: item.Cause}
		}
		return nil, nil, err
	}
	return tally, positions, nil
}

func extract(records []Record, key string) ([]string, []int, error) {
	var values []string
	var positions []int
	for i, rec := range records {
		raw, ok := rec[key]
		if !ok || raw == nil {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return nil, nil, &UnparsableDateError{
				Index: i,
				Value: fmt.Sprint(raw),
				Cause: fmt.Errorf("%w: %T", ErrNotString, raw),
			}
		}
		values = append(values, s)
		positions = append(positions, i)
	}
	return values, positions, nil
}
