// Package strptime parses date strings against C-style format strings such as
// "%d/%m/%Y %H:%M:%S".
//
// Numeric directives are lenient about zero padding by default, the way C and
// Python strptime are: "%d" accepts both "1" and "01". WithStrictWidth requires
// the full padded width instead.
package strptime

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Option configures Parse.
type Option func(*options)

type options struct {
	strictWidth bool
	location    *time.Location
}

// WithStrictWidth requires zero-padded numeric fields ("01", never "1").
func WithStrictWidth() Option {
	return func(o *options) { o.strictWidth = true }
}

// WithLocation sets the location of the returned time. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// fields accumulates parsed components before the time is assembled.
type fields struct {
	year, month, day     int
	hour, minute, second int
	nanos                int
	yday                 int
	pm, hasPM, hour12    bool
	hasMonth, hasDay     bool
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var weekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// numeric describes a digit directive: its width bounds and valid range.
type numeric struct {
	name     string
	lo, hi   int
	min, max int
	padded   bool // strict mode demands the full width
}

var numerics = map[byte]numeric{
	'd': {name: "day", lo: 1, hi: 2, min: 1, max: 31, padded: true},
	'm': {name: "month", lo: 1, hi: 2, min: 1, max: 12, padded: true},
	'Y': {name: "year", lo: 4, hi: 4, min: 0, max: 9999},
	'y': {name: "year", lo: 2, hi: 2, min: 0, max: 99},
	'H': {name: "hour", lo: 1, hi: 2, min: 0, max: 23, padded: true},
	'I': {name: "hour", lo: 1, hi: 2, min: 1, max: 12, padded: true},
	'M': {name: "minute", lo: 1, hi: 2, min: 0, max: 59, padded: true},
	'S': {name: "second", lo: 1, hi: 2, min: 0, max: 59, padded: true},
	'f': {name: "microsecond", lo: 1, hi: 6, min: 0, max: 999999},
	'j': {name: "day of year", lo: 1, hi: 3, min: 1, max: 366, padded: true},
}

// Parse parses value according to format.
//
// In lenient mode a numeric field takes as many digits as it can, then backs
// off one digit at a time while the value is out of range or the rest of the
// format fails to match. "930" therefore parses as "%H%M" with hour 9.
func Parse(value, format string, opts ...Option) (time.Time, error) {
	o := options{location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	p := &parser{value: value, format: format, strict: o.strictWidth}
	f, err := p.match(0, value, fields{year: 1900, month: 1, day: 1})
	if err != nil {
		return time.Time{}, p.annotate(err)
	}
	return f.assemble(value, o.location)
}

type parser struct {
	value, format string
	strict        bool
}

// annotate fills in the input and format on errors raised deep in a match.
func (p *parser) annotate(err error) error {
	switch e := err.(type) {
	case *MismatchError:
		e.Value, e.Format = p.value, p.format
	case *UnsupportedDirectiveError:
		e.Format = p.format
	case *RangeError:
		e.Input = p.value
	}
	return err
}

// match parses rest against format[i:], starting from the fields parsed so far.
func (p *parser) match(i int, rest string, f fields) (fields, error) {
	for i < len(p.format) {
		c := p.format[i]
		if c != '%' {
			r, size := utf8.DecodeRuneInString(p.format[i:])
			i += size
			if unicode.IsSpace(r) {
				trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
				if len(trimmed) == len(rest) {
					return f, &MismatchError{Reason: "expected whitespace"}
				}
				// Collapse a run of format whitespace into one match.
				for i < len(p.format) {
					r2, s2 := utf8.DecodeRuneInString(p.format[i:])
					if !unicode.IsSpace(r2) {
						break
					}
					i += s2
				}
				rest = trimmed
				continue
			}
			got, gsize := utf8.DecodeRuneInString(rest)
			if gsize == 0 || got != r {
				return f, &MismatchError{Reason: "expected " + quote(string(r))}
			}
			rest = rest[gsize:]
			continue
		}

		if i+1 >= len(p.format) {
			return f, &UnsupportedDirectiveError{Directive: "%"}
		}
		directive := p.format[i+1]
		i += 2

		if num, ok := numerics[directive]; ok {
			return p.matchNumeric(directive, num, i, rest, f)
		}
		var err error
		if rest, err = f.consume(directive, rest); err != nil {
			return f, err
		}
	}

	if rest != "" {
		return f, &MismatchError{Reason: "unconverted data remains: " + quote(rest)}
	}
	return f, nil
}

// matchNumeric tries every admissible width for a digit directive, longest
// first, and continues the match after each. The first failure is reported
// when no width works.
func (p *parser) matchNumeric(directive byte, num numeric, i int, rest string, f fields) (fields, error) {
	lo := num.lo
	if p.strict && num.padded {
		lo = num.hi
	}
	avail := 0
	for avail < num.hi && avail < len(rest) && rest[avail] >= '0' && rest[avail] <= '9' {
		avail++
	}
	if avail < lo {
		return f, &MismatchError{Reason: "expected " + num.name + " digits"}
	}

	var first error
	for w := avail; w >= lo; w-- {
		n, _ := strconv.Atoi(rest[:w])
		err := checkRange(num.name, n, num.min, num.max)
		if err == nil {
			next := f
			next.set(directive, n, w)
			var out fields
			if out, err = p.match(i, rest[w:], next); err == nil {
				return out, nil
			}
		}
		if first == nil {
			first = err
		}
	}
	return f, first
}

// set stores a parsed digit field of width w.
func (f *fields) set(directive byte, n, w int) {
	switch directive {
	case 'd':
		f.day, f.hasDay = n, true
	case 'm':
		f.month, f.hasMonth = n, true
	case 'Y':
		f.year = n
	case 'y':
		if n < 69 {
			f.year = 2000 + n
		} else {
			f.year = 1900 + n
		}
	case 'H':
		f.hour = n
	case 'I':
		f.hour, f.hour12 = n, true
	case 'M':
		f.minute = n
	case 'S':
		f.second = n
	case 'f':
		for ; w < 9; w++ {
			n *= 10
		}
		f.nanos = n
	case 'j':
		f.yday = n
	}
}

// consume parses one name or literal directive from the front of s and
// returns the remainder.
func (f *fields) consume(directive byte, s string) (string, error) {
	switch directive {
	case 'p':
		switch {
		case hasFoldPrefix(s, "am"):
			f.hasPM, f.pm = true, false
		case hasFoldPrefix(s, "pm"):
			f.hasPM, f.pm = true, true
		default:
			return s, &MismatchError{Reason: "expected AM or PM"}
		}
		return s[2:], nil
	case 'b':
		idx, rest, ok := matchName(s, monthNames, true)
		if !ok {
			return s, &MismatchError{Reason: "expected abbreviated month name"}
		}
		f.month, f.hasMonth = idx+1, true
		return rest, nil
	case 'B':
		idx, rest, ok := matchName(s, monthNames, false)
		if !ok {
			return s, &MismatchError{Reason: "expected month name"}
		}
		f.month, f.hasMonth = idx+1, true
		return rest, nil
	case 'a':
		_, rest, ok := matchName(s, weekdayNames, true)
		if !ok {
			return s, &MismatchError{Reason: "expected abbreviated weekday name"}
		}
		return rest, nil
	case 'A':
		_, rest, ok := matchName(s, weekdayNames, false)
		if !ok {
			return s, &MismatchError{Reason: "expected weekday name"}
		}
		return rest, nil
	case '%':
		if !strings.HasPrefix(s, "%") {
			return s, &MismatchError{Reason: `expected "%"`}
		}
		return s[1:], nil
	default:
		return s, &UnsupportedDirectiveError{Directive: "%" + string(directive)}
	}
}

// assemble builds the final time and validates calendar ranges.
func (f *fields) assemble(value string, loc *time.Location) (time.Time, error) {
	hour := f.hour
	if f.hour12 {
		hour %= 12
		if f.pm {
			hour += 12
		}
	}

	month, day := f.month, f.day
	if f.yday != 0 && !f.hasMonth && !f.hasDay {
		if f.yday > daysIn(f.year) {
			return time.Time{}, &RangeError{Field: "day of year", Value: f.yday, Input: value}
		}
		t := time.Date(f.year, time.January, f.yday, hour, f.minute, f.second, f.nanos, loc)
		return t, nil
	}

	t := time.Date(f.year, time.Month(month), day, hour, f.minute, f.second, f.nanos, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, &RangeError{Field: "day", Value: day, Input: value}
	}
	return t, nil
}

func checkRange(field string, n, lo, hi int) error {
	if n < lo || n > hi {
		return &RangeError{Field: field, Value: n}
	}
	return nil
}

// matchName matches the longest English name (or its three-letter
// abbreviation when abbr is set) at the front of s, case-insensitively.
func matchName(s string, names []string, abbr bool) (int, string, bool) {
	for i, name := range names {
		candidate := name
		if abbr {
			candidate = name[:3]
		}
		if hasFoldPrefix(s, candidate) {
			return i, s[len(candidate):], true
		}
	}
	return 0, s, false
}

func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func daysIn(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

func quote(s string) string {
	return `"` + s + `"`
}
