package tagger

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/jonathan/datedetective/internal/labels"
)

// HeuristicName is the Name of the rule-based tagger.
const HeuristicName = "heuristic"

// Heuristic is a deterministic rule-based tagger for common date layouts.
// It is the default when no model is configured and a reference tagger in tests.
//
// Numeric dates are read day-first unless the values rule that out, so
// "01/02/2020" is 1 February while "12/31/2020" is 31 December.
type Heuristic struct{}

// NewHeuristic returns the rule-based tagger.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

// Name implements Tagger.
func (h *Heuristic) Name() string {
	return HeuristicName
}

type tokenKind int

const (
	kindOther tokenKind = iota
	kindDigit
	kindAlpha
)

type token struct {
	kind       tokenKind
	start, end int    // rune offsets
	text       string // lowercased
	field      labels.FieldType
	split      []labels.FieldType // per-rune fields for compact digit runs
	claimed    bool
}

func (t *token) len() int { return t.end - t.start }

func (t *token) num() int {
	n, _ := strconv.Atoi(t.text)
	return n
}

var (
	monthFull   = []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}
	weekdayFull = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
)

// Tag implements Tagger.
func (h *Heuristic) Tag(ctx context.Context, input string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runes := []rune(input)
	tokens := tokenize(runes)

	hasAMPM := classifyWords(tokens)
	classifyTime(tokens, runes, hasAMPM)
	classifyDate(tokens)

	fields := make([]labels.FieldType, len(runes))
	for i := range fields {
		fields[i] = labels.None
	}
	for _, tok := range tokens {
		for i := tok.start; i < tok.end; i++ {
			switch {
			case tok.split != nil:
				fields[i] = tok.split[i-tok.start]
			case tok.field != "":
				fields[i] = tok.field
			}
		}
	}

	tags := make([]string, len(runes))
	for i, f := range fields {
		if f.IsNone() {
			tags[i] = labels.Begin(labels.None).String()
			continue
		}
		if i > 0 && fields[i-1] == f {
			tags[i] = labels.Inside(f).String()
		} else {
			tags[i] = labels.Begin(f).String()
		}
	}
	return tags, nil
}

func tokenize(runes []rune) []*token {
	var tokens []*token
	kindOf := func(r rune) tokenKind {
		switch {
		case r >= '0' && r <= '9':
			return kindDigit
		case unicode.IsLetter(r):
			return kindAlpha
		default:
			return kindOther
		}
	}
	for i := 0; i < len(runes); {
		k := kindOf(runes[i])
		j := i + 1
		if k != kindOther {
			for j < len(runes) && kindOf(runes[j]) == k {
				j++
			}
		}
		tokens = append(tokens, &token{
			kind:  k,
			start: i,
			end:   j,
			text:  strings.ToLower(string(runes[i:j])),
		})
		i = j
	}
	return tokens
}

// classifyWords tags month names, weekday names and AM/PM markers.
func classifyWords(tokens []*token) bool {
	hasAMPM := false
	for _, tok := range tokens {
		if tok.kind != kindAlpha {
			continue
		}
		switch {
		case tok.text == "am" || tok.text == "pm":
			tok.field, hasAMPM = labels.AMPM, true
		case contains(monthFull, tok.text):
			tok.field = labels.MonthName
		case tok.len() == 3 && containsPrefix(monthFull, tok.text):
			tok.field = labels.MonthAbbr
		case contains(weekdayFull, tok.text):
			tok.field = labels.Weekday
		case tok.len() == 3 && containsPrefix(weekdayFull, tok.text):
			tok.field = labels.WeekdayAbbr
		}
		tok.claimed = tok.field != ""
	}
	return hasAMPM
}

// classifyTime finds the first clock time (digits joined by ':') and tags
// hour, minute, second and a fractional second. A trailing numeric UTC offset
// is left as literal text.
func classifyTime(tokens []*token, runes []rune, hasAMPM bool) {
	for i, tok := range tokens {
		if tok.kind != kindDigit || !isSep(tokens, i+1, runes, ':') || !isDigitAt(tokens, i+2) {
			continue
		}

		hour := labels.Hour
		if hasAMPM {
			hour = labels.Hour12
		}
		chain := []labels.FieldType{hour, labels.Minute, labels.Second}

		j := i
		last := i
		for n, field := range chain {
			if n > 0 {
				if !isSep(tokens, j-1, runes, ':') || !isDigitAt(tokens, j) {
					break
				}
			}
			tokens[j].field, tokens[j].claimed = field, true
			last = j
			j += 2
		}

		if tokens[last].field == labels.Second && (isSep(tokens, last+1, runes, '.') || isSep(tokens, last+1, runes, ',')) && isDigitAt(tokens, last+2) {
			tokens[last+2].field, tokens[last+2].claimed = labels.Microsecond, true
			last += 2
		}

		// Skip a trailing UTC offset such as +01:00 or -0500.
		if isSep(tokens, last+1, runes, '+') || isSep(tokens, last+1, runes, '-') {
			for k := last + 2; k < len(tokens); k++ {
				if tokens[k].kind == kindDigit {
					tokens[k].claimed = true
					continue
				}
				if !isSep(tokens, k, runes, ':') {
					break
				}
			}
		}
		return
	}
}

// classifyDate assigns the remaining digit runs to year, month and day.
func classifyDate(tokens []*token) {
	var nums []*token
	hasMonthName := false
	for _, tok := range tokens {
		if tok.field == labels.MonthName || tok.field == labels.MonthAbbr {
			hasMonthName = true
		}
		if tok.kind == kindDigit && !tok.claimed {
			nums = append(nums, tok)
		}
	}
	if len(nums) > 3 {
		nums = nums[:3]
	}

	switch {
	case len(nums) == 0:
		return
	case len(nums) == 1 && !hasMonthName:
		splitCompact(nums[0])
	case hasMonthName:
		assignWithMonthName(nums)
	case len(nums) == 2:
		assignPair(nums[0], nums[1])
	default:
		assignTriple(nums[0], nums[1], nums[2])
	}
}

func assignWithMonthName(nums []*token) {
	yearIdx := -1
	for i, n := range nums {
		if n.len() == 4 || n.num() > 31 {
			yearIdx = i
			break
		}
	}
	if yearIdx < 0 && len(nums) > 1 {
		yearIdx = len(nums) - 1
	}
	for i, n := range nums {
		switch {
		case i == yearIdx && n.len() == 4:
			n.field = labels.Year
		case i == yearIdx:
			n.field = labels.ShortYear
		case n.len() <= 2:
			n.field = labels.Day
		}
	}
}

func assignPair(a, b *token) {
	switch {
	case a.len() == 4:
		a.field, b.field = labels.Year, labels.Month
	case b.len() == 4:
		a.field, b.field = labels.Month, labels.Year
	default:
		a.field, b.field = dayMonthOrder(a, b)
	}
}

func assignTriple(a, b, c *token) {
	switch {
	case a.len() == 4:
		a.field = labels.Year
		if b.num() > 12 && c.num() <= 12 {
			b.field, c.field = labels.Day, labels.Month
		} else {
			b.field, c.field = labels.Month, labels.Day
		}
	case c.len() == 4:
		c.field = labels.Year
		a.field, b.field = dayMonthOrder(a, b)
	case c.len() == 2:
		c.field = labels.ShortYear
		a.field, b.field = dayMonthOrder(a, b)
	}
}

// dayMonthOrder reads a pair day-first unless the values rule that out.
func dayMonthOrder(a, b *token) (labels.FieldType, labels.FieldType) {
	if a.num() <= 12 && b.num() > 12 {
		return labels.Month, labels.Day
	}
	return labels.Day, labels.Month
}

// splitCompact handles unseparated runs such as 20231230 or 20231230125223.
func splitCompact(tok *token) {
	Y, m, d := labels.Year, labels.Month, labels.Day
	H, M, S := labels.Hour, labels.Minute, labels.Second
	layouts := map[int][]labels.FieldType{
		8:  {Y, Y, Y, Y, m, m, d, d},
		12: {Y, Y, Y, Y, m, m, d, d, H, H, M, M},
		14: {Y, Y, Y, Y, m, m, d, d, H, H, M, M, S, S},
	}
	switch layout, ok := layouts[tok.len()]; {
	case ok && looksLikeYear(tok.text[:4]):
		tok.split = layout
	case tok.len() == 8:
		tok.split = []labels.FieldType{d, d, m, m, Y, Y, Y, Y}
	case tok.len() == 4:
		tok.field = labels.Year
	}
}

func looksLikeYear(s string) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1000 && n <= 2999
}

func isSep(tokens []*token, i int, runes []rune, sep rune) bool {
	return i >= 0 && i < len(tokens) && tokens[i].kind == kindOther && runes[tokens[i].start] == sep
}

func isDigitAt(tokens []*token, i int) bool {
	return i >= 0 && i < len(tokens) && tokens[i].kind == kindDigit && !tokens[i].claimed
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPrefix(list []string, s string) bool {
	for _, v := range list {
		if strings.HasPrefix(v, s) {
			return true
		}
	}
	return false
}
