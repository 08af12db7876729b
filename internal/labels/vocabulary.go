package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"
)

// Vocabulary is the fixed bidirectional mapping used by a model-backed tagger:
// input characters to embedding indices, and output indices to raw tags.
type Vocabulary struct {
	charToIndex map[rune]int
	indexToTag  []string
}

// vocabularyFile is the on-disk JSON form of a Vocabulary.
type vocabularyFile struct {
	CharToIndex map[string]int `json:"char_to_index"`
	IndexToTag  []string       `json:"index_to_tag"`
}

// NewVocabulary builds a Vocabulary and verifies that both mappings are
// bijective and that every tag parses.
func NewVocabulary(charToIndex map[rune]int, indexToTag []string) (*Vocabulary, error) {
	if len(charToIndex) == 0 {
		return nil, &VocabularyError{Message: "char_to_index is empty"}
	}
	if len(indexToTag) == 0 {
		return nil, &VocabularyError{Message: "index_to_tag is empty"}
	}

	seenIdx := make(map[int]rune, len(charToIndex))
	for ch, idx := range charToIndex {
		if idx < 0 {
			return nil, &VocabularyError{Message: fmt.Sprintf("negative index %d for %q", idx, ch)}
		}
		if other, dup := seenIdx[idx]; dup {
			return nil, &VocabularyError{Message: fmt.Sprintf("index %d shared by %q and %q", idx, other, ch)}
		}
		seenIdx[idx] = ch
	}

	seenTag := make(map[string]bool, len(indexToTag))
	for _, raw := range indexToTag {
		if seenTag[raw] {
			return nil, &VocabularyError{Message: fmt.Sprintf("duplicate tag %q", raw)}
		}
		seenTag[raw] = true
		if _, err := ParseTag(raw); err != nil {
			return nil, &VocabularyError{Message: "unparseable tag", Cause: err}
		}
	}

	chars := make(map[rune]int, len(charToIndex))
	for k, v := range charToIndex {
		chars[k] = v
	}
	return &Vocabulary{
		charToIndex: chars,
		indexToTag:  append([]string(nil), indexToTag...),
	}, nil
}

// ParseVocabulary decodes a Vocabulary from its JSON form.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var vf vocabularyFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return nil, &VocabularyError{Message: "failed to parse JSON", Cause: err}
	}
	return vf.build()
}

// LoadVocabulary reads a Vocabulary from a JSON file.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	return ParseVocabulary(data)
}

// UnmarshalJSON lets a Vocabulary be embedded in larger JSON documents.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var vf vocabularyFile
	if err := json.Unmarshal(data, &vf); err != nil {
		return err
	}
	built, err := vf.build()
	if err != nil {
		return err
	}
	*v = *built
	return nil
}

func (vf vocabularyFile) build() (*Vocabulary, error) {
	chars := make(map[rune]int, len(vf.CharToIndex))
	for key, idx := range vf.CharToIndex {
		if utf8.RuneCountInString(key) != 1 {
			return nil, &VocabularyError{Message: fmt.Sprintf("char_to_index key %q is not a single character", key)}
		}
		r, _ := utf8.DecodeRuneInString(key)
		chars[r] = idx
	}
	return NewVocabulary(chars, vf.IndexToTag)
}

// NumCharacters returns the size of the input alphabet.
func (v *Vocabulary) NumCharacters() int {
	return len(v.charToIndex)
}

// MaxCharIndex returns the largest input index in the alphabet.
func (v *Vocabulary) MaxCharIndex() int {
	highest := -1
	for _, idx := range v.charToIndex {
		if idx > highest {
			highest = idx
		}
	}
	return highest
}

// NumTags returns the size of the output tag set.
func (v *Vocabulary) NumTags() int {
	return len(v.indexToTag)
}

// Encode lowercases the input one rune at a time and maps every character to
// its index. The result has one index per rune of input, and error positions
// are rune offsets into input.
func (v *Vocabulary) Encode(input string) ([]int, error) {
	runes := []rune(input)
	out := make([]int, len(runes))
	for i, r := range runes {
		idx, ok := v.charToIndex[unicode.ToLower(r)]
		if !ok {
			return nil, &UnsupportedCharacterError{Char: r, Position: i}
		}
		out[i] = idx
	}
	return out, nil
}

// TagAt returns the raw tag for an output index.
func (v *Vocabulary) TagAt(index int) (string, error) {
	if index < 0 || index >= len(v.indexToTag) {
		return "", fmt.Errorf("tag index %d out of range [0,%d)", index, len(v.indexToTag))
	}
	return v.indexToTag[index], nil
}
