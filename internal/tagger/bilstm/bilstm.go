// Package bilstm runs the character-level BiLSTM date tagger in pure Go.
//
// The model is an embedding layer, a single-layer bidirectional LSTM and a
// linear projection onto the tag vocabulary. Weights are read from a JSON
// export of the PyTorch state dict:
//
//	{
//	  "embedding_dim": 32,
//	  "hidden_dim": 256,
//	  "vocabulary": {"char_to_index": {...}, "index_to_tag": [...]},
//	  "state_dict": {"embedding.weight": [[...]], "lstm.weight_ih_l0": [[...]], ...}
//	}
package bilstm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/jonathan/datedetective/internal/labels"
	"github.com/jonathan/datedetective/internal/tagger"
)

// Name is the tagger name reported by Model.
const Name = "bilstm"

// Model holds loaded weights. It is read-only after loading and safe for
// concurrent use.
type Model struct {
	vocab     *labels.Vocabulary
	embedding [][]float64
	forward   cell
	backward  cell
	fcWeight  [][]float64
	fcBias    []float64
	hidden    int
}

// cell is one direction of the LSTM. Gate rows are ordered input, forget,
// cell, output, as in PyTorch.
type cell struct {
	wIH  [][]float64
	wHH  [][]float64
	bias []float64 // bias_ih + bias_hh
}

type modelFile struct {
	EmbeddingDim int                        `json:"embedding_dim"`
	HiddenDim    int                        `json:"hidden_dim"`
	Vocabulary   *labels.Vocabulary         `json:"vocabulary"`
	StateDict    map[string]json.RawMessage `json:"state_dict"`
}

// Load reads a model export from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a model export and checks every tensor shape.
func Parse(data []byte) (*Model, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, &ModelError{Message: "failed to parse JSON", Cause: err}
	}
	if mf.Vocabulary == nil {
		return nil, &ModelError{Message: "vocabulary is missing"}
	}
	if mf.EmbeddingDim <= 0 || mf.HiddenDim <= 0 {
		return nil, &ModelError{Message: "embedding_dim and hidden_dim must be positive"}
	}

	sd := stateDict(mf.StateDict)
	numTags := mf.Vocabulary.NumTags()
	E, H := mf.EmbeddingDim, mf.HiddenDim

	m := &Model{vocab: mf.Vocabulary, hidden: H}
	var err error
	if m.embedding, err = sd.matrix("embedding.weight", anyRows, E); err != nil {
		return nil, err
	}
	if maxIdx := mf.Vocabulary.MaxCharIndex(); maxIdx >= len(m.embedding) {
		return nil, &ModelError{Message: fmt.Sprintf("embedding has %d rows but vocabulary uses index %d", len(m.embedding), maxIdx)}
	}
	if m.forward, err = sd.cell("", E, H); err != nil {
		return nil, err
	}
	if m.backward, err = sd.cell("_reverse", E, H); err != nil {
		return nil, err
	}
	if m.fcWeight, err = sd.matrix("fc.weight", numTags, 2*H); err != nil {
		return nil, err
	}
	if m.fcBias, err = sd.vector("fc.bias", numTags); err != nil {
		return nil, err
	}
	return m, nil
}

// Name implements tagger.Tagger.
func (m *Model) Name() string {
	return Name
}

// Vocabulary returns the model's character and tag vocabulary.
func (m *Model) Vocabulary() *labels.Vocabulary {
	return m.vocab
}

// Tag implements tagger.Tagger: it lowercases and encodes the input, runs the
// network and takes the arg-max tag for every character.
func (m *Model) Tag(ctx context.Context, input string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	indices, err := m.vocab.Encode(input)
	if err != nil {
		return nil, err
	}

	logits := m.Logits(indices)
	tags := make([]string, len(logits))
	for i, row := range logits {
		tag, err := m.vocab.TagAt(argmax(row))
		if err != nil {
			return nil, err
		}
		tags[i] = tag
	}
	if err := tagger.CheckShape(input, tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Logits runs the network over encoded characters and returns one score row
// per position.
func (m *Model) Logits(indices []int) [][]float64 {
	n := len(indices)
	fwd := make([][]float64, n)
	bwd := make([][]float64, n)

	h, c := make([]float64, m.hidden), make([]float64, m.hidden)
	for t := 0; t < n; t++ {
		h, c = m.forward.step(m.embedding[indices[t]], h, c)
		fwd[t] = h
	}

	h, c = make([]float64, m.hidden), make([]float64, m.hidden)
	for t := n - 1; t >= 0; t-- {
		h, c = m.backward.step(m.embedding[indices[t]], h, c)
		bwd[t] = h
	}

	out := make([][]float64, n)
	concat := make([]float64, 2*m.hidden)
	for t := 0; t < n; t++ {
		copy(concat, fwd[t])
		copy(concat[m.hidden:], bwd[t])
		row := make([]float64, len(m.fcBias))
		for k := range row {
			row[k] = m.fcBias[k] + dot(m.fcWeight[k], concat)
		}
		out[t] = row
	}
	return out
}

// step advances the cell by one input and returns fresh h and c slices.
func (c cell) step(x, h, cPrev []float64) ([]float64, []float64) {
	H := len(h)
	gates := make([]float64, 4*H)
	for r := range gates {
		gates[r] = c.bias[r] + dot(c.wIH[r], x) + dot(c.wHH[r], h)
	}

	hNext := make([]float64, H)
	cNext := make([]float64, H)
	for j := 0; j < H; j++ {
		i := sigmoid(gates[j])
		f := sigmoid(gates[H+j])
		g := math.Tanh(gates[2*H+j])
		o := sigmoid(gates[3*H+j])
		cNext[j] = f*cPrev[j] + i*g
		hNext[j] = o * math.Tanh(cNext[j])
	}
	return hNext, cNext
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// argmax returns the first index of the maximum value.
func argmax(row []float64) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] > row[best] {
			best = i
		}
	}
	return best
}

type stateDict map[string]json.RawMessage

// anyRows disables the row count check in stateDict.matrix.
const anyRows = -1

func (sd stateDict) matrix(key string, rows, cols int) ([][]float64, error) {
	raw, ok := sd[key]
	if !ok {
		return nil, &ModelError{Message: "missing tensor " + key}
	}
	var m [][]float64
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ModelError{Message: "tensor " + key + " is not a matrix", Cause: err}
	}
	if rows != anyRows && len(m) != rows {
		return nil, &ModelError{Message: fmt.Sprintf("tensor %s has %d rows, want %d", key, len(m), rows)}
	}
	for i, row := range m {
		if len(row) != cols {
			return nil, &ModelError{Message: fmt.Sprintf("tensor %s row %d has %d columns, want %d", key, i, len(row), cols)}
		}
	}
	return m, nil
}

func (sd stateDict) vector(key string, size int) ([]float64, error) {
	raw, ok := sd[key]
	if !ok {
		return nil, &ModelError{Message: "missing tensor " + key}
	}
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, &ModelError{Message: "tensor " + key + " is not a vector", Cause: err}
	}
	if len(v) != size {
		return nil, &ModelError{Message: fmt.Sprintf("tensor %s has %d entries, want %d", key, len(v), size)}
	}
	return v, nil
}

func (sd stateDict) cell(suffix string, E, H int) (cell, error) {
	wIH, err := sd.matrix("lstm.weight_ih_l0"+suffix, 4*H, E)
	if err != nil {
		return cell{}, err
	}
	wHH, err := sd.matrix("lstm.weight_hh_l0"+suffix, 4*H, H)
	if err != nil {
		return cell{}, err
	}
	bIH, err := sd.vector("lstm.bias_ih_l0"+suffix, 4*H)
	if err != nil {
		return cell{}, err
	}
	bHH, err := sd.vector("lstm.bias_hh_l0"+suffix, 4*H)
	if err != nil {
		return cell{}, err
	}
	bias := make([]float64, 4*H)
	for i := range bias {
		bias[i] = bIH[i] + bHH[i]
	}
	return cell{wIH: wIH, wHH: wHH, bias: bias}, nil
}
