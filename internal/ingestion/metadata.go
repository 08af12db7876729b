package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata describes where an input batch came from.
type Metadata struct {
	Location  string `json:"location"`
	Format    Format `json:"format"`
	Timestamp string `json:"timestamp"` // RFC3339
	Hash      string `json:"hash"`      // SHA256 hex digest of the raw bytes
	Bytes     int    `json:"bytes"`
	Items     int    `json:"items"`
}

// NewMetadata creates Metadata for raw content read from location.
func NewMetadata(content []byte, location string, format Format) *Metadata {
	return &Metadata{
		Location:  location,
		Format:    format,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Bytes:     len(content),
	}
}

func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// HashStrings hashes an ordered list of values, for batches that did not come from a file.
func HashStrings(values []string) string {
	h := sha256.New()
	for _, v := range values {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToJSON marshals Metadata to pretty-printed JSON.
func (m *Metadata) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return data, nil
}
