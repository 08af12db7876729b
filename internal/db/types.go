package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/datedetective/internal/detective"
)

// DefaultTagCacheTTL is how long cached tag sequences stay valid (30 days)
const DefaultTagCacheTTL = 30 * 24 * time.Hour

// Run is a persisted consensus run
type Run struct {
	ID        uuid.UUID              `json:"id"`
	Tagger    string                 `json:"tagger"`
	Format    string                 `json:"format"`
	Items     int                    `json:"items"`
	Strict    bool                   `json:"strict"`
	DateKey   string                 `json:"date_key,omitempty"`
	Source    string                 `json:"source,omitempty"`
	InputHash string                 `json:"input_hash"`
	Tally     []detective.TallyEntry `json:"tally"`
	CreatedAt time.Time              `json:"created_at"`
}

// RunInput holds the fields of a run to be saved
type RunInput struct {
	Tagger    string
	Strict    bool
	DateKey   string
	Source    string
	InputHash string
	Tally     *detective.Tally
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Tagger    string
	Format    string
	InputHash string
	Limit     int
}

// DefaultRunLimit caps ListRuns when no limit is given.
const DefaultRunLimit = 50
