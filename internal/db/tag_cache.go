package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// GetTags returns cached tags for input, or nil when there is no live entry.
func (db *DB) GetTags(ctx context.Context, taggerName, input string) ([]string, error) {
	var tags []string
	err := db.pool.QueryRow(ctx,
		`UPDATE tag_cache SET hit_count = hit_count + 1
		 WHERE tagger = $1 AND input = $2 AND expires_at > NOW()
		 RETURNING tags`,
		taggerName, input,
	).Scan(&tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached tags: %w", err)
	}
	return tags, nil
}

// SaveTags stores tags for input with the default TTL.
func (db *DB) SaveTags(ctx context.Context, taggerName, input string, tags []string) error {
	return db.SaveTagsWithTTL(ctx, taggerName, input, tags, DefaultTagCacheTTL)
}

// SaveTagsWithTTL stores tags for input, replacing any previous entry.
func (db *DB) SaveTagsWithTTL(ctx context.Context, taggerName, input string, tags []string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTagCacheTTL
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO tag_cache (tagger, input, tags, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (tagger, input) DO UPDATE
		 SET tags = $3, expires_at = $4, created_at = NOW(), hit_count = 0`,
		taggerName, input, tags, time.Now().Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to save cached tags: %w", err)
	}
	return nil
}

// PurgeExpiredTags deletes expired cache entries and reports how many were removed.
func (db *DB) PurgeExpiredTags(ctx context.Context) (int64, error) {
	result, err := db.pool.Exec(ctx, `DELETE FROM tag_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tag cache: %w", err)
	}
	return result.RowsAffected(), nil
}
