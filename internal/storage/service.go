package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/videre-project/asi-worker/internal/deck"
	"github.com/videre-project/asi-worker/internal/storage/models"
	"github.com/videre-project/asi-worker/internal/storage/repository"
)

// Service provides high-level operations over the bigram store: the
// read path the scoring engine's orchestrator calls through (C2), and
// the write path used by seed loading and hot-reload.
type Service struct {
	db      *DB
	bigrams repository.BigramRepository
}

// NewService creates a new storage service backed by db.
func NewService(db *DB) *Service {
	return &Service{
		db:      db,
		bigrams: repository.NewBigramRepository(db.Conn()),
	}
}

// Lookup returns every bigram record for format whose (card1, card2)
// appears in pairs, along with the row count scanned and query wall
// time, both surfaced in the response metadata.
func (s *Service) Lookup(ctx context.Context, format string, pairs []deck.Pair) ([]BigramRecord, int, float64, error) {
	return s.bigrams.Lookup(ctx, format, pairs)
}

// ReplaceFormat atomically clears and reloads every bigram record for a
// format, used by the seed loader and the hot-reload watcher.
func (s *Service) ReplaceFormat(ctx context.Context, format string, records []models.BigramRecord) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		txBigrams := repository.NewBigramRepository(tx)
		if err := txBigrams.ClearFormat(ctx, format); err != nil {
			return fmt.Errorf("failed to clear format %s: %w", format, err)
		}
		for _, rec := range records {
			if err := txBigrams.UpsertBigram(ctx, rec); err != nil {
				return fmt.Errorf("failed to upsert bigram record for %s/%s: %w", format, rec.Archetype, err)
			}
		}
		return nil
	})
}

// CountFormat returns the number of stored records for a format.
func (s *Service) CountFormat(ctx context.Context, format string) (int, error) {
	return s.bigrams.CountFormat(ctx, format)
}

// Close closes the underlying database connection.
func (s *Service) Close() error {
	return s.db.Close()
}
