package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/videre-project/asi-worker/internal/deck"
	"github.com/videre-project/asi-worker/internal/storage/models"
)

// bigramLookupBatchSize bounds how many pairs go into a single IN (...)
// clause; modernc.org/sqlite inherits SQLite's default bound parameter
// limit (999), and each pair consumes two placeholders.
const bigramLookupBatchSize = 400

// querier is satisfied by both *sql.DB and *sql.Tx, letting a
// BigramRepository run against either a plain connection or a
// transaction started by the storage service.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// BigramRepository is the SQL-backed query interface the scoring engine's
// orchestrator calls through: given a format and the candidate bigrams
// extracted from a submitted deck, it returns every matching record.
type BigramRepository interface {
	// Lookup returns every stored record for the given format whose
	// (card1, card2) appears in pairs. scanned reports the number of rows
	// read from the store and elapsedMs the query wall time, both surfaced
	// in the response metadata.
	Lookup(ctx context.Context, format string, pairs []deck.Pair) (rows []models.BigramRecord, scanned int, elapsedMs float64, err error)

	// UpsertBigram inserts or replaces a single bigram record, keyed on
	// (format, archetype, card1, card2).
	UpsertBigram(ctx context.Context, rec models.BigramRecord) error

	// ClearFormat removes every bigram record for a format, used before a
	// full seed reload.
	ClearFormat(ctx context.Context, format string) error

	// CountFormat returns the number of stored records for a format.
	CountFormat(ctx context.Context, format string) (int, error)
}

type bigramRepo struct {
	db querier
}

// NewBigramRepository creates a new SQL-backed bigram repository over db,
// which may be a *sql.DB or a *sql.Tx.
func NewBigramRepository(db querier) BigramRepository {
	return &bigramRepo{db: db}
}

func (r *bigramRepo) Lookup(ctx context.Context, format string, pairs []deck.Pair) ([]models.BigramRecord, int, float64, error) {
	if len(pairs) == 0 {
		return nil, 0, 0, nil
	}

	start := time.Now()
	var rows []models.BigramRecord
	scanned := 0

	for i := 0; i < len(pairs); i += bigramLookupBatchSize {
		end := i + bigramLookupBatchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[i:end]

		query, args := buildLookupQuery(format, batch)
		batchRows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, scanned, elapsedMs(start), fmt.Errorf("failed to look up bigrams: %w", err)
		}

		for batchRows.Next() {
			var rec models.BigramRecord
			if err := batchRows.Scan(&rec.ID, &rec.Format, &rec.Archetype, &rec.Card1, &rec.Card2, &rec.K1, &rec.K2); err != nil {
				_ = batchRows.Close()
				return nil, scanned, elapsedMs(start), fmt.Errorf("failed to scan bigram row: %w", err)
			}
			scanned++
			rows = append(rows, rec)
		}
		err = batchRows.Err()
		_ = batchRows.Close()
		if err != nil {
			return nil, scanned, elapsedMs(start), fmt.Errorf("error iterating bigram rows: %w", err)
		}
	}

	return rows, scanned, elapsedMs(start), nil
}

// buildLookupQuery builds a query restricted to the given format and
// matching any of the pairs' canonical (card1, card2) tuples. Indexed on
// (format, card1, card2), the cost is proportional to len(pairs), not to
// the full corpus for the format.
func buildLookupQuery(format string, pairs []deck.Pair) (string, []any) {
	placeholders := make([]string, len(pairs))
	args := make([]any, 0, len(pairs)*2+1)
	args = append(args, format)
	for i, p := range pairs {
		placeholders[i] = "(?, ?)"
		args = append(args, p.Card1, p.Card2)
	}

	query := fmt.Sprintf(`
		SELECT id, format, archetype, card1, card2, k1, k2
		FROM bigram_records
		WHERE format = ? AND (card1, card2) IN (%s)
	`, strings.Join(placeholders, ", "))
	return query, args
}

func (r *bigramRepo) UpsertBigram(ctx context.Context, rec models.BigramRecord) error {
	card1, card2, k1, k2 := rec.Card1, rec.Card2, rec.K1, rec.K2
	if card1 > card2 {
		card1, card2 = card2, card1
		k1, k2 = k2, k1
	}

	query := `
		INSERT INTO bigram_records (format, archetype, card1, card2, k1, k2)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(format, archetype, card1, card2) DO UPDATE SET
			k1 = excluded.k1,
			k2 = excluded.k2
	`
	_, err := r.db.ExecContext(ctx, query, rec.Format, rec.Archetype, card1, card2, k1, k2)
	if err != nil {
		return fmt.Errorf("failed to upsert bigram record: %w", err)
	}
	return nil
}

func (r *bigramRepo) ClearFormat(ctx context.Context, format string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM bigram_records WHERE format = ?", format)
	if err != nil {
		return fmt.Errorf("failed to clear bigram records: %w", err)
	}
	return nil
}

func (r *bigramRepo) CountFormat(ctx context.Context, format string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bigram_records WHERE format = ?", format).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bigram records: %w", err)
	}
	return count, nil
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
