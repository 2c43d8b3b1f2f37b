// Package seed loads the flattened bigram-record artifact produced by the
// (out-of-scope) offline archetype-corpus build pipeline and applies it to
// a live bigram store.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/videre-project/asi-worker/internal/storage/models"
)

// Record is one row of the build pipeline's output schema: a single
// archetype's copy counts for a single card bigram within a format.
type Record struct {
	Format    string `json:"format"`
	Archetype string `json:"archetype"`
	Card1     string `json:"card1"`
	Card2     string `json:"card2"`
	K1        int    `json:"k1"`
	K2        int    `json:"k2"`
}

// LoadFile decodes a JSON array of Record from path.
func LoadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return records, nil
}

// BigramWriter is the subset of storage.Service's write surface Apply
// needs: a per-format atomic replace.
type BigramWriter interface {
	ReplaceFormat(ctx context.Context, format string, records []models.BigramRecord) error
}

// Apply groups records by format and replaces each format's bigram
// catalog in a single atomic operation per format, so a partially-written
// seed file never leaves a format with a mix of old and new rows.
func Apply(ctx context.Context, store BigramWriter, records []Record) error {
	byFormat := make(map[string][]models.BigramRecord)
	for _, r := range records {
		byFormat[r.Format] = append(byFormat[r.Format], models.BigramRecord{
			Format:    r.Format,
			Archetype: r.Archetype,
			Card1:     r.Card1,
			Card2:     r.Card2,
			K1:        r.K1,
			K2:        r.K2,
		})
	}

	for format, recs := range byFormat {
		if err := store.ReplaceFormat(ctx, format, recs); err != nil {
			return fmt.Errorf("apply seed for format %q: %w", format, err)
		}
	}
	return nil
}
