package storage

import "github.com/videre-project/asi-worker/internal/storage/models"

// BigramRecord re-exports the models package's record type for callers
// that only import the storage package.
type BigramRecord = models.BigramRecord
