package models

// BigramRecord is a stored (archetype, bigram) tuple: how many copies of
// each card the archetype's canonical list runs.
type BigramRecord struct {
	ID        int64  `json:"id" db:"id"`
	Format    string `json:"format" db:"format"`
	Archetype string `json:"archetype" db:"archetype"`
	Card1     string `json:"card1" db:"card1"`
	Card2     string `json:"card2" db:"card2"`
	K1        int    `json:"k1" db:"k1"`
	K2        int    `json:"k2" db:"k2"`
}
