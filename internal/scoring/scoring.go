// Package scoring implements the two-pass archetype similarity engine: it
// turns a set of bigram records pulled from the store into a ranked,
// normalized similarity score per archetype.
package scoring

import (
	"sort"

	"github.com/videre-project/asi-worker/internal/deck"
	"github.com/videre-project/asi-worker/internal/hypergeom"
)

// MinScore is the similarity floor below which an archetype is dropped
// from the result set entirely; it exists so near-zero noise doesn't
// clutter a response with archetypes that share only a handful of
// incidental bigrams with the submitted decklist.
const MinScore = 0.05

// Row is one archetype's recorded copy counts for a single bigram, as
// returned by the bigram store for the submitted card pairs. Archetype
// names are opaque strings; the engine never interprets them.
type Row struct {
	Archetype string
	Card1     string
	Card2     string
	K1        int
	K2        int
}

// Score is one archetype's final, normalized similarity to the submitted
// decklist.
type Score struct {
	Archetype string
	Value     float64
}

// bigramStats carries the per-row joint probability already computed once
// per row, since Pass 1 and Pass 2 both need it.
type bigramStats struct {
	row Row
	jp  float64 // P(b|A)
}

// Compute runs the two-pass weighting algorithm over rows and returns the
// archetypes whose normalized score exceeds MinScore, sorted by
// descending score and then ascending archetype name. Rows for different
// bigrams belonging to the same archetype accumulate independently; rows
// are expected to already be scoped to a single format by the caller.
func Compute(rows []Row) []Score {
	if len(rows) == 0 {
		return nil
	}

	byBigram := make(map[deck.Pair][]bigramStats)
	pMaxGlobal := 0.0
	for _, r := range rows {
		pair := deck.NewPair(r.Card1, r.Card2)
		byBigram[pair] = append(byBigram[pair], bigramStats{
			row: r,
			jp:  hypergeom.JointProbability(r.K1, r.K2),
		})
		if pmax := hypergeom.Normalizer(r.K1, r.K2); pmax > pMaxGlobal {
			pMaxGlobal = pmax
		}
	}

	// Pass 1: global weights. A bigram that only one matched archetype
	// carries (|F(b)| == 1) counts double for that archetype; every other
	// occurrence counts once.
	wGlobal := make(map[string]float64)
	for _, group := range byBigram {
		w1 := 1.0
		if len(group) == 1 {
			w1 = 2.0
		}
		for _, s := range group {
			wGlobal[s.row.Archetype] += w1 * s.jp
		}
	}

	m := -1.0
	for _, w := range wGlobal {
		if w > m {
			m = w
		}
	}

	candidates := make(map[string]bool, len(wGlobal))
	for a, w := range wGlobal {
		if w >= m-2 {
			candidates[a] = true
		}
	}
	cSize := len(candidates)

	// Pass 2: local weights, restricted to candidate archetypes. F_C(b) is
	// the cohort of candidates carrying bigram b; non-candidates never
	// accumulate a local term at all and keep their pass-1 weight as-is.
	wLocal := make(map[string]float64)
	for _, group := range byBigram {
		fcCount := 0
		for _, s := range group {
			if candidates[s.row.Archetype] {
				fcCount++
			}
		}
		if fcCount == 0 {
			continue
		}
		for _, s := range group {
			if !candidates[s.row.Archetype] {
				continue
			}
			var w2 float64
			switch {
			case fcCount == 1:
				w2 = 2
			case fcCount > 1 && fcCount < cSize/3:
				w2 = 1
			default:
				w2 = 0
			}
			wLocal[s.row.Archetype] += w2 * s.jp
		}
	}

	if pMaxGlobal == 0 {
		return nil
	}

	scores := make([]Score, 0, len(wGlobal))
	for a, wg := range wGlobal {
		raw := (wg + wLocal[a]) / pMaxGlobal
		if raw < 0 {
			raw = 0
		}
		if raw > 1 {
			raw = 1
		}
		if raw > MinScore {
			scores = append(scores, Score{Archetype: a, Value: raw})
		}
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Value != scores[j].Value {
			return scores[i].Value > scores[j].Value
		}
		return scores[i].Archetype < scores[j].Archetype
	})

	return scores
}
