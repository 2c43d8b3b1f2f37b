package scoring

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/videre-project/asi-worker/internal/hypergeom"
)

func TestCompute_NoRowsReturnsNil(t *testing.T) {
	if got := Compute(nil); got != nil {
		t.Errorf("Compute(nil) = %v, want nil", got)
	}
	if got := Compute([]Row{}); got != nil {
		t.Errorf("Compute([]Row{}) = %v, want nil", got)
	}
}

func TestCompute_ScoresWithinRange(t *testing.T) {
	rows := []Row{
		{Archetype: "Mono Red", Card1: "Bolt", Card2: "Goblin", K1: 4, K2: 4},
		{Archetype: "Mono Red", Card1: "Bolt", Card2: "Mountain", K1: 4, K2: 20},
		{Archetype: "Azorius Control", Card1: "Bolt", Card2: "Goblin", K1: 1, K2: 1},
		{Archetype: "Azorius Control", Card1: "Counter", Card2: "Island", K1: 4, K2: 12},
	}

	scores := Compute(rows)
	if len(scores) == 0 {
		t.Fatal("expected at least one scored archetype")
	}
	for _, s := range scores {
		if s.Value <= MinScore || s.Value > 1 {
			t.Errorf("archetype %q score %f out of (%.2f, 1] range", s.Archetype, s.Value, MinScore)
		}
	}
}

func TestCompute_SortedDescendingWithNameTiebreak(t *testing.T) {
	rows := []Row{
		{Archetype: "Zoo", Card1: "A", Card2: "B", K1: 4, K2: 4},
		{Archetype: "Aggro", Card1: "A", Card2: "B", K1: 4, K2: 4},
		{Archetype: "Control", Card1: "C", Card2: "D", K1: 1, K2: 1},
	}

	scores := Compute(rows)
	for i := 1; i < len(scores); i++ {
		if scores[i-1].Value < scores[i].Value {
			t.Fatalf("scores not sorted descending: %v", scores)
		}
		if scores[i-1].Value == scores[i].Value && scores[i-1].Archetype > scores[i].Archetype {
			t.Fatalf("equal-score archetypes not name-sorted ascending: %v", scores)
		}
	}
}

func TestCompute_PermutationInvariant(t *testing.T) {
	base := []Row{
		{Archetype: "Mono Red", Card1: "Bolt", Card2: "Goblin", K1: 4, K2: 4},
		{Archetype: "Mono Red", Card1: "Bolt", Card2: "Mountain", K1: 4, K2: 20},
		{Archetype: "Azorius Control", Card1: "Counter", Card2: "Island", K1: 4, K2: 12},
		{Archetype: "Azorius Control", Card1: "Bolt", Card2: "Goblin", K1: 1, K2: 1},
	}
	want := Compute(base)

	shuffled := make([]Row, len(base))
	copy(shuffled, base)
	rng := rand.New(rand.NewSource(7))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	got := Compute(shuffled)
	if len(got) != len(want) {
		t.Fatalf("shuffled input produced different result length: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Archetype != want[i].Archetype || got[i].Value != want[i].Value {
			t.Errorf("row-order dependence detected at index %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

// exclusiveBigrams synthesizes n bigrams that belong to archetype only,
// each card pair unique across the whole fixture so no other archetype
// can incidentally collide with them.
func exclusiveBigrams(archetype string, n, k1, k2 int) []Row {
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{
			Archetype: archetype,
			Card1:     fmt.Sprintf("%s-CardA-%d", archetype, i),
			Card2:     fmt.Sprintf("%s-CardB-%d", archetype, i),
			K1:        k1,
			K2:        k2,
		}
	}
	return rows
}

// TestCompute_ExactMatchScoresUnitAndRanksFirst builds a decklist whose
// bigrams are overwhelmingly exclusive to one archetype, with a single
// incidental bigram shared by a second, much weaker contender. The
// dominant archetype's accumulated weight should comfortably clear the
// single-row normalizer and clamp to exactly 1, ranking first.
func TestCompute_ExactMatchScoresUnitAndRanksFirst(t *testing.T) {
	rows := exclusiveBigrams("Mono Red", 15, 4, 4)
	rows = append(rows,
		Row{Archetype: "Mono Red", Card1: "Bolt", Card2: "Mountain", K1: 4, K2: 16},
		Row{Archetype: "Gruul Aggro", Card1: "Bolt", Card2: "Mountain", K1: 2, K2: 2},
	)

	scores := Compute(rows)
	if len(scores) == 0 {
		t.Fatal("expected scored archetypes")
	}
	if scores[0].Archetype != "Mono Red" {
		t.Fatalf("expected Mono Red to rank first, got %+v", scores)
	}
	if scores[0].Value != 1 {
		t.Errorf("expected exact-match archetype to clamp to 1, got %f", scores[0].Value)
	}
}

// TestCompute_ExcludedNonCandidateWithDisjointBigramKeepsGlobalOnlyScore
// gives one archetype enough exclusive weight to dominate W_global (and
// so set the candidate cutoff well above a single bigram's contribution),
// then checks that a weaker archetype whose only bigram never touches any
// candidate's bigrams is excluded from the candidate set and scores
// exactly as if pass 2 never ran.
func TestCompute_ExcludedNonCandidateWithDisjointBigramKeepsGlobalOnlyScore(t *testing.T) {
	dominant := exclusiveBigrams("Mono Red", 15, 4, 4)
	weak := Row{Archetype: "Azorius Control", Card1: "Counter", Card2: "Island", K1: 4, K2: 12}
	rows := append(dominant, weak)

	scores := Compute(rows)

	jp := hypergeom.JointProbability(weak.K1, weak.K2)
	wGlobal := 2 * jp // sole archetype carrying this bigram: |F(b)| == 1
	pMaxGlobal := 0.0
	for _, r := range rows {
		if n := hypergeom.Normalizer(r.K1, r.K2); n > pMaxGlobal {
			pMaxGlobal = n
		}
	}
	want := wGlobal / pMaxGlobal
	if want > 1 {
		want = 1
	}

	var found bool
	for _, s := range scores {
		if s.Archetype != "Azorius Control" {
			continue
		}
		found = true
		if diff := s.Value - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Azorius Control score = %f, want %f (pass 2 never touched it)", s.Value, want)
		}
	}
	if want > MinScore && !found {
		t.Fatalf("expected Azorius Control to appear with score %f", want)
	}
}

// TestCompute_NonCandidateSharingCandidateBigramKeepsGlobalOnlyScore pins
// the property that any archetype outside the candidate set ends pass 2
// with W_local == 0, even when one of its bigrams is also carried by a
// candidate archetype. A non-candidate's row within such a bigram's
// cohort is simply skipped in pass 2 (mirroring find_nearest_archetypes
// in the original implementation, where the pass-2 loop only ever
// iterates bigrams already filtered down to the candidate set, so a
// branch testing "archetype not in candidates" inside that loop can
// never fire) rather than being penalized.
func TestCompute_NonCandidateSharingCandidateBigramKeepsGlobalOnlyScore(t *testing.T) {
	dominant := exclusiveBigrams("Mono Red", 15, 4, 4)
	shared := Row{Archetype: "Mono Red", Card1: "Bolt", Card2: "Mountain", K1: 4, K2: 16}
	fringe := Row{Archetype: "Dredge", Card1: "Bolt", Card2: "Mountain", K1: 1, K2: 1}
	rows := append(dominant, shared, fringe)

	scores := Compute(rows)

	jp := hypergeom.JointProbability(fringe.K1, fringe.K2)
	wGlobal := jp // cohort size 2 for this bigram, so w1 == 1
	pMaxGlobal := 0.0
	for _, r := range rows {
		if n := hypergeom.Normalizer(r.K1, r.K2); n > pMaxGlobal {
			pMaxGlobal = n
		}
	}
	want := wGlobal / pMaxGlobal
	if want > 1 {
		want = 1
	}

	var found bool
	for _, s := range scores {
		if s.Archetype != "Dredge" {
			continue
		}
		found = true
		if diff := s.Value - want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("Dredge score = %f, want %f (pass 2 must not touch a non-candidate's weight)", s.Value, want)
		}
	}
	if want > MinScore && !found {
		t.Fatalf("expected Dredge to appear with score %f", want)
	}
}

func TestCompute_SingleArchetypeSingleBigram(t *testing.T) {
	rows := []Row{
		{Archetype: "Solo", Card1: "A", Card2: "B", K1: 2, K2: 2},
	}
	scores := Compute(rows)
	if len(scores) != 1 || scores[0].Archetype != "Solo" {
		t.Fatalf("expected single Solo entry, got %+v", scores)
	}
}
