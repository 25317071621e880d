package models

import (
	"fmt"
	"math"
	"sort"
)

// NormalizedBracketSizes are the elimination bracket sizes considered when
// building the placing ladder. 2^16 entrants is past any real tournament.
var NormalizedBracketSizes = func() []int {
	sizes := make([]int, 0, 15)
	for n := 1; n <= 15; n++ {
		sizes = append(sizes, 1<<n)
	}
	return sizes
}()

// PossiblePlacings is the ascending sequence of placings attainable in an
// elimination bracket of any supported size: 1st, 2nd, then each tier
// boundary n+1 and floor(1.5n)+1 per bracket size n. Never mutated.
var PossiblePlacings = func() []int {
	placings := []int{1, 2}
	for _, n := range NormalizedBracketSizes {
		placings = append(placings, n+1, n*3/2+1)
	}
	sort.Ints(placings)
	return placings
}()

// RoundsFromVictory normalizes a placing or seed into a count of
// elimination rounds away from winning: 1st and 2nd place are both zero
// rounds out (they met in the final), each further tier adds one. The
// mapping is a monotone step function; placings inside a tier (9 through
// 12, say) share a value. Used for seeding comparisons and upset factor.
func RoundsFromVictory(placing int) int {
	if placing <= 2 {
		return 0
	}
	// Index of the greatest attainable placing not exceeding the input,
	// shifted down one so the 1/2 tier counts as a single round.
	idx := sort.SearchInts(PossiblePlacings, placing+1) - 1
	return idx - 1
}

// UpsetFactor measures how big an upset a win was given both players'
// seeds (or placings): positive when the winner was seeded further from
// victory than the loser, negative when the favourite won.
// See https://www.pgstats.com/articles/introducing-spr-and-uf
func UpsetFactor(winnerSeed, loserSeed int) int {
	return RoundsFromVictory(winnerSeed) - RoundsFromVictory(loserSeed)
}

// RoundsCleared is how many rounds a result cleared relative to the worst
// possible placing for the event size: it grows with better placings and
// with bigger events, making results comparable across event sizes.
func RoundsCleared(placing, totalEntrants int) int {
	return RoundsFromVictory(totalEntrants) - RoundsFromVictory(placing)
}

// PoolDrownedPlacing maps a placing inside a qualifying pool onto a
// tournament-wide comparable placing for a player eliminated there.
// Placings of drowned players are spread proportionally across the ladder
// slice between the best placing available to anyone who failed to
// advance and the worst possible placing in the tournament.
func PoolDrownedPlacing(poolPlacing, advancePerPool, poolCount, poolEntrants, totalEntrants int) (int, error) {
	if poolPlacing <= advancePerPool {
		return 0, fmt.Errorf("placing %d advanced from its pool (top %d advance)", poolPlacing, advancePerPool)
	}
	if poolEntrants <= advancePerPool {
		return 0, fmt.Errorf("pool of %d cannot advance %d players", poolEntrants, advancePerPool)
	}

	bestDrowned := advancePerPool*poolCount + 1
	worst := totalEntrants

	lo := sort.SearchInts(PossiblePlacings, bestDrowned)
	hi := sort.SearchInts(PossiblePlacings, worst+1) - 1

	// Clamp to valid ladder bounds
	if lo > len(PossiblePlacings)-1 {
		lo = len(PossiblePlacings) - 1
	}
	if hi < 0 {
		hi = 0
	}
	if hi > len(PossiblePlacings)-1 {
		hi = len(PossiblePlacings) - 1
	}
	if lo > hi {
		lo = hi
	}

	rank := poolPlacing - advancePerPool
	drownedPerPool := poolEntrants - advancePerPool

	frac := float64(rank) / float64(drownedPerPool)
	idx := lo + int(math.Round(frac*float64(hi-lo)))
	if idx < lo {
		idx = lo
	}
	if idx > hi {
		idx = hi
	}

	return PossiblePlacings[idx], nil
}
