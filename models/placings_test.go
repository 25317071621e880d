package models

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPossiblePlacingsStrictlyIncreasing(t *testing.T) {
	require.True(t, sort.IntsAreSorted(PossiblePlacings))
	for i := 1; i < len(PossiblePlacings); i++ {
		assert.Greater(t, PossiblePlacings[i], PossiblePlacings[i-1])
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49}, PossiblePlacings[:12])
}

func TestRoundsFromVictoryFirstAndSecondShareTierZero(t *testing.T) {
	assert.Equal(t, 0, RoundsFromVictory(1))
	assert.Equal(t, 0, RoundsFromVictory(2))
	assert.Equal(t, 1, RoundsFromVictory(3))
}

func TestRoundsFromVictoryIsMonotone(t *testing.T) {
	previous := RoundsFromVictory(1)
	for placing := 2; placing <= 2000; placing++ {
		current := RoundsFromVictory(placing)
		assert.GreaterOrEqual(t, current, previous, "placing %d", placing)
		previous = current
	}
}

func TestRoundsFromVictoryTierBoundaries(t *testing.T) {
	// In a 16-entrant bracket, 9th through 12th all lose in the same
	// round; 13th is the next tier boundary.
	for placing := 9; placing <= 12; placing++ {
		assert.Equal(t, RoundsFromVictory(9), RoundsFromVictory(placing), "placing %d", placing)
	}
	assert.Equal(t, RoundsFromVictory(9)+1, RoundsFromVictory(13))
}

func TestUpsetFactor(t *testing.T) {
	// Seed 33 beating seed 4 is a big upset; the reverse is negative
	assert.Positive(t, UpsetFactor(33, 4))
	assert.Negative(t, UpsetFactor(4, 33))
	assert.Equal(t, UpsetFactor(33, 4), -UpsetFactor(4, 33))
	assert.Zero(t, UpsetFactor(1, 2))
}

func TestRoundsCleared(t *testing.T) {
	// Winning clears everything; placing last clears nothing
	assert.Equal(t, RoundsFromVictory(64), RoundsCleared(1, 64))
	assert.Zero(t, RoundsCleared(64, 64))
	assert.Greater(t, RoundsCleared(5, 64), RoundsCleared(9, 64))
}

func TestPoolDrownedPlacing(t *testing.T) {
	// 8 pools of 12, top 4 advance: 32 advance, drowned players spread
	// over placings 33..96.
	best, err := PoolDrownedPlacing(5, 4, 8, 12, 96)
	require.NoError(t, err)
	worst, err := PoolDrownedPlacing(12, 4, 8, 12, 96)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, best, 33)
	assert.LessOrEqual(t, worst, 96)
	assert.LessOrEqual(t, best, worst)
	assert.Contains(t, PossiblePlacings, best)
	assert.Contains(t, PossiblePlacings, worst)
}

func TestPoolDrownedPlacingRejectsAdvancedPlayers(t *testing.T) {
	_, err := PoolDrownedPlacing(3, 4, 8, 12, 96)
	assert.Error(t, err, "a placing that advanced has a real bracket placing instead")

	_, err = PoolDrownedPlacing(7, 6, 8, 6, 96)
	assert.Error(t, err, "a pool cannot advance more players than it holds")
}
