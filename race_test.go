package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwardRank(t *testing.T) {
	r := raceInstance{totalPlayers: 4}
	assert.Equal(t, 2.0, r.awardRank(1)) // 4 / 2^1 * 1
	assert.Equal(t, 1.0, r.awardRank(1)) // 4 / 2^2 * 1

	r = raceInstance{totalPlayers: 2}
	assert.Equal(t, 8.0, r.awardRank(6)) // 2 / 2^1 * 8
}

func TestRacePoolReuse(t *testing.T) {
	var p racePool

	assert.Equal(t, 1, p.allocate(raceInstance{totalPlayers: 1}))
	assert.Equal(t, 2, p.allocate(raceInstance{totalPlayers: 2}))
	assert.Equal(t, 3, p.allocate(raceInstance{totalPlayers: 3}))

	// a hole in the middle is reused before the pool grows
	p.release(2)
	assert.Nil(t, p.get(2))
	assert.Equal(t, 2, p.allocate(raceInstance{totalPlayers: 4}))
	require.NotNil(t, p.get(2))
	assert.Equal(t, 4, p.get(2).totalPlayers)
	assert.Equal(t, 3, len(p.races))
}

func TestRacePoolTrailingPrune(t *testing.T) {
	var p racePool
	p.allocate(raceInstance{totalPlayers: 1})
	p.allocate(raceInstance{totalPlayers: 2})
	p.allocate(raceInstance{totalPlayers: 3})

	// releasing the tail pops it immediately
	p.release(3)
	assert.Equal(t, 2, len(p.races))

	// releasing id 2 leaves only the live id 1
	p.release(2)
	assert.Equal(t, 1, len(p.races))
	require.NotNil(t, p.get(1))
	assert.Equal(t, 1, p.get(1).totalPlayers)
	assert.Equal(t, 1, p.active())
}

func TestRacePoolHoleThenTailRelease(t *testing.T) {
	var p racePool
	p.allocate(raceInstance{totalPlayers: 1})
	p.allocate(raceInstance{totalPlayers: 2})
	p.allocate(raceInstance{totalPlayers: 3})

	// a mid-pool hole stays until the entries behind it drain too
	p.release(2)
	assert.Equal(t, 3, len(p.races))
	p.release(3)
	assert.Equal(t, 1, len(p.races))
}

func TestRacePoolGetBounds(t *testing.T) {
	var p racePool
	assert.Nil(t, p.get(0))
	assert.Nil(t, p.get(1))
	p.allocate(raceInstance{totalPlayers: 1})
	assert.NotNil(t, p.get(1))
	assert.Nil(t, p.get(2))
}
