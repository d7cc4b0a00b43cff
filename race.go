package main

import "math"

// Rank multiplier per map, indexed by map number.
var rankMultipliers = [mapCount + 1]float64{
	0,
	1, // Newbieland
	3, // Buto
	5, // Pyramids
	2, // Robocity
	5, // Assembly
	8, // Infernal Hop
	3, // Going Down
	7, // Slip
}

// raceInstance is one in-progress race: the connection ids racing it, slot
// for slot, and the running finisher count.
type raceInstance struct {
	occupants    [slotsPerMap]uint32
	totalPlayers int
	finished     int
	empty        bool
}

// awardRank records one more finisher and returns the rank earned: the
// payout halves with every finish, scaled by the map's multiplier.
func (r *raceInstance) awardRank(raceMap int) float64 {
	r.finished++
	return float64(r.totalPlayers) / math.Pow(2, float64(r.finished)) * rankMultipliers[raceMap]
}

// racePool holds the active races. Emptied entries are reused before the
// pool grows, and trailing empties are pruned on release, so the slice
// length stays close to the number of live races under churn.
type racePool struct {
	races []raceInstance
}

// allocate stores a freshly drained race, reusing the first empty entry if
// one exists, and returns its 1-based id.
func (p *racePool) allocate(r raceInstance) int {
	for i := range p.races {
		if p.races[i].empty {
			p.races[i] = r
			return i + 1
		}
	}
	p.races = append(p.races, r)
	return len(p.races)
}

// get returns the race with the given id, or nil if the id does not name a
// live race.
func (p *racePool) get(id int) *raceInstance {
	if id < 1 || id > len(p.races) || p.races[id-1].empty {
		return nil
	}
	return &p.races[id-1]
}

// release marks a race empty and pops trailing empty entries. Holes in front
// of a live race are left for allocate to reuse.
func (p *racePool) release(id int) {
	p.races[id-1].empty = true
	for n := len(p.races); n > 0 && p.races[n-1].empty; n = len(p.races) {
		p.races = p.races[:n-1]
	}
}

// active counts the races still occupied.
func (p *racePool) active() int {
	n := 0
	for i := range p.races {
		if !p.races[i].empty {
			n++
		}
	}
	return n
}
