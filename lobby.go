package main

const (
	mapCount    = 8
	slotsPerMap = 4
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotWaiting
	slotReady
)

// lobbySlots tracks who is queued on one map and whether they have readied
// up. Slots are 0-based here; the protocol's 1-based numbers are converted
// at the dispatch boundary.
type lobbySlots struct {
	occupants [slotsPerMap]uint32
	states    [slotsPerMap]slotState
}

// raceReady reports whether the map can start: nobody still waiting and at
// least one occupant ready.
func (l *lobbySlots) raceReady() bool {
	ready := false
	for _, st := range l.states {
		switch st {
		case slotWaiting:
			return false
		case slotReady:
			ready = true
		}
	}
	return ready
}

// drain copies every ready occupant into a new race instance, slot for slot,
// and clears all four slots. Occupants still waiting are evicted outright:
// they neither carry over into the race nor stay queued.
func (l *lobbySlots) drain() raceInstance {
	var r raceInstance
	for i, st := range l.states {
		if st == slotReady {
			r.occupants[i] = l.occupants[i]
			r.totalPlayers++
		}
	}
	l.occupants = [slotsPerMap]uint32{}
	l.states = [slotsPerMap]slotState{}
	return r
}

// clear resets one slot (0-based) to empty.
func (l *lobbySlots) clear(slot int) {
	l.occupants[slot] = 0
	l.states[slot] = slotEmpty
}
