package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaceReady(t *testing.T) {
	tests := []struct {
		name   string
		states [slotsPerMap]slotState
		want   bool
	}{
		{"all empty", [slotsPerMap]slotState{}, false},
		{"single waiting", [slotsPerMap]slotState{slotWaiting}, false},
		{"waiting blocks ready slots", [slotsPerMap]slotState{slotReady, slotReady, slotWaiting}, false},
		{"single ready", [slotsPerMap]slotState{slotEmpty, slotReady}, true},
		{"all ready", [slotsPerMap]slotState{slotReady, slotReady, slotReady, slotReady}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := lobbySlots{states: tt.states}
			assert.Equal(t, tt.want, l.raceReady())
		})
	}
}

func TestDrain(t *testing.T) {
	l := lobbySlots{
		occupants: [slotsPerMap]uint32{11, 22, 33, 0},
		states:    [slotsPerMap]slotState{slotReady, slotWaiting, slotReady, slotEmpty},
	}

	r := l.drain()

	// only ready occupants carry over, slot for slot
	assert.Equal(t, [slotsPerMap]uint32{11, 0, 33, 0}, r.occupants)
	assert.Equal(t, 2, r.totalPlayers)
	assert.False(t, r.empty)

	// every slot is cleared, the waiting occupant included
	assert.Equal(t, [slotsPerMap]uint32{}, l.occupants)
	assert.Equal(t, [slotsPerMap]slotState{}, l.states)
	assert.False(t, l.raceReady())
}
