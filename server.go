package main

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// client pairs a live connection with the player registered on it. player
// stays nil until the connection's first valid identity message.
type client struct {
	conn   conner
	player *player
}

// server owns all game state. Every field below is touched only by the
// goroutine running the state loop in run(); the accept loop and the
// per-connection readers hand it work as closures, so one message is always
// handled to completion before the next.
type server struct {
	log *zap.Logger
	cfg config

	clients map[uint32]*client
	lobbies [mapCount]lobbySlots
	races   racePool
	chat    chatHistory
}

func newServer(cfg config, log *zap.Logger) *server {
	return &server{
		log:     log,
		cfg:     cfg,
		clients: make(map[uint32]*client),
	}
}

// run binds the game port and serves until the listener dies. Only the
// initial bind/listen failure is fatal to the caller.
func (s *server) run() error {
	addr := net.JoinHostPort(s.cfg.IP, strconv.Itoa(s.cfg.Port))
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer l.Close()
	s.log.Info("server is up", zap.String("addr", l.Addr().String()))

	state := make(chan func(*server))
	go func() {
		for fn := range state {
			fn(s)
		}
	}()

	var nextID uint32
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			s.log.Warn("accept failed", zap.Error(err))
			continue
		}

		nextID++
		gc := newGameConn(nextID, conn, s.log)
		connectionsAccepted.Inc()
		s.log.Info("accepted connection",
			zap.Uint32("conn", gc.id), zap.String("remote", conn.RemoteAddr().String()))

		state <- func(s *server) { s.clients[gc.id] = &client{conn: gc} }
		go readLoop(gc, state)
	}
}

// readLoop moves inbound frames from one connection onto the state loop. Any
// read error, EOF and oversized frames included, tears the connection down.
func readLoop(c *gameConn, state chan<- func(*server)) {
	for {
		msg, err := c.read()
		if err != nil {
			state <- func(s *server) {
				if _, ok := s.clients[c.id]; !ok {
					return // already disconnected by the dispatcher
				}
				if err != io.EOF {
					s.log.Warn("read failed", zap.Uint32("conn", c.id), zap.Error(err))
				}
				s.disconnect(c.id)
			}
			return
		}
		state <- func(s *server) { s.handle(c.id, msg) }
	}
}

// handle interprets one inbound message. The first byte selects behavior; a
// connection must register a valid player before any tag other than 'n' is
// accepted.
func (s *server) handle(id uint32, msg string) {
	cl, ok := s.clients[id]
	if !ok || msg == "" {
		return
	}
	tag := msg[0]
	messagesReceived.WithLabelValues(string(tag)).Inc()
	s.log.Debug("<-", zap.Uint32("conn", id), zap.String("msg", msg))

	if tag == 'n' {
		s.handleIdentity(cl, id, msg)
		return
	}
	if cl.player == nil {
		s.log.Warn("request before player data, closing connection",
			zap.Uint32("conn", id), zap.String("msg", msg))
		protocolViolations.Inc()
		s.disconnect(id)
		return
	}

	switch tag {
	case 'o':
		s.handleLobbyView(cl, id)
	case '^':
		s.handleChat(cl, id, msg)
	case 'j':
		s.handleSlotRequest(cl, id, msg)
	case 'r':
		s.handleReady(cl, id)
	case '#':
		s.handleRaceTraffic(cl, id, msg)
	case '%':
		if len(msg) >= 2 && msg[1] == 'f' {
			// finish time goes to everyone in the race, sender included
			s.relayToRace(cl.player.roomID, id, msg[1:], true)
		} else {
			s.log.Info("unrecognized message", zap.Uint32("conn", id), zap.String("msg", msg))
		}
	case 'b':
		s.handleRankUpdate(cl, id)
	case 'a':
		// heartbeat
	default:
		s.log.Info("unrecognized message", zap.Uint32("conn", id), zap.String("msg", msg))
	}
}

// handleIdentity registers a player on first success and updates the profile
// on later ones. A declared rank that disagrees with the stored one is
// treated as tampering.
func (s *server) handleIdentity(cl *client, id uint32, msg string) {
	p, err := parsePlayer(msg)
	if err != nil {
		s.log.Warn("suspicious player data, closing connection",
			zap.Uint32("conn", id), zap.Error(err))
		protocolViolations.Inc()
		s.disconnect(id)
		return
	}

	if cl.player == nil {
		cl.player = &p
		playersOnline.Inc()
		cl.conn.send("i" + strconv.FormatUint(uint64(id), 10))
		s.log.Info("player registered", zap.Uint32("conn", id), zap.String("name", p.Name))
		return
	}

	if cl.player.Rank != p.Rank {
		s.log.Warn("rank mismatch on profile update, closing connection",
			zap.Uint32("conn", id), zap.String("name", cl.player.Name))
		protocolViolations.Inc()
		s.disconnect(id)
		return
	}

	p.roomID, p.raceMap, p.raceSlot = cl.player.roomID, cl.player.raceMap, cl.player.raceSlot
	*cl.player = p
	s.broadcastLobby(cl.player.profileLine(id))
}

// handleLobbyView serves the 'o' request: everyone learns about the
// requester, the requester learns about everyone, then gets the motd and the
// chat backlog.
func (s *server) handleLobbyView(cl *client, id uint32) {
	if cl.player.roomID != 0 { // back from a race
		s.leaveRace(id, cl.player)
	}

	s.broadcastAll(cl.player.profileLine(id))

	for otherID, other := range s.clients {
		if otherID == id || other.player == nil {
			continue
		}
		cl.conn.send(other.player.profileLine(otherID))
		if other.player.queued() {
			cl.conn.send(fmt.Sprintf("j%d%s%d%s%d",
				other.player.raceMap, sep, other.player.raceSlot, sep, otherID))
			if s.lobbies[other.player.raceMap-1].states[other.player.raceSlot-1] == slotReady {
				cl.conn.send("r" + strconv.FormatUint(uint64(otherID), 10))
			}
		}
	}

	if s.cfg.MOTD != "" {
		cl.conn.send(s.cfg.MOTD)
	}
	for _, line := range s.chat.lines {
		cl.conn.send(line)
	}
}

// handleChat stamps the sender onto the message, stores it, and relays it to
// everyone sharing the sender's room. The lobby is room 0 and chats like any
// other.
func (s *server) handleChat(cl *client, id uint32, msg string) {
	line := "^" + strconv.FormatUint(uint64(id), 10) + sep + cl.player.Name + sep + msg[1:]
	s.chat.add(line)
	chatLines.Inc()

	for _, other := range s.clients {
		if other.player != nil && other.player.roomID == cl.player.roomID {
			other.conn.send(line)
		}
	}
	s.log.Info("chat",
		zap.String("name", cl.player.Name), zap.Uint32("conn", id), zap.String("text", msg[1:]))
}

// handleSlotRequest runs the join/switch/leave state machine for 'j'. A
// request whose map/slot fields parse out of range is the client's leave
// signal; everything else that can't be honored is silently ignored, the
// client enforces its own UI constraints.
func (s *server) handleSlotRequest(cl *client, id uint32, msg string) {
	p := cl.player
	mapField, slotField, _ := strings.Cut(msg[1:], sep)
	raceMap := parseInt(mapField)
	raceSlot := parseInt(slotField)

	raceStart := 0
	if raceMap >= 1 && raceMap <= mapCount && raceSlot >= 1 && raceSlot <= slotsPerMap {
		lobby := &s.lobbies[raceMap-1]
		if lobby.occupants[raceSlot-1] != 0 || p.Rank < entryRanks[raceMap] {
			return
		}

		if p.raceMap > 0 && p.raceSlot > 0 { // switching: vacate the old slot first
			old := &s.lobbies[p.raceMap-1]
			old.clear(p.raceSlot - 1)
			if old.raceReady() {
				raceStart = p.raceMap
			}
		}

		p.raceMap, p.raceSlot = raceMap, raceSlot
		lobby.occupants[raceSlot-1] = id
		lobby.states[raceSlot-1] = slotWaiting
		s.broadcastLobby(fmt.Sprintf("j%d%s%d%s%d", raceMap, sep, raceSlot, sep, id))
	} else if p.raceMap > 0 && p.raceSlot > 0 &&
		s.lobbies[p.raceMap-1].occupants[p.raceSlot-1] == id {

		s.lobbies[p.raceMap-1].clear(p.raceSlot - 1)
		if s.lobbies[p.raceMap-1].raceReady() {
			raceStart = p.raceMap
		}
		p.raceMap, p.raceSlot = 0, 0
		s.broadcastLobby(fmt.Sprintf("jnone%snone%s%d", sep, sep, id))
	}

	if raceStart > 0 {
		s.startRace(raceStart)
	}
}

// handleReady marks the sender's slot ready and starts the race if that made
// the map race-ready. Only meaningful while queued.
func (s *server) handleReady(cl *client, id uint32) {
	p := cl.player
	if !p.queued() {
		return
	}
	s.lobbies[p.raceMap-1].states[p.raceSlot-1] = slotReady
	s.broadcastLobby("r" + strconv.FormatUint(uint64(id), 10))

	if s.lobbies[p.raceMap-1].raceReady() {
		s.startRace(p.raceMap)
	}
}

// handleRaceTraffic relays gameplay frames ('#q' telemetry, '#t' inputs,
// '#k' item pickups) to the other race occupants with the hash stripped, and
// runs the voluntary exit for '#s'.
func (s *server) handleRaceTraffic(cl *client, id uint32, msg string) {
	if len(msg) < 2 {
		s.log.Info("unrecognized message", zap.Uint32("conn", id), zap.String("msg", msg))
		return
	}
	switch msg[1] {
	case 'q', 't', 'k':
		s.relayToRace(cl.player.roomID, id, msg[1:], false)
	case 's':
		if cl.player.roomID != 0 {
			s.leaveRace(id, cl.player)
		}
	default:
		s.log.Info("unrecognized message", zap.Uint32("conn", id), zap.String("msg", msg))
	}
}

// handleRankUpdate pays out the next finisher's rank and broadcasts the
// updated profile to the lobby plus the finisher themselves.
func (s *server) handleRankUpdate(cl *client, id uint32) {
	p := cl.player
	if p.roomID == 0 {
		return
	}
	race := s.races.get(p.roomID)
	if race == nil {
		return
	}

	p.Rank += race.awardRank(p.raceMap)
	line := p.profileLine(id)
	for otherID, other := range s.clients {
		if other.player != nil && (other.player.roomID == 0 || otherID == id) {
			other.conn.send(line)
		}
	}
}

// relayToRace forwards a frame to the occupants of a race, skipping the
// sender unless includeSender is set.
func (s *server) relayToRace(roomID int, sender uint32, msg string, includeSender bool) {
	race := s.races.get(roomID)
	if race == nil {
		return
	}
	for _, occ := range race.occupants {
		if occ == 0 || (!includeSender && occ == sender) {
			continue
		}
		if other, ok := s.clients[occ]; ok {
			other.conn.send(msg)
		}
	}
}

// startRace drains the map's lobby into the pool and moves every lobby
// player queued on that map into the new room. Everyone else in the lobby is
// told to clear their view of that map's slots.
func (s *server) startRace(raceMap int) {
	raceID := s.races.allocate(s.lobbies[raceMap-1].drain())
	racesStarted.Inc()
	racesActive.Set(float64(s.races.active()))
	s.log.Info("race started", zap.Int("map", raceMap), zap.Int("race", raceID))

	enter := "m" + strconv.Itoa(raceMap)
	clearUI := "z" + strconv.Itoa(raceMap)
	for _, cl := range s.clients {
		if cl.player == nil || cl.player.roomID != 0 {
			continue
		}
		if cl.player.raceMap == raceMap {
			cl.player.roomID = raceID
			cl.conn.send(enter)
		} else {
			cl.conn.send(clearUI)
		}
	}
}

// leaveRace removes a player from their current race, tells the remaining
// occupants, and releases the instance once the last occupant is gone.
func (s *server) leaveRace(id uint32, p *player) {
	raceID := p.roomID
	p.roomID, p.raceMap, p.raceSlot = 0, 0, 0

	race := s.races.get(raceID)
	if race == nil {
		return
	}

	notice := "s" + strconv.FormatUint(uint64(id), 10)
	nowEmpty := true
	for i, occ := range race.occupants {
		switch {
		case occ == id:
			race.occupants[i] = 0
		case occ != 0:
			nowEmpty = false
			if other, ok := s.clients[occ]; ok {
				other.conn.send(notice)
			}
		}
	}

	if nowEmpty {
		s.races.release(raceID)
		racesActive.Set(float64(s.races.active()))
	}
}

// disconnect tears a connection down and unwinds whatever lobby slot or race
// the registered player held. Vacating a lobby slot re-evaluates that map's
// readiness, so a disconnecting holdout can still start the race.
func (s *server) disconnect(id uint32) {
	cl, ok := s.clients[id]
	if !ok {
		return
	}
	delete(s.clients, id)
	if err := cl.conn.close(); err != nil {
		s.log.Debug("close failed", zap.Uint32("conn", id), zap.Error(err))
	}
	s.log.Info("closed connection", zap.Uint32("conn", id))

	p := cl.player
	if p == nil {
		return
	}
	playersOnline.Dec()

	if p.raceMap != 0 && p.raceSlot != 0 {
		if p.roomID == 0 {
			s.lobbies[p.raceMap-1].clear(p.raceSlot - 1)
			if s.lobbies[p.raceMap-1].raceReady() {
				s.startRace(p.raceMap)
			}
		} else {
			s.leaveRace(id, p)
		}
	}

	s.broadcastAll("d" + strconv.FormatUint(uint64(id), 10))
}

// broadcastLobby sends to every registered player who is not racing.
func (s *server) broadcastLobby(msg string) {
	for _, cl := range s.clients {
		if cl.player != nil && cl.player.roomID == 0 {
			cl.conn.send(msg)
		}
	}
}

// broadcastAll sends to every registered player, racing or not.
func (s *server) broadcastAll(msg string) {
	for _, cl := range s.clients {
		if cl.player != nil {
			cl.conn.send(msg)
		}
	}
}
