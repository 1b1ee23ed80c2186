package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Recorder archives finished games. It runs off the room lock.
type Recorder interface {
	Record(ctx context.Context, rec GameRecord) error
}

// Registry owns every live room, keyed by room code.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	notifier   Notifier
	scheduler  Scheduler
	recorder   Recorder
	timings    Timings
	rnd        randomizer
	now        func() time.Time
	minPlayers int
}

func NewRegistry(n Notifier, t Timings) *Registry {
	if n == nil {
		n = nopNotifier{}
	}
	return &Registry{
		rooms:      make(map[string]*Room),
		notifier:   n,
		scheduler:  wallScheduler{},
		timings:    t,
		rnd:        defaultRand(),
		now:        time.Now,
		minPlayers: MinPlayers,
	}
}

func (g *Registry) SetScheduler(s Scheduler) { g.scheduler = s }
func (g *Registry) SetRecorder(r Recorder) { g.recorder = r }
func (g *Registry) SetClock(now func() time.Time) { g.now = now }
func (g *Registry) SetSeed(seed int64) { g.rnd = newLockedRand(seed) }
func (g *Registry) SetNotifier(n Notifier) { g.notifier = n }

// SetMinPlayers changes the start threshold, clamped to the supported [3, 6].
func (g *Registry) SetMinPlayers(n int) {
	if n < MinPlayers {
		n = MinPlayers
	}
	if n > MaxPlayers {
		n = MaxPlayers
	}
	g.minPlayers = n
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (g *Registry) lookup(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.rooms[normalizeCode(code)]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// withRoom runs fn with the room locked. fn must not touch the registry map.
func (g *Registry) withRoom(code string, fn func(r *Room) error) error {
	r, err := g.lookup(code)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	return fn(r)
}

func (g *Registry) newPlayer(id, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Color:    randomColor(g.rnd),
		Location: EntranceLocation,
	}
}

func (g *Registry) broadcast(r *Room, event string, payload any) {
	g.notifier.Notify(r.ids(), event, payload)
}

func (g *Registry) broadcastExcept(r *Room, exceptID, event string, payload any) {
	to := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p.ID != exceptID {
			to = append(to, p.ID)
		}
	}
	g.notifier.Notify(to, event, payload)
}

func (g *Registry) send(playerID, event string, payload any) {
	g.notifier.Notify([]string{playerID}, event, payload)
}

// CreateRoom opens a lobby with the caller as its only player and host.
func (g *Registry) CreateRoom(playerID, name string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, ErrInvalidName
	}
	host := g.newPlayer(playerID, name)
	host.IsHost = true

	g.mu.Lock()
	code := randomCode(g.rnd)
	for g.rooms[code] != nil {
		code = randomCode(g.rnd)
	}
	r := newRoom(code, host, freshTasks(g.rnd))
	g.rooms[code] = r
	g.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	g.send(playerID, EventRoomCreated, RoomPayload{RoomID: code, HostID: playerID, Players: r.roster()})
	log.Info().Str("code", code).Str("playerId", playerID).Str("name", name).Msg("room created")
	return r.snapshot(g.now()), nil
}

// JoinRoom appends a player to a lobby and returns the roster they joined.
func (g *Registry) JoinRoom(playerID, name, code string) (Snapshot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Snapshot{}, ErrInvalidName
	}
	var snap Snapshot
	err := g.withRoom(code, func(r *Room) error {
		if r.Phase != PhaseLobby {
			return ErrGameInProgress
		}
		if len(r.Players) >= MaxPlayers {
			return ErrRoomFull
		}
		if r.player(playerID) != nil {
			return ErrAlreadyInRoom
		}
		r.Players = append(r.Players, g.newPlayer(playerID, name))
		roster := r.roster()
		g.send(playerID, EventJoinedRoom, RoomPayload{RoomID: r.ID, HostID: r.HostID, Players: roster})
		g.broadcastExcept(r, playerID, EventPlayerJoined, RosterPayload{Players: roster})
		g.systemMessage(r, fmt.Sprintf("%s joined the crew.", name))
		log.Info().Str("code", r.ID).Str("playerId", playerID).Str("name", name).Msg("player joined")
		snap = r.snapshot(g.now())
		return nil
	})
	return snap, err
}

// LeaveRoom removes a player; the last one out destroys the room.
func (g *Registry) LeaveRoom(playerID, code string) error {
	r, err := g.lookup(code)
	if err != nil {
		return err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomNotFound
	}
	i := r.indexOf(playerID)
	if i < 0 {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	emptied := g.removePlayer(r, i)
	r.mu.Unlock()

	if emptied {
		g.mu.Lock()
		if g.rooms[r.ID] == r {
			delete(g.rooms, r.ID)
		}
		g.mu.Unlock()
		log.Info().Str("code", r.ID).Msg("room removed")
	}
	return nil
}

// Disconnect drops a connection from every room it belongs to and returns their codes.
func (g *Registry) Disconnect(playerID string) []string {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	var left []string
	for _, r := range rooms {
		r.mu.Lock()
		member := !r.closed && r.indexOf(playerID) >= 0
		r.mu.Unlock()
		if !member {
			continue
		}
		if err := g.LeaveRoom(playerID, r.ID); err == nil {
			left = append(left, r.ID)
		}
	}
	return left
}

// removePlayer reports whether the room is now empty. Caller holds r.mu.
func (g *Registry) removePlayer(r *Room, i int) bool {
	p := r.Players[i]
	r.Players = append(r.Players[:i:i], r.Players[i+1:]...)
	delete(r.votes, p.ID)
	log.Info().Str("code", r.ID).Str("playerId", p.ID).Str("name", p.Name).Msg("player left")

	if len(r.Players) == 0 {
		r.cancelTimer()
		r.closed = true
		return true
	}

	if p.IsHost {
		next := r.Players[0]
		next.IsHost = true
		r.HostID = next.ID
		g.broadcast(r, EventNewHost, HostPayload{HostID: next.ID, Name: next.Name})
		g.send(next.ID, EventBecameHost, HostPayload{HostID: next.ID, Name: next.Name})
		log.Info().Str("code", r.ID).Str("playerId", next.ID).Msg("host reassigned")
	}
	g.broadcast(r, EventPlayerLeft, RosterPayload{Players: r.roster(), HostID: r.HostID})
	g.systemMessage(r, fmt.Sprintf("%s left the crew.", p.Name))

	if !r.Phase.InGame() || p.Banished {
		return false
	}
	if w, ok := rosterWinner(r); ok {
		g.endGame(r, w)
		return false
	}
	if r.Phase == PhaseVoting && allVoted(r) {
		r.cancelTimer()
		g.resolveVotes(r)
	}
	return false
}

// Snapshot returns the public state of one room.
func (g *Registry) Snapshot(code string) (Snapshot, error) {
	var snap Snapshot
	err := g.withRoom(code, func(r *Room) error {
		snap = r.snapshot(g.now())
		return nil
	})
	return snap, err
}

// Rooms lists every live room ordered by code.
func (g *Registry) Rooms() []Snapshot {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]Snapshot, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.closed {
			out = append(out, r.snapshot(g.now()))
		}
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// Shutdown disarms every timer and forgets all rooms.
func (g *Registry) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for code, r := range g.rooms {
		r.mu.Lock()
		r.cancelTimer()
		r.closed = true
		r.mu.Unlock()
		delete(g.rooms, code)
	}
}
