package game

import (
	"sync"
	"time"
)

// Room is one game session. Every field is guarded by mu.
type Room struct {
	ID           string
	HostID       string
	Players      []*Player
	Phase        Phase
	Tasks        TaskState
	PhaseEndTime time.Time

	votes      map[string]Vote
	revealUsed map[string]bool
	chat       *chatLog

	// phaseTimer is the single armed timeout; timerSeq invalidates callbacks
	// whose Stop lost the race against firing.
	phaseTimer Timer
	timerSeq   uint64

	// closed is set once the last player leaves, before the registry entry is dropped.
	closed bool

	mu sync.Mutex
}

func newRoom(code string, host *Player, tasks TaskState) *Room {
	return &Room{
		ID:         code,
		HostID:     host.ID,
		Players:    []*Player{host},
		Phase:      PhaseLobby,
		Tasks:      tasks,
		votes:      make(map[string]Vote),
		revealUsed: make(map[string]bool),
		chat:       newChatLog(ChatHistoryLimit),
	}
}

func (r *Room) indexOf(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) player(id string) *Player {
	if i := r.indexOf(id); i >= 0 {
		return r.Players[i]
	}
	return nil
}

func (r *Room) ids() []string {
	out := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p.ID)
	}
	return out
}

func (r *Room) roster() []PublicPlayer {
	out := make([]PublicPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p.public())
	}
	return out
}

// active returns players still taking part in the round.
func (r *Room) active() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Banished {
			out = append(out, p)
		}
	}
	return out
}

func (r *Room) cancelTimer() {
	if r.phaseTimer != nil {
		r.phaseTimer.Stop()
		r.phaseTimer = nil
	}
	r.timerSeq++
}

func (r *Room) timeLeft(now time.Time) int {
	if r.PhaseEndTime.IsZero() {
		return 0
	}
	d := r.PhaseEndTime.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (r *Room) snapshot(now time.Time) Snapshot {
	return Snapshot{
		RoomID:   r.ID,
		HostID:   r.HostID,
		Phase:    r.Phase,
		TimeLeft: r.timeLeft(now),
		Players:  r.roster(),
		Tasks:    r.Tasks.Progress(),
	}
}
