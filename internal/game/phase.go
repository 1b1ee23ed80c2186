package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// next is the phase a timeout leads to. Voting resolves instead of advancing.
var next = map[Phase]Phase{
	PhasePrep:  PhaseNight,
	PhaseNight: PhaseDay,
	PhaseDay:   PhaseTask,
	PhaseTask:  PhaseNight,
}

// StartGame deals roles and moves the lobby into prep.
func (g *Registry) StartGame(playerID, code string) error {
	return g.withRoom(code, func(r *Room) error {
		if r.HostID != playerID {
			return ErrNotHost
		}
		if r.Phase != PhaseLobby {
			return ErrInvalidPhase
		}
		if len(r.Players) < g.minPlayers {
			return ErrInsufficientPlayers
		}
		if err := AssignRoles(r.Players, g.rnd); err != nil {
			return ErrInsufficientPlayers
		}
		r.votes = make(map[string]Vote)
		r.revealUsed = make(map[string]bool)

		g.broadcast(r, EventGameStarted, nil)
		for _, p := range r.Players {
			payload := RoleAssignedPayload{Role: p.Role}
			if intel := ExtraIntel(p, r.Players, g.rnd); intel != "" {
				payload.ExtraInfo = &intel
			}
			g.send(p.ID, EventRoleAssigned, payload)
		}
		log.Info().Str("code", r.ID).Int("players", len(r.Players)).Msg("game started")
		g.enterPhase(r, PhasePrep)
		return nil
	})
}

// CallMeeting interrupts the running phase and opens a vote.
func (g *Registry) CallMeeting(playerID, code string) error {
	return g.withRoom(code, func(r *Room) error {
		caller := r.player(playerID)
		if caller == nil {
			return ErrNotInRoom
		}
		if !r.Phase.InGame() || r.Phase == PhaseVoting {
			return ErrInvalidPhase
		}
		if caller.Banished {
			return ErrPlayerBanished
		}
		r.votes = make(map[string]Vote)
		g.enterPhase(r, PhaseVoting)
		g.broadcast(r, EventMeetingCalled, MeetingPayload{Caller: caller.Name})
		g.systemMessage(r, fmt.Sprintf("%s called an emergency meeting.", caller.Name))
		log.Info().Str("code", r.ID).Str("playerId", playerID).Msg("meeting called")
		return nil
	})
}

// PlayAgain returns a finished room to the lobby with the same roster.
func (g *Registry) PlayAgain(playerID, code string) error {
	return g.withRoom(code, func(r *Room) error {
		if r.player(playerID) == nil {
			return ErrNotInRoom
		}
		if r.Phase != PhaseResult {
			return ErrInvalidPhase
		}
		r.Tasks = freshTasks(g.rnd)
		r.votes = make(map[string]Vote)
		r.revealUsed = make(map[string]bool)
		for _, p := range r.Players {
			p.Role = RoleNone
			p.Banished = false
			p.Location = EntranceLocation
		}
		g.broadcast(r, EventGameReset, RosterPayload{Players: r.roster(), HostID: r.HostID})
		g.enterPhase(r, PhaseLobby)
		log.Info().Str("code", r.ID).Msg("game reset")
		return nil
	})
}

// enterPhase is the only place r.Phase changes. It always disarms the previous
// timeout before arming the next one. Caller holds r.mu.
func (g *Registry) enterPhase(r *Room, phase Phase) {
	r.cancelTimer()
	from := r.Phase
	r.Phase = phase

	d := g.timings.For(phase)
	if d > 0 {
		r.PhaseEndTime = g.now().Add(d)
		seq := r.timerSeq
		r.phaseTimer = g.scheduler.AfterFunc(d, func() { g.onTimeout(r, seq) })
	} else {
		r.PhaseEndTime = time.Time{}
	}

	payload := PhaseChangedPayload{
		Phase:    phase,
		TimeLeft: int(d / time.Second),
		Players:  r.roster(),
	}
	if phase == PhaseTask {
		payload.Tasks = append([]Task(nil), r.Tasks.List...)
	}
	g.broadcast(r, EventPhaseChanged, payload)
	log.Info().Str("code", r.ID).Str("from", string(from)).Str("to", string(phase)).Msg("phase transition")
}

func (g *Registry) onTimeout(r *Room, seq uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || seq != r.timerSeq {
		return
	}
	r.phaseTimer = nil
	if r.Phase == PhaseVoting {
		r.cancelTimer()
		g.resolveVotes(r)
		return
	}
	if to, ok := next[r.Phase]; ok {
		g.enterPhase(r, to)
	}
}

// endGame moves the room to result and reveals every role. Caller holds r.mu.
func (g *Registry) endGame(r *Room, w Winner) {
	g.enterPhase(r, PhaseResult)

	msg := "The Traitors have sabotaged the heist!"
	if w == WinnerHeroes {
		msg = "The Heroes have successfully completed the heist!"
	}
	roles := make([]RoleReveal, 0, len(r.Players))
	var banished []string
	for _, p := range r.Players {
		roles = append(roles, RoleReveal{Name: p.Name, Role: p.Role})
		if p.Banished {
			banished = append(banished, p.Name)
		}
	}
	g.broadcast(r, EventGameOver, GameOverPayload{Winner: w, Message: msg, Roles: roles})
	log.Info().Str("code", r.ID).Str("winner", string(w)).Msg("game over")

	if g.recorder == nil {
		return
	}
	rec := GameRecord{
		ID:       uuid.NewString(),
		RoomID:   r.ID,
		Winner:   w,
		Message:  msg,
		EndedAt:  g.now().UTC(),
		Roles:    roles,
		Tasks:    r.Tasks.Progress(),
		Banished: banished,
	}
	recorder := g.recorder
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Record(ctx, rec); err != nil {
			log.Error().Err(err).Str("code", rec.RoomID).Msg("failed to archive game")
		}
	}()
}
