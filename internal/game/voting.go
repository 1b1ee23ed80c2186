package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// CastVote records or overwrites the caller's vote and resolves once everyone has voted.
func (g *Registry) CastVote(playerID, code string, v Vote) error {
	return g.withRoom(code, func(r *Room) error {
		if r.Phase != PhaseVoting {
			return ErrInvalidPhase
		}
		voter := r.player(playerID)
		if voter == nil {
			return ErrNotInRoom
		}
		if voter.Banished {
			return ErrPlayerBanished
		}
		if !v.Skip {
			t := r.player(v.Target)
			if t == nil || t.Banished {
				return ErrInvalidTarget
			}
		}
		r.votes[playerID] = v
		g.broadcast(r, EventVoteUpdate, VoteUpdatePayload{Votes: tally(r)})

		if allVoted(r) {
			r.cancelTimer()
			g.resolveVotes(r)
		}
		return nil
	})
}

// tally is the live vote map shown to clients. Nil targets are skips.
func tally(r *Room) map[string]*string {
	out := make(map[string]*string, len(r.votes))
	for voter, v := range r.votes {
		if v.Skip {
			out[voter] = nil
			continue
		}
		target := v.Target
		out[voter] = &target
	}
	return out
}

func allVoted(r *Room) bool {
	for _, p := range r.active() {
		if _, ok := r.votes[p.ID]; !ok {
			return false
		}
	}
	return true
}

// resolveVotes banishes the strict plurality target, if any, then checks for a
// win or returns the room to the task phase. Caller holds r.mu with no timer armed.
func (g *Registry) resolveVotes(r *Room) {
	counts := make(map[string]int)
	skips := 0
	for _, p := range r.active() {
		v, ok := r.votes[p.ID]
		if !ok {
			continue
		}
		if v.Skip {
			skips++
			continue
		}
		if t := r.player(v.Target); t != nil && !t.Banished {
			counts[v.Target]++
		}
	}

	var top *Player
	most, tied := 0, false
	for _, p := range r.Players {
		c := counts[p.ID]
		switch {
		case c == 0:
		case c > most:
			top, most, tied = p, c, false
		case c == most:
			tied = true
		}
	}
	if tied || skips > most {
		top = nil
	}
	r.votes = make(map[string]Vote)

	if top == nil {
		g.broadcast(r, EventVoteResult, VoteResultPayload{Message: "No one was banished"})
		g.systemMessage(r, "No one was banished.")
		log.Info().Str("code", r.ID).Int("skips", skips).Msg("vote resolved without banishment")
		g.enterPhase(r, PhaseTask)
		return
	}

	top.Banished = true
	name := top.Name
	g.broadcast(r, EventVoteResult, VoteResultPayload{
		Banished:     &name,
		BanishedID:   top.ID,
		BanishedRole: top.Role.Label(),
		Message:      fmt.Sprintf("%s was banished", name),
	})
	g.systemMessage(r, fmt.Sprintf("%s was banished. They were %s.", name, top.Role.Label()))
	log.Info().Str("code", r.ID).Str("playerId", top.ID).Int("votes", most).Msg("player banished")

	if w, ok := rosterWinner(r); ok {
		g.endGame(r, w)
		return
	}
	g.enterPhase(r, PhaseTask)
}

// rosterWinner checks the head-count conditions among players still in the round:
// no traitors left means heroes win, traitors at parity or better means traitors win.
func rosterWinner(r *Room) (Winner, bool) {
	traitors, others := 0, 0
	for _, p := range r.active() {
		if p.Role.IsTraitor() {
			traitors++
		} else {
			others++
		}
	}
	if traitors == 0 {
		return WinnerHeroes, true
	}
	if traitors >= others {
		return WinnerTraitors, true
	}
	return "", false
}

// CompleteTask advances hero progress; the last task wins the game for the heroes.
func (g *Registry) CompleteTask(playerID, code string, idx int) error {
	return g.withRoom(code, func(r *Room) error {
		p, err := taskActor(r, playerID, idx)
		if err != nil {
			return err
		}
		r.Tasks.Completed++
		g.broadcast(r, EventTaskUpdate, r.Tasks.Progress())
		log.Info().Str("code", r.ID).Str("playerId", p.ID).Int("completed", r.Tasks.Completed).Msg("task completed")
		if r.Tasks.Completed >= r.Tasks.Total {
			g.endGame(r, WinnerHeroes)
		}
		return nil
	})
}

// SabotageTask is the traitors' mirror of CompleteTask.
func (g *Registry) SabotageTask(playerID, code string, idx int) error {
	return g.withRoom(code, func(r *Room) error {
		p, err := taskActor(r, playerID, idx)
		if err != nil {
			return err
		}
		if !p.Role.IsTraitor() {
			return ErrRoleNotPermitted
		}
		r.Tasks.Sabotaged++
		g.broadcast(r, EventTaskUpdate, r.Tasks.Progress())
		log.Info().Str("code", r.ID).Int("sabotaged", r.Tasks.Sabotaged).Msg("task sabotaged")
		if r.Tasks.Sabotaged >= r.Tasks.Total {
			g.endGame(r, WinnerTraitors)
		}
		return nil
	})
}

func taskActor(r *Room, playerID string, idx int) (*Player, error) {
	if r.Phase != PhaseTask {
		return nil, ErrInvalidPhase
	}
	p := r.player(playerID)
	if p == nil {
		return nil, ErrNotInRoom
	}
	if p.Banished {
		return nil, ErrPlayerBanished
	}
	if idx < 0 || idx >= len(r.Tasks.List) {
		return nil, ErrInvalidTarget
	}
	return p, nil
}
