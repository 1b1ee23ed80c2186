package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

var sabotageTarget = LockTarget{ID: "sabotage", Name: "Sabotaged System"}

// abilityUser returns the caller if they hold role and may act right now.
func abilityUser(r *Room, playerID string, role Role) (*Player, error) {
	p := r.player(playerID)
	if p == nil {
		return nil, ErrNotInRoom
	}
	if p.Role != role {
		return nil, ErrRoleNotPermitted
	}
	if p.Banished {
		return nil, ErrPlayerBanished
	}
	return p, nil
}

// UseLockpick removes one sabotage. With nothing sabotaged, or outside a round,
// it quietly does nothing.
func (g *Registry) UseLockpick(playerID, code string, targetIdx int) error {
	return g.withRoom(code, func(r *Room) error {
		p, err := abilityUser(r, playerID, RoleMasterThief)
		if err != nil {
			return err
		}
		if !r.Phase.InGame() || r.Tasks.Sabotaged == 0 {
			return nil
		}
		r.Tasks.Sabotaged--
		g.broadcast(r, EventTaskUpdate, r.Tasks.Progress())
		g.send(p.ID, EventAbilityUsed, AbilityPayload{
			Ability: string(AbilityLockpick),
			Success: true,
			Message: "You successfully removed a sabotage!",
		})
		g.broadcastExcept(r, p.ID, EventAbilityUsed, anonymousAbility(p))
		log.Info().Str("code", r.ID).Int("target", targetIdx).Int("sabotaged", r.Tasks.Sabotaged).Msg("lockpick used")
		return nil
	})
}

// UseReveal tells the hacker, and only the hacker, which side a target appears to be on.
func (g *Registry) UseReveal(playerID, code, targetID string) (RevealResult, error) {
	var res RevealResult
	err := g.withRoom(code, func(r *Room) error {
		p, err := abilityUser(r, playerID, RoleHacker)
		if err != nil {
			return err
		}
		if !r.Phase.InGame() {
			return ErrInvalidPhase
		}
		t := r.player(targetID)
		if t == nil || t.ID == p.ID {
			return ErrInvalidTarget
		}
		if r.revealUsed[p.ID] {
			return ErrAbilityUsed
		}
		r.revealUsed[p.ID] = true
		res = RevealResult{PlayerName: t.Name, Alignment: t.Role.Appearance()}
		g.broadcastExcept(r, p.ID, EventAbilityUsed, anonymousAbility(p))
		log.Info().Str("code", r.ID).Str("playerId", p.ID).Msg("reveal used")
		return nil
	})
	return res, err
}

// LockpickableTargets lists what the master thief could pick right now.
func (g *Registry) LockpickableTargets(playerID, code string) ([]LockTarget, error) {
	out := []LockTarget{}
	err := g.withRoom(code, func(r *Room) error {
		if _, err := abilityUser(r, playerID, RoleMasterThief); err != nil {
			return err
		}
		if r.Tasks.Sabotaged > 0 {
			out = append(out, sabotageTarget)
		}
		return nil
	})
	if err != nil {
		return []LockTarget{}, err
	}
	return out, nil
}

func anonymousAbility(p *Player) AbilityPayload {
	return AbilityPayload{
		Player:  p.Name,
		Ability: "unknown",
		Message: fmt.Sprintf("%s used an ability", p.Name),
	}
}
