package game

import "fmt"

type Role string

const (
	RoleNone        Role = ""
	RoleMasterThief Role = "masterThief"
	RoleHacker      Role = "hacker"
	RoleInfiltrator Role = "infiltrator"
	RoleDoubleAgent Role = "doubleAgent"
	RoleCivilian1   Role = "civilian1"
	RoleCivilian2   Role = "civilian2"
)

type Alignment string

const (
	AlignmentHero     Alignment = "hero"
	AlignmentTraitor  Alignment = "traitor"
	AlignmentCivilian Alignment = "civilian"
)

type Ability string

const (
	AbilityNone     Ability = ""
	AbilityLockpick Ability = "lockpick"
	AbilityReveal   Ability = "reveal"
	AbilitySabotage Ability = "sabotage"
)

// Labels shown to players for banishment results and the hacker's reveal.
const (
	LabelTraitor  = "Traitor"
	LabelInnocent = "Innocent"
)

var reservedRoles = []Role{RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent}

var fillerRoles = []Role{RoleCivilian1, RoleCivilian2}

func (r Role) Alignment() Alignment {
	switch r {
	case RoleMasterThief, RoleHacker:
		return AlignmentHero
	case RoleInfiltrator, RoleDoubleAgent:
		return AlignmentTraitor
	case RoleCivilian1, RoleCivilian2:
		return AlignmentCivilian
	}
	return ""
}

func (r Role) Ability() Ability {
	switch r {
	case RoleMasterThief:
		return AbilityLockpick
	case RoleHacker:
		return AbilityReveal
	case RoleInfiltrator, RoleDoubleAgent:
		return AbilitySabotage
	}
	return AbilityNone
}

func (r Role) IsTraitor() bool { return r.Alignment() == AlignmentTraitor }

// Label is the role's true side as announced on banishment.
func (r Role) Label() string {
	if r.IsTraitor() {
		return LabelTraitor
	}
	return LabelInnocent
}

// Appearance is what the reveal ability reports. The double agent reads as innocent.
func (r Role) Appearance() string {
	if r == RoleDoubleAgent {
		return LabelInnocent
	}
	return r.Label()
}

// roleDeck returns the unshuffled role list for n players.
func roleDeck(n int) ([]Role, error) {
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("cannot deal roles to %d players", n)
	}
	deck := append([]Role(nil), reservedRoles...)
	for i := 0; i < n-len(reservedRoles); i++ {
		deck = append(deck, fillerRoles[i])
	}
	return deck, nil
}

// AssignRoles shuffles the deck and deals it to players in roster order.
// With three players one reserved role, chosen at random, stays out of the game.
func AssignRoles(players []*Player, rnd randomizer) error {
	deck, err := roleDeck(len(players))
	if err != nil {
		return err
	}
	rnd.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	for i, p := range players {
		p.Role = deck[i]
	}
	return nil
}

// ExtraIntel is the private hint a player gets alongside their role. Empty means none.
func ExtraIntel(p *Player, players []*Player, rnd randomizer) string {
	switch p.Role {
	case RoleMasterThief:
		var innocent []*Player
		for _, o := range players {
			if o.ID == p.ID || o.Role.IsTraitor() || o.Role == RoleDoubleAgent {
				continue
			}
			innocent = append(innocent, o)
		}
		if len(innocent) == 0 {
			return ""
		}
		known := innocent[rnd.Intn(len(innocent))]
		return fmt.Sprintf("You know that %s is innocent.", known.Name)
	case RoleInfiltrator, RoleDoubleAgent:
		for _, o := range players {
			if o.ID != p.ID && o.Role.IsTraitor() {
				return fmt.Sprintf("Your fellow traitor is %s.", o.Name)
			}
		}
	}
	return ""
}
