package game

// Notifier delivers outbound events to connected players. Implementations must not
// call back into the Registry: events are emitted while the room is locked.
type Notifier interface {
	Notify(to []string, event string, payload any)
}

type nopNotifier struct{}

func (nopNotifier) Notify([]string, string, any) {}

// Outbound event names, matching what the browser client listens for.
const (
	EventRoomCreated   = "roomCreated"
	EventJoinedRoom    = "joinedRoom"
	EventPlayerJoined  = "playerJoined"
	EventPlayerLeft    = "playerLeft"
	EventNewHost       = "newHost"
	EventBecameHost    = "becameHost"
	EventGameStarted   = "gameStarted"
	EventRoleAssigned  = "roleAssigned"
	EventPhaseChanged  = "phaseChanged"
	EventMeetingCalled = "meetingCalled"
	EventTaskUpdate    = "taskUpdate"
	EventChatMessage   = "chatMessage"
	EventVoteUpdate    = "voteUpdate"
	EventVoteResult    = "voteResult"
	EventAbilityUsed   = "abilityUsed"
	EventGameOver      = "gameOver"
	EventGameReset     = "gameReset"
)

type RoomPayload struct {
	RoomID  string         `json:"roomId"`
	HostID  string         `json:"hostId"`
	Players []PublicPlayer `json:"players"`
}

type RosterPayload struct {
	Players []PublicPlayer `json:"players"`
	HostID  string         `json:"hostId,omitempty"`
}

type HostPayload struct {
	HostID string `json:"hostId"`
	Name   string `json:"name"`
}

type RoleAssignedPayload struct {
	Role      Role    `json:"role"`
	ExtraInfo *string `json:"extraInfo"`
}

type PhaseChangedPayload struct {
	Phase    Phase          `json:"phase"`
	TimeLeft int            `json:"timeLeft"`
	Tasks    []Task         `json:"tasks"`
	Players  []PublicPlayer `json:"players"`
}

type MeetingPayload struct {
	Caller string `json:"caller"`
}

// VoteUpdatePayload maps voter id to target id; nil is a skip.
type VoteUpdatePayload struct {
	Votes map[string]*string `json:"votes"`
}

type VoteResultPayload struct {
	Banished     *string `json:"banished"`
	BanishedID   string  `json:"banishedId,omitempty"`
	BanishedRole string  `json:"banishedRole,omitempty"`
	Message      string  `json:"message"`
}

type AbilityPayload struct {
	Player  string `json:"player,omitempty"`
	Ability string `json:"ability"`
	Success bool   `json:"success,omitempty"`
	Message string `json:"message"`
}

type GameOverPayload struct {
	Winner  Winner       `json:"winner"`
	Message string       `json:"message"`
	Roles   []RoleReveal `json:"roles"`
}
