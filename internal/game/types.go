package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhasePrep   Phase = "prep"
	PhaseNight  Phase = "night"
	PhaseDay    Phase = "day"
	PhaseTask   Phase = "task"
	PhaseVoting Phase = "voting"
	PhaseResult Phase = "result"
)

// InGame reports whether roles are assigned and the round is running.
func (p Phase) InGame() bool {
	switch p {
	case PhasePrep, PhaseNight, PhaseDay, PhaseTask, PhaseVoting:
		return true
	}
	return false
}

type Winner string

const (
	WinnerHeroes   Winner = "heroes"
	WinnerTraitors Winner = "traitors"
)

const (
	MaxPlayers       = 6
	MinPlayers       = 3
	TaskCount        = 3
	ChatHistoryLimit = 100
	MaxMessageLength = 500
	EntranceLocation = "entrance"
)

// Timings holds the auto-advance delay of every timed phase.
type Timings struct {
	Prep   time.Duration
	Night  time.Duration
	Day    time.Duration
	Task   time.Duration
	Voting time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Prep:   5 * time.Second,
		Night:  30 * time.Second,
		Day:    120 * time.Second,
		Task:   90 * time.Second,
		Voting: 45 * time.Second,
	}
}

// For returns zero for phases that never auto-advance.
func (t Timings) For(p Phase) time.Duration {
	switch p {
	case PhasePrep:
		return t.Prep
	case PhaseNight:
		return t.Night
	case PhaseDay:
		return t.Day
	case PhaseTask:
		return t.Task
	case PhaseVoting:
		return t.Voting
	}
	return 0
}

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	Role     Role   `json:"role"`
	Color    string `json:"color"`
	Location string `json:"location"`
	Banished bool   `json:"banished"`
}

// PublicPlayer is the roster entry every room member may see. It never carries a role.
type PublicPlayer struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsHost   bool   `json:"isHost"`
	Color    string `json:"color"`
	Location string `json:"location"`
	Banished bool   `json:"banished"`
}

func (p *Player) public() PublicPlayer {
	return PublicPlayer{
		ID:       p.ID,
		Name:     p.Name,
		IsHost:   p.IsHost,
		Color:    p.Color,
		Location: p.Location,
		Banished: p.Banished,
	}
}

type Task struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type TaskState struct {
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Sabotaged int    `json:"sabotaged"`
	List      []Task `json:"list"`
}

type TaskProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Sabotaged int `json:"sabotaged"`
}

func (t TaskState) Progress() TaskProgress {
	return TaskProgress{Total: t.Total, Completed: t.Completed, Sabotaged: t.Sabotaged}
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Author    string    `json:"player"`
	SenderID  string    `json:"senderId"`
	Body      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	System    bool      `json:"system,omitempty"`
}

// Vote is either a player target or an explicit skip.
type Vote struct {
	Target string
	Skip   bool
}

func VoteFor(id string) Vote { return Vote{Target: id} }

func SkipVote() Vote { return Vote{Skip: true} }

// Snapshot is the read model handed to joiners and the HTTP API.
type Snapshot struct {
	RoomID   string         `json:"roomId"`
	HostID   string         `json:"hostId"`
	Phase    Phase          `json:"phase"`
	TimeLeft int            `json:"timeLeft"`
	Players  []PublicPlayer `json:"players"`
	Tasks    TaskProgress   `json:"tasks"`
}

type RoleReveal struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type RevealResult struct {
	PlayerName string `json:"playerName"`
	Alignment  string `json:"alignment"`
}

type LockTarget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GameRecord is what gets archived once a game ends.
type GameRecord struct {
	ID       string       `json:"id"`
	RoomID   string       `json:"roomId"`
	Winner   Winner       `json:"winner"`
	Message  string       `json:"message"`
	EndedAt  time.Time    `json:"endedAt"`
	Roles    []RoleReveal `json:"roles"`
	Tasks    TaskProgress `json:"tasks"`
	Banished []string     `json:"banished,omitempty"`
}
