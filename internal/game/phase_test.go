package game

import (
	"context"
	"testing"
	"time"
)

func TestStartGameScenario(t *testing.T) {
	h := newHarness(t)
	snap, _ := h.g.CreateRoom("ann", "Ann")
	code := snap.RoomID
	h.g.JoinRoom("bob", "Bob", code)
	h.g.JoinRoom("cid", "Cid", code)
	h.n.reset()

	if err := h.g.StartGame("ann", code); err != nil {
		t.Fatalf("should be able to start: %v", err)
	}

	started := h.n.events(EventGameStarted)
	if len(started) != 1 || len(started[0].To) != 3 {
		t.Fatalf("expected one gameStarted broadcast to 3 players, got %+v", started)
	}

	assigned := h.n.events(EventRoleAssigned)
	if len(assigned) != 3 {
		t.Fatalf("expected 3 roleAssigned messages, got %d", len(assigned))
	}
	recipients := map[string]bool{}
	roles := map[Role]bool{}
	for _, m := range assigned {
		if len(m.To) != 1 {
			t.Fatalf("roleAssigned must be private, went to %v", m.To)
		}
		recipients[m.To[0]] = true
		roles[m.Payload.(RoleAssignedPayload).Role] = true
	}
	if len(recipients) != 3 || len(roles) != 3 {
		t.Fatalf("expected 3 distinct recipients and roles, got %v %v", recipients, roles)
	}

	if h.phase(code) != PhasePrep {
		t.Fatalf("expected prep, got %s", h.phase(code))
	}
	if d := h.s.fire(t); d != 5*time.Second {
		t.Fatalf("prep should last 5s, armed %s", d)
	}
	if h.phase(code) != PhaseNight {
		t.Fatalf("expected night after prep, got %s", h.phase(code))
	}
	pc, _ := h.n.last(EventPhaseChanged)
	p := pc.Payload.(PhaseChangedPayload)
	if p.Phase != PhaseNight || p.TimeLeft != 30 || p.Tasks != nil || len(p.Players) != 3 {
		t.Fatalf("unexpected night payload %+v", p)
	}
}

func TestStartGamePreconditions(t *testing.T) {
	h := newHarness(t)
	code := h.lobby(t, 2)

	if err := h.g.StartGame("p1", code); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := h.g.StartGame("p0", code); err != ErrInsufficientPlayers {
		t.Fatalf("expected ErrInsufficientPlayers, got %v", err)
	}
	if err := h.g.StartGame("p0", "NOPE22"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	h.g.JoinRoom("p2", "Player2", code)
	if err := h.g.StartGame("p0", code); err != nil {
		t.Fatalf("three players should start: %v", err)
	}
	if err := h.g.StartGame("p0", code); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase on second start, got %v", err)
	}
}

func TestMinPlayersIsConfigurable(t *testing.T) {
	h := newHarness(t)
	h.g.SetMinPlayers(4)
	code := h.lobby(t, 3)
	if err := h.g.StartGame("p0", code); err != ErrInsufficientPlayers {
		t.Fatalf("expected ErrInsufficientPlayers with min 4, got %v", err)
	}
	h.g.SetMinPlayers(1)
	if h.g.minPlayers != MinPlayers {
		t.Fatalf("min players should clamp to %d, got %d", MinPlayers, h.g.minPlayers)
	}
}

func TestPhaseCycle(t *testing.T) {
	h := newHarness(t)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)

	steps := []struct {
		fired time.Duration
		next  Phase
	}{
		{30 * time.Second, PhaseDay},
		{120 * time.Second, PhaseTask},
		{90 * time.Second, PhaseNight},
		{30 * time.Second, PhaseDay},
	}
	for _, s := range steps {
		if d := h.s.fire(t); d != s.fired {
			t.Fatalf("expected %s timer, got %s", s.fired, d)
		}
		if h.phase(code) != s.next {
			t.Fatalf("expected %s, got %s", s.next, h.phase(code))
		}
		if n := len(h.s.pending()); n != 1 {
			t.Fatalf("exactly one timer should be armed, got %d", n)
		}
	}

	var taskPayloads int
	for _, m := range h.n.events(EventPhaseChanged) {
		p := m.Payload.(PhaseChangedPayload)
		if p.Phase == PhaseTask {
			taskPayloads++
			if len(p.Tasks) != 3 {
				t.Fatalf("task phase should carry the task list, got %d", len(p.Tasks))
			}
		} else if p.Tasks != nil {
			t.Fatalf("%s phase should not carry tasks", p.Phase)
		}
	}
	if taskPayloads != 1 {
		t.Fatalf("expected one task phaseChanged, got %d", taskPayloads)
	}
}

func TestCallMeetingCancelsTimer(t *testing.T) {
	h := newHarness(t)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)
	stale := h.s.pending()[0]

	if err := h.g.CallMeeting("p1", code); err != nil {
		t.Fatalf("call meeting: %v", err)
	}
	if h.phase(code) != PhaseVoting {
		t.Fatalf("expected voting, got %s", h.phase(code))
	}
	if !stale.stopped {
		t.Fatal("night timer should have been stopped")
	}
	pending := h.s.pending()
	if len(pending) != 1 || pending[0].d != 45*time.Second {
		t.Fatalf("expected one 45s voting timer, got %d", len(pending))
	}

	// A callback that fires after losing the Stop race must not advance anything.
	stale.f()
	if h.phase(code) != PhaseVoting {
		t.Fatalf("stale timer advanced the room to %s", h.phase(code))
	}

	mc, ok := h.n.last(EventMeetingCalled)
	if !ok || mc.Payload.(MeetingPayload).Caller != "Player1" {
		t.Fatalf("expected meetingCalled by Player1, got %+v", mc)
	}
	if err := h.g.CallMeeting("p0", code); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase during voting, got %v", err)
	}
}

func TestCallMeetingOutsideRound(t *testing.T) {
	h := newHarness(t)
	code := h.lobby(t, 3)
	if err := h.g.CallMeeting("p0", code); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase in lobby, got %v", err)
	}
	if err := h.g.CallMeeting("ghost", code); err != ErrNotInRoom {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}
}

func TestVotingTimeoutResolves(t *testing.T) {
	h := newHarness(t)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)
	h.g.CallMeeting("p0", code)
	h.g.CastVote("p0", code, VoteFor("p2"))

	if d := h.s.fire(t); d != 45*time.Second {
		t.Fatalf("expected voting timeout, got %s", d)
	}
	if h.phase(code) != PhaseTask {
		t.Fatalf("expected task after a single-vote timeout, got %s", h.phase(code))
	}
	vr, _ := h.n.last(EventVoteResult)
	if p := vr.Payload.(VoteResultPayload); p.Banished == nil || *p.Banished != "Player2" {
		t.Fatalf("lone vote is a strict plurality, got %+v", p)
	}
}

func TestPlayAgainRoundTrip(t *testing.T) {
	h := newHarness(t)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)
	before, _ := h.g.Snapshot(code)

	if err := h.g.PlayAgain("p0", code); err != ErrInvalidPhase {
		t.Fatalf("expected ErrInvalidPhase mid-game, got %v", err)
	}

	h.toPhase(t, code, PhaseTask)
	for i := 0; i < 3; i++ {
		if err := h.g.CompleteTask("p0", code, 0); err != nil {
			t.Fatalf("complete task: %v", err)
		}
	}
	if h.phase(code) != PhaseResult {
		t.Fatalf("expected result, got %s", h.phase(code))
	}

	if err := h.g.PlayAgain("p3", code); err != nil {
		t.Fatalf("play again: %v", err)
	}
	r := h.room(t, code)
	if r.Phase != PhaseLobby {
		t.Fatalf("expected lobby, got %s", r.Phase)
	}
	if r.Tasks.Total != 3 || r.Tasks.Completed != 0 || r.Tasks.Sabotaged != 0 || len(r.Tasks.List) != 3 {
		t.Fatalf("tasks not reset: %+v", r.Tasks)
	}
	if len(r.votes) != 0 || len(r.revealUsed) != 0 {
		t.Fatal("votes and ability flags should be cleared")
	}
	for i, p := range r.Players {
		if p.Role != RoleNone || p.Banished || p.Location != EntranceLocation {
			t.Fatalf("player %s not reset: %+v", p.ID, p)
		}
		if p.ID != before.Players[i].ID || p.Name != before.Players[i].Name {
			t.Fatalf("roster changed: %+v vs %+v", p, before.Players[i])
		}
	}
	if len(h.s.pending()) != 0 {
		t.Fatal("lobby must not have an armed timer")
	}
	if _, ok := h.n.last(EventGameReset); !ok {
		t.Fatal("expected gameReset event")
	}
	if err := h.g.StartGame("p0", code); err != nil {
		t.Fatalf("should be able to start again: %v", err)
	}
}

func TestSnapshotTimeLeft(t *testing.T) {
	h := newHarness(t)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)

	snap, _ := h.g.Snapshot(code)
	if snap.TimeLeft != 30 {
		t.Fatalf("expected 30s left, got %d", snap.TimeLeft)
	}
	h.clock = h.clock.Add(12500 * time.Millisecond)
	snap, _ = h.g.Snapshot(code)
	if snap.TimeLeft != 18 {
		t.Fatalf("expected 18s left (rounded up), got %d", snap.TimeLeft)
	}
	h.clock = h.clock.Add(time.Minute)
	snap, _ = h.g.Snapshot(code)
	if snap.TimeLeft != 0 {
		t.Fatalf("expected 0 once the deadline passed, got %d", snap.TimeLeft)
	}
}

type chanRecorder chan GameRecord

func (c chanRecorder) Record(_ context.Context, rec GameRecord) error {
	c <- rec
	return nil
}

func TestGameOverIsArchived(t *testing.T) {
	h := newHarness(t)
	rec := make(chanRecorder, 1)
	h.g.SetRecorder(rec)
	code := h.started(t, RoleMasterThief, RoleHacker, RoleInfiltrator, RoleDoubleAgent)
	h.toPhase(t, code, PhaseTask)
	for i := 0; i < 3; i++ {
		h.g.SabotageTask("p2", code, i)
	}

	select {
	case got := <-rec:
		if got.RoomID != code || got.Winner != WinnerTraitors || len(got.Roles) != 4 {
			t.Fatalf("unexpected record %+v", got)
		}
		if got.Tasks.Sabotaged != 3 {
			t.Fatalf("expected 3 sabotages archived, got %d", got.Tasks.Sabotaged)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("game over was not archived")
	}
}
