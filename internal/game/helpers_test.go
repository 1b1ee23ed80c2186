package game

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type sent struct {
	To      []string
	Event   string
	Payload any
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []sent
}

func (n *recordingNotifier) Notify(to []string, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, sent{To: append([]string(nil), to...), Event: event, Payload: payload})
}

func (n *recordingNotifier) events(event string) []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sent
	for _, m := range n.msgs {
		if m.Event == event {
			out = append(out, m)
		}
	}
	return out
}

func (n *recordingNotifier) last(event string) (sent, bool) {
	ev := n.events(event)
	if len(ev) == 0 {
		return sent{}, false
	}
	return ev[len(ev)-1], true
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = nil
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type fakeTimer struct {
	s       *fakeScheduler
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler never fires on its own; tests fire timers explicitly.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{s: s, d: d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the single armed timer and returns its delay.
func (s *fakeScheduler) fire(t *testing.T) time.Duration {
	t.Helper()
	p := s.pending()
	if len(p) != 1 {
		t.Fatalf("expected exactly 1 armed timer, got %d", len(p))
	}
	s.mu.Lock()
	p[0].fired = true
	s.mu.Unlock()
	p[0].f()
	return p[0].d
}

type harness struct {
	g     *Registry
	n     *recordingNotifier
	s     *fakeScheduler
	clock time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{n: &recordingNotifier{}, s: &fakeScheduler{}, clock: time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC)}
	h.g = NewRegistry(h.n, DefaultTimings())
	h.g.SetScheduler(h.s)
	h.g.SetSeed(42)
	h.g.SetClock(func() time.Time { return h.clock })
	return h
}

// lobby creates a room with n players whose ids are p0..p(n-1).
func (h *harness) lobby(t *testing.T, n int) string {
	t.Helper()
	snap, err := h.g.CreateRoom("p0", "Player0")
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for i := 1; i < n; i++ {
		if _, err := h.g.JoinRoom(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), snap.RoomID); err != nil {
			t.Fatalf("join p%d: %v", i, err)
		}
	}
	return snap.RoomID
}

func (h *harness) room(t *testing.T, code string) *Room {
	t.Helper()
	r, err := h.g.lookup(code)
	if err != nil {
		t.Fatalf("lookup %s: %v", code, err)
	}
	return r
}

// started runs a game up to the night phase and then overrides the dealt roles.
func (h *harness) started(t *testing.T, roles ...Role) string {
	t.Helper()
	code := h.lobby(t, len(roles))
	if err := h.g.StartGame("p0", code); err != nil {
		t.Fatalf("start game: %v", err)
	}
	h.s.fire(t)
	r := h.room(t, code)
	r.mu.Lock()
	for i, role := range roles {
		r.Players[i].Role = role
	}
	r.mu.Unlock()
	return code
}

// toPhase fires timeouts until the room reaches want.
func (h *harness) toPhase(t *testing.T, code string, want Phase) {
	t.Helper()
	for i := 0; i < 5; i++ {
		if h.phase(code) == want {
			return
		}
		h.s.fire(t)
	}
	t.Fatalf("room never reached %s, stuck in %s", want, h.phase(code))
}

func (h *harness) phase(code string) Phase {
	r, err := h.g.lookup(code)
	if err != nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Phase
}

func (h *harness) gameOver(t *testing.T) GameOverPayload {
	t.Helper()
	m, ok := h.n.last(EventGameOver)
	if !ok {
		t.Fatal("expected gameOver event")
	}
	return m.Payload.(GameOverPayload)
}
