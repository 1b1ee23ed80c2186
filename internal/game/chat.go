package game

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// chatLog keeps the newest limit messages; the oldest is evicted first.
type chatLog struct {
	limit int
	msgs  []ChatMessage
}

func newChatLog(limit int) *chatLog {
	return &chatLog{limit: limit, msgs: make([]ChatMessage, 0, limit)}
}

func (c *chatLog) add(m ChatMessage) {
	if len(c.msgs) >= c.limit {
		copy(c.msgs, c.msgs[1:])
		c.msgs = c.msgs[:len(c.msgs)-1]
	}
	c.msgs = append(c.msgs, m)
}

func (c *chatLog) list() []ChatMessage {
	out := make([]ChatMessage, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func clampMessage(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= MaxMessageLength {
		return text
	}
	return string([]rune(text)[:MaxMessageLength])
}

// SendMessage appends a player message to the room log and broadcasts it.
func (g *Registry) SendMessage(playerID, code, text string) (ChatMessage, error) {
	var msg ChatMessage
	err := g.withRoom(code, func(r *Room) error {
		p := r.player(playerID)
		if p == nil {
			return ErrNotInRoom
		}
		body := clampMessage(text)
		if body == "" {
			return ErrEmptyMessage
		}
		msg = ChatMessage{
			ID:        uuid.NewString(),
			Author:    p.Name,
			SenderID:  p.ID,
			Body:      body,
			Timestamp: g.now().UTC(),
		}
		r.chat.add(msg)
		g.broadcast(r, EventChatMessage, msg)
		return nil
	})
	return msg, err
}

// ChatHistory returns a copy of the room's log, oldest first.
func (g *Registry) ChatHistory(code string) ([]ChatMessage, error) {
	var out []ChatMessage
	err := g.withRoom(code, func(r *Room) error {
		out = r.chat.list()
		return nil
	})
	return out, err
}

// systemMessage records and broadcasts a presence line. Caller holds r.mu.
func (g *Registry) systemMessage(r *Room, body string) {
	msg := ChatMessage{
		ID:        uuid.NewString(),
		Author:    "System",
		Body:      body,
		Timestamp: g.now().UTC(),
		System:    true,
	}
	r.chat.add(msg)
	g.broadcast(r, EventChatMessage, msg)
}
