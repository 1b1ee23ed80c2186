package ws

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/shadowheist/internal/game"
)

type roomReq struct {
	RoomID string `json:"roomId"`
}

type createReq struct {
	PlayerName string `json:"playerName"`
}

type joinReq struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId"`
}

type messageReq struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

// voteReq carries a player id, or null / "skip" to abstain.
type voteReq struct {
	RoomID   string  `json:"roomId"`
	VotedFor *string `json:"votedFor"`
}

type taskReq struct {
	RoomID    string `json:"roomId"`
	TaskIndex int    `json:"taskIndex"`
}

type lockpickReq struct {
	RoomID      string `json:"roomId"`
	TargetIndex int    `json:"targetIndex"`
}

type revealReq struct {
	RoomID   string `json:"roomId"`
	TargetID string `json:"targetId"`
}

var okAck = map[string]any{"ok": true}

func connCtx(s conn) *ConnCtx {
	if ctx, ok := s.Context().(*ConnCtx); ok && ctx != nil {
		return ctx
	}
	ctx := &ConnCtx{}
	s.SetContext(ctx)
	return ctx
}

// room picks the code named in the request, falling back to the socket's current room.
func room(s conn, roomID string) string {
	if roomID = strings.TrimSpace(roomID); roomID != "" {
		return roomID
	}
	return connCtx(s).Code
}

// leaveCurrent drops the socket from the room it is in before it creates or joins another.
func (srv *Server) leaveCurrent(s conn) {
	ctx := connCtx(s)
	if ctx.Code == "" {
		return
	}
	if err := srv.Reg.LeaveRoom(s.ID(), ctx.Code); err == nil {
		log.Info().Str("sid", s.ID()).Str("code", ctx.Code).Msg("left previous room")
	}
	ctx.Code = ""
}

func (srv *Server) createRoom(s conn, req createReq) map[string]any {
	srv.leaveCurrent(s)
	snap, err := srv.Reg.CreateRoom(s.ID(), req.PlayerName)
	if err != nil {
		return srv.err(s, err)
	}
	connCtx(s).Code = snap.RoomID
	log.Info().Str("sid", s.ID()).Str("code", snap.RoomID).Msg("createRoom")
	return map[string]any{"roomId": snap.RoomID}
}

func (srv *Server) joinRoom(s conn, req joinReq) map[string]any {
	code := strings.ToUpper(strings.TrimSpace(req.RoomID))
	if connCtx(s).Code == code {
		return srv.err(s, game.ErrAlreadyInRoom)
	}
	// Check the target first so a failed join does not cost the player their current seat.
	snap, err := srv.Reg.Snapshot(code)
	switch {
	case err != nil:
		return srv.err(s, err)
	case snap.Phase != game.PhaseLobby:
		return srv.err(s, game.ErrGameInProgress)
	case len(snap.Players) >= game.MaxPlayers:
		return srv.err(s, game.ErrRoomFull)
	}
	srv.leaveCurrent(s)
	snap, err = srv.Reg.JoinRoom(s.ID(), req.PlayerName, code)
	if err != nil {
		return srv.err(s, err)
	}
	connCtx(s).Code = snap.RoomID
	log.Info().Str("sid", s.ID()).Str("code", snap.RoomID).Msg("joinRoom")
	return map[string]any{"roomId": snap.RoomID}
}

func (srv *Server) leaveRoom(s conn, req roomReq) map[string]any {
	code := room(s, req.RoomID)
	if err := srv.Reg.LeaveRoom(s.ID(), code); err != nil {
		return srv.err(s, err)
	}
	if ctx := connCtx(s); strings.EqualFold(ctx.Code, code) {
		ctx.Code = ""
	}
	log.Info().Str("sid", s.ID()).Str("code", code).Msg("leaveRoom")
	return okAck
}

func (srv *Server) startGame(s conn, req roomReq) map[string]any {
	code := room(s, req.RoomID)
	if err := srv.Reg.StartGame(s.ID(), code); err != nil {
		return srv.err(s, err)
	}
	log.Info().Str("sid", s.ID()).Str("code", code).Msg("startGame")
	return okAck
}

func (srv *Server) callMeeting(s conn, req roomReq) map[string]any {
	if err := srv.Reg.CallMeeting(s.ID(), room(s, req.RoomID)); err != nil {
		return srv.err(s, err)
	}
	return okAck
}

func (srv *Server) sendMessage(s conn, req messageReq) map[string]any {
	if !srv.allowChat(s.ID()) {
		return srv.err(s, errRateLimited)
	}
	msg, err := srv.Reg.SendMessage(s.ID(), room(s, req.RoomID), req.Message)
	if err != nil {
		return srv.err(s, err)
	}
	return map[string]any{"id": msg.ID}
}

func (srv *Server) chatHistory(s conn, req roomReq) any {
	msgs, err := srv.Reg.ChatHistory(room(s, req.RoomID))
	if err != nil {
		return srv.err(s, err)
	}
	return msgs
}

func (srv *Server) castVote(s conn, req voteReq) map[string]any {
	v := game.SkipVote()
	if req.VotedFor != nil && *req.VotedFor != "skip" {
		v = game.VoteFor(*req.VotedFor)
	}
	if err := srv.Reg.CastVote(s.ID(), room(s, req.RoomID), v); err != nil {
		return srv.err(s, err)
	}
	return okAck
}

func (srv *Server) completeTask(s conn, req taskReq) map[string]any {
	if err := srv.Reg.CompleteTask(s.ID(), room(s, req.RoomID), req.TaskIndex); err != nil {
		return srv.err(s, err)
	}
	return okAck
}

func (srv *Server) sabotageTask(s conn, req taskReq) map[string]any {
	if err := srv.Reg.SabotageTask(s.ID(), room(s, req.RoomID), req.TaskIndex); err != nil {
		return srv.err(s, err)
	}
	return okAck
}

func (srv *Server) useLockpick(s conn, req lockpickReq) map[string]any {
	if err := srv.Reg.UseLockpick(s.ID(), room(s, req.RoomID), req.TargetIndex); err != nil {
		return srv.err(s, err)
	}
	return okAck
}

// useReveal acks with the result; nobody else learns what was seen.
func (srv *Server) useReveal(s conn, req revealReq) any {
	res, err := srv.Reg.UseReveal(s.ID(), room(s, req.RoomID), req.TargetID)
	if err != nil {
		return srv.err(s, err)
	}
	return res
}

// lockpickableTargets answers with an empty list for anyone who cannot lockpick.
func (srv *Server) lockpickableTargets(s conn, req roomReq) []game.LockTarget {
	targets, err := srv.Reg.LockpickableTargets(s.ID(), room(s, req.RoomID))
	if err != nil {
		return []game.LockTarget{}
	}
	return targets
}

func (srv *Server) playAgain(s conn, req roomReq) map[string]any {
	code := room(s, req.RoomID)
	if err := srv.Reg.PlayAgain(s.ID(), code); err != nil {
		return srv.err(s, err)
	}
	log.Info().Str("sid", s.ID()).Str("code", code).Msg("playAgain")
	return okAck
}
