package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/kiliankoe/shadowheist/internal/config"
	"github.com/kiliankoe/shadowheist/internal/game"
)

// ConnCtx is attached to every socket. Players are identified by their socket id,
// so only the room they are currently in needs remembering.
type ConnCtx struct {
	Code string
}

// conn is the part of socketio.Conn the handlers use.
type conn interface {
	ID() string
	Emit(event string, args ...interface{})
	Context() interface{}
	SetContext(ctx interface{})
}

type emitter interface {
	Emit(event string, args ...interface{})
}

type Server struct {
	Reg *game.Registry

	config    config.Config
	chatRate  rate.Limit
	chatBurst int

	mu       sync.RWMutex
	conns    map[string]emitter       // socketID -> Conn
	limiters map[string]*rate.Limiter // socketID -> chat limiter
}

func New(reg *game.Registry, cfg config.Config) *Server {
	burst := cfg.ChatBurst
	if burst < 1 {
		burst = 1
	}
	chatRate := rate.Limit(cfg.ChatRatePerSec)
	if cfg.ChatRatePerSec <= 0 {
		chatRate = rate.Inf
	}
	return &Server{
		Reg:       reg,
		config:    cfg,
		chatRate:  chatRate,
		chatBurst: burst,
		conns:     make(map[string]emitter),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Notify delivers a game event to the listed sockets. Unknown ids are skipped.
func (srv *Server) Notify(to []string, event string, payload any) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, id := range to {
		c, ok := srv.conns[id]
		if !ok {
			continue
		}
		if payload == nil {
			c.Emit(event)
		} else {
			c.Emit(event, payload)
		}
	}
}

func (srv *Server) track(id string, c emitter) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.conns[id] = c
	srv.limiters[id] = rate.NewLimiter(srv.chatRate, srv.chatBurst)
}

func (srv *Server) untrack(id string) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.conns, id)
	delete(srv.limiters, id)
}

func (srv *Server) allowChat(id string) bool {
	srv.mu.RLock()
	l := srv.limiters[id]
	srv.mu.RUnlock()
	return l == nil || l.Allow()
}

func (srv *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range srv.config.CORSOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// Mount attaches Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&polling.Transport{CheckOrigin: srv.allowOrigin},
			&websocket.Transport{CheckOrigin: srv.allowOrigin},
		},
	})

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		srv.track(s.ID(), s)
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "createRoom", func(s socketio.Conn, req createReq) map[string]any {
		return srv.createRoom(s, req)
	})
	io.OnEvent("/", "joinRoom", func(s socketio.Conn, req joinReq) map[string]any {
		return srv.joinRoom(s, req)
	})
	io.OnEvent("/", "leaveRoom", func(s socketio.Conn, req roomReq) map[string]any {
		return srv.leaveRoom(s, req)
	})
	io.OnEvent("/", "startGame", func(s socketio.Conn, req roomReq) map[string]any {
		return srv.startGame(s, req)
	})
	io.OnEvent("/", "callMeeting", func(s socketio.Conn, req roomReq) map[string]any {
		return srv.callMeeting(s, req)
	})
	io.OnEvent("/", "sendMessage", func(s socketio.Conn, req messageReq) map[string]any {
		return srv.sendMessage(s, req)
	})
	io.OnEvent("/", "getChatHistory", func(s socketio.Conn, req roomReq) any {
		return srv.chatHistory(s, req)
	})
	io.OnEvent("/", "castVote", func(s socketio.Conn, req voteReq) map[string]any {
		return srv.castVote(s, req)
	})
	io.OnEvent("/", "completeTask", func(s socketio.Conn, req taskReq) map[string]any {
		return srv.completeTask(s, req)
	})
	io.OnEvent("/", "sabotageTask", func(s socketio.Conn, req taskReq) map[string]any {
		return srv.sabotageTask(s, req)
	})
	io.OnEvent("/", "useLockpick", func(s socketio.Conn, req lockpickReq) map[string]any {
		return srv.useLockpick(s, req)
	})
	io.OnEvent("/", "useReveal", func(s socketio.Conn, req revealReq) any {
		return srv.useReveal(s, req)
	})
	io.OnEvent("/", "getLockpickableTargets", func(s socketio.Conn, req roomReq) []game.LockTarget {
		return srv.lockpickableTargets(s, req)
	})
	io.OnEvent("/", "playAgain", func(s socketio.Conn, req roomReq) map[string]any {
		return srv.playAgain(s, req)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			log.Error().Err(e).Msg("socket error")
			return
		}
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.disconnect(s.ID(), reason)
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io server stopped")
		}
	}()

	// Mount to router
	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	return io
}

func (srv *Server) disconnect(sid, reason string) {
	left := srv.Reg.Disconnect(sid)
	srv.untrack(sid)
	log.Info().Str("sid", sid).Str("reason", reason).Strs("rooms", left).Msg("socket disconnected")
}

func (srv *Server) err(s conn, err error) map[string]any {
	code := errorCode(err)
	s.Emit("error", map[string]any{"code": code, "message": err.Error()})
	log.Debug().Str("sid", s.ID()).Str("code", code).Msg("request rejected")
	return map[string]any{"error": err.Error()}
}

var errRateLimited = errors.New("you are sending messages too quickly")

// errorCode maps game errors to the stable codes clients switch on.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrNotHost):
		return "not_host"
	case errors.Is(err, game.ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, game.ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, game.ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, game.ErrRoleNotPermitted):
		return "role_not_permitted"
	case errors.Is(err, game.ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, game.ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, game.ErrAlreadyInRoom):
		return "already_in_room"
	case errors.Is(err, game.ErrPlayerBanished):
		return "player_banished"
	case errors.Is(err, game.ErrAbilityUsed):
		return "ability_used"
	case errors.Is(err, game.ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, errRateLimited):
		return "rate_limited"
	default:
		return "bad_request"
	}
}
