package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/shadowheist/internal/api"
	"github.com/kiliankoe/shadowheist/internal/config"
	"github.com/kiliankoe/shadowheist/internal/game"
	"github.com/kiliankoe/shadowheist/internal/results"
	"github.com/kiliankoe/shadowheist/internal/ws"
	staticserver "github.com/kiliankoe/shadowheist/static"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Shadow Heist - Real-time social deduction heist game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 3001 or PORT env var)

Environment Variables:
  PORT                Port to listen on (default: 3001)
  LOG_LEVEL           debug, info, warn or error (default: info)
  LOG_FORMAT          console or json (default: console)
  CORS_ORIGINS        Comma separated allowed origins (default: *)
  PREP_SECONDS        Role reveal phase length (default: 5)
  NIGHT_SECONDS       Night phase length (default: 30)
  DAY_SECONDS         Day phase length (default: 120)
  TASK_SECONDS        Task phase length (default: 90)
  VOTING_SECONDS      Voting phase length (default: 45)
  MIN_PLAYERS         Players needed to start, 3 to 6 (default: 3)
  CHAT_RATE_PER_SEC   Chat messages per second per connection (default: 2)
  CHAT_BURST          Chat burst allowance (default: 5)
  EXPORT_ENABLED      Append finished games to a text file (default: false)
  EXPORT_FILE         Path of that file (default: results/shadowheist.txt)
  REDIS_URL           Archive finished games in Redis (optional)
  RESULTS_TTL_HOURS   How long per-room history is kept in Redis (default: 168)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Shadow Heist %s\n", version)
		return
	}

	cfg := config.Load()
	if *portFlag != "" {
		cfg.Port = *portFlag
	}
	setupLogging(cfg)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		log.Info().Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Game registry + socket server
	reg := game.NewRegistry(nil, cfg.Timings)
	reg.SetMinPlayers(cfg.MinPlayers)
	sock := ws.New(reg, cfg)
	reg.SetNotifier(sock)

	var recorders results.Multi
	var archive api.Archive
	if cfg.ExportEnabled {
		recorders = append(recorders, results.NewFileExporter(cfg.ExportFile))
		log.Info().Str("file", cfg.ExportFile).Msg("exporting finished games")
	}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		ra, err := results.DialRedisArchive(ctx, cfg.RedisURL, cfg.ResultsTTL)
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("redis archive disabled")
		} else {
			defer ra.Close()
			recorders = append(recorders, ra)
			archive = ra
			log.Info().Msg("archiving finished games in redis")
		}
	}
	if len(recorders) > 0 {
		reg.SetRecorder(recorders)
	}

	io := sock.Mount(r)
	defer io.Close()

	api.Register(r, reg, archive)

	// Serve frontend for all other routes
	r.NoRoute(func(c *gin.Context) {
		staticserver.Handler().ServeHTTP(c.Writer, c.Request)
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Info().Str("port", cfg.Port).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	reg.Shutdown()
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Origin"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
