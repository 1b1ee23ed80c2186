package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kiliankoe/shadowheist/internal/game"
)

type Config struct {
	Port        string
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	Timings    game.Timings
	MinPlayers int

	ChatRatePerSec float64
	ChatBurst      int

	ExportEnabled bool
	ExportFile    string
	RedisURL      string
	ResultsTTL    time.Duration
}

// Load reads a .env file if one exists and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env")
	}
	return FromEnv()
}

func FromEnv() Config {
	def := game.DefaultTimings()
	c := Config{}
	c.Port = getenv("PORT", "3001")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.LogFormat = getenv("LOG_FORMAT", "console")
	c.CORSOrigins = getlist("CORS_ORIGINS", []string{"*"})
	c.Timings = game.Timings{
		Prep:   getseconds("PREP_SECONDS", def.Prep),
		Night:  getseconds("NIGHT_SECONDS", def.Night),
		Day:    getseconds("DAY_SECONDS", def.Day),
		Task:   getseconds("TASK_SECONDS", def.Task),
		Voting: getseconds("VOTING_SECONDS", def.Voting),
	}
	c.MinPlayers = getint("MIN_PLAYERS", game.MinPlayers)
	c.ChatRatePerSec = getfloat("CHAT_RATE_PER_SEC", 2)
	c.ChatBurst = getint("CHAT_BURST", 5)
	c.ExportEnabled = getenv("EXPORT_ENABLED", "false") == "true"
	c.ExportFile = getenv("EXPORT_FILE", "results/shadowheist.txt")
	c.RedisURL = os.Getenv("REDIS_URL")
	c.ResultsTTL = time.Duration(getint("RESULTS_TTL_HOURS", 168)) * time.Hour
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
		return def
	}
	return n
}

func getfloat(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("not a number, using default")
		return def
	}
	return f
}

// getseconds reads a whole number of seconds. Zero or negative values keep the default.
func getseconds(k string, def time.Duration) time.Duration {
	n := getint(k, int(def/time.Second))
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func getlist(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
