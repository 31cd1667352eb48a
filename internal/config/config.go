// internal/config/config.go

// Package config reads process configuration from the environment. A .env file in the working
// directory is loaded first when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/auth"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/bot"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/game"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

// Config is shared by cmd/server and cmd/historian.
type Config struct {
	Env         string `env:"ENV" envDefault:"dev"`
	Port        string `env:"PORT" envDefault:"8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// DatabaseURL empty keeps accounts and records in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// RedisAddr empty disables the action log.
	RedisAddr  string `env:"REDIS_ADDR"`
	RedisDB    int    `env:"REDIS_DB" envDefault:"0"`
	RedisQueue string `env:"HISTORIAN_QUEUE_NAME" envDefault:"party_actions"`

	TokenTTL       time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"72h"`
	PrivateKeyPath string        `env:"AUTH_PRIVATE_KEY_PATH"`
	PublicKeyPath  string        `env:"AUTH_PUBLIC_KEY_PATH"`

	CatalogPath string `env:"CATALOG_PATH"`

	Argon2 Argon2Config

	Game       GameTimings
	Historian  HistorianConfig
	VoteWindow time.Duration `env:"VOTE_WINDOW" envDefault:"20s"`
}

// GameTimings are the engine delays. Zero values fall back to the engine defaults.
type GameTimings struct {
	EncounterSpin   time.Duration `env:"ENCOUNTER_SPIN_DELAY"`
	MinigameIntro   time.Duration `env:"MINIGAME_INTRO_DELAY"`
	MinigameCeiling time.Duration `env:"MINIGAME_MAX_DURATION"`
	DuelCeiling     time.Duration `env:"DUEL_MAX_DURATION"`
	ResultsDisplay  time.Duration `env:"RESULTS_DISPLAY_DELAY"`
	OfferTimeout    time.Duration `env:"OFFER_TIMEOUT"`
	CleanupGrace    time.Duration `env:"MATCH_CLEANUP_GRACE"`
	BotThinkScale   float64       `env:"BOT_THINK_SCALE" envDefault:"1"`
}

// Argon2Config sets the password hashing work factor. Zero threads keeps the auth default.
type Argon2Config struct {
	MemoryKiB uint32 `env:"ARGON2_MEMORY_KIB" envDefault:"65536"`
	Passes    uint32 `env:"ARGON2_PASSES" envDefault:"3"`
	Threads   uint8  `env:"ARGON2_THREADS"`
}

// HistorianConfig tunes the action log drain.
type HistorianConfig struct {
	BatchSize  int           `env:"HISTORIAN_BATCH_SIZE" envDefault:"20"`
	FlushDelay time.Duration `env:"HISTORIAN_FLUSH_DELAY" envDefault:"500ms"`
	Inactivity time.Duration `env:"GAME_INACTIVITY_TIMEOUT" envDefault:"10m"`
}

// Load reads .env if present, then parses the environment.
func Load() (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the environment without touching .env.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Game.BotThinkScale < 0 {
		return nil, fmt.Errorf("BOT_THINK_SCALE must not be negative")
	}
	if cfg.Argon2.MemoryKiB < 8*uint32(max(cfg.Argon2.Threads, 1)) || cfg.Argon2.Passes < 1 {
		return nil, fmt.Errorf("ARGON2_MEMORY_KIB must be at least 8 per thread and ARGON2_PASSES at least 1")
	}
	if cfg.RedisQueue == "" {
		return nil, fmt.Errorf("HISTORIAN_QUEUE_NAME must not be empty")
	}
	return &cfg, nil
}

// Timings converts the configured delays for the engine.
func (c *Config) Timings() game.Timings {
	scale := c.Game.BotThinkScale
	return game.Timings{
		EncounterSpin:   c.Game.EncounterSpin,
		MinigameIntro:   c.Game.MinigameIntro,
		MinigameCeiling: c.Game.MinigameCeiling,
		DuelCeiling:     c.Game.DuelCeiling,
		ResultsDisplay:  c.Game.ResultsDisplay,
		OfferTimeout:    c.Game.OfferTimeout,
		CleanupGrace:    c.Game.CleanupGrace,
		BotThink: func(d models.Difficulty) time.Duration {
			return time.Duration(float64(bot.ThinkTime(d)) * scale)
		},
	}
}

// PasswordCost returns the hashing work factor for new passwords.
func (c *Config) PasswordCost() auth.PasswordCost {
	cost := auth.Cost
	cost.MemoryKiB = c.Argon2.MemoryKiB
	cost.Passes = c.Argon2.Passes
	if c.Argon2.Threads > 0 {
		cost.Threads = c.Argon2.Threads
	}
	return cost
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.Env == "prod" || c.Env == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
