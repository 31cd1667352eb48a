package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/auth"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/bot"
	"github.com/jojozagjos/SUPER-JOJO-PARTY-sub001/internal/models"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 20*time.Second, cfg.VoteWindow)
	assert.Equal(t, 20, cfg.Historian.BatchSize)
	assert.Equal(t, "party_actions", cfg.RedisQueue)

	cost := cfg.PasswordCost()
	assert.Equal(t, uint32(64*1024), cost.MemoryKiB)
	assert.Equal(t, uint32(3), cost.Passes)
	assert.Equal(t, auth.Cost.Threads, cost.Threads)
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("OFFER_TIMEOUT", "5s")
	t.Setenv("BOT_THINK_SCALE", "0.5")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ARGON2_MEMORY_KIB", "4096")
	t.Setenv("ARGON2_THREADS", "2")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	timings := cfg.Timings()
	assert.Equal(t, 5*time.Second, timings.OfferTimeout)
	assert.Zero(t, timings.EncounterSpin, "unset delays are left for the engine to default")
	assert.Equal(t, bot.ThinkTime(models.DifficultyHard)/2, timings.BotThink(models.DifficultyHard))

	assert.Equal(t, logrus.DebugLevel, cfg.Logger().GetLevel())

	cost := cfg.PasswordCost()
	assert.Equal(t, uint32(4096), cost.MemoryKiB)
	assert.Equal(t, uint8(2), cost.Threads)
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("BOT_THINK_SCALE", "-1")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("BOT_THINK_SCALE", "1")
	t.Setenv("VOTE_WINDOW", "soon")
	_, err = Parse()
	assert.Error(t, err)

	t.Setenv("VOTE_WINDOW", "20s")
	t.Setenv("ARGON2_PASSES", "0")
	_, err = Parse()
	assert.Error(t, err)
}
