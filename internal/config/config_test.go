package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("CODE_TTL", "")
	t.Setenv("UNDO_WINDOW", "")
	t.Setenv("SCYLLA_HOSTS", "a:9042, b:9042")

	cfg := Load()
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Minute, cfg.Redemption.CodeTTL)
	assert.Equal(t, 15*time.Minute, cfg.Redemption.UndoWindow)
	assert.Equal(t, []string{"a:9042", "b:9042"}, cfg.Scylla.Hosts)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("UNDO_WINDOW", "5m")
	t.Setenv("VERIFY_RATE_LIMIT", "3")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 5*time.Minute, cfg.Redemption.UndoWindow)
	assert.Equal(t, 3, cfg.Redemption.VerifyAttempts)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Redemption: RedemptionConfig{TimeZone: "Mars/Olympus"}}
	assert.Equal(t, time.UTC, cfg.Location())

	cfg.Redemption.TimeZone = "America/Chicago"
	assert.Equal(t, "America/Chicago", cfg.Location().String())
}
