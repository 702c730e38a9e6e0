package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OUTBOX_INTERVAL_SECONDS", "30")
	t.Setenv("ALLOWED_ORIGINS", " https://mimoly.app, ,http://localhost:3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.OutboxInterval)
	assert.Equal(t, []string{"https://mimoly.app", "http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadRejectsNonPositiveOutboxInterval(t *testing.T) {
	for _, value := range []string{"0", "-5"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("OUTBOX_INTERVAL_SECONDS", value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
