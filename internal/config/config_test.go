package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := NewFromViper(v)

	assert.Equal(t, "deferred", cfg.GetString("zimbra.queue_name"))
	assert.Equal(t, 300, cfg.GetInt("zimbra.scan_limit"))
	assert.Equal(t, 10, cfg.GetInt("monitor.count_threshold"))
	assert.Equal(t, "BR", cfg.GetString("monitor.home_country"))
	assert.True(t, cfg.GetBool("monitor.treat_unknown_as_foreign"))
	assert.Contains(t, cfg.GetStringSlice("monitor.known_services"), "google.com")
	assert.Equal(t, "file", cfg.GetString("state.type"))

	window, err := cfg.GetDuration("alerts.dedup_window")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, window)
}
