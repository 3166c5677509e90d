package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, 9090, GetInt("metrics_port"))
	assert.Equal(t, "sqlite", GetString("store_backend"))
	assert.Equal(t, "coinpaprika", GetString("price_feed"))
	assert.Equal(t, "price_alerts", GetString("alert_namespace"))
	assert.Equal(t, time.Minute, GetDuration("poll_interval"))
	assert.Equal(t, 15*time.Second, GetDuration("fetch_timeout"))
	assert.Equal(t, "0.01", GetString("price_epsilon"))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("PRICE_FEED", "binance")

	assert.Equal(t, 30*time.Second, GetDuration("poll_interval"))
	assert.Equal(t, "binance", GetString("price_feed"))
}
