package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
		viper.BindEnv("discord_webhook_url", "DISCORD_WEBHOOK_URL")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")

		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("store_backend", "STORE_BACKEND")
		viper.BindEnv("redis_addr", "REDIS_ADDR")
		viper.BindEnv("redis_password", "REDIS_PASSWORD")
		viper.BindEnv("redis_db", "REDIS_DB")
		viper.BindEnv("alert_namespace", "ALERT_NAMESPACE")

		viper.BindEnv("price_feed", "PRICE_FEED")
		viper.BindEnv("quote_currency", "QUOTE_CURRENCY")
		viper.BindEnv("binance_base_url", "BINANCE_BASE_URL")
		viper.BindEnv("poll_interval", "POLL_INTERVAL")
		viper.BindEnv("fetch_timeout", "FETCH_TIMEOUT")
		viper.BindEnv("price_epsilon", "PRICE_EPSILON")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")

		viper.SetDefault("db_path", "/app/data/alerts.db")
		viper.SetDefault("store_backend", "sqlite")
		viper.SetDefault("redis_addr", "localhost:6379")
		viper.SetDefault("redis_db", 0)
		viper.SetDefault("alert_namespace", "price_alerts")

		viper.SetDefault("price_feed", "coinpaprika")
		viper.SetDefault("binance_base_url", "https://api.binance.com")
		viper.SetDefault("poll_interval", time.Minute)
		viper.SetDefault("fetch_timeout", 15*time.Second)
		viper.SetDefault("price_epsilon", "0.01")
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
