package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coinpaprika-price-alerts/config"
	"coinpaprika-price-alerts/internal/alert"
	"coinpaprika-price-alerts/internal/cache"
	"coinpaprika-price-alerts/internal/commands"
	"coinpaprika-price-alerts/internal/database"
	"coinpaprika-price-alerts/internal/metrics"
	"coinpaprika-price-alerts/internal/notify"
	"coinpaprika-price-alerts/internal/price"
	"coinpaprika-price-alerts/internal/telegram"
	"coinpaprika-price-alerts/lib/translation"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	translation.Configure("locales", config.GetString("lang"))

	db, err := database.Open(config.GetString("db_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metricStore := database.NewMetricStore(db)
	m := metrics.New(prometheus.DefaultRegisterer)
	m.Load(metricStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, db)
	if err != nil {
		log.Fatalf("Failed to initialize alert store: %v", err)
	}
	store := alert.NewStore(backend)

	feed, err := newFeed()
	if err != nil {
		log.Fatalf("Failed to initialize price feed: %v", err)
	}

	epsilon, err := decimal.NewFromString(config.GetString("price_epsilon"))
	if err != nil {
		log.Fatalf("Invalid PRICE_EPSILON: %v", err)
	}

	senders := []notify.Sender{notify.LogSender{}}
	if url := config.GetString("discord_webhook_url"); url != "" {
		senders = append(senders, notify.NewDiscordSender(url))
	}

	var bot *telegram.Bot
	if token := config.GetString("telegram_bot_token"); token != "" {
		bot, err = telegram.NewBot(telegram.BotConfig{
			Token:          token,
			Debug:          config.GetBool("debug"),
			UpdatesTimeout: 60,
			AllowedChatID:  config.GetInt64("telegram_chat_id"),
		})
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		if chatID := config.GetInt64("telegram_chat_id"); chatID != 0 {
			senders = append(senders, notify.NewTelegramSender(bot, chatID))
		}
	}

	monitor := alert.NewMonitor(store, feed, notify.NewDispatcher(senders, m), m, alert.MonitorConfig{
		Interval:     config.GetDuration("poll_interval"),
		FetchTimeout: config.GetDuration("fetch_timeout"),
		Epsilon:      epsilon,
	})
	controller := alert.NewController(store, monitor, m)

	active, err := controller.HasActiveAlerts(ctx)
	if err != nil {
		log.Errorf("Failed to read alerts: %v", err)
	} else if active {
		if _, err := controller.Start(ctx); err != nil {
			log.Errorf("Failed to start alert monitor: %v", err)
		}
	}

	if bot != nil {
		bot.SetCommandHandler(commands.NewHandler(store, controller, feed))
		go bot.Serve(ctx, bot.GetUpdatesChannel())
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Save(metricStore)
			}
		}
	}()

	srv := newMetricsAndHealthServer(config.GetInt("metrics_port"), controller)
	go func() {
		log.Infof("Launching metrics and health endpoint on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	<-ctx.Done()

	controller.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	m.Save(metricStore)
	log.Info("Metrics saved, shutting down...")
}

func setupLogging() {
	log.SetLevel(log.ErrorLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting price alert monitor...")
}

func newBackend(ctx context.Context, db *sql.DB) (alert.Backend, error) {
	namespace := config.GetString("alert_namespace")

	switch backend := config.GetString("store_backend"); backend {
	case "sqlite":
		return database.NewKV(db, namespace), nil
	case "redis":
		rdb, err := cache.NewRedisClient(ctx,
			config.GetString("redis_addr"),
			config.GetString("redis_password"),
			config.GetInt("redis_db"),
		)
		if err != nil {
			return nil, err
		}
		return cache.NewRedisKV(rdb, namespace), nil
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}
}

func newFeed() (price.Feed, error) {
	timeout := config.GetDuration("fetch_timeout")
	quote := config.GetString("quote_currency")

	switch feed := config.GetString("price_feed"); feed {
	case "coinpaprika":
		return price.NewCoinpaprikaFeed(config.GetString("api_pro_key"), quote, timeout), nil
	case "binance":
		return price.NewBinanceFeed(config.GetString("binance_base_url"), quote, timeout), nil
	default:
		return nil, errors.Errorf("unknown price feed %q", feed)
	}
}

func newMetricsAndHealthServer(port int, controller *alert.Controller) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if controller.IsRunning() {
			w.Write([]byte("OK monitoring"))
			return
		}
		w.Write([]byte("OK idle"))
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}
