package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"copytrader/internal/broker"
	"copytrader/internal/broker/kite"
	"copytrader/internal/broker/paper"
	"copytrader/internal/config"
	"copytrader/internal/engine"
	"copytrader/internal/feed"
	"copytrader/internal/logger"
	"copytrader/internal/notify"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logger.New(logger.Config{
		Level:      cfg.Runtime.Log.Level,
		Format:     cfg.Runtime.Log.Format,
		Output:     cfg.Runtime.Log.File,
		MaxSize:    cfg.Runtime.Log.MaxSize,
		MaxBackups: cfg.Runtime.Log.MaxBackups,
		MaxAge:     cfg.Runtime.Log.MaxAge,
		Compress:   cfg.Runtime.Log.Compress,
	})

	logger.Info("Репликатор запущен.")

	notifier := notify.NewLogNotifier(logger)

	leader := kite.New(cfg.Broker.BaseURL, cfg.Broker.WSURL, cfg.Leader.APIKey, cfg.Leader.AccessToken, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	followers := buildFollowers(ctx, cfg, notifier, logger)
	if len(followers) == 0 {
		logger.Fatal("Ни один последователь не прошёл проверку.")
	}

	hours, err := engine.NewMarketHours(cfg.MarketHours)
	if err != nil {
		logger.WithError(err).Fatal("Неверные настройки торговой сессии.")
	}

	norm := engine.NewNormalizer(engine.NewProcessedOrderSet(0), logger)
	risk := engine.NewRisk(cfg.Risk)
	exec := engine.NewExecutor(cfg.Replication, logger)
	coord := engine.NewCoordinator(followers, risk, exec, notifier, hours, logger)
	coord.ResetDaily()

	connector := feed.New(leader, norm, cfg.Feed, notifier, logger)
	if err := connector.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Не удалось подключиться к ленте лидера.")
	}

	if cfg.Runtime.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Runtime.MetricsAddr, mux); err != nil {
				logger.WithError(err).Error("Сервер метрик остановлен.")
			}
		}()
	}

	go coord.Monitor(ctx, 5*time.Minute, func() string {
		return connector.Status().String()
	})

	coordDone := make(chan struct{})
	go func() {
		defer close(coordDone)
		coord.Run(ctx, connector.Events())
	}()

	<-sigCh

	logger.Info("Остановка, дожидаемся текущих заявок.")
	connector.Stop()

	select {
	case <-coordDone:
	case <-time.After(cfg.Replication.ShutdownTimeout):
		logger.Warn("Таймаут остановки, текущие заявки прерваны.")
		cancel()
		<-coordDone
	}

	notifier.NotifyDailySummary(coord.Stats())

	for _, f := range followers {
		_ = f.Client.Close()
	}
	_ = leader.Close()

	logger.Info("Репликатор остановлен.")
}

// buildFollowers создаёт клиентов последователей и проверяет доступ к
// аккаунтам. Аккаунт с недоступным профилем пропускается, запуск
// продолжается с остальными.
func buildFollowers(ctx context.Context, cfg *config.Config, notifier notify.Notifier, log *logger.Logger) []*engine.Follower {
	followers := make([]*engine.Follower, 0, len(cfg.Followers))

	for _, fc := range cfg.Followers {
		if !fc.Enabled {
			log.WithUserID(fc.UserID).Info("Последователь выключен в настройках.")
			continue
		}

		var client broker.Client
		if cfg.Runtime.PaperTrading {
			client = paper.New(fc.UserID, log)
		} else {
			client = kite.New(cfg.Broker.BaseURL, cfg.Broker.WSURL, fc.APIKey, fc.AccessToken, log)
		}

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		profile, err := client.Profile(checkCtx)
		cancel()
		if err != nil {
			log.WithUserID(fc.UserID).WithError(err).Error("Профиль аккаунта недоступен, последователь пропущен.")
			notifier.NotifyAlert("follower", "Аккаунт "+fc.UserID+" недоступен и исключён из репликации.", "WARNING")
			_ = client.Close()
			continue
		}

		log.WithUserID(fc.UserID).WithFields(map[string]interface{}{
			"name":       profile.UserName,
			"multiplier": fc.Multiplier,
		}).Info("Последователь подключён.")

		followers = append(followers, engine.NewFollower(fc, client))
	}

	return followers
}
