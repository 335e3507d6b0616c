package engine

import (
	"copytrader/internal/broker/paper"
	"copytrader/internal/config"
	"copytrader/internal/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "panic"})
}

func testFollower(cfg config.FollowerConfig) (*Follower, *paper.Client) {
	client := paper.New(cfg.UserID, nil)
	return NewFollower(cfg, client), client
}

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		DailyTradeCap:       100,
		DailyLossFloor:      10000,
		HighRiskCommodities: []string{"CRUDEOIL", "NATURALGAS", "GOLD", "SILVER"},
	}
}
