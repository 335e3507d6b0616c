package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"copytrader/internal/models"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("CT_TEST_KEY", "secret-key")
	t.Setenv("CT_TEST_TOKEN", "secret-token")

	assert.Equal(t, "secret-key", expandEnv("${CT_TEST_KEY}"))
	assert.Equal(t, "secret-key:secret-token", expandEnv("${CT_TEST_KEY}:${CT_TEST_TOKEN}"))
	assert.Equal(t, "plain-value", expandEnv("plain-value"))
	assert.Equal(t, "", expandEnv(""))
	// Неизвестная переменная заменяется пустой строкой.
	assert.Equal(t, "", expandEnv("${CT_TEST_MISSING}"))
}

func validConfig() *Config {
	return &Config{
		Leader: AccountConfig{
			UserID:      "AB1234",
			APIKey:      "key",
			APISecret:   "secret",
			AccessToken: "token",
		},
		Followers: []FollowerConfig{
			{UserID: "CD5678", APIKey: "key", AccessToken: "token", Multiplier: 1},
		},
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Leader.AccessToken = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Followers = nil
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Followers[0].UserID = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Followers[0].Multiplier = -1
	assert.Error(t, cfg.Validate())

	// В бумажном режиме ключи последователей не обязательны.
	cfg = validConfig()
	cfg.Followers[0].APIKey = ""
	cfg.Followers[0].AccessToken = ""
	assert.Error(t, cfg.Validate())
	cfg.Runtime.PaperTrading = true
	assert.NoError(t, cfg.Validate())
}

func TestEnabledSegments(t *testing.T) {
	all := FollowerConfig{}.EnabledSegments()
	for _, s := range models.KnownSegments {
		assert.True(t, all[s])
	}

	some := FollowerConfig{Segments: []string{"nse", " NFO "}}.EnabledSegments()
	assert.True(t, some[models.SegmentNSE])
	assert.True(t, some[models.SegmentNFO])
	assert.False(t, some[models.SegmentMCX])
}

func TestSegmentOverrides(t *testing.T) {
	cfg := FollowerConfig{
		Multiplier:         1.0,
		MaxPosition:        100,
		SegmentMultipliers: map[string]float64{"NFO": 0.25},
		SegmentLimits:      map[string]int{"NFO": 10},
	}

	assert.Equal(t, 0.25, cfg.SegmentMultiplier(models.SegmentNFO))
	assert.Equal(t, 1.0, cfg.SegmentMultiplier(models.SegmentNSE))
	assert.Equal(t, 10, cfg.SegmentLimit(models.SegmentNFO))
	assert.Equal(t, 100, cfg.SegmentLimit(models.SegmentNSE))
}
