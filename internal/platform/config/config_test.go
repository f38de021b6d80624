package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ASCEND_ENV", "dev")
	t.Setenv("PLAN_RESERVED_MARGIN", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Commission.ReservedMargin.Equal(decimal.RequireFromString("0.10")))
	assert.Equal(t, "ascend.sales.recorded", cfg.Kafka.SalesTopic)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, time.Hour, cfg.Payout.RankSweepInterval)
	assert.Equal(t, 512, cfg.Network.MaxDepth)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PLAN_RESERVED_MARGIN", "0.25")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,k1:9092")
	t.Setenv("RANK_SWEEP_INTERVAL", "15m")
	t.Setenv("NETWORK_MAX_DEPTH", "40")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Commission.ReservedMargin.Equal(decimal.RequireFromString("0.25")))
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Payout.RankSweepInterval)
	assert.Equal(t, 40, cfg.Network.MaxDepth)
}

func TestFromEnv_RejectsNegativeDepth(t *testing.T) {
	t.Setenv("NETWORK_MAX_DEPTH", "-1")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_RejectsBadMargin(t *testing.T) {
	t.Setenv("PLAN_RESERVED_MARGIN", "1.5")
	_, err := FromEnv()
	assert.Error(t, err)
}

func TestFromEnv_ProdRequiresSigningKey(t *testing.T) {
	t.Setenv("ASCEND_ENV", "prod")
	t.Setenv("JWT_SIGNING_KEY", "")
	_, err := FromEnv()
	assert.Error(t, err)
}
