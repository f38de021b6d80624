// Package config loads process configuration from the environment. A .env
// file in the working directory is read first when present; real environment
// variables always win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	pkgstrings "ascend/pkg/platform/strings"
)

// MaxPlanLevels is the hard upper bound on upline levels any plan may pay.
const MaxPlanLevels = 6

// Config is the full process configuration.
type Config struct {
	Environment string
	LogLevel    string
	LogFormat   string

	Server     Server
	Auth       AuthConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Network    NetworkConfig
	Commission CommissionConfig
	Payout     PayoutConfig
	Gateways   GatewayConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr               string
	AdminToken         string
	RequestTimeout     time.Duration
	RateLimitPerSecond float64
	RateLimitBurst     int
	CORSOrigins        []string
}

// AuthConfig validates bearer tokens minted by the external identity service.
type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
}

// PostgresConfig selects the durable stores. An empty URL keeps everything in memory.
type PostgresConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// RedisConfig enables the distributed sale lock and the aggregation cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LockTTL      time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig enables the sale-recorded consumer and the token-mint notifier.
type KafkaConfig struct {
	Brokers           []string
	SalesTopic        string
	TokensTopic       string
	ConsumerGroup     string
	Partitions        int32
	ReplicationFactor int16
}

// NetworkConfig bounds the referral tree.
type NetworkConfig struct {
	// MaxDepth is the deepest level below a root a participant may sit.
	// Zero disables the bound.
	MaxDepth int
}

// CommissionConfig holds plan-authoring limits.
type CommissionConfig struct {
	// ReservedMargin is the share of every sale the operator keeps; plans whose
	// worst-case payout exceeds 1 - ReservedMargin are rejected at authoring time.
	ReservedMargin  decimal.Decimal
	DefaultCurrency string
}

// PayoutConfig tunes the background workers.
type PayoutConfig struct {
	Workers           int
	RankSweepInterval time.Duration
	AutoExecute       bool
}

// GatewayConfig points at the external KYC and payment services.
type GatewayConfig struct {
	KYCURL          string
	KYCAllowAll     bool
	TransferURL     string
	TransferAPIKey  string
	Timeout         time.Duration
	BreakerFailures int
	BreakerCooldown time.Duration
}

// Enabled reports whether Kafka is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// FromEnv builds the Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	margin, err := decimal.NewFromString(getEnv("PLAN_RESERVED_MARGIN", "0.10"))
	if err != nil || margin.IsNegative() || margin.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Config{}, fmt.Errorf("PLAN_RESERVED_MARGIN must be a fraction in [0,1)")
	}

	cfg := Config{
		Environment: getEnv("ASCEND_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		Server: Server{
			Addr:               getEnv("ASCEND_ADDR", ":8080"),
			AdminToken:         os.Getenv("ADMIN_API_TOKEN"),
			RequestTimeout:     getDuration("HTTP_REQUEST_TIMEOUT", 10*time.Second),
			RateLimitPerSecond: getFloat("HTTP_RATE_LIMIT_RPS", 20),
			RateLimitBurst:     getInt("HTTP_RATE_LIMIT_BURST", 40),
			CORSOrigins:        pkgstrings.SplitCSV(os.Getenv("CORS_ALLOWED_ORIGINS")),
		},
		Auth: AuthConfig{
			// Use a default for development - must be overridden in production
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        os.Getenv("JWT_ISSUER"),
			Audience:      os.Getenv("JWT_AUDIENCE"),
		},
		Postgres: PostgresConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       getDuration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			LockTTL:      getDuration("SALE_LOCK_TTL", 15*time.Second),
			CacheTTL:     getDuration("AGGREGATE_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:           pkgstrings.SplitCSV(os.Getenv("KAFKA_BROKERS")),
			SalesTopic:        getEnv("KAFKA_SALES_TOPIC", "ascend.sales.recorded"),
			TokensTopic:       getEnv("KAFKA_TOKENS_TOPIC", "ascend.tokens.mint"),
			ConsumerGroup:     getEnv("KAFKA_CONSUMER_GROUP", "ascend-commission-engine"),
			Partitions:        int32(getInt("KAFKA_TOPIC_PARTITIONS", 6)),
			ReplicationFactor: int16(getInt("KAFKA_TOPIC_REPLICATION", 1)),
		},
		Network: NetworkConfig{
			MaxDepth: getInt("NETWORK_MAX_DEPTH", 512),
		},
		Commission: CommissionConfig{
			ReservedMargin:  margin,
			DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
		},
		Payout: PayoutConfig{
			Workers:           getInt("PAYOUT_WORKERS", 4),
			RankSweepInterval: getDuration("RANK_SWEEP_INTERVAL", time.Hour),
			AutoExecute:       getEnv("PAYOUT_AUTO_EXECUTE", "true") == "true",
		},
		Gateways: GatewayConfig{
			KYCURL:          os.Getenv("KYC_SERVICE_URL"),
			KYCAllowAll:     os.Getenv("KYC_ALLOW_ALL") == "true",
			TransferURL:     os.Getenv("TRANSFER_GATEWAY_URL"),
			TransferAPIKey:  os.Getenv("TRANSFER_GATEWAY_API_KEY"),
			Timeout:         getDuration("GATEWAY_TIMEOUT", 10*time.Second),
			BreakerFailures: getInt("GATEWAY_BREAKER_FAILURES", 5),
			BreakerCooldown: getDuration("GATEWAY_BREAKER_COOLDOWN", 30*time.Second),
		},
	}

	if cfg.Network.MaxDepth < 0 {
		return Config{}, fmt.Errorf("NETWORK_MAX_DEPTH must not be negative")
	}
	if cfg.Environment == "prod" && cfg.Auth.JWTSigningKey == "dev-secret-key-change-in-production" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY must be set in prod")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}
