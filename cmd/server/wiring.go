package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"ascend/internal/commission/cache"
	"ascend/internal/commission/lock"
	commissionservice "ascend/internal/commission/service"
	linestore "ascend/internal/commission/store/line"
	salestore "ascend/internal/commission/store/sale"
	netservice "ascend/internal/network/service"
	participantstore "ascend/internal/network/store/participant"
	"ascend/internal/payout/adapters/gateway"
	payoutservice "ascend/internal/payout/service"
	payoutstore "ascend/internal/payout/store/payout"
	"ascend/internal/plan/adapters/kyc"
	planservice "ascend/internal/plan/service"
	planstore "ascend/internal/plan/store/plan"
	"ascend/internal/platform/config"
	"ascend/internal/platform/kafka"
	"ascend/internal/platform/kafka/producer"
	"ascend/internal/platform/postgres"
	platformredis "ascend/internal/platform/redis"
	"ascend/pkg/platform/audit"
	auditmemory "ascend/pkg/platform/audit/store/memory"
	auditpostgres "ascend/pkg/platform/audit/store/postgres"
	"ascend/pkg/platform/circuit"
	txcontext "ascend/pkg/platform/tx"
)

// stores is the persistence selected by configuration: Postgres when
// DATABASE_URL is set, in-memory otherwise.
type stores struct {
	participants netservice.ParticipantStore
	plans        planservice.PlanStore
	sales        commissionservice.SaleStore
	lines        commissionservice.LineStore
	payouts      payoutservice.Store
	audit        audit.Store
	tx           txcontext.Runner
}

func openStores(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*stores, *sql.DB, error) {
	if cfg.URL == "" {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		return &stores{
			participants: participantstore.NewInMemory(),
			plans:        planstore.NewInMemory(),
			sales:        salestore.NewInMemory(),
			lines:        linestore.NewInMemory(),
			payouts:      payoutstore.NewInMemory(),
			audit:        auditmemory.NewInMemoryStore(),
			tx:           txcontext.NewLocalRunner(cfg.TxTimeout),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return &stores{
		participants: participantstore.NewPostgres(db),
		plans:        planstore.NewPostgres(db),
		sales:        salestore.NewPostgres(db),
		lines:        linestore.NewPostgres(db),
		payouts:      payoutstore.NewPostgres(db),
		audit:        auditpostgres.New(db),
		tx:           txcontext.NewSQLRunner(db, cfg.TxTimeout),
	}, db, nil
}

// saleCoordination returns the sale lock and aggregation cache. Without Redis
// the lock is process-local and reports are not cached.
func saleCoordination(client *platformredis.Client, cfg config.RedisConfig, logger *slog.Logger) (commissionservice.SaleLocker, commissionservice.AggregateCache) {
	if client == nil {
		return lock.NewLocal(), nil
	}
	return lock.NewRedis(client.Client, cfg.LockTTL, lock.WithLogger(logger)),
		cache.NewRedis(client.Client, cfg.CacheTTL)
}

func verificationChecker(cfg config.GatewayConfig, logger *slog.Logger) planservice.VerificationChecker {
	if cfg.KYCURL == "" {
		logger.Warn("KYC_SERVICE_URL not set, using static verification", "verified", cfg.KYCAllowAll)
		return kyc.StaticChecker{Verified: cfg.KYCAllowAll}
	}
	return kyc.NewHTTPChecker(cfg.KYCURL, cfg.Timeout, newBreaker("kyc", cfg), logger)
}

func transferGateway(cfg config.GatewayConfig, logger *slog.Logger) payoutservice.TransferGateway {
	if cfg.TransferURL == "" {
		logger.Warn("TRANSFER_GATEWAY_URL not set, payouts settle against the sandbox gateway")
		return gateway.SandboxGateway{}
	}
	return gateway.NewHTTPGateway(cfg.TransferURL, cfg.TransferAPIKey, cfg.Timeout, newBreaker("transfer-gateway", cfg), logger)
}

func newBreaker(name string, cfg config.GatewayConfig) *circuit.Breaker {
	return circuit.New(name,
		circuit.WithFailureThreshold(cfg.BreakerFailures),
		circuit.WithCooldown(cfg.BreakerCooldown),
	)
}

// openProducer creates the outbound topics and returns a producer on its own
// client.
func openProducer(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*producer.Producer, *kgo.Client, error) {
	cl, err := kafka.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := kafka.EnsureTopics(ctx, cl, cfg, logger); err != nil {
		cl.Close()
		return nil, nil, fmt.Errorf("bootstrap kafka topics: %w", err)
	}
	return producer.New(cl, logger), cl, nil
}
