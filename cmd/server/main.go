package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riverqueue/river"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	audithandler "ascend/internal/audit/handler"
	commissionkafka "ascend/internal/commission/adapters/kafka"
	commissionhandler "ascend/internal/commission/handler"
	commissionmetrics "ascend/internal/commission/metrics"
	commissionservice "ascend/internal/commission/service"
	jwttoken "ascend/internal/jwt_token"
	nethandler "ascend/internal/network/handler"
	netmetrics "ascend/internal/network/metrics"
	netservice "ascend/internal/network/service"
	payoutkafka "ascend/internal/payout/adapters/kafka"
	payoutriver "ascend/internal/payout/adapters/river"
	payouthandler "ascend/internal/payout/handler"
	payoutmetrics "ascend/internal/payout/metrics"
	payoutservice "ascend/internal/payout/service"
	planhandler "ascend/internal/plan/handler"
	planmetrics "ascend/internal/plan/metrics"
	planservice "ascend/internal/plan/service"
	"ascend/internal/platform/config"
	"ascend/internal/platform/httpserver"
	"ascend/internal/platform/jobs"
	"ascend/internal/platform/kafka"
	"ascend/internal/platform/kafka/consumer"
	"ascend/internal/platform/logger"
	"ascend/internal/platform/metrics"
	platformredis "ascend/internal/platform/redis"
	rankriver "ascend/internal/rank/adapters/river"
	rankhandler "ascend/internal/rank/handler"
	rankmetrics "ascend/internal/rank/metrics"
	rankservice "ascend/internal/rank/service"
	httptransport "ascend/internal/transport/http"
	"ascend/pkg/domain"
	"ascend/pkg/platform/audit/publisher"
	"ascend/pkg/platform/middleware/request"
)

const shutdownTimeout = 15 * time.Second

// main loads configuration and runs the service until SIGINT or SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("ascend stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("ascend stopped")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	currency, err := domain.ParseCurrency(cfg.Commission.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("DEFAULT_CURRENCY: %w", err)
	}

	st, db, err := openStores(ctx, cfg.Postgres, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	saleLock, aggregateCache := saleCoordination(redisClient, cfg.Redis, log)

	auditor := publisher.NewPublisher(st.audit, publisher.WithAsyncBuffer(1024), publisher.WithLogger(log))
	defer auditor.Close()

	// Domain services. Rank, commission and network call into each other, so
	// the cross references are set once all three exist.
	network := netservice.New(st.participants,
		netservice.WithLogger(log),
		netservice.WithMaxDepth(cfg.Network.MaxDepth),
		netservice.WithAuditPublisher(auditor),
		netservice.WithMetrics(netmetrics.New()),
	)
	rank := rankservice.New(network, nil, currency,
		rankservice.WithLogger(log),
		rankservice.WithAuditPublisher(auditor),
		rankservice.WithMetrics(rankmetrics.New()),
	)
	plans := planservice.New(st.plans, network, verificationChecker(cfg.Gateways, log), st.tx,
		planservice.WithLogger(log),
		planservice.WithAuditPublisher(auditor),
		planservice.WithMetrics(planmetrics.New()),
		planservice.WithMarginPolicy(cfg.Commission.ReservedMargin, rank.MaxMultiplier()),
	)

	commissionOpts := []commissionservice.Option{
		commissionservice.WithLogger(log),
		commissionservice.WithAuditPublisher(auditor),
		commissionservice.WithMetrics(commissionmetrics.New()),
	}
	if aggregateCache != nil {
		commissionOpts = append(commissionOpts, commissionservice.WithAggregateCache(aggregateCache))
	}
	payoutOpts := []payoutservice.Option{
		payoutservice.WithLogger(log),
		payoutservice.WithAuditPublisher(auditor),
		payoutservice.WithMetrics(payoutmetrics.New()),
		payoutservice.WithGateway(transferGateway(cfg.Gateways, log)),
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled() {
		prod, prodClient, err := openProducer(ctx, cfg.Kafka, log)
		if err != nil {
			return err
		}
		defer prodClient.Close()
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := prod.Flush(flushCtx); err != nil {
				log.Warn("kafka flush incomplete", "error", err)
			}
		}()
		commissionOpts = append(commissionOpts, commissionservice.WithSaleEvents(prod, cfg.Kafka.SalesTopic))
		payoutOpts = append(payoutOpts, payoutservice.WithTokenNotifier(payoutkafka.NewTokenNotifier(prod, cfg.Kafka.TokensTopic)))
	} else {
		log.Warn("KAFKA_BROKERS not set, commissions are computed inline and token mints are not published")
	}

	commission := commissionservice.New(st.sales, st.lines, network, plans, rank, saleLock, st.tx, commissionOpts...)
	payouts := payoutservice.New(st.payouts, commission, network, st.tx, currency, payoutOpts...)

	rank.SetLedger(commission)
	commission.SetStandingRefresher(rank)
	network.SetStandingRefresher(rank)

	if cfg.Kafka.Enabled() {
		router := consumer.NewRouter(log)
		router.Register(cfg.Kafka.SalesTopic, commissionkafka.NewSalesHandler(commission, log))
		consumerClient, err := kafka.NewClient(cfg.Kafka,
			kgo.ConsumerGroup(cfg.Kafka.ConsumerGroup),
			kgo.ConsumeTopics(router.Topics()...),
			kgo.DisableAutoCommit(),
		)
		if err != nil {
			return err
		}
		defer consumerClient.Close()
		g.Go(func() error {
			return consumer.New(consumerClient, router, log).Run(gctx)
		})
	}

	if db != nil {
		if err := startJobs(gctx, g, cfg, log, rank, payouts); err != nil {
			return err
		}
	} else {
		g.Go(func() error {
			return sweepLoop(gctx, rank, cfg.Payout.RankSweepInterval, log)
		})
	}

	healthChecks := map[string]httptransport.HealthCheck{}
	if db != nil {
		healthChecks["postgres"] = db.PingContext
	}
	if redisClient != nil {
		healthChecks["redis"] = redisClient.Health
	}

	handler := httptransport.NewRouter(httptransport.Options{
		Logger:         log,
		Validator:      jwttoken.NewJWTServiceAdapter(jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)),
		AdminToken:     cfg.Server.AdminToken,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimiter:    request.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst, log),
		Metrics:        metrics.New(),
		HealthChecks:   healthChecks,
	},
		nethandler.New(network, log, config.MaxPlanLevels),
		planhandler.New(plans, log),
		rankhandler.New(rank, log),
		commissionhandler.New(commission, log, currency),
		payouthandler.New(payouts, log),
		audithandler.New(auditor, log),
	)

	srv := httpserver.New(cfg.Server.Addr, handler)
	g.Go(func() error {
		log.Info("starting ascend", "addr", cfg.Server.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// startJobs runs River on its own pgx pool: the periodic rank sweep and
// payout transfer execution.
func startJobs(ctx context.Context, g *errgroup.Group, cfg config.Config, log *slog.Logger, rank *rankservice.Service, payouts *payoutservice.Service) error {
	pool, err := jobs.NewPool(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	if err := jobs.Migrate(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, rankriver.NewSweepWorker(rank))
	river.AddWorker(workers, payoutriver.NewExecuteWorker(payouts, log))

	client, err := jobs.NewClient(pool, workers, jobs.Options{
		MaxWorkers:   cfg.Payout.Workers,
		PeriodicJobs: []*river.PeriodicJob{rankriver.PeriodicSweep(cfg.Payout.RankSweepInterval)},
		Logger:       log,
	})
	if err != nil {
		pool.Close()
		return err
	}
	if cfg.Payout.AutoExecute {
		payouts.SetEnqueuer(payoutriver.NewEnqueuer(client))
	}

	g.Go(func() error {
		defer pool.Close()
		if err := client.Start(ctx); err != nil {
			return fmt.Errorf("start river: %w", err)
		}
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return client.Stop(stopCtx)
	})
	return nil
}

// sweepLoop re-evaluates tiers on a ticker when there is no job queue.
func sweepLoop(ctx context.Context, rank *rankservice.Service, interval time.Duration, log *slog.Logger) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := rank.Sweep(ctx)
			if err != nil {
				log.WarnContext(ctx, "rank sweep failed", "error", err)
				continue
			}
			log.InfoContext(ctx, "rank sweep finished", "evaluated", n)
		}
	}
}
