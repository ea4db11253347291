package kernel

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/payment"
	"github.com/shashiranjanraj/storefront/pkg/schedule"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// webhookTTL is how long a processed event id is remembered. The gateway
// stops retrying well within it.
const webhookTTL = 72 * time.Hour

const sweepEvery = time.Minute

// Boot connects to the configured infrastructure. The returned close func
// releases everything Boot opened, in reverse order.
func Boot(ctx context.Context) (Deps, func(), error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := config.Load(); err != nil {
		return Deps{}, closeAll, err
	}

	if config.LogMongo() {
		flush, err := logger.EnableMongo(config.MongoURI(), config.MongoDatabase())
		if err != nil {
			logger.Warn("mongo log sink disabled", "error", err)
		} else {
			closers = append(closers, flush)
		}
	}

	d := Deps{
		Currency:       config.PaymentCurrency(),
		Origins:        config.CORSOrigins(),
		TrustedProxies: config.TrustedProxies(),
		Jobs:           schedule.New(),
	}

	switch config.StoreDriver() {
	case "memory":
		logger.Warn("using the in-memory store; data is lost on exit")
		d.Store = repositories.NewMemoryStore()
	default:
		if err := database.Connect(ctx); err != nil {
			return Deps{}, closeAll, err
		}
		closers = append(closers, func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := database.Disconnect(sctx); err != nil {
				logger.Error("mongo disconnect", "error", err)
			}
		})
		d.Store = repositories.NewMongoStore(database.DB)
	}

	rdb, err := cache.Connect(ctx)
	switch {
	case err != nil:
		logger.Warn("redis unavailable, keeping webhook ledger and rate limits in memory", "error", err)
		fallthrough
	case rdb == nil:
		ledger := cache.NewMemoryLedger(webhookTTL)
		d.Ledger = ledger
		d.Jobs.Every(sweepEvery).Name("ledger.sweep").WithoutOverlapping().Run(func() { ledger.Sweep() })
		if n := config.RateLimit(); n > 0 {
			limiter := middleware.NewMemoryLimiter(n, config.RateWindow())
			d.Limiter = limiter
			d.Jobs.Every(sweepEvery).Name("limiter.sweep").WithoutOverlapping().Run(func() { limiter.Sweep() })
		}
	default:
		closers = append(closers, func() { _ = rdb.Close() })
		d.Ledger = cache.NewRedisLedger(rdb, webhookTTL)
		if n := config.RateLimit(); n > 0 {
			d.Limiter = cache.NewRedisLimiter(rdb, n, config.RateWindow())
		}
	}

	gw, err := payment.NewStripeGateway(config.StripeSecretKey(), config.StripeWebhookSecret())
	switch {
	case errors.Is(err, payment.ErrNotConfigured) && !config.IsProduction():
		logger.Warn("STRIPE_SECRET_KEY is empty; payment endpoints answer 502")
		d.Gateway = payment.Unavailable{}
	case err != nil:
		return Deps{}, closeAll, err
	default:
		if config.StripeWebhookSecret() == "" {
			logger.Warn("STRIPE_WEBHOOK_SECRET is empty; webhooks will fail")
		}
		d.Gateway = gw
	}

	disk, err := storage.Open(ctx)
	if err != nil {
		return Deps{}, closeAll, err
	}
	d.Disk = disk
	if local, ok := disk.(*storage.LocalDisk); ok {
		d.StaticRoot = local.Root()
	}

	pool := workerpool.New(config.UploadWorkers())
	closers = append(closers, pool.Shutdown)
	d.Uploads = pool

	jobsCtx, stopJobs := context.WithCancel(context.Background())
	d.Jobs.Start(jobsCtx)
	closers = append(closers, func() {
		stopJobs()
		d.Jobs.Wait()
	})

	logger.Info("dependencies ready",
		"store", config.StoreDriver(),
		"redis", rdb != nil,
		"disk", config.StorageDefault(),
	)
	return d, closeAll, nil
}
