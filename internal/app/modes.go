package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/sablewallet/sable/internal/book"
	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/meta"
	"github.com/sablewallet/sable/internal/reconcile"
	"github.com/sablewallet/sable/internal/server"
	"github.com/sablewallet/sable/internal/server/handler"
	"github.com/sablewallet/sable/internal/service"
)

// bookDepthLimit caps how many book offers one depth snapshot requests.
const bookDepthLimit = 100

// services bundles the domain services built from wired dependencies.
type services struct {
	offers *service.OfferService
	books  *service.BookService
	sizing *service.SizingService
}

func (a *App) buildServices(deps *Dependencies) *services {
	extractor := meta.NewExtractor(a.logger)
	reconciler := reconcile.NewReconciler(deps.OfferStore, extractor, a.logger)
	analyzer := book.NewAnalyzer(a.logger)

	offers := service.NewOfferService(
		deps.Gateway,
		deps.OfferStore,
		reconciler,
		extractor,
		deps.LockManager,
		deps.Archiver,
		a.cfg.Network.Name,
		a.cfg.Sync.TxPageLimit,
		a.cfg.Sync.LockTTL,
		a.logger,
	)

	books := service.NewBookService(
		deps.Gateway,
		deps.BookCache,
		analyzer,
		a.cfg.Sync.BookTTL,
		bookDepthLimit,
		decimal.NewFromFloat(a.cfg.Sync.SlippageTolerance),
		a.logger,
	)

	sizing := service.NewSizingService(deps.Gateway, a.cfg.Sync.FeeDrops, a.logger)

	return &services{offers: offers, books: books, sizing: sizing}
}

// ServeMode starts the HTTP API server and, when wallets are configured, the
// periodic sync loop alongside it.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	srv := server.NewServer(
		server.Config{
			Addr:         a.cfg.Server.Addr,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
			CORSOrigins:  a.cfg.Server.CORSOrigins,
		},
		server.Handlers{
			Health: handler.NewHealthHandler(a.logger),
			Offers: handler.NewOfferHandler(svcs.offers, a.logger),
			Book:   handler.NewBookHandler(svcs.books, a.logger),
			Sizing: handler.NewSizingHandler(svcs.sizing, a.logger),
		},
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if len(a.cfg.Sync.Wallets) > 0 {
		g.Go(func() error {
			return a.runSyncLoop(ctx, svcs.offers)
		})
	}

	return g.Wait()
}

// SyncMode runs the periodic wallet sync loop without the HTTP server.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sync mode",
		slog.Int("wallets", len(a.cfg.Sync.Wallets)),
	)
	if len(a.cfg.Sync.Wallets) == 0 {
		a.logger.WarnContext(ctx, "sync mode with no wallets configured, nothing to do")
		<-ctx.Done()
		return ctx.Err()
	}

	svcs := a.buildServices(deps)
	return a.runSyncLoop(ctx, svcs.offers)
}

// runSyncLoop reconciles every configured wallet once, then repeats on the
// configured interval until the context is cancelled.
func (a *App) runSyncLoop(ctx context.Context, offers *service.OfferService) error {
	interval := a.cfg.Sync.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	runOnce := func() {
		for _, wallet := range a.cfg.Sync.Wallets {
			err := offers.Sync(ctx, wallet)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrLockHeld):
				a.logger.InfoContext(ctx, "sync skipped, wallet locked by another process",
					slog.String("wallet", wallet),
				)
			default:
				a.logger.ErrorContext(ctx, "wallet sync failed",
					slog.String("wallet", wallet),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			runOnce()
		}
	}
}
