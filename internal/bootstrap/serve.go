package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"repo-analyzer-client/internal/shared/server"
	"repo-analyzer-client/internal/shared/telemetry"
)

const (
	shutdownTimeout = 15 * time.Second
	purgeInterval   = 10 * time.Minute
)

// Serve runs the HTTP server and the session purge loop until ctx is
// cancelled, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              server.Addr(a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("server.start", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		telemetry.Info("server.shutdown", nil)
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				a.PurgeExpired(ctx)
			}
		}
	})
	return g.Wait()
}

// PurgeIfDue runs PurgeExpired when the last purge is older than
// purgeInterval. Lambda has no background loop, so invocations call this.
func (a *App) PurgeIfDue(ctx context.Context) {
	now := time.Now().UnixNano()
	last := a.lastPurge.Load()
	if now-last < int64(purgeInterval) || !a.lastPurge.CompareAndSwap(last, now) {
		return
	}
	a.PurgeExpired(ctx)
}

// PurgeExpired deletes sessions idle for longer than the session TTL together
// with their archived exports.
func (a *App) PurgeExpired(ctx context.Context) {
	before := time.Now().UTC().Add(-a.Config.SessionTTL)
	ids, err := a.SessionsRepo.PurgeExpired(ctx, before)
	if err != nil {
		telemetry.Error("sessions.purge_failed", map[string]any{"error": err})
		return
	}
	if len(ids) == 0 {
		return
	}
	if err := a.ExportsService.PurgeSessions(ctx, ids); err != nil {
		telemetry.Error("exports.purge_failed", map[string]any{"error": err})
	}
	telemetry.Info("sessions.purged", map[string]any{"count": len(ids)})
}
