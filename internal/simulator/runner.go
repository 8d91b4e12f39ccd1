package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/powerstream/pkg/logger"
)

// ErrIncomplete reports that at least one replay was missing events.
var ErrIncomplete = errors.New("replay incomplete")

// Run executes a complete simulation: health check, generation, ordered
// posting per instance, then replay verification for every instance.
func Run(ctx context.Context, cfg *Config, l logger.Logger) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}

	l.Info(ctx, "starting powerstream simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("instances", cfg.Instances),
		logger.Int("samples", cfg.Samples),
		logger.Int("toolEvery", cfg.ToolEvery),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout),
	)

	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := client.CheckHealth(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	sessions, err := Generate(cfg, time.Now().UTC())
	if err != nil {
		return stats, fmt.Errorf("generate sessions: %w", err)
	}

	post(ctx, cfg, client, sessions, stats, l)

	reports := verify(ctx, cfg, client, sessions, l)
	for _, rep := range reports {
		if rep.Complete {
			stats.Verified++
		} else {
			stats.Incomplete++
		}
	}

	stats.Duration = time.Since(stats.StartTime)
	displayFinalStats(ctx, stats, l)

	if stats.Incomplete > 0 {
		return stats, fmt.Errorf("%w: %d of %d instances", ErrIncomplete, stats.Incomplete, len(sessions))
	}
	return stats, nil
}

// post sends every session. One worker owns an instance at a time, so the
// notifications of an instance reach the server in generation order.
func post(ctx context.Context, cfg *Config, client *HTTPClient, sessions []Session, stats *Stats, l logger.Logger) {
	workers := max(1, min(cfg.Workers, len(sessions)))
	work := make(chan Session)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range work {
				ok, bad, accepted := postSession(ctx, cfg, client, s, l)
				mu.Lock()
				stats.Notifications += ok + bad
				stats.NotificationsOK += ok
				stats.NotificationsBad += bad
				stats.EventsAccepted += accepted
				mu.Unlock()
			}
		}()
	}

feed:
	for _, s := range sessions {
		select {
		case <-ctx.Done():
			break feed
		case work <- s:
		}
	}
	close(work)
	wg.Wait()
}

func postSession(ctx context.Context, cfg *Config, client *HTTPClient, s Session, l logger.Logger) (ok, bad, accepted int) {
	l = l.With(logger.String("instance", s.Instance))
	for i, batch := range s.Batches {
		if ctx.Err() != nil {
			return ok, bad, accepted
		}
		n, err := client.PostNotification(ctx, s.Instance, batch)
		if err != nil {
			bad++
			l.Warn(ctx, "notification rejected",
				logger.Int("batch", i),
				logger.Error(err),
			)
			continue
		}
		ok++
		accepted += n
		if cfg.Verbose {
			l.Debug(ctx, "notification accepted",
				logger.Int("batch", i),
				logger.Int("events", n),
			)
		}
	}
	return ok, bad, accepted
}

func verify(ctx context.Context, cfg *Config, client *HTTPClient, sessions []Session, l logger.Logger) []Report {
	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	reports := make([]Report, len(sessions))
	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep, err := client.Verify(vctx, s, cfg.Prefix)
			reports[i] = rep
			vl := l.With(
				logger.String("instance", s.Instance),
				logger.Int("samples", rep.Samples),
				logger.Int("expectedSamples", s.Samples),
				logger.Int("past", rep.Past),
				logger.Int("expectedPast", s.ExpectedPast()),
				logger.String("active", rep.Active),
			)
			if err != nil {
				vl.Warn(ctx, "replay verification failed", logger.Error(err))
				return
			}
			vl.Info(ctx, "replay verified", logger.Bool("complete", rep.Complete))
		}()
	}
	wg.Wait()
	return reports
}

func displayFinalStats(ctx context.Context, stats *Stats, l logger.Logger) {
	var eventsPerSecond float64
	if stats.Duration > 0 {
		eventsPerSecond = float64(stats.EventsAccepted) / stats.Duration.Seconds()
	}
	l.Info(ctx, "final statistics",
		logger.Int("notifications", stats.Notifications),
		logger.Int("notificationsOK", stats.NotificationsOK),
		logger.Int("notificationsRejected", stats.NotificationsBad),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("instancesVerified", stats.Verified),
		logger.Int("instancesIncomplete", stats.Incomplete),
		logger.Duration("duration", stats.Duration),
		logger.Float64("eventsPerSecond", eventsPerSecond),
	)
}
