package gainers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/polyresearch/backend/internal/config"
	"github.com/polyresearch/backend/internal/metrics"
	"github.com/polyresearch/backend/internal/record"
)

// TradeSource fetches recent trades across all markets.
type TradeSource interface {
	RecentTrades(ctx context.Context, lookbackHours, limit int) ([]record.Raw, error)
}

// ActivitySource fetches one wallet's activity log.
type ActivitySource interface {
	WalletActivity(ctx context.Context, wallet string, limit int) ([]record.Raw, error)
}

// ProfileSource resolves a wallet's display handle.
type ProfileSource interface {
	Profile(ctx context.Context, wallet string) (string, error)
}

// Service glues upstream fetching to the pure leaderboard core and
// enriches the final page with display handles.
type Service struct {
	trades   TradeSource
	activity ActivitySource
	profiles ProfileSource
	cfg      *config.Config
	log      *logrus.Logger
}

func NewService(trades TradeSource, activity ActivitySource, profiles ProfileSource, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		trades:   trades,
		activity: activity,
		profiles: profiles,
		cfg:      cfg,
		log:      log,
	}
}

// TopGainers computes one leaderboard page. Upstream failures are
// logged and surface as an empty page, matching the rest of the read
// path.
func (s *Service) TopGainers(ctx context.Context, lookbackHours int, p Params) []Result {
	fetchLimit := s.cfg.TradeFetchLimit
	if lookbackHours > 24 {
		fetchLimit = s.cfg.TradeFetchLimitLong
	}

	raws, err := s.trades.RecentTrades(ctx, lookbackHours, fetchLimit)
	if err != nil {
		s.log.WithError(err).WithField("hours", lookbackHours).Error("Failed to fetch trades")
		return []Result{}
	}

	var lookup ActivityLookup
	if p.Basis == BasisBest && s.activity != nil {
		lookup = func(wallet string) []record.Raw {
			rows, err := s.activity.WalletActivity(ctx, wallet, s.cfg.ActivityFetchLimit)
			if err != nil {
				s.log.WithError(err).WithField("wallet", shortenWallet(wallet)).Warn("Failed to fetch activity log")
				return nil
			}
			return rows
		}
	}

	start := time.Now()
	results, skips := ComputeLeaderboard(raws, lookup, p)
	metrics.RecordLeaderboardBuild(time.Since(start))
	metrics.RecordSkips(skips.Wallet, skips.Timestamp, skips.Price, skips.Size)

	s.log.WithFields(logrus.Fields{
		"hours":    lookbackHours,
		"fetched":  len(raws),
		"returned": len(results),
		"duration": time.Since(start).String(),
	}).Info("Leaderboard built")

	s.enrichHandles(ctx, results)
	return results
}

// enrichHandles fills Result.Handle for the final page through a
// bounded worker pool. A failed or empty lookup degrades to the
// truncated wallet id; request cancellation stops scheduling new
// lookups.
func (s *Service) enrichHandles(ctx context.Context, results []Result) {
	for i := range results {
		results[i].Handle = shortenWallet(results[i].Wallet)
	}
	if s.profiles == nil || len(results) == 0 {
		return
	}

	sem := make(chan struct{}, s.cfg.ProfileWorkers)
	var wg sync.WaitGroup

	for i := range results {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(r *Result) {
			defer wg.Done()
			defer func() { <-sem }()

			lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.ProfileTimeout())
			defer cancel()

			handle, err := s.profiles.Profile(lookupCtx, r.Wallet)
			if err != nil {
				metrics.RecordProfileLookup("error")
				s.log.WithError(err).WithField("wallet", r.Handle).Debug("Profile lookup failed")
				return
			}
			if handle == "" {
				metrics.RecordProfileLookup("miss")
				return
			}
			metrics.RecordProfileLookup("hit")
			r.Handle = handle
		}(&results[i])
	}

	wg.Wait()
}

// shortenWallet formats an address as 0x1234...abcd for logs and as
// the handle fallback.
func shortenWallet(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
