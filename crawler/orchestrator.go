package crawler

import (
	"context"
	"errors"

	"github.com/mouguu/reddit-crawler/config"
	"github.com/mouguu/reddit-crawler/log"
	"github.com/mouguu/reddit-crawler/metrics"
	"github.com/mouguu/reddit-crawler/redditapi"
	"github.com/mouguu/reddit-crawler/strategy"
	"github.com/mouguu/reddit-crawler/types"
)

// minAsk is the floor on the per-strategy candidate quota. Even when
// earlier strategies already covered the target, later ones still get a
// meaningful ask: their surfaces overlap heavily, and a tiny quota
// would measure noise instead of yield.
const minAsk = 100

// Orchestrator runs a profile's strategies in order, merging their
// candidates with in-run dedup, and stops early when more strategies
// stop paying for themselves.
type Orchestrator struct {
	strategies []strategy.Strategy
	cfg        config.OrchestratorConfig
	logger     *log.Logger
	metrics    *metrics.Collector
	progress   ProgressFunc
}

// NewOrchestrator builds an orchestrator over an ordered strategy
// sequence.
func NewOrchestrator(strategies []strategy.Strategy, cfg config.OrchestratorConfig, logger *log.Logger, m *metrics.Collector, progress ProgressFunc) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		progress:   progress,
	}
}

// Gather executes strategies sequentially until the sequence is
// exhausted or a termination rule fires. want is the post target the
// run is aiming for; the gathered list may exceed it because downstream
// dedup and fetch failures thin it out.
//
// Termination rules, checked after each strategy:
//   - volume: candidates reached want*OverfetchStop with at least
//     MinStrategiesStop strategies run.
//   - saturation: LowGainRun consecutive strategies each added fewer
//     than LowGainThreshold new candidates, at least
//     MinStrategiesSaturation strategies have run, and the accumulated
//     volume covers want*SaturationMultiplier. A saturation read
//     without the volume floor resets the low-gain streak instead of
//     stopping, since a thin result means the target needs more
//     strategies, not fewer.
//
// The returned list is truncated to want*TruncateMultiplier. A blocked
// or otherwise failed strategy is logged and skipped; only context
// cancellation aborts the gather.
func (o *Orchestrator) Gather(ctx context.Context, target string, want int) ([]types.CandidateRef, []types.StrategyGain, error) {
	seen := make(map[string]struct{}, want*2)
	var all []types.CandidateRef
	gains := make([]types.StrategyGain, 0, len(o.strategies))
	lowGains := 0

	for i, s := range o.strategies {
		if err := ctx.Err(); err != nil {
			return all, gains, err
		}

		ask := want - len(all)
		if ask < minAsk {
			ask = minAsk
		}

		got, err := s.Fetch(ctx, target, ask)
		fresh := types.DedupCandidates(got, seen)
		all = append(all, fresh...)
		gain := len(fresh)
		gains = append(gains, types.StrategyGain{Strategy: s.Name(), CandidatesAdded: gain})
		o.metrics.AddCandidates(s.Name(), gain)
		ran := i + 1

		switch {
		case err == nil:
		case errors.Is(err, redditapi.ErrBlocked):
			o.logger.Warn("strategy blocked, moving on", map[string]any{
				"strategy": s.Name(), "gain": gain,
			})
		case ctx.Err() != nil:
			return all, gains, ctx.Err()
		default:
			o.logger.Warn("strategy failed, moving on", map[string]any{
				"strategy": s.Name(), "gain": gain, "error": err.Error(),
			})
		}

		o.logger.Info("strategy finished", map[string]any{
			"strategy": s.Name(), "gain": gain, "total": len(all), "ran": ran,
		})
		o.progress.report(ran, len(o.strategies), s.Name())

		if len(all) >= want*o.cfg.OverfetchStop && ran >= o.cfg.MinStrategiesStop {
			o.logger.Info("candidate volume reached, stopping strategies", map[string]any{
				"total": len(all), "ran": ran,
			})
			break
		}

		if gain < o.cfg.LowGainThreshold {
			lowGains++
		} else {
			lowGains = 0
		}
		if lowGains >= o.cfg.LowGainRun && ran >= o.cfg.MinStrategiesSaturation {
			if len(all) >= want*o.cfg.SaturationMultiplier {
				o.logger.Info("target saturated, stopping strategies", map[string]any{
					"total": len(all), "ran": ran,
				})
				break
			}
			lowGains = 0
		}
	}

	if limit := want * o.cfg.TruncateMultiplier; limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, gains, nil
}
