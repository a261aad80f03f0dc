// Package pipeline runs one scoring pass end to end: cache consult,
// profile fetch, window collection, deterministic scoring, optional AI
// evaluation and the final aggregation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"creatorscore/internal/collector"
	"creatorscore/internal/config"
	"creatorscore/internal/metrics"
	"creatorscore/internal/model"
	"creatorscore/internal/scoring"
)

// ProfileAPI fetches the account snapshot.
type ProfileAPI interface {
	GetProfile(ctx context.Context, username string) (model.AccountProfile, error)
}

// ItemCollector walks the listing into the two scoring windows.
type ItemCollector interface {
	FetchQualityWindow(ctx context.Context, username string) (collector.Window, error)
	FetchRecent(ctx context.Context, username string) (collector.Window, error)
}

// QualityEvaluator runs the rubric over the recent window.
type QualityEvaluator interface {
	EvaluateAll(ctx context.Context, items []model.ContentItem, keyword string) map[string]model.ContentQualityResult
}

// ScoreCache persists composite scores between runs. A nil cache
// disables both lookup and write-back. Lookup and write-back must share
// the account key, so the pipeline passes the requested username to
// both rather than the upstream's canonical spelling.
type ScoreCache interface {
	Get(ctx context.Context, account, keyword string) (model.CompositeScore, bool, error)
	Put(ctx context.Context, account, keyword string, score model.CompositeScore) error
	RecordRun(ctx context.Context, account, keyword string, score model.CompositeScore) error
}

type Pipeline struct {
	api   ProfileAPI
	items ItemCollector
	eval  QualityEvaluator
	cache ScoreCache
	cfg   config.Config
	log   zerolog.Logger
}

func New(api ProfileAPI, items ItemCollector, eval QualityEvaluator, cache ScoreCache, cfg config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		api:   api,
		items: items,
		eval:  eval,
		cache: cache,
		cfg:   cfg,
		log:   log.With().Str("component", "pipeline").Logger(),
	}
}

// Run scores one account. The profile fetch is the only hard
// dependency; partial windows and evaluation failures degrade the
// result instead of failing the run.
func (p *Pipeline) Run(ctx context.Context, username string) (model.CompositeScore, error) {
	start := time.Now()
	defer metrics.ObserveRunDuration(start)
	keyword := p.cfg.Windows.Keyword

	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, username, keyword)
		if err != nil {
			p.log.Warn().Err(err).Msg("cache lookup failed, scoring fresh")
		} else if ok {
			metrics.CacheHits.Inc()
			p.log.Info().Str("account", username).Str("runId", cached.RunID).Msg("serving cached score")
			return cached, nil
		}
	}

	profile, err := p.api.GetProfile(ctx, username)
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("profile for %s: %w", username, err)
	}
	p.log.Info().
		Str("account", profile.Username).
		Int("followers", profile.FollowerCount).
		Int("contentCount", profile.ContentCount).
		Msg("profile fetched")

	qualityWin, err := p.items.FetchQualityWindow(ctx, username)
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("quality window for %s: %w", username, err)
	}
	recentWin, err := p.items.FetchRecent(ctx, username)
	if err != nil {
		return model.CompositeScore{}, fmt.Errorf("recent window for %s: %w", username, err)
	}
	p.log.Info().
		Int("cadenceItems", len(qualityWin.Items)).
		Int("recentItems", len(recentWin.Items)).
		Int("recentFetched", recentWin.TotalFetched).
		Bool("partial", qualityWin.Partial || recentWin.Partial).
		Msg("windows collected")

	account := scoring.ScoreAccount(profile, len(qualityWin.Items))
	batch := scoring.ScoreEngagementBatch(recentWin.Items, profile.FollowerCount)

	// AI evaluation only makes sense against a topic; without a keyword
	// every item takes the configured default quality.
	var quality map[string]model.ContentQualityResult
	if keyword != "" && p.eval != nil && len(recentWin.Items) > 0 {
		quality = p.eval.EvaluateAll(ctx, recentWin.Items, keyword)
	}

	agg := scoring.Aggregate(recentWin.Items, profile.FollowerCount, quality, p.cfg.Scoring, account.Multiplier)

	score := model.CompositeScore{
		RunID:        uuid.NewString(),
		AccountID:    profile.AccountID,
		Username:     profile.Username,
		Peak:         agg.Peak,
		Recent:       agg.Recent,
		Overall:      agg.Overall,
		Base:         agg.Base,
		Multiplier:   account.Multiplier,
		FinalScore:   agg.Final,
		ItemsScored:  agg.ItemsScored,
		ItemsTotal:   len(recentWin.Items),
		Account:      account,
		Engagement:   batch,
		Items:        agg.Items,
		TotalFetched: recentWin.TotalFetched,
		CalculatedAt: time.Now().UTC(),
	}
	p.log.Info().
		Str("runId", score.RunID).
		Float64("final", score.FinalScore).
		Float64("base", score.Base).
		Float64("multiplier", score.Multiplier).
		Int("itemsScored", score.ItemsScored).
		Dur("took", time.Since(start)).
		Msg("scoring run complete")

	if p.cache != nil {
		if err := p.cache.Put(ctx, username, keyword, score); err != nil {
			p.log.Warn().Err(err).Msg("cache write failed")
		}
		if err := p.cache.RecordRun(ctx, username, keyword, score); err != nil {
			p.log.Warn().Err(err).Msg("run log write failed")
		}
	}
	return score, nil
}
