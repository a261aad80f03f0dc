package scoring

import (
	"math"
	"sort"

	"creatorscore/internal/config"
	"creatorscore/internal/model"
)

// Aggregation weights over the per-item series.
const (
	peakWeight    = 0.4
	recentWeight  = 0.4
	overallWeight = 0.2
)

// finalCeiling bounds the composite: base tops out at 100 and the
// multiplier at 3.0.
const finalCeiling = 300

// recentSpan is how many of the newest included items feed the recent
// average.
const recentSpan = 3

// AggregateResult is the deterministic tail of a scoring run.
type AggregateResult struct {
	Items       []model.PerItemScore
	Peak        float64
	Recent      float64
	Overall     float64
	Base        float64
	Final       float64
	ItemsScored int
}

// Aggregate combines per-item engagement with content-quality verdicts
// and reduces the series to the final score.
//
// quality carries the evaluator's verdicts keyed by item ID; nil means
// no evaluation ran and every item takes the configured default quality.
// Items whose verdict is not StatusEvaluated are excluded entirely: an
// unreachable or unparseable item is missing data, not a zero. An
// evaluated all-zero verdict is a real zero and stays in.
func Aggregate(items []model.ContentItem, followers int, quality map[string]model.ContentQualityResult, cfg config.ScoringConfig, multiplier float64) AggregateResult {
	scored := make([]model.PerItemScore, 0, len(items))
	for _, it := range items {
		s := model.PerItemScore{ItemID: it.ID, PublishedAt: it.PublishedAt}
		q := cfg.DefaultContentQuality
		if quality != nil {
			verdict, ok := quality[it.ID]
			if !ok {
				s.Excluded = true
				s.Status = model.StatusMediaUnreachable
				scored = append(scored, s)
				continue
			}
			s.Status = verdict.Status
			if !verdict.Status.Valid() {
				s.Excluded = true
				scored = append(scored, s)
				continue
			}
			q = verdict.Total
		}
		eng := ScoreEngagement(it, followers).WeightedTotal
		s.Engagement = eng
		s.Quality = q
		s.Score = round2(clamp(eng*cfg.EngagementWeight+q*cfg.QualityWeight, 0, 100))
		scored = append(scored, s)
	}

	// Newest first, regardless of fetch order.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].PublishedAt.After(scored[j].PublishedAt)
	})

	res := AggregateResult{Items: scored}
	var included []float64
	for _, s := range scored {
		if !s.Excluded {
			included = append(included, s.Score)
		}
	}
	res.ItemsScored = len(included)

	if len(included) == 0 {
		// Nothing usable: fall back to the configured default quality so
		// an account with all-invalid data still gets a defensible score.
		res.Base = clamp(cfg.DefaultContentQuality, 0, 100)
		res.Final = round2(clamp(res.Base*multiplier, 0, finalCeiling))
		return res
	}

	peak := included[0]
	sum := 0.0
	for _, v := range included {
		if v > peak {
			peak = v
		}
		sum += v
	}
	span := recentSpan
	if len(included) < span {
		span = len(included)
	}
	recentSum := 0.0
	for _, v := range included[:span] {
		recentSum += v
	}

	res.Peak = round2(peak)
	res.Recent = round2(recentSum / float64(span))
	res.Overall = round2(sum / float64(len(included)))
	res.Base = round2(clamp(res.Peak*peakWeight+res.Recent*recentWeight+res.Overall*overallWeight, 0, 100))
	res.Final = round2(clamp(res.Base*multiplier, 0, finalCeiling))
	return res
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
