// Package evaluator scores content quality with a multimodal model
// under a bounded worker pool. Every item gets a verdict: evaluated,
// media unreachable, or parse failed. The last two mark missing data
// and are excluded from aggregation downstream.
package evaluator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"creatorscore/internal/config"
	"creatorscore/internal/metrics"
	"creatorscore/internal/model"
)

// MediaResolver resolves an item's download link.
type MediaResolver interface {
	MediaURL(ctx context.Context, itemID string) (string, error)
}

type Evaluator struct {
	media       MediaResolver
	client      ModelClient
	concurrency int
	pace        time.Duration
	log         zerolog.Logger
}

func New(media MediaResolver, cfg config.EvaluatorConfig, log zerolog.Logger) *Evaluator {
	return newWith(media, newGeminiClient(cfg, log), cfg, log)
}

// newWith lets tests substitute the model client.
func newWith(media MediaResolver, client ModelClient, cfg config.EvaluatorConfig, log zerolog.Logger) *Evaluator {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Evaluator{
		media:       media,
		client:      client,
		concurrency: concurrency,
		pace:        time.Duration(cfg.PaceDelayMs) * time.Millisecond,
		log:         log.With().Str("component", "evaluator").Logger(),
	}
}

// EvaluateAll runs the rubric over every item with bounded concurrency.
// Workers send verdicts over a channel and a single collector owns the
// result map; nothing here shares mutable state. The returned map has
// one entry per input item.
func (e *Evaluator) EvaluateAll(ctx context.Context, items []model.ContentItem, keyword string) map[string]model.ContentQualityResult {
	results := make(map[string]model.ContentQualityResult, len(items))
	if len(items) == 0 {
		return results
	}
	prompt := buildPrompt(keyword)
	jobs := make(chan model.ContentItem)
	verdicts := make(chan model.ContentQualityResult)

	var wg sync.WaitGroup
	for w := 0; w < e.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range jobs {
				verdicts <- e.evaluateOne(ctx, it, prompt)
				e.pause(ctx)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, it := range items {
			select {
			case jobs <- it:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(verdicts)
	}()

	for v := range verdicts {
		results[v.ItemID] = v
		metrics.Evaluations.WithLabelValues(v.Status.String()).Inc()
	}
	// Items skipped by cancellation still need a verdict row.
	for _, it := range items {
		if _, ok := results[it.ID]; !ok {
			results[it.ID] = model.ContentQualityResult{ItemID: it.ID, Status: model.StatusMediaUnreachable, Rationale: "evaluation cancelled"}
		}
	}
	summary := model.Summarize(results)
	e.log.Info().
		Int("evaluated", summary.Evaluated).
		Int("unreachable", summary.Unreachable).
		Int("parseFailed", summary.ParseFailed).
		Float64("avgTotal", summary.AvgTotal).
		Msg("evaluation complete")
	return results
}

func (e *Evaluator) evaluateOne(ctx context.Context, it model.ContentItem, prompt string) model.ContentQualityResult {
	start := time.Now()
	defer func() { metrics.EvalDuration.Observe(time.Since(start).Seconds()) }()

	mediaURL := it.MediaURL
	if mediaURL == "" && e.media != nil {
		u, err := e.media.MediaURL(ctx, it.ID)
		if err != nil {
			e.log.Warn().Err(err).Str("item", it.ID).Msg("media resolution failed")
			return model.ContentQualityResult{ItemID: it.ID, Status: model.StatusMediaUnreachable, Rationale: err.Error()}
		}
		mediaURL = u
	}
	if mediaURL == "" {
		return model.ContentQualityResult{ItemID: it.ID, Status: model.StatusMediaUnreachable, Rationale: "no media link"}
	}
	raw, err := e.client.Evaluate(ctx, mediaURL, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("item", it.ID).Msg("model evaluation failed")
		return model.ContentQualityResult{ItemID: it.ID, Status: model.StatusMediaUnreachable, Rationale: err.Error()}
	}
	verdict, err := ParseVerdict(it.ID, raw)
	if err != nil {
		e.log.Warn().Err(err).Str("item", it.ID).Msg("verdict parse failed")
		return model.ContentQualityResult{ItemID: it.ID, Status: model.StatusParseFailed, Rationale: err.Error()}
	}
	e.log.Debug().Str("item", it.ID).Float64("total", verdict.Total).Msg("item evaluated")
	return verdict
}

// pause spaces requests from one worker so the pool as a whole stays
// under the model API's comfort threshold.
func (e *Evaluator) pause(ctx context.Context) {
	if e.pace <= 0 {
		return
	}
	select {
	case <-time.After(e.pace):
	case <-ctx.Done():
	}
}

// buildPrompt renders the scoring rubric. The keyword anchors the
// topic-relevance dimension; unrelated content must come back all-zero
// rather than omitted so the caller can tell off-topic from broken.
func buildPrompt(keyword string) string {
	return fmt.Sprintf(`You are scoring one short video for content quality.

Topic of interest: %q.

Score these dimensions:
- topic_relevance: 0-60, how directly the video covers the topic of interest
- originality: 0-20, original footage and ideas over reposted or templated content
- clarity: 0-10, production and communication quality
- spam: 0-5, 5 means no spam signals at all
- promotion: 0-5, 5 means no promotional or sales content

If the video is unrelated to the topic of interest, return every
dimension as 0.

Respond with a single JSON object and nothing else, using exactly these
keys: topic_relevance, originality, clarity, spam, promotion, rationale.
The rationale is one short sentence.`, keyword)
}
