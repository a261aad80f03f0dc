package model

import "time"

// AccountQualityResult holds the account-dimension subscores.
// Breakdown carries the human-readable calculation trail and is never
// used in arithmetic.
type AccountQualityResult struct {
	FollowerScore float64
	LikesScore    float64
	CadenceScore  float64
	WeightedTotal float64
	Multiplier    float64
	Breakdown     map[string]string
}

// EngagementResult holds the engagement-dimension subscores for one
// item or for a batch of summed counters.
type EngagementResult struct {
	ViewScore     float64
	LikeScore     float64
	CommentScore  float64
	ShareScore    float64
	SaveScore     float64
	WeightedTotal float64
}

// EvalStatus tags how a content-quality evaluation ended. Only
// StatusEvaluated results take part in aggregation; the other statuses
// mark invalid data that must be excluded rather than scored as zero.
type EvalStatus int

const (
	StatusEvaluated EvalStatus = iota
	StatusMediaUnreachable
	StatusParseFailed
)

func (s EvalStatus) String() string {
	switch s {
	case StatusEvaluated:
		return "evaluated"
	case StatusMediaUnreachable:
		return "media_unreachable"
	case StatusParseFailed:
		return "parse_failed"
	}
	return "unknown"
}

// Valid reports whether the result represents real model output. An
// all-zero evaluated result is a legitimate business zero (off-topic
// content) and stays valid.
func (s EvalStatus) Valid() bool { return s == StatusEvaluated }

// ContentQualityResult is the five-dimension rubric verdict for one item.
type ContentQualityResult struct {
	ItemID           string
	Status           EvalStatus
	TopicScore       float64 // 0-60
	OriginalityScore float64 // 0-20
	ClarityScore     float64 // 0-10
	SpamScore        float64 // 0-5, 5 means clean
	PromotionScore   float64 // 0-5, 5 means non-promotional
	Total            float64 // 0-100
	Rationale        string
}

// PerItemScore combines one item's engagement and content-quality
// dimensions. Excluded items carry no score and are skipped by the
// aggregator.
type PerItemScore struct {
	ItemID      string
	PublishedAt time.Time
	Engagement  float64
	Quality     float64
	Score       float64
	Excluded    bool
	Status      EvalStatus
}

// CompositeScore is the final output of one scoring run.
type CompositeScore struct {
	RunID       string
	AccountID   string
	Username    string
	Peak        float64
	Recent      float64
	Overall     float64
	Base        float64
	Multiplier  float64
	FinalScore  float64
	ItemsScored int
	ItemsTotal  int
	Account     AccountQualityResult
	Engagement  EngagementResult
	Items       []PerItemScore
	// TotalFetched is the recent-window size before keyword filtering.
	TotalFetched int
	CalculatedAt time.Time
}

// EvalSummary aggregates evaluation outcomes for reporting.
type EvalSummary struct {
	Evaluated   int
	Unreachable int
	ParseFailed int
	MinTotal    float64
	MaxTotal    float64
	AvgTotal    float64
}

// Summarize builds an EvalSummary over a result set.
func Summarize(results map[string]ContentQualityResult) EvalSummary {
	var s EvalSummary
	sum := 0.0
	for _, r := range results {
		switch r.Status {
		case StatusEvaluated:
			if s.Evaluated == 0 || r.Total < s.MinTotal {
				s.MinTotal = r.Total
			}
			if r.Total > s.MaxTotal {
				s.MaxTotal = r.Total
			}
			sum += r.Total
			s.Evaluated++
		case StatusMediaUnreachable:
			s.Unreachable++
		case StatusParseFailed:
			s.ParseFailed++
		}
	}
	if s.Evaluated > 0 {
		s.AvgTotal = sum / float64(s.Evaluated)
	}
	return s
}
