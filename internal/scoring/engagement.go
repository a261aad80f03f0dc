package scoring

import (
	"math"

	"creatorscore/internal/model"
)

// Engagement-dimension weights. Views carry the least weight because
// they are the cheapest signal; comments and shares carry the most.
const (
	viewWeight    = 0.10
	likeWeight    = 0.15
	commentWeight = 0.30
	shareWeight   = 0.30
	saveWeight    = 0.15
)

// Interaction scale factors. Each normalized ratio is multiplied by its
// factor before the 100 cap, reflecting how rare the interaction is.
const (
	likeFactor    = 2500
	commentFactor = 12500
	shareFactor   = 25000
	saveFactor    = 10000
)

// followerCoeff sets the expected view-to-follower ratio for an
// audience size. Small accounts are expected to out-perform their
// follower count; large accounts are not.
func followerCoeff(followers int) float64 {
	switch {
	case followers <= 100:
		return 1.5
	case followers <= 1000:
		return 1.0
	case followers <= 5000:
		return 0.24
	case followers <= 10000:
		return 0.10
	case followers <= 50000:
		return 0.04
	case followers <= 100000:
		return 0.05
	case followers <= 500000:
		return 0.06
	case followers <= 1000000:
		return 0.05
	default:
		return 0.04
	}
}

// viewCoeff scales the interaction baseline by view volume.
func viewCoeff(views int) float64 {
	switch {
	case views <= 1000:
		return 2.0
	case views <= 10000:
		return 1.0
	case views <= 100000:
		return 0.7
	case views <= 500000:
		return 0.6
	default:
		return 0.5
	}
}

// ScoreEngagement computes the engagement subscores for one item
// against the account's follower count.
func ScoreEngagement(it model.ContentItem, followers int) model.EngagementResult {
	return scoreCounters(it.ViewCount, it.LikeCount, it.CommentCount, it.ShareCount, it.SaveCount, followers)
}

// ScoreEngagementBatch sums the counters across items and scores the
// sums as one virtual item. Averaging per-item scores would let one
// viral item drown the rest; summing first keeps the batch honest.
func ScoreEngagementBatch(items []model.ContentItem, followers int) model.EngagementResult {
	var views, likes, comments, shares, saves int
	for _, it := range items {
		views += it.ViewCount
		likes += it.LikeCount
		comments += it.CommentCount
		shares += it.ShareCount
		saves += it.SaveCount
	}
	return scoreCounters(views, likes, comments, shares, saves, followers)
}

func scoreCounters(views, likes, comments, shares, saves, followers int) model.EngagementResult {
	r := model.EngagementResult{
		ViewScore:    viewScore(views, followers),
		LikeScore:    countScore(likes, views, followers, likeFactor),
		CommentScore: countScore(comments, views, followers, commentFactor),
		ShareScore:   countScore(shares, views, followers, shareFactor),
		SaveScore:    countScore(saves, views, followers, saveFactor),
	}
	r.WeightedTotal = round2(r.ViewScore*viewWeight +
		r.LikeScore*likeWeight +
		r.CommentScore*commentWeight +
		r.ShareScore*shareWeight +
		r.SaveScore*saveWeight)
	r.ViewScore = round2(r.ViewScore)
	r.LikeScore = round2(r.LikeScore)
	r.CommentScore = round2(r.CommentScore)
	r.ShareScore = round2(r.ShareScore)
	r.SaveScore = round2(r.SaveScore)
	return r
}

// viewScore normalizes views against the follower expectation. Without
// a follower count the baseline falls back to a flat 2000 views.
func viewScore(views, followers int) float64 {
	if views <= 0 {
		return 0
	}
	if followers <= 0 {
		return math.Min(float64(views)/2000.0*100, 100)
	}
	expected := float64(followers) * followerCoeff(followers)
	return math.Min(float64(views)/expected*100, 100)
}

// countScore normalizes an interaction counter against the larger of
// the follower baseline and the view baseline, so neither a tiny
// audience nor a tiny view count inflates the ratio.
func countScore(count, views, followers int, factor float64) float64 {
	if views <= 0 || count <= 0 {
		return 0
	}
	if followers <= 0 {
		return math.Min(float64(count)/float64(views)*factor, 100)
	}
	base := math.Max(float64(followers)*followerCoeff(followers)*0.2, float64(views)*viewCoeff(views))
	return math.Min(float64(count)/base*factor, 100)
}
