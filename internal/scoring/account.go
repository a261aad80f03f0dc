// Package scoring holds the deterministic arithmetic: account-quality
// subscores, engagement subscores and the final aggregation. Everything
// here is pure; no I/O, no clocks beyond the timestamps already on the
// data.
package scoring

import (
	"fmt"
	"math"

	"creatorscore/internal/model"
)

// Account-dimension weights.
const (
	followerWeight = 0.4
	likesWeight    = 0.4
	cadenceWeight  = 0.2
)

// multiplierBand maps a weighted-total range to a reach multiplier.
// The first band includes both ends; later bands exclude lo and include
// hi, so the bands tile [0,100] with each boundary matching exactly once.
type multiplierBand struct {
	lo, hi float64
	mult   float64
}

var multiplierBands = []multiplierBand{
	{0, 10, 1.0},
	{10, 30, 1.2},
	{30, 60, 1.5},
	{60, 80, 2.0},
	{80, 100, 3.0},
}

const defaultMultiplier = 3.0

// ScoreAccount computes the account-quality subscores from the profile
// snapshot and the cadence-window item count.
func ScoreAccount(p model.AccountProfile, cadenceItems int) model.AccountQualityResult {
	follower := logScore(p.FollowerCount, 10)
	likes := logScore(p.TotalLikes, 12.5)
	cadence := cadenceScore(cadenceItems)
	total := follower*followerWeight + likes*likesWeight + cadence*cadenceWeight
	mult := Multiplier(total)
	return model.AccountQualityResult{
		FollowerScore: round2(follower),
		LikesScore:    round2(likes),
		CadenceScore:  round2(cadence),
		WeightedTotal: round2(total),
		Multiplier:    mult,
		Breakdown: map[string]string{
			"follower": fmt.Sprintf("log10(%d)*10 = %.2f", p.FollowerCount, follower),
			"likes":    fmt.Sprintf("log10(%d)*12.5 = %.2f", p.TotalLikes, likes),
			"cadence":  fmt.Sprintf("%d items in window = %.2f", cadenceItems, cadence),
			"total":    fmt.Sprintf("%.2f*0.4 + %.2f*0.4 + %.2f*0.2 = %.2f", follower, likes, cadence, total),
			"tier":     fmt.Sprintf("total %.2f => x%.1f", total, mult),
		},
	}
}

// logScore maps a raw counter onto 0-100 on a log10 scale.
func logScore(n int, factor float64) float64 {
	if n <= 0 {
		return 0
	}
	return math.Min(math.Log10(float64(n))*factor, 100)
}

// cadenceScore peaks at ten items per week over the roughly twelve-week
// window and decays symmetrically: posting far too little and flooding
// both cost points.
func cadenceScore(items int) float64 {
	perWeek := float64(items) / 12.0
	return math.Max(0, 100-math.Abs(perWeek-10)*6)
}

// Multiplier resolves the reach multiplier for a weighted account
// total. Totals outside [0,100] take the defensive default.
func Multiplier(total float64) float64 {
	for i, b := range multiplierBands {
		if i == 0 {
			if total >= b.lo && total <= b.hi {
				return b.mult
			}
			continue
		}
		if total > b.lo && total <= b.hi {
			return b.mult
		}
	}
	return defaultMultiplier
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
