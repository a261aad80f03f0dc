package scoring

import (
	"testing"

	"creatorscore/internal/model"
)

func TestScoreAccountKnownProfile(t *testing.T) {
	p := model.AccountProfile{FollowerCount: 10000, TotalLikes: 1000000}
	r := ScoreAccount(p, 120)
	if r.FollowerScore != 40.00 {
		t.Errorf("FollowerScore = %.2f, want 40.00", r.FollowerScore)
	}
	if r.LikesScore != 75.00 {
		t.Errorf("LikesScore = %.2f, want 75.00", r.LikesScore)
	}
	if r.CadenceScore != 100.00 {
		t.Errorf("CadenceScore = %.2f, want 100.00", r.CadenceScore)
	}
	if r.WeightedTotal != 66.00 {
		t.Errorf("WeightedTotal = %.2f, want 66.00", r.WeightedTotal)
	}
	if r.Multiplier != 2.0 {
		t.Errorf("Multiplier = %.1f, want 2.0", r.Multiplier)
	}
	if len(r.Breakdown) == 0 {
		t.Error("Breakdown should carry the calculation trail")
	}
}

func TestScoreAccountZeroCounters(t *testing.T) {
	r := ScoreAccount(model.AccountProfile{}, 0)
	if r.FollowerScore != 0 || r.LikesScore != 0 {
		t.Errorf("log subscores = %.2f/%.2f, want 0/0", r.FollowerScore, r.LikesScore)
	}
	if r.CadenceScore != 40.00 {
		t.Errorf("CadenceScore = %.2f, want 40.00 for zero items", r.CadenceScore)
	}
}

func TestCadenceScoreDecaysBothWays(t *testing.T) {
	peak := cadenceScore(120)
	if peak != 100 {
		t.Fatalf("cadence(120) = %.2f, want 100", peak)
	}
	if s := cadenceScore(240); s >= peak {
		t.Errorf("flooding should score below the peak, got %.2f", s)
	}
	if s := cadenceScore(6); s >= peak {
		t.Errorf("sparse posting should score below the peak, got %.2f", s)
	}
}

func TestMultiplierBands(t *testing.T) {
	cases := []struct {
		total float64
		want  float64
	}{
		{0, 1.0},
		{10, 1.0},
		{11, 1.2},
		{30, 1.2},
		{31, 1.5},
		{60, 1.5},
		{61, 2.0},
		{80, 2.0},
		{81, 3.0},
		{100, 3.0},
		// Only totals outside [0,100] take the defensive default.
		{-1, 3.0},
		{100.5, 3.0},
		{120, 3.0},
	}
	for _, tc := range cases {
		if got := Multiplier(tc.total); got != tc.want {
			t.Errorf("Multiplier(%.1f) = %.1f, want %.1f", tc.total, got, tc.want)
		}
	}
}

func TestMultiplierFractionalTotals(t *testing.T) {
	// Weighted totals are rarely whole numbers; every fraction inside
	// [0,100] must land in a band, never fall through to the default.
	cases := []struct {
		total float64
		want  float64
	}{
		{10.1, 1.2},
		{10.5, 1.2},
		{10.9, 1.2},
		{30.5, 1.5},
		{60.5, 2.0},
		{80.5, 3.0},
		{99.99, 3.0},
	}
	for _, tc := range cases {
		if got := Multiplier(tc.total); got != tc.want {
			t.Errorf("Multiplier(%v) = %.1f, want %.1f", tc.total, got, tc.want)
		}
	}
}
