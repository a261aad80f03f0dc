package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := Default()
	cfg.Scoring.EngagementWeight = 0.7
	cfg.Scoring.QualityWeight = 0.7
	if err := cfg.Validate(); err == nil {
		t.Fatal("weights summing to 1.4 must fail")
	}
}

func TestValidateRejectsBadWindows(t *testing.T) {
	cfg := Default()
	cfg.Windows.QualityWindowDays = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero quality window must fail")
	}
	cfg = Default()
	cfg.Windows.MaxRecentItems = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative recent cap must fail")
	}
}

func TestValidateRejectsBadRetry(t *testing.T) {
	cfg := Default()
	cfg.Upstream.Retry.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero attempts must fail")
	}
	cfg = Default()
	cfg.Evaluator.Retry.BackoffFactor = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("shrinking backoff must fail")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "creatorscore.yaml")
	want := Default()
	want.Windows.Keyword = "golang"
	want.Upstream.APIKey = "file-key"
	want.Evaluator.APIKey = "eval-key"
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Windows.Keyword != "golang" || got.Upstream.APIKey != "file-key" {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Upstream.Retry != want.Upstream.Retry {
		t.Errorf("retry block = %+v, want %+v", got.Upstream.Retry, want.Upstream.Retry)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestResolveEnvFallback(t *testing.T) {
	t.Setenv("CONTENT_API_KEY", "env-content")
	t.Setenv("EVAL_API_KEY", "env-eval")
	cfg := Default()
	cfg.ResolveEnv()
	if cfg.Upstream.APIKey != "env-content" || cfg.Evaluator.APIKey != "env-eval" {
		t.Errorf("env fallback not applied: %q %q", cfg.Upstream.APIKey, cfg.Evaluator.APIKey)
	}

	cfg = Default()
	cfg.Upstream.APIKey = "explicit"
	cfg.ResolveEnv()
	if cfg.Upstream.APIKey != "explicit" {
		t.Error("file value must win over env")
	}
}
