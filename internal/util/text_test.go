package util

import "testing"

func TestNormalizeWhitespace(t *testing.T) {
	cases := map[string]string{
		"  hello   world ": "hello world",
		"a\tb\nc":          "a b c",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeWhitespace(in); got != want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Learn GOLANG fast", "golang") {
		t.Error("case-insensitive match failed")
	}
	if ContainsFold("cooking video", "golang") {
		t.Error("unexpected match")
	}
	if !ContainsFold("anything", "") {
		t.Error("empty needle matches everything")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := Truncate("hello world", 5); got != "hello…" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("héllo wörld", 5); got != "héllo…" {
		t.Errorf("rune-safe cut failed: %q", got)
	}
}
