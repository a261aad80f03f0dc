package model

import "time"

// AccountProfile is an immutable snapshot of account-level stats,
// fetched once per scoring run.
type AccountProfile struct {
	AccountID      string
	Username       string
	DisplayName    string
	FollowerCount  int
	FollowingCount int
	TotalLikes     int
	ContentCount   int
	Bio            string
	Verified       bool
}

// ContentItem is one published piece of content with its engagement
// counters. Items are immutable once fetched.
type ContentItem struct {
	ID           string
	Description  string
	PublishedAt  time.Time
	ViewCount    int
	LikeCount    int
	CommentCount int
	ShareCount   int
	SaveCount    int
	// Duration in seconds; zero when the upstream omits it.
	Duration float64
	// MediaURL is the resolved download link for the media. Empty when
	// the upstream exposes none; that absence is what later separates an
	// unreachable source from content that merely scored zero.
	MediaURL string
}

// HasMedia reports whether the item carries a usable media link.
func (c ContentItem) HasMedia() bool { return c.MediaURL != "" }
