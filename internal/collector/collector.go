// Package collector walks the paginated listing into the two item
// windows the scorers consume: a date-bounded cadence window and a
// count-bounded recent window.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"creatorscore/internal/config"
	"creatorscore/internal/contentapi"
	"creatorscore/internal/metrics"
	"creatorscore/internal/model"
	"creatorscore/internal/util"
)

// Lister is the one listing operation the collector needs.
type Lister interface {
	ListPage(ctx context.Context, username, cursor string, count int) (contentapi.Page, error)
}

// Window is the outcome of one paginated walk. TotalFetched counts the
// items seen before any keyword filter so callers can report coverage.
// Partial means a page failed after retries and the walk stopped early;
// a partial window still scores.
type Window struct {
	Items        []model.ContentItem
	TotalFetched int
	Partial      bool
}

type Collector struct {
	api       Lister
	windows   config.WindowsConfig
	pageSize  int
	maxPages  int
	pageDelay time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func New(api Lister, upstream config.UpstreamConfig, windows config.WindowsConfig, log zerolog.Logger) *Collector {
	pageSize := upstream.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	maxPages := upstream.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}
	return &Collector{
		api:       api,
		windows:   windows,
		pageSize:  pageSize,
		maxPages:  maxPages,
		pageDelay: time.Duration(upstream.PageDelayMs) * time.Millisecond,
		now:       time.Now,
		log:       log.With().Str("component", "collector").Logger(),
	}
}

// FetchQualityWindow collects every item published within the cadence
// window. Pagination stops once the majority of a page falls outside
// the window; listings are newest-first, so later pages only get older.
func (c *Collector) FetchQualityWindow(ctx context.Context, username string) (Window, error) {
	cutoff := c.now().AddDate(0, 0, -c.windows.QualityWindowDays)
	var win Window
	cursor := ""
	for page := 0; page < c.maxPages; page++ {
		p, err := c.fetchPage(ctx, username, cursor, "quality", page)
		if err != nil {
			win.Partial = true
			return win, ctx.Err()
		}
		win.TotalFetched += len(p.Items)
		older := 0
		for _, it := range p.Items {
			if it.PublishedAt.Before(cutoff) {
				older++
			} else {
				win.Items = append(win.Items, it)
			}
		}
		if !p.HasMore || len(p.Items) == 0 || older*2 > len(p.Items) {
			return win, nil
		}
		cursor = p.Cursor
		if err := c.pause(ctx); err != nil {
			win.Partial = true
			return win, err
		}
	}
	return win, nil
}

// FetchRecent collects up to MaxRecentItems newest items, then applies
// the keyword filter. TotalFetched stays the pre-filter count.
func (c *Collector) FetchRecent(ctx context.Context, username string) (Window, error) {
	var win Window
	var fetched []model.ContentItem
	cursor := ""
	for page := 0; page < c.maxPages && len(fetched) < c.windows.MaxRecentItems; page++ {
		p, err := c.fetchPage(ctx, username, cursor, "recent", page)
		if err != nil {
			win.Partial = true
			break
		}
		fetched = append(fetched, p.Items...)
		if !p.HasMore || len(p.Items) == 0 {
			break
		}
		cursor = p.Cursor
		if err := c.pause(ctx); err != nil {
			win.Partial = true
			break
		}
	}
	if len(fetched) > c.windows.MaxRecentItems {
		fetched = fetched[:c.windows.MaxRecentItems]
	}
	win.TotalFetched = len(fetched)
	win.Items = filterKeyword(fetched, c.windows.Keyword)
	if win.Partial && ctx.Err() != nil {
		return win, ctx.Err()
	}
	return win, nil
}

func (c *Collector) fetchPage(ctx context.Context, username, cursor, window string, page int) (contentapi.Page, error) {
	p, err := c.api.ListPage(ctx, username, cursor, c.pageSize)
	if err != nil {
		c.log.Warn().Err(err).Str("window", window).Int("page", page).Msg("page fetch failed, keeping partial window")
		return contentapi.Page{}, err
	}
	metrics.PagesFetched.WithLabelValues(window).Inc()
	c.log.Debug().Str("window", window).Int("page", page).Int("items", len(p.Items)).Bool("hasMore", p.HasMore).Msg("page fetched")
	return p, nil
}

// pause applies the courtesy delay between page requests.
func (c *Collector) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(c.pageDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// filterKeyword keeps items whose description mentions the keyword.
// Descriptions are whitespace-normalized first so a phrase split across
// line breaks still matches.
func filterKeyword(items []model.ContentItem, keyword string) []model.ContentItem {
	if keyword == "" {
		return items
	}
	keyword = util.NormalizeWhitespace(keyword)
	var out []model.ContentItem
	for _, it := range items {
		if util.ContainsFold(util.NormalizeWhitespace(it.Description), keyword) {
			out = append(out, it)
		}
	}
	return out
}
