package contentapi

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"creatorscore/internal/model"
)

// The upstream returns the same logical listing in several layouts
// depending on which backing endpoint served the request. Detection is
// priority-ordered over the known variants instead of probing nested
// keys at every call site.

// ListingShape identifies which layout a listing payload used.
type ListingShape int

const (
	ShapeUnknown ListingShape = iota
	ShapeItemList
	ShapeNestedItemList
	ShapeAwemeList
	ShapeNestedAwemeList
)

func (s ListingShape) String() string {
	switch s {
	case ShapeItemList:
		return "itemList"
	case ShapeNestedItemList:
		return "data.itemList"
	case ShapeAwemeList:
		return "aweme_list"
	case ShapeNestedAwemeList:
		return "data.aweme_list"
	}
	return "unknown"
}

// ErrUnknownShape means no known listing layout matched the payload.
var ErrUnknownShape = errors.New("contentapi: unrecognized listing shape")

// Page is one decoded listing page.
type Page struct {
	Items   []model.ContentItem
	Shape   ListingShape
	HasMore bool
	Cursor  string
}

// flexCursor accepts the cursor as either a JSON number or a string.
type flexCursor string

func (c *flexCursor) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*c = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = flexCursor(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = flexCursor(strconv.FormatInt(n, 10))
	return nil
}

// webItem is the camelCase layout used by the web-style endpoints.
type webItem struct {
	ID         string `json:"id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"createTime"`
	Stats      struct {
		PlayCount    int `json:"playCount"`
		DiggCount    int `json:"diggCount"`
		CommentCount int `json:"commentCount"`
		ShareCount   int `json:"shareCount"`
		CollectCount int `json:"collectCount"`
	} `json:"stats"`
	Video struct {
		Duration float64 `json:"duration"`
	} `json:"video"`
}

// awemeItem is the snake_case layout used by the app-style endpoints.
type awemeItem struct {
	AwemeID    string `json:"aweme_id"`
	Desc       string `json:"desc"`
	CreateTime int64  `json:"create_time"`
	Statistics struct {
		PlayCount    int `json:"play_count"`
		DiggCount    int `json:"digg_count"`
		CommentCount int `json:"comment_count"`
		ShareCount   int `json:"share_count"`
		CollectCount int `json:"collect_count"`
	} `json:"statistics"`
	Video struct {
		// Duration in milliseconds on this layout.
		Duration float64 `json:"duration"`
	} `json:"video"`
}

func (w webItem) toItem() model.ContentItem {
	return model.ContentItem{
		ID:           w.ID,
		Description:  w.Desc,
		PublishedAt:  time.Unix(w.CreateTime, 0).UTC(),
		ViewCount:    w.Stats.PlayCount,
		LikeCount:    w.Stats.DiggCount,
		CommentCount: w.Stats.CommentCount,
		ShareCount:   w.Stats.ShareCount,
		SaveCount:    w.Stats.CollectCount,
		Duration:     w.Video.Duration,
	}
}

func (a awemeItem) toItem() model.ContentItem {
	return model.ContentItem{
		ID:           a.AwemeID,
		Description:  a.Desc,
		PublishedAt:  time.Unix(a.CreateTime, 0).UTC(),
		ViewCount:    a.Statistics.PlayCount,
		LikeCount:    a.Statistics.DiggCount,
		CommentCount: a.Statistics.CommentCount,
		ShareCount:   a.Statistics.ShareCount,
		SaveCount:    a.Statistics.CollectCount,
		Duration:     a.Video.Duration / 1000.0,
	}
}

// flexBool accepts true/false as well as the 0/1 ints the snake_case
// layouts use.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "true", "1":
		*f = true
	default:
		*f = false
	}
	return nil
}

// listingEnvelope captures the page-level fields shared by all layouts.
// The camelCase layouts carry hasMore/cursor; the snake_case layouts
// carry has_more/max_cursor.
type listingEnvelope struct {
	ItemList   []json.RawMessage `json:"itemList"`
	AwemeList  []json.RawMessage `json:"aweme_list"`
	Data       *listingEnvelope  `json:"data"`
	HasMore    flexBool          `json:"hasMore"`
	HasMoreAlt flexBool          `json:"has_more"`
	Cursor     flexCursor        `json:"cursor"`
	MaxCursor  flexCursor        `json:"max_cursor"`
}

func (e *listingEnvelope) more() bool { return bool(e.HasMore) || bool(e.HasMoreAlt) }

func (e *listingEnvelope) cursor() string {
	if e.Cursor != "" {
		return string(e.Cursor)
	}
	return string(e.MaxCursor)
}

// DecodeListing resolves the payload's shape and decodes its items.
func DecodeListing(raw json.RawMessage) (Page, error) {
	var env listingEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Page{}, err
	}
	shape, items, web := resolveShape(&env)
	if shape == ShapeUnknown {
		return Page{}, ErrUnknownShape
	}
	page := Page{Shape: shape, HasMore: env.more(), Cursor: env.cursor()}
	if env.Data != nil && shape.nested() {
		page.HasMore = env.Data.more()
		page.Cursor = env.Data.cursor()
	}
	for _, raw := range items {
		var item model.ContentItem
		if web {
			var w webItem
			if err := json.Unmarshal(raw, &w); err != nil || w.ID == "" {
				continue
			}
			item = w.toItem()
		} else {
			var a awemeItem
			if err := json.Unmarshal(raw, &a); err != nil || a.AwemeID == "" {
				continue
			}
			item = a.toItem()
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (s ListingShape) nested() bool {
	return s == ShapeNestedItemList || s == ShapeNestedAwemeList
}

// resolveShape picks the first matching layout in priority order.
func resolveShape(env *listingEnvelope) (ListingShape, []json.RawMessage, bool) {
	switch {
	case len(env.ItemList) > 0:
		return ShapeItemList, env.ItemList, true
	case env.Data != nil && len(env.Data.ItemList) > 0:
		return ShapeNestedItemList, env.Data.ItemList, true
	case len(env.AwemeList) > 0:
		return ShapeAwemeList, env.AwemeList, false
	case env.Data != nil && len(env.Data.AwemeList) > 0:
		return ShapeNestedAwemeList, env.Data.AwemeList, false
	}
	return ShapeUnknown, nil, false
}
