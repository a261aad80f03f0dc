package contentapi

import (
	"encoding/json"
	"errors"
	"testing"
)

const webItemJSON = `{
	"id": "111",
	"desc": "golang tips",
	"createTime": 1700000000,
	"stats": {"playCount": 1000, "diggCount": 50, "commentCount": 5, "shareCount": 2, "collectCount": 3},
	"video": {"duration": 42.5}
}`

const awemeItemJSON = `{
	"aweme_id": "222",
	"desc": "cooking",
	"create_time": 1700000100,
	"statistics": {"play_count": 2000, "digg_count": 80, "comment_count": 8, "share_count": 4, "collect_count": 1},
	"video": {"duration": 15000}
}`

func TestDecodeListingShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		shape   ListingShape
		itemID  string
	}{
		{"flat itemList", `{"itemList": [` + webItemJSON + `], "hasMore": true, "cursor": 1700000000}`, ShapeItemList, "111"},
		{"nested itemList", `{"data": {"itemList": [` + webItemJSON + `], "hasMore": true, "cursor": "abc"}}`, ShapeNestedItemList, "111"},
		{"flat aweme_list", `{"aweme_list": [` + awemeItemJSON + `], "hasMore": false, "cursor": 0}`, ShapeAwemeList, "222"},
		{"nested aweme_list", `{"data": {"aweme_list": [` + awemeItemJSON + `], "hasMore": true, "cursor": 9}}`, ShapeNestedAwemeList, "222"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := DecodeListing(json.RawMessage(tc.payload))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if page.Shape != tc.shape {
				t.Errorf("shape = %v, want %v", page.Shape, tc.shape)
			}
			if len(page.Items) != 1 || page.Items[0].ID != tc.itemID {
				t.Errorf("items = %+v, want one item with ID %s", page.Items, tc.itemID)
			}
		})
	}
}

func TestDecodeListingPriorityOrder(t *testing.T) {
	// A payload carrying both a flat itemList and a nested one must
	// resolve to the flat shape.
	payload := `{"itemList": [` + webItemJSON + `], "data": {"itemList": [` + awemeItemJSON + `]}, "hasMore": false}`
	page, err := DecodeListing(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Shape != ShapeItemList {
		t.Errorf("shape = %v, want %v", page.Shape, ShapeItemList)
	}
}

func TestDecodeListingUnknownShape(t *testing.T) {
	_, err := DecodeListing(json.RawMessage(`{"something": []}`))
	if !errors.Is(err, ErrUnknownShape) {
		t.Fatalf("err = %v, want ErrUnknownShape", err)
	}
}

func TestDecodeListingFieldMapping(t *testing.T) {
	page, err := DecodeListing(json.RawMessage(`{"itemList": [` + webItemJSON + `], "hasMore": true, "cursor": 1700000000}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	it := page.Items[0]
	if it.ViewCount != 1000 || it.LikeCount != 50 || it.CommentCount != 5 || it.ShareCount != 2 || it.SaveCount != 3 {
		t.Errorf("counters = %+v", it)
	}
	if it.Duration != 42.5 {
		t.Errorf("duration = %v, want 42.5", it.Duration)
	}
	if !page.HasMore || page.Cursor != "1700000000" {
		t.Errorf("pagination = hasMore=%v cursor=%q", page.HasMore, page.Cursor)
	}
}

func TestDecodeListingSnakeCasePagination(t *testing.T) {
	payload := `{"aweme_list": [` + awemeItemJSON + `], "has_more": 1, "max_cursor": 1699999000}`
	page, err := DecodeListing(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !page.HasMore || page.Cursor != "1699999000" {
		t.Errorf("pagination = hasMore=%v cursor=%q", page.HasMore, page.Cursor)
	}
}

func TestDecodeListingAwemeDurationMillis(t *testing.T) {
	page, err := DecodeListing(json.RawMessage(`{"aweme_list": [` + awemeItemJSON + `]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d := page.Items[0].Duration; d != 15.0 {
		t.Errorf("duration = %v, want 15.0 seconds", d)
	}
}

func TestDecodeListingSkipsMalformedItems(t *testing.T) {
	payload := `{"itemList": [{"desc": "no id"}, ` + webItemJSON + `]}`
	page, err := DecodeListing(json.RawMessage(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Items))
	}
}
