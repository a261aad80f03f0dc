// Package contentapi wraps the upstream content-listing API: bearer
// auth, client-side rate limiting, retry with backoff and tolerant
// decoding of the several response layouts the upstream serves.
package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"creatorscore/internal/config"
	"creatorscore/internal/metrics"
	"creatorscore/internal/model"
	"creatorscore/internal/retry"
)

const (
	profilePath = "/api/v1/tiktok/web/fetch_user_profile"
	postsPath   = "/api/v1/tiktok/web/fetch_user_post"
	detailPath  = "/api/v1/tiktok/app/v3/fetch_one_video"
)

// ErrNotFound means the upstream has no record for the identifier.
var ErrNotFound = errors.New("contentapi: not found")

// Client talks to the content-listing API. All requests pass through a
// shared token-bucket limiter; each request is independently retried
// under the upstream policy.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	log     zerolog.Logger
}

func NewClient(cfg config.UpstreamConfig, log zerolog.Logger) *Client {
	rps := cfg.RPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		policy:  retry.FromConfig(cfg.Retry),
		log:     log.With().Str("component", "contentapi").Logger(),
	}
}

// envelope is the outer wrapper on every upstream response. Success is
// code 200 on web endpoints and 0 on app endpoints.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) ok() bool { return e.Code == 200 || e.Code == 0 }

// GetProfile fetches the account snapshot for a username.
func (c *Client) GetProfile(ctx context.Context, username string) (model.AccountProfile, error) {
	params := url.Values{"uniqueId": {username}}
	raw, err := c.getJSON(ctx, profilePath, params, false)
	if err != nil {
		return model.AccountProfile{}, fmt.Errorf("fetch profile %s: %w", username, err)
	}
	var body struct {
		UserInfo struct {
			User struct {
				ID        string `json:"id"`
				UniqueID  string `json:"uniqueId"`
				Nickname  string `json:"nickname"`
				Signature string `json:"signature"`
				Verified  bool   `json:"verified"`
			} `json:"user"`
			Stats struct {
				FollowerCount  int `json:"followerCount"`
				FollowingCount int `json:"followingCount"`
				HeartCount     int `json:"heartCount"`
				VideoCount     int `json:"videoCount"`
			} `json:"stats"`
		} `json:"userInfo"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return model.AccountProfile{}, fmt.Errorf("decode profile %s: %w", username, err)
	}
	if body.UserInfo.User.ID == "" && body.UserInfo.User.UniqueID == "" {
		return model.AccountProfile{}, fmt.Errorf("profile %s: %w", username, ErrNotFound)
	}
	u := body.UserInfo
	return model.AccountProfile{
		AccountID:      u.User.ID,
		Username:       u.User.UniqueID,
		DisplayName:    u.User.Nickname,
		FollowerCount:  u.Stats.FollowerCount,
		FollowingCount: u.Stats.FollowingCount,
		TotalLikes:     u.Stats.HeartCount,
		ContentCount:   u.Stats.VideoCount,
		Bio:            u.User.Signature,
		Verified:       u.User.Verified,
	}, nil
}

// ListPage fetches one listing page. An empty cursor means the first
// page. Transient upstream failures, including the 400-with-cursor
// glitch the listing endpoint is known for, are retried under the
// upstream policy before the error surfaces.
func (c *Client) ListPage(ctx context.Context, username, cursor string, count int) (Page, error) {
	params := url.Values{"uniqueId": {username}, "count": {strconv.Itoa(count)}}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	raw, err := c.getJSON(ctx, postsPath, params, cursor != "")
	if err != nil {
		return Page{}, fmt.Errorf("fetch posts %s cursor=%q: %w", username, cursor, err)
	}
	page, err := DecodeListing(raw)
	if err != nil {
		return Page{}, fmt.Errorf("decode posts %s: %w", username, err)
	}
	return page, nil
}

// MediaURL resolves the best download link for one item, preferring a
// watermark-free rendition. Empty string (no error) when the upstream
// exposes no usable link.
func (c *Client) MediaURL(ctx context.Context, itemID string) (string, error) {
	params := url.Values{"aweme_id": {itemID}}
	raw, err := c.getJSON(ctx, detailPath, params, false)
	if err != nil {
		return "", fmt.Errorf("fetch detail %s: %w", itemID, err)
	}
	type addr struct {
		URLList []string `json:"url_list"`
	}
	type videoDetail struct {
		Video struct {
			DownloadNoWatermarkAddr addr `json:"download_no_watermark_addr"`
			DownloadAddr            addr `json:"download_addr"`
			PlayAddr                addr `json:"play_addr"`
		} `json:"video"`
	}
	var body struct {
		AwemeDetails []videoDetail `json:"aweme_details"`
		AwemeDetail  *videoDetail  `json:"aweme_detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode detail %s: %w", itemID, err)
	}
	var d *videoDetail
	switch {
	case len(body.AwemeDetails) > 0:
		d = &body.AwemeDetails[0]
	case body.AwemeDetail != nil:
		d = body.AwemeDetail
	default:
		return "", nil
	}
	for _, a := range []addr{d.Video.DownloadNoWatermarkAddr, d.Video.DownloadAddr, d.Video.PlayAddr} {
		if len(a.URLList) > 0 && a.URLList[0] != "" {
			return a.URLList[0], nil
		}
	}
	return "", nil
}

// getJSON performs one authenticated GET under the retry policy and
// unwraps the response envelope. cursorRetry additionally treats 400 as
// transient: the listing endpoint intermittently rejects valid cursors.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, cursorRetry bool) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var data json.RawMessage
	attempt := 0
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if attempt > 0 {
			metrics.IncAPIRetry(path)
		}
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.Transient(err)
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
		if err != nil {
			return retry.Transient(err)
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("%s: status %d", path, resp.StatusCode)
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return retry.TransientAfter(err, parseRetryAfter(resp.Header.Get("Retry-After")))
			case retry.RetryableStatus(resp.StatusCode):
				return retry.Transient(err)
			case resp.StatusCode == http.StatusBadRequest && cursorRetry:
				return retry.Transient(err)
			case resp.StatusCode == http.StatusNotFound:
				return ErrNotFound
			}
			return err
		}
		var env envelope
		if err := json.Unmarshal(b, &env); err != nil {
			return fmt.Errorf("%s: decode envelope: %w", path, err)
		}
		if !env.ok() {
			return fmt.Errorf("%s: upstream code %d: %s", path, env.Code, env.Message)
		}
		data = env.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// parseRetryAfter handles the delta-seconds form; anything else gets 0
// and the caller falls back to its own backoff.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
