package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

const graphAPIBase = "https://graph.facebook.com/v20.0"

// Instagram fetches recent media from an Instagram business account via the
// Meta Graph API.
type Instagram struct {
	client    *http.Client
	baseURL   string
	accountID string
	token     string
	limit     int
}

// NewInstagram creates the Instagram API adapter. limit is clamped to [1,50].
func NewInstagram(accountID, token string, limit int) *Instagram {
	return &Instagram{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   graphAPIBase,
		accountID: accountID,
		token:     token,
		limit:     clampLimit(limit),
	}
}

func (i *Instagram) Name() string { return "instagram" }

// HasCredentials reports whether the account id / token pair is configured.
func (i *Instagram) HasCredentials() bool {
	return i.accountID != "" && i.token != ""
}

func (i *Instagram) Fetch(ctx context.Context, _ string, _ []record.Platform) ([]record.Record, error) {
	if !i.HasCredentials() {
		return nil, fmt.Errorf("instagram: %w", ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("fields", "id,caption,media_url,media_type,permalink,timestamp,like_count,comments_count")
	params.Set("limit", fmt.Sprintf("%d", i.limit))
	params.Set("access_token", i.token)

	reqURL := fmt.Sprintf("%s/%s/media?%s", i.baseURL, url.PathEscape(i.accountID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create instagram request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch instagram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: instagram status %d", ErrProvider, resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID            string `json:"id"`
			Caption       string `json:"caption"`
			MediaURL      string `json:"media_url"`
			Permalink     string `json:"permalink"`
			Timestamp     string `json:"timestamp"`
			LikeCount     int    `json:"like_count"`
			CommentsCount int    `json:"comments_count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode instagram: %v", ErrProvider, err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: instagram response missing data", ErrProvider)
	}

	out := make([]record.Record, 0, len(body.Data))
	for _, item := range body.Data {
		out = append(out, record.Record{
			ExternalID:      item.ID,
			Caption:         item.Caption,
			MediaURL:        item.MediaURL,
			Permalink:       item.Permalink,
			Timestamp:       item.Timestamp,
			LikeCount:       item.LikeCount,
			CommentsCount:   item.CommentsCount,
			EngagementScore: item.LikeCount + item.CommentsCount,
			Platform:        record.PlatformInstagram,
			IngestSource:    "api",
		})
	}

	return out, nil
}
