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

// Facebook fetches recent page posts via the Meta Graph API.
type Facebook struct {
	client  *http.Client
	baseURL string
	pageID  string
	token   string
	limit   int
}

// NewFacebook creates the Facebook API adapter. limit is clamped to [1,50].
func NewFacebook(pageID, token string, limit int) *Facebook {
	return &Facebook{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: graphAPIBase,
		pageID:  pageID,
		token:   token,
		limit:   clampLimit(limit),
	}
}

func (f *Facebook) Name() string { return "facebook" }

// HasCredentials reports whether the page id / token pair is configured.
func (f *Facebook) HasCredentials() bool {
	return f.pageID != "" && f.token != ""
}

func (f *Facebook) Fetch(ctx context.Context, _ string, _ []record.Platform) ([]record.Record, error) {
	if !f.HasCredentials() {
		return nil, fmt.Errorf("facebook: %w", ErrMissingCredentials)
	}

	params := url.Values{}
	params.Set("fields", "id,message,permalink_url,created_time,full_picture,likes.summary(true),comments.summary(true)")
	params.Set("limit", fmt.Sprintf("%d", f.limit))
	params.Set("access_token", f.token)

	reqURL := fmt.Sprintf("%s/%s/posts?%s", f.baseURL, url.PathEscape(f.pageID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create facebook request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch facebook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: facebook status %d", ErrProvider, resp.StatusCode)
	}

	var body struct {
		Data []struct {
			ID           string `json:"id"`
			Message      string `json:"message"`
			PermalinkURL string `json:"permalink_url"`
			CreatedTime  string `json:"created_time"`
			FullPicture  string `json:"full_picture"`
			Likes        struct {
				Summary struct {
					TotalCount int `json:"total_count"`
				} `json:"summary"`
			} `json:"likes"`
			Comments struct {
				Summary struct {
					TotalCount int `json:"total_count"`
				} `json:"summary"`
			} `json:"comments"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode facebook: %v", ErrProvider, err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: facebook response missing data", ErrProvider)
	}

	out := make([]record.Record, 0, len(body.Data))
	for _, item := range body.Data {
		likes := item.Likes.Summary.TotalCount
		comments := item.Comments.Summary.TotalCount
		out = append(out, record.Record{
			ExternalID:      item.ID,
			Caption:         item.Message,
			MediaURL:        item.FullPicture,
			Permalink:       item.PermalinkURL,
			Timestamp:       item.CreatedTime,
			LikeCount:       likes,
			CommentsCount:   comments,
			EngagementScore: likes + comments,
			Platform:        record.PlatformFacebook,
			IngestSource:    "api",
		})
	}

	return out, nil
}
