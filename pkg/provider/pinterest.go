package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

const pinterestAPIBase = "https://api.pinterest.com/v5"

// Pinterest fetches board pins via the Pinterest v5 API.
type Pinterest struct {
	client  *http.Client
	baseURL string
	boardID string
	token   string
	limit   int
}

// NewPinterest creates the Pinterest API adapter. limit is clamped to [1,50].
func NewPinterest(boardID, token string, limit int) *Pinterest {
	return &Pinterest{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: pinterestAPIBase,
		boardID: boardID,
		token:   token,
		limit:   clampLimit(limit),
	}
}

func (p *Pinterest) Name() string { return "pinterest" }

// HasCredentials reports whether the board id / token pair is configured.
func (p *Pinterest) HasCredentials() bool {
	return p.boardID != "" && p.token != ""
}

func (p *Pinterest) Fetch(ctx context.Context, _ string, _ []record.Platform) ([]record.Record, error) {
	if !p.HasCredentials() {
		return nil, fmt.Errorf("pinterest: %w", ErrMissingCredentials)
	}

	reqURL := fmt.Sprintf("%s/boards/%s/pins?page_size=%d", p.baseURL, url.PathEscape(p.boardID), p.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create pinterest request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch pinterest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pinterest status %d", ErrProvider, resp.StatusCode)
	}

	var body struct {
		Items []struct {
			ID          string `json:"id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Link        string `json:"link"`
			CreatedAt   string `json:"created_at"`
			Media       struct {
				Images struct {
					Originals struct {
						URL string `json:"url"`
					} `json:"originals"`
				} `json:"images"`
			} `json:"media"`
			PinMetrics struct {
				SaveCount    int `json:"save_count"`
				CommentCount int `json:"comment_count"`
			} `json:"pin_metrics"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode pinterest: %v", ErrProvider, err)
	}
	if body.Items == nil {
		return nil, fmt.Errorf("%w: pinterest response missing items", ErrProvider)
	}

	out := make([]record.Record, 0, len(body.Items))
	for _, item := range body.Items {
		saves := item.PinMetrics.SaveCount
		comments := item.PinMetrics.CommentCount
		out = append(out, record.Record{
			ExternalID:      item.ID,
			Caption:         strings.TrimSpace(item.Title + " " + item.Description),
			MediaURL:        item.Media.Images.Originals.URL,
			Permalink:       item.Link,
			Timestamp:       item.CreatedAt,
			LikeCount:       saves,
			CommentsCount:   comments,
			EngagementScore: saves + comments,
			Platform:        record.PlatformPinterest,
			IngestSource:    "api",
		})
	}

	return out, nil
}
