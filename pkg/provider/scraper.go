package provider

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

// Scraper is one pooled scraping vendor backend. Scrapers are optional
// fallbacks: a missing credential yields an empty result, not an error.
type Scraper interface {
	Provider
	HasCredentials() bool
}

// scraperRow is the loose wire shape shared by all scraping vendors.
// Vendors disagree on field names, so alternates are declared side by side
// and resolved in normalizeScraperRows.
type scraperRow struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	Text          string `json:"text"`
	Permalink     string `json:"permalink"`
	URL           string `json:"url"`
	MediaURL      string `json:"media_url"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
	Platform      string `json:"platform"`
}

// decodeScraperBody accepts either a {data:[...]} envelope or a bare array.
func decodeScraperBody(body io.Reader) ([]scraperRow, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []scraperRow `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var rows []scraperRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("unrecognized payload shape: %w", err)
	}
	return rows, nil
}

// normalizeScraperRows maps vendor rows into records, falling back across
// alternate field names and synthesizing ids for rows without one.
func normalizeScraperRows(rows []scraperRow, provider string) []record.Record {
	out := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		caption := row.Caption
		if caption == "" {
			caption = row.Text
		}
		link := row.Permalink
		if link == "" {
			link = row.URL
		}

		externalID := row.ID
		if externalID == "" {
			externalID = fmt.Sprintf("%x", md5.Sum([]byte(provider+"|"+link+"|"+caption)))
		}

		timestamp := row.Timestamp
		if timestamp == "" {
			timestamp = time.Now().UTC().Format(time.RFC3339)
		}

		platform := record.Platform(strings.ToLower(row.Platform))
		if !record.Known(platform) || platform == "" {
			platform = record.DetectPlatform(link)
		}

		out = append(out, record.Record{
			ExternalID:      externalID,
			Caption:         caption,
			MediaURL:        row.MediaURL,
			Permalink:       link,
			Timestamp:       timestamp,
			LikeCount:       row.LikeCount,
			CommentsCount:   row.CommentsCount,
			EngagementScore: row.LikeCount + row.CommentsCount,
			Platform:        platform,
			IngestSource:    provider,
		})
	}
	return out
}

func platformList(platforms []record.Platform) string {
	names := make([]string, len(platforms))
	for i, p := range platforms {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}

// Decodo scrapes via the Decodo social search endpoint.
type Decodo struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewDecodo creates the Decodo backend.
func NewDecodo(apiKey string) *Decodo {
	return &Decodo{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://scrape.decodo.com/social/search",
		apiKey:  apiKey,
	}
}

func (d *Decodo) Name() string         { return "decodo" }
func (d *Decodo) HasCredentials() bool { return d.apiKey != "" }

func (d *Decodo) Fetch(ctx context.Context, keyword string, platforms []record.Platform) ([]record.Record, error) {
	if !d.HasCredentials() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("platforms", platformList(platforms))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create decodo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch decodo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: decodo status %d", ErrProvider, resp.StatusCode)
	}

	rows, err := decodeScraperBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode decodo: %v", ErrProvider, err)
	}
	return normalizeScraperRows(rows, d.Name()), nil
}

// Apify scrapes via an Apify actor's run-sync endpoint.
type Apify struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewApify creates the Apify backend.
func NewApify(token string) *Apify {
	return &Apify{
		client:  &http.Client{Timeout: 25 * time.Second},
		baseURL: "https://api.apify.com/v2/acts/social-search/run-sync-get-dataset-items",
		token:   token,
	}
}

func (a *Apify) Name() string         { return "apify" }
func (a *Apify) HasCredentials() bool { return a.token != "" }

func (a *Apify) Fetch(ctx context.Context, keyword string, platforms []record.Platform) ([]record.Record, error) {
	if !a.HasCredentials() {
		return nil, nil
	}

	params := url.Values{}
	params.Set("token", a.token)
	params.Set("keyword", keyword)
	params.Set("platform", platformList(platforms))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create apify request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch apify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: apify status %d", ErrProvider, resp.StatusCode)
	}

	rows, err := decodeScraperBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode apify: %v", ErrProvider, err)
	}
	return normalizeScraperRows(rows, a.Name()), nil
}

// ScrapeDo scrapes via the Scrape.do proxy endpoint.
type ScrapeDo struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewScrapeDo creates the Scrape.do backend.
func NewScrapeDo(token string) *ScrapeDo {
	return &ScrapeDo{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://api.scrape.do/",
		token:   token,
	}
}

func (s *ScrapeDo) Name() string         { return "scrape_do" }
func (s *ScrapeDo) HasCredentials() bool { return s.token != "" }

func (s *ScrapeDo) Fetch(ctx context.Context, keyword string, platforms []record.Platform) ([]record.Record, error) {
	if !s.HasCredentials() {
		return nil, nil
	}

	target := "https://www.example.com/social-search?q=" + url.QueryEscape(keyword+" "+platformList(platforms))
	params := url.Values{}
	params.Set("token", s.token)
	params.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create scrape.do request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scrape.do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: scrape.do status %d", ErrProvider, resp.StatusCode)
	}

	rows, err := decodeScraperBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode scrape.do: %v", ErrProvider, err)
	}
	return normalizeScraperRows(rows, s.Name()), nil
}
