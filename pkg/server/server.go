// Package server provides the HTTP API over the aggregation pipeline.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/1webtutor/social-content-aggregator/internal/keyword"
	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
	"github.com/1webtutor/social-content-aggregator/pkg/hashtag"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
)

// Server provides the HTTP API.
type Server struct {
	store      store.Store
	aggregator *aggregate.Aggregator
	hashtags   *hashtag.Engine
	runner     *keyword.Runner
	port       int
}

// New creates a new HTTP server. runner may be nil when keyword jobs are
// not wired.
func New(s store.Store, agg *aggregate.Aggregator, hashtags *hashtag.Engine, runner *keyword.Runner, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		store:      s,
		aggregator: agg,
		hashtags:   hashtags,
		runner:     runner,
		port:       port,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/sync", s.handleSync)
	mux.HandleFunc("/api/v1/fetch", s.handleFetch)
	mux.HandleFunc("/api/v1/hashtags", s.handleHashtags)
	mux.HandleFunc("/api/v1/entries", s.handleEntries)
	mux.HandleFunc("/api/v1/schedulers", s.handleSchedulers)
	mux.HandleFunc("/api/v1/schedulers/run", s.handleRunSchedulers)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("socagg server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	force := r.URL.Query().Get("force") == "true"
	err := s.aggregator.SyncAll(r.Context(), force)
	if errors.Is(err, aggregate.ErrRateLimited) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	kw := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if kw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
		return
	}

	platforms := record.SocialPlatforms()
	if raw := r.URL.Query().Get("platforms"); raw != "" {
		platforms = nil
		for _, p := range strings.Split(raw, ",") {
			platforms = append(platforms, record.Platform(strings.TrimSpace(p)))
		}
	}

	maxPosts := queryInt(r, "max", 10)
	minEngagement := queryInt(r, "min_engagement", 0)

	items, err := s.aggregator.FetchKeyword(r.Context(), kw, platforms, maxPosts, minEngagement)
	if errors.Is(err, aggregate.ErrUnsupportedPlatform) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  items,
		"count": len(items),
	})
}

func (s *Server) handleHashtags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := queryInt(r, "limit", 10)
	tags, err := s.store.TopHashtags(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  tags,
		"count": len(tags),
	})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := queryInt(r, "limit", 100)
	entries, err := s.store.ListEntries(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"count": len(entries),
	})
}

func (s *Server) handleSchedulers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		configs, err := s.store.ListActiveSchedulerConfigs(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  configs,
			"count": len(configs),
		})

	case http.MethodPost:
		var cfg store.SchedulerConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if strings.TrimSpace(cfg.Keyword) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "keyword is required"})
			return
		}
		if len(cfg.Platforms) == 0 {
			for _, p := range record.SocialPlatforms() {
				cfg.Platforms = append(cfg.Platforms, string(p))
			}
		}
		if cfg.PostType == "" {
			cfg.PostType = "social_posts"
		}
		cfg.IsActive = true
		cfg.CreatedAt = time.Now().UTC()
		if err := s.store.InsertSchedulerConfig(r.Context(), &cfg); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, cfg)

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleRunSchedulers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "keyword runner not configured"})
		return
	}
	if err := s.runner.RunDue(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ran"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
