package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/1webtutor/social-content-aggregator/internal/cache"
	"github.com/1webtutor/social-content-aggregator/internal/config"
	"github.com/1webtutor/social-content-aggregator/internal/keyword"
	"github.com/1webtutor/social-content-aggregator/internal/scheduler"
	"github.com/1webtutor/social-content-aggregator/internal/store"
	"github.com/1webtutor/social-content-aggregator/pkg/aggregate"
	"github.com/1webtutor/social-content-aggregator/pkg/hashtag"
	"github.com/1webtutor/social-content-aggregator/pkg/provider"
	"github.com/1webtutor/social-content-aggregator/pkg/publish"
	"github.com/1webtutor/social-content-aggregator/pkg/record"
	"github.com/1webtutor/social-content-aggregator/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("SOCAGG_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	return logrus.NewEntry(log)
}

func buildAPIs(cfg *config.Config) map[record.Platform]aggregate.APIProvider {
	limit := cfg.Sync.SyncLimit
	return map[record.Platform]aggregate.APIProvider{
		record.PlatformInstagram: provider.NewInstagram(cfg.Platforms.InstagramAccountID, cfg.Platforms.MetaAccessToken, limit),
		record.PlatformFacebook:  provider.NewFacebook(cfg.Platforms.FacebookPageID, cfg.Platforms.MetaAccessToken, limit),
		record.PlatformPinterest: provider.NewPinterest(cfg.Platforms.PinterestBoardID, cfg.Platforms.PinterestAccessToken, limit),
	}
}

func buildPool(cfg *config.Config, db store.Store, log *logrus.Entry) *provider.Pool {
	scrapers := []provider.Scraper{
		provider.NewDecodo(cfg.Scrapers.DecodoAPIKey),
		provider.NewApify(cfg.Scrapers.ApifyAPIToken),
		provider.NewScrapeDo(cfg.Scrapers.ScrapeDoAPIToken),
	}
	limits := map[string]int{
		"decodo":    cfg.Scrapers.LimitFor("decodo"),
		"apify":     cfg.Scrapers.LimitFor("apify"),
		"scrape_do": cfg.Scrapers.LimitFor("scrape_do"),
	}
	return provider.NewPool(scrapers, limits, db, log.WithField("component", "pool"))
}

func buildAggregator(cfg *config.Config, db store.Store, log *logrus.Entry) (*aggregate.Aggregator, *hashtag.Engine) {
	hashtags := hashtag.NewEngine(db)
	planner := publish.NewPlanner(
		cfg.Publishing.Mode,
		cfg.Publishing.PostType,
		cfg.Publishing.ScheduleTime,
		cfg.Publishing.Frequency,
	)

	var feed *provider.Feed
	if cfg.Feeds.Enabled && cfg.Feeds.URLs != "" {
		feed = provider.NewFeed(cfg.Feeds.URLs, cfg.Sync.SyncLimit, log.WithField("component", "feed"))
	}

	agg := aggregate.New(
		buildAPIs(cfg),
		buildPool(cfg, db, log),
		feed,
		cache.New(),
		hashtags,
		planner,
		db,
		aggregate.Config{
			CacheTTL:      cfg.Sync.ParseCacheTTL(),
			SyncLimit:     cfg.Sync.SyncLimit,
			MinEngagement: cfg.Sync.MinEngagement,
			Blacklist:     hashtag.ParseBlacklist(cfg.Sync.HashtagBlacklist),
		},
		log.WithField("component", "aggregate"),
	)
	return agg, hashtags
}

func buildRunner(cfg *config.Config, db store.Store, agg *aggregate.Aggregator, hashtags *hashtag.Engine, log *logrus.Entry) *keyword.Runner {
	var verify keyword.Verifier
	if cfg.Verifier.Enabled && cfg.Verifier.APIKey != "" {
		verifier := keyword.NewLLMVerifier(
			cfg.Verifier.Provider,
			cfg.Verifier.Model,
			cfg.Verifier.APIKey,
			cfg.Verifier.BaseURL,
			log.WithField("component", "verifier"),
		)
		verify = verifier.Verify
		log.WithFields(logrus.Fields{
			"provider": cfg.Verifier.Provider,
			"model":    cfg.Verifier.Model,
		}).Info("content verifier enabled")
	}
	return keyword.NewRunner(db, agg, hashtags, verify, log.WithField("component", "keyword"))
}

func runSync(force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	agg, _ := buildAggregator(cfg, db, newLogger())
	return agg.SyncAll(context.Background(), force)
}

func runFetch(kw string, platformNames []string, maxPosts, minEngagement int, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	platforms := record.SocialPlatforms()
	if len(platformNames) > 0 {
		platforms = nil
		for _, name := range platformNames {
			platforms = append(platforms, record.Platform(name))
		}
	}

	agg, _ := buildAggregator(cfg, db, newLogger())
	items, err := agg.FetchKeyword(context.Background(), kw, platforms, maxPosts, minEngagement)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}

	if len(items) == 0 {
		fmt.Println("no matching posts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tENGAGEMENT\tPLATFORM\tPERMALINK")
	for _, item := range items {
		fmt.Fprintf(w, "%.1f\t%d\t%s\t%s\n",
			item.FinalScore, item.EngagementScore, item.Platform, item.Permalink)
	}
	return w.Flush()
}

func runHashtags(limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	stats, err := db.TopHashtags(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("top hashtags: %w", err)
	}

	if len(stats) == 0 {
		fmt.Println("no hashtags recorded yet (run a sync first: socagg sync)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HASHTAG\tUSES\tAVG ENGAGEMENT\tLAST SEEN")
	for _, stat := range stats {
		fmt.Fprintf(w, "#%s\t%d\t%.1f\t%s\n",
			stat.Hashtag, stat.UsageCount, stat.AvgEngagement,
			stat.LastSeen.Format(time.RFC3339))
	}
	return w.Flush()
}

func runSchedulers() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	log := newLogger()
	agg, hashtags := buildAggregator(cfg, db, log)
	runner := buildRunner(cfg, db, agg, hashtags, log)
	return runner.RunDue(context.Background())
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	log := newLogger()
	agg, hashtags := buildAggregator(cfg, db, log)
	runner := buildRunner(cfg, db, agg, hashtags, log)

	srv := server.New(db, agg, hashtags, runner, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	log := newLogger()
	agg, hashtags := buildAggregator(cfg, db, log)
	runner := buildRunner(cfg, db, agg, hashtags, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(agg, runner,
		cfg.Schedule.ParseSyncInterval(),
		cfg.Schedule.ParseKeywordInterval(),
		log.WithField("component", "scheduler"),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("scheduler exited")
		}
	}()

	srv := server.New(db, agg, hashtags, runner, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
