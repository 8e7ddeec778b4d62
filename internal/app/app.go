// Package app wires configuration into the scraper's service graph and runs
// the end-to-end pipeline: keyword sweep, dedupe and ranking, report
// generation, archival, artifact upload, and run notification.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/agentpool"
	"github.com/newscheck/newscheck/internal/analyzer"
	"github.com/newscheck/newscheck/internal/api"
	"github.com/newscheck/newscheck/internal/artifacts"
	"github.com/newscheck/newscheck/internal/blockdetect"
	"github.com/newscheck/newscheck/internal/clock/system"
	"github.com/newscheck/newscheck/internal/config"
	"github.com/newscheck/newscheck/internal/degrade"
	"github.com/newscheck/newscheck/internal/fetch"
	"github.com/newscheck/newscheck/internal/id/uuid"
	"github.com/newscheck/newscheck/internal/notify"
	"github.com/newscheck/newscheck/internal/report"
	"github.com/newscheck/newscheck/internal/retry"
	"github.com/newscheck/newscheck/internal/retrylog"
	"github.com/newscheck/newscheck/internal/search"
	"github.com/newscheck/newscheck/internal/store"
)

// sweeper is the part of search.Scraper the pipeline drives.
type sweeper interface {
	Search(ctx context.Context, keywords []string, start, end time.Time) (search.Result, error)
	FetchContent(ctx context.Context, article *search.Article) error
}

// App holds the long-lived services for one scraper run. It is built once at
// startup and fails fast when any backend cannot be initialized.
type App struct {
	cfg config.Config
	log *zap.Logger

	clock      *system.Clock
	ids        *uuid.Generator
	events     *retrylog.Logger
	status     *degrade.Status
	headless   *fetch.Headless
	scraper    sweeper
	analyzer   *analyzer.Analyzer
	summarizer *analyzer.Summarizer
	reports    *report.Generator
	archive    store.ArticleStore
	blobs      artifacts.Store
	publisher  notify.Publisher

	pubsubClient *pubsub.Client
	pubsubStop   func()
}

// New builds the full service graph from cfg. The caller owns Close.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{
		cfg:   cfg,
		log:   log,
		clock: system.New(),
		ids:   uuid.New(),
	}

	events, err := retrylog.New(cfg.Output.Dir, a.clock, log)
	if err != nil {
		return nil, fmt.Errorf("retry log: %w", err)
	}
	a.events = events

	pool, err := agentpool.New(cfg.Agents.Pool)
	if err != nil {
		return nil, fmt.Errorf("agent pool: %w", err)
	}

	exec := retry.NewExecutor(retry.Config{
		MaxAttempts:       cfg.Retry.MaxAttempts,
		InitialDelay:      cfg.Retry.InitialBackoff,
		MaxDelay:          cfg.Retry.MaxBackoff,
		JitterMin:         cfg.Retry.JitterMin,
		JitterMax:         cfg.Retry.JitterMax,
		JitterProbability: cfg.Retry.JitterProbability,
	}, pool, events, log)

	client := fetch.NewClient(fetch.ClientConfig{
		Timeout:       cfg.Fetch.Timeout,
		RespectRobots: cfg.Fetch.RespectRobots,
	})

	var (
		headlessFetcher fetch.Fetcher
		soft            *blockdetect.SoftBlockDetector
	)
	if cfg.Headless.Enabled {
		headless, err := fetch.NewHeadless(fetch.HeadlessConfig{
			MaxParallel: cfg.Headless.MaxParallel,
			NavTimeout:  cfg.Headless.NavTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("headless fetcher: %w", err)
		}
		a.headless = headless
		headlessFetcher = headless
		soft = blockdetect.NewSoftBlockDetector(0, nil, blockdetect.DefaultSoftBlockMarkers)
	}

	resilient := fetch.NewResilient(
		fetch.ResilientConfig{RetryOnStatusCodes: cfg.Retry.RetryOnStatusCodes},
		client, headlessFetcher, exec, pool, soft, log,
	)

	a.status = degrade.NewStatus()
	a.scraper = search.NewScraper(search.Config{
		Language:              cfg.Search.Language,
		Location:              cfg.Search.Location,
		MaxArticlesPerKeyword: cfg.Search.MaxArticlesPerKeyword,
		MaxArticlesTotal:      cfg.Search.MaxArticlesTotal,
		KeywordPause:          cfg.Search.KeywordPause,

		EnableDegradation:      cfg.Degrade.Enabled,
		MinSuccessRate:         cfg.Degrade.MinSuccessRate,
		MaxConsecutiveFailures: cfg.Degrade.MaxConsecutiveFailures,
		DegradedRetryLimit:     cfg.Degrade.DegradedRetryLimit,
		CollectPartialResults:  cfg.Degrade.CollectPartialResults,

		ErrorInfoDir: cfg.Output.Dir,
	}, resilient, a.status, events, a.ids, a.clock, log)

	ranker, err := analyzer.New(analyzer.Config{
		Categories:      cfg.Analyzer.Categories,
		Weights:         cfg.Analyzer.Weights,
		TopN:            cfg.Analyzer.TopN,
		DedupeThreshold: cfg.Analyzer.DedupeThreshold,
		SeenCacheSize:   cfg.Analyzer.SeenCacheSize,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}
	a.analyzer = ranker

	var chat analyzer.ChatClient
	if cfg.LLM.Enabled {
		clientCfg := openai.DefaultConfig(cfg.LLM.APIKey)
		if cfg.LLM.BaseURL != "" {
			clientCfg.BaseURL = cfg.LLM.BaseURL
		}
		chat = openai.NewClientWithConfig(clientCfg)
	}
	a.summarizer = analyzer.NewSummarizer(chat, cfg.LLM.Model, cfg.LLM.Threshold, log)

	a.reports = report.NewGenerator(cfg.Output.Dir, a.clock, log)

	if err := a.initArchive(ctx); err != nil {
		return nil, err
	}
	if err := a.initArtifacts(ctx); err != nil {
		return nil, err
	}
	if err := a.initNotify(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) initArchive(ctx context.Context) error {
	switch a.cfg.Archive.Driver {
	case "postgres":
		pg, err := store.NewPostgres(ctx, store.PostgresConfig{
			DSN:   a.cfg.Archive.DSN,
			Table: a.cfg.Archive.Table,
		})
		if err != nil {
			return fmt.Errorf("archive store: %w", err)
		}
		a.archive = pg
	default:
		a.archive = store.NewMemory()
	}
	return nil
}

func (a *App) initArtifacts(ctx context.Context) error {
	switch a.cfg.Artifacts.Backend {
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("gcs client: %w", err)
		}
		blobs, err := artifacts.NewGCS(client, a.cfg.Artifacts.GCSBucket, a.cfg.Artifacts.Prefix)
		if err != nil {
			return fmt.Errorf("gcs artifacts: %w", err)
		}
		a.blobs = blobs
	default:
		blobs, err := artifacts.NewLocal(filepath.Join(a.cfg.Output.Dir, "artifacts"))
		if err != nil {
			return fmt.Errorf("local artifacts: %w", err)
		}
		a.blobs = blobs
	}
	return nil
}

func (a *App) initNotify(ctx context.Context) error {
	switch a.cfg.Notify.Backend {
	case "pubsub":
		client, err := pubsub.NewClient(ctx, a.cfg.Notify.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		topic := client.Topic(a.cfg.Notify.Topic)
		pub, err := notify.NewPubSub(topic)
		if err != nil {
			return fmt.Errorf("pubsub publisher: %w", err)
		}
		a.pubsubClient = client
		a.pubsubStop = pub.Stop
		a.publisher = pub
	default:
		a.publisher = notify.NewMemory()
	}
	return nil
}

// Status satisfies api.StatusSource so the optional status server can expose
// live run state.
func (a *App) Status() api.Status {
	return api.Status{
		SessionID:   a.events.SessionID(),
		Retries:     a.events.Summary(),
		Degradation: a.status.Snapshot(),
	}
}

// Run executes one complete scrape. It always tries to produce whatever
// reports the collected data supports, even when the sweep ended degraded.
func (a *App) Run(ctx context.Context) (notify.RunSummary, error) {
	startedAt := a.clock.Now()
	runID, err := a.ids.NewID()
	if err != nil {
		return notify.RunSummary{}, fmt.Errorf("run id: %w", err)
	}

	srv := a.maybeStartServer()
	if srv != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	windowEnd := startedAt
	windowStart := startedAt.AddDate(0, 0, -a.cfg.Search.WindowDays)
	a.log.Info("starting keyword sweep",
		zap.String("run_id", runID),
		zap.String("session_id", a.events.SessionID()),
		zap.Strings("keywords", a.cfg.Search.Keywords),
		zap.Time("window_start", windowStart),
		zap.Time("window_end", windowEnd))

	result, err := a.scraper.Search(ctx, a.cfg.Search.Keywords, windowStart, windowEnd)
	if err != nil {
		return notify.RunSummary{}, fmt.Errorf("keyword sweep: %w", err)
	}

	if a.cfg.Search.FetchContent {
		a.fetchContent(ctx, result.Articles)
	}

	var artifactPaths []string
	if len(result.Articles) > 0 {
		workbook, err := a.reports.WriteWorkbook(result.Articles)
		if err != nil {
			a.log.Warn("workbook generation failed", zap.Error(err))
		} else {
			artifactPaths = append(artifactPaths, workbook)
		}
	}

	unique := a.analyzer.Dedupe(result.Articles)
	scored := a.analyzer.Rank(unique)
	if a.summarizer.Enabled() {
		a.summarizer.Annotate(ctx, scored)
	}
	topics := analyzer.TopicSummary(scored)

	snap := a.status.Snapshot()
	retries := a.events.Summary()

	brief, err := a.reports.WriteBriefSummary(scored, topics, snap)
	if err != nil {
		a.log.Warn("brief summary failed", zap.Error(err))
	} else {
		artifactPaths = append(artifactPaths, brief)
	}
	detailed, err := a.reports.WriteDetailedReport(scored, topics, snap, retries)
	if err != nil {
		a.log.Warn("detailed report failed", zap.Error(err))
	} else {
		artifactPaths = append(artifactPaths, detailed)
	}
	if p := a.events.Path(); p != "" {
		artifactPaths = append(artifactPaths, p)
	}

	a.archiveArticles(ctx, runID, scored, snap.IsDegraded)
	uploaded := a.uploadArtifacts(ctx, artifactPaths)

	summary := notify.RunSummary{
		RunID:             runID,
		SessionID:         a.events.SessionID(),
		StartedAt:         startedAt,
		FinishedAt:        a.clock.Now(),
		Keywords:          a.cfg.Search.Keywords,
		ArticlesCollected: len(result.Articles),
		UniqueArticles:    len(unique),
		RankedArticles:    len(scored),
		Degraded:          snap.IsDegraded,
		SuccessRate:       snap.SuccessRate,
		RetryEvents:       retries.TotalRetries,
		Artifacts:         uploaded,
	}
	if msgID, err := a.publisher.Publish(ctx, a.cfg.Notify.Topic, summary); err != nil {
		a.log.Warn("run notification failed", zap.Error(err))
	} else {
		a.log.Info("run notification published", zap.String("message_id", msgID))
	}

	a.log.Info("run complete",
		zap.String("run_id", runID),
		zap.Int("articles", summary.ArticlesCollected),
		zap.Int("unique", summary.UniqueArticles),
		zap.Int("ranked", summary.RankedArticles),
		zap.Bool("degraded", summary.Degraded),
		zap.Float64("success_rate", summary.SuccessRate))
	return summary, nil
}

func (a *App) fetchContent(ctx context.Context, articles []search.Article) {
	for i := range articles {
		if err := a.scraper.FetchContent(ctx, &articles[i]); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			a.log.Warn("content fetch failed",
				zap.String("article_id", articles[i].ID),
				zap.String("url", articles[i].URL),
				zap.Error(err))
		}
	}
}

func (a *App) archiveArticles(ctx context.Context, runID string, scored []analyzer.Scored, degraded bool) {
	scrapedAt := a.clock.Now()
	for _, item := range scored {
		rec := store.ArticleRecord{
			ID:          item.Article.ID,
			RunID:       runID,
			Keyword:     item.Article.Keyword,
			Title:       item.Article.Title,
			URL:         item.Article.URL,
			Source:      item.Article.Source,
			Category:    item.Category,
			Score:       item.Score,
			PublishedAt: item.Article.PublishedAt,
			ScrapedAt:   scrapedAt,
			Degraded:    degraded,
		}
		if err := a.archive.SaveArticle(ctx, rec); err != nil {
			a.log.Warn("archive save failed", zap.String("article_id", rec.ID), zap.Error(err))
		}
	}
}

func (a *App) uploadArtifacts(ctx context.Context, paths []string) []string {
	uploaded := make([]string, 0, len(paths))
	for _, path := range paths {
		ref, err := artifacts.UploadFile(ctx, a.blobs, path)
		if err != nil {
			a.log.Warn("artifact upload failed", zap.String("path", path), zap.Error(err))
			continue
		}
		uploaded = append(uploaded, ref)
	}
	return uploaded
}

func (a *App) maybeStartServer() *http.Server {
	if !a.cfg.Server.Enabled {
		return nil
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           api.NewServer(a, a.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.log.Info("status server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("status server stopped", zap.Error(err))
		}
	}()
	return srv
}

// Close releases held resources. Safe to call after a failed Run.
func (a *App) Close() {
	if a.headless != nil {
		a.headless.Close()
	}
	if a.archive != nil {
		a.archive.Close()
	}
	if a.pubsubStop != nil {
		a.pubsubStop()
	}
	if a.pubsubClient != nil {
		_ = a.pubsubClient.Close()
	}
}
