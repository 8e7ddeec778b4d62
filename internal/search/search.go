package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/degrade"
	"github.com/newscheck/newscheck/internal/fetch"
	"github.com/newscheck/newscheck/internal/retrylog"
)

// Scraper stages, recorded into retry log events.
const (
	StageNewsFetch    = "news_fetch"
	StageContentFetch = "content_fetch"
)

const searchBaseURL = "https://www.google.com/search"

// Fetcher is the resilient fetch surface the scraper depends on. maxAttempts
// overrides the executor's budget when positive.
type Fetcher interface {
	Fetch(ctx context.Context, req fetch.Request, maxAttempts int) (fetch.Response, error)
}

// IDGenerator mints article IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock supplies wall time for relative-timestamp resolution.
type Clock interface {
	Now() time.Time
}

// Config holds the scraper's search and degradation settings.
type Config struct {
	Language              string
	Location              string
	MaxArticlesPerKeyword int
	MaxArticlesTotal      int
	KeywordPause          time.Duration

	EnableDegradation      bool
	MinSuccessRate         float64
	MaxConsecutiveFailures int
	DegradedRetryLimit     int
	CollectPartialResults  bool

	// ErrorInfoDir receives per-article error artifacts for unrecoverable
	// content fetches. Empty disables them.
	ErrorInfoDir string
}

// Scraper runs keyword sweeps and article content fetches. One Scraper owns
// one degrade.Status for its run.
type Scraper struct {
	cfg     Config
	fetcher Fetcher
	status  *degrade.Status
	events  *retrylog.Logger
	ids     IDGenerator
	clock   Clock
	log     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewScraper builds a Scraper.
func NewScraper(
	cfg Config,
	fetcher Fetcher,
	status *degrade.Status,
	events *retrylog.Logger,
	ids IDGenerator,
	clock Clock,
	log *zap.Logger,
) *Scraper {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Location == "" {
		cfg.Location = "US"
	}
	return &Scraper{
		cfg:     cfg,
		fetcher: fetcher,
		status:  status,
		events:  events,
		ids:     ids,
		clock:   clock,
		log:     log,
		sleep:   sleepCtx,
	}
}

// Status exposes the run's degradation tracker for reporting.
func (s *Scraper) Status() *degrade.Status {
	return s.status
}

// Search sweeps the keywords over the date window, one results page per
// keyword. A failed keyword is skipped, not fatal; a degradation transition
// with partial-results collection enabled stops the sweep early and returns
// what was already collected.
func (s *Scraper) Search(ctx context.Context, keywords []string, start, end time.Time) (Result, error) {
	var out Result
	for i, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("search canceled: %w", err)
		}
		if s.cfg.MaxArticlesTotal > 0 && len(out.Articles) >= s.cfg.MaxArticlesTotal {
			break
		}

		articles, err := s.searchKeyword(ctx, keyword, start, end)
		if err != nil {
			s.log.Warn("keyword search failed",
				zap.String("keyword", keyword), zap.Error(err))
			s.status.RecordFailure(fmt.Sprintf("search %q: %v", keyword, err))
			if s.noteDegradation() && s.cfg.CollectPartialResults {
				break
			}
			continue
		}

		articles = s.capArticles(articles, len(out.Articles))
		out.Articles = append(out.Articles, articles...)
		s.status.RecordSuccess()
		s.status.AddCollected(len(articles))
		keywordsSearched.Inc()
		articlesParsed.Add(float64(len(articles)))
		s.log.Info("keyword searched",
			zap.String("keyword", keyword), zap.Int("articles", len(articles)))

		if s.noteDegradation() && s.cfg.CollectPartialResults {
			break
		}
		if s.cfg.KeywordPause > 0 && i < len(keywords)-1 {
			if err := s.sleep(ctx, s.cfg.KeywordPause); err != nil {
				return out, fmt.Errorf("search canceled: %w", err)
			}
		}
	}

	snap := s.status.Snapshot()
	out.Degraded = snap.IsDegraded
	out.Warnings = snap.Warnings
	return out, nil
}

// FetchContent retrieves the article body and fills Content in place. A
// permanently failed fetch produces an error-info artifact and counts as a
// degradation failure; it does not abort the run.
func (s *Scraper) FetchContent(ctx context.Context, article *Article) error {
	resp, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:       article.URL,
		Keyword:   article.Keyword,
		ArticleID: article.ID,
		Stage:     StageContentFetch,
	}, s.retryBudget())
	if err != nil {
		s.status.RecordFailure(fmt.Sprintf("content %s: %v", article.URL, err))
		s.noteDegradation()
		s.writeErrorInfo(article, err)
		return fmt.Errorf("fetch content %s: %w", article.URL, err)
	}

	article.Content = ExtractText(resp.Body)
	article.UsedHeadless = resp.UsedHeadless
	s.status.RecordSuccess()
	s.noteDegradation()
	return nil
}

func (s *Scraper) searchKeyword(ctx context.Context, keyword string, start, end time.Time) ([]Article, error) {
	resp, err := s.fetcher.Fetch(ctx, fetch.Request{
		URL:     s.searchURL(keyword, start, end),
		Keyword: keyword,
		Stage:   StageNewsFetch,
	}, s.retryBudget())
	if err != nil {
		return nil, err
	}

	articles, err := ParseResults(resp.Body, keyword, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for i := range articles {
		id, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("article id: %w", err)
		}
		articles[i].ID = id
	}
	return articles, nil
}

// searchURL builds the news-tab query with the cdr date window, formatted
// MM/DD/YYYY the way Google's tbs parameter expects.
func (s *Scraper) searchURL(keyword string, start, end time.Time) string {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("tbm", "nws")
	params.Set("hl", s.cfg.Language)
	params.Set("gl", s.cfg.Location)
	params.Set("tbs", fmt.Sprintf("cdr:1,cd_min:%s,cd_max:%s",
		start.Format("01/02/2006"), end.Format("01/02/2006")))
	return searchBaseURL + "?" + params.Encode()
}

// retryBudget shrinks the per-operation attempt budget once degraded; zero
// means the executor's configured default.
func (s *Scraper) retryBudget() int {
	if s.cfg.EnableDegradation && s.status.IsDegraded() && s.cfg.DegradedRetryLimit > 0 {
		return s.cfg.DegradedRetryLimit
	}
	return 0
}

// noteDegradation re-evaluates the thresholds and reports whether the run is
// degraded. The first transition annotates the retry log session.
func (s *Scraper) noteDegradation() bool {
	if !s.cfg.EnableDegradation {
		return false
	}
	was := s.status.IsDegraded()
	degraded := s.status.CheckThreshold(s.cfg.MinSuccessRate, s.cfg.MaxConsecutiveFailures)
	if degraded && !was {
		snap := s.status.Snapshot()
		reason := fmt.Sprintf("success rate %.2f, %d consecutive failures",
			snap.SuccessRate, snap.ConsecutiveFailures)
		s.events.MarkDegraded(reason)
		degradedTransitions.Inc()
		s.log.Warn("entering degraded mode",
			zap.Float64("success_rate", snap.SuccessRate),
			zap.Int("consecutive_failures", snap.ConsecutiveFailures))
	}
	return degraded
}

// capArticles applies the per-keyword and overall caps.
func (s *Scraper) capArticles(articles []Article, collected int) []Article {
	if s.cfg.MaxArticlesPerKeyword > 0 && len(articles) > s.cfg.MaxArticlesPerKeyword {
		articles = articles[:s.cfg.MaxArticlesPerKeyword]
	}
	if s.cfg.MaxArticlesTotal > 0 {
		if room := s.cfg.MaxArticlesTotal - collected; len(articles) > room {
			articles = articles[:room]
		}
	}
	return articles
}

func (s *Scraper) writeErrorInfo(article *Article, fetchErr error) {
	if s.cfg.ErrorInfoDir == "" {
		return
	}
	path, err := fetch.WriteErrorInfo(s.cfg.ErrorInfoDir, fetch.ErrorInfo{
		ArticleID:    article.ID,
		URL:          article.URL,
		ErrorType:    errorTypeName(fetchErr),
		ErrorMessage: fetchErr.Error(),
		FetchMethod:  "resilient_http",
	}, s.events, s.clock.Now())
	if err != nil {
		s.log.Warn("write error info", zap.String("url", article.URL), zap.Error(err))
		return
	}
	s.log.Info("wrote error info", zap.String("path", path))
}

func errorTypeName(err error) string {
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*")
	if dot := strings.LastIndex(name, "."); dot >= 0 {
		name = name[dot+1:]
	}
	return name
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
