// Package analyzer turns raw scraped articles into the ranked set the reports
// are built from: duplicate removal, category relevance scoring, and optional
// LLM-written insights.
package analyzer

import (
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/newscheck/newscheck/internal/search"
)

// CategoryOther collects articles that match no configured category.
const CategoryOther = "Other"

// Config holds the scoring setup. Weights must cover the same categories as
// Categories and sum to 1.0; config validation enforces that before an
// Analyzer is built.
type Config struct {
	Categories map[string][]string
	Weights    map[string]float64

	// TopN bounds how many ranked articles survive; zero keeps all.
	TopN int
	// DedupeThreshold is the title-similarity cutoff in [0,1] above which two
	// articles count as duplicates.
	DedupeThreshold float64
	// SeenCacheSize bounds the normalized-URL cache.
	SeenCacheSize int
}

// Scored is an article with its relevance assessment attached.
type Scored struct {
	Article  search.Article     `json:"article"`
	Category string             `json:"category"`
	Scores   map[string]float64 `json:"scores"`
	Score    float64            `json:"score"`
	Insight  string             `json:"insight,omitempty"`
}

// Summary counts ranked articles per category.
type Summary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// Analyzer is safe for a single run; the seen-URL cache carries across calls
// so Dedupe can be fed keyword batches incrementally.
type Analyzer struct {
	cfg  Config
	seen *lru.Cache[string, struct{}]
	log  *zap.Logger

	keptTitles []string
}

// New builds an Analyzer.
func New(cfg Config, log *zap.Logger) (*Analyzer, error) {
	if cfg.DedupeThreshold <= 0 {
		cfg.DedupeThreshold = 0.85
	}
	if cfg.SeenCacheSize <= 0 {
		cfg.SeenCacheSize = 4096
	}
	seen, err := lru.New[string, struct{}](cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("seen cache: %w", err)
	}
	return &Analyzer{cfg: cfg, seen: seen, log: log}, nil
}

// Dedupe drops articles whose normalized URL was already seen or whose title
// is near-identical to one already kept. Order is preserved.
func (a *Analyzer) Dedupe(articles []search.Article) []search.Article {
	var unique []search.Article
	for _, article := range articles {
		key := search.NormalizeURL(article.URL)
		if key != "" {
			if _, dup := a.seen.Get(key); dup {
				continue
			}
		}
		if a.duplicateTitle(article.Title) {
			continue
		}
		if key != "" {
			a.seen.Add(key, struct{}{})
		}
		a.keptTitles = append(a.keptTitles, normalizeTitle(article.Title))
		unique = append(unique, article)
	}
	a.log.Debug("deduplicated articles",
		zap.Int("in", len(articles)), zap.Int("out", len(unique)))
	return unique
}

// Rank scores every article against the configured categories and returns
// them best-first, cut to TopN.
func (a *Analyzer) Rank(articles []search.Article) []Scored {
	scored := make([]Scored, 0, len(articles))
	for _, article := range articles {
		scored = append(scored, a.score(article))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if a.cfg.TopN > 0 && len(scored) > a.cfg.TopN {
		scored = scored[:a.cfg.TopN]
	}
	return scored
}

// TopicSummary counts the ranked set per category.
func TopicSummary(scored []Scored) Summary {
	s := Summary{Total: len(scored), ByCategory: make(map[string]int)}
	for _, item := range scored {
		s.ByCategory[item.Category]++
	}
	return s
}

func (a *Analyzer) score(article search.Article) Scored {
	text := strings.ToLower(article.Title + " " + article.Snippet + " " + article.Content)
	scores := make(map[string]float64, len(a.cfg.Categories))

	best, bestScore := CategoryOther, 0.0
	var overall float64
	for category, keywords := range a.cfg.Categories {
		var catScore float64
		for _, keyword := range keywords {
			if s := keywordScore(keyword, text); s > catScore {
				catScore = s
			}
		}
		scores[category] = catScore
		overall += a.cfg.Weights[category] * catScore
		if catScore > bestScore {
			best, bestScore = category, catScore
		}
	}
	if bestScore == 0 {
		best = CategoryOther
	}
	return Scored{Article: article, Category: best, Scores: scores, Score: overall}
}

// keywordScore is the fraction of the keyword's tokens present in the text,
// with a full-phrase match scoring 1.0.
func keywordScore(keyword, text string) float64 {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return 0
	}
	if strings.Contains(text, keyword) {
		return 1.0
	}
	tokens := strings.Fields(keyword)
	if len(tokens) == 0 {
		return 0
	}
	var hits int
	for _, token := range tokens {
		if strings.Contains(text, token) {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

func (a *Analyzer) duplicateTitle(title string) bool {
	normalized := normalizeTitle(title)
	for _, kept := range a.keptTitles {
		if titleSimilarity(normalized, kept) >= a.cfg.DedupeThreshold {
			return true
		}
	}
	return false
}

func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSimilarity is the Jaccard index over title token sets.
func titleSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	var intersection int
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}
