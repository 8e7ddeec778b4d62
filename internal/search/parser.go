package search

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Google news-tab result selectors. These track Google's rendered markup and
// are the most fragile part of the scraper.
const (
	selArticle = "div.SoaBEf"
	selTitle   = "div.n0jPhd.ynAwRc.MBeuO.nDgy9d"
	selSource  = "div.MgUUmf.NUnG9d"
	selSnippet = "div.GI74Re.nDgy9d"
	selLink    = "a[href]"
)

// ParseResults extracts articles from a news results page. Results missing a
// title or link are skipped; the publication time keeps its raw text alongside
// the parsed value since relative stamps ("2 hours ago") lose precision.
func ParseResults(body []byte, keyword string, now time.Time) ([]Article, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var articles []Article
	doc.Find(selArticle).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find(selTitle).First().Text())
		if title == "" {
			return
		}
		href, ok := sel.Find(selLink).First().Attr("href")
		if !ok || href == "" {
			return
		}

		raw := publishedText(sel)
		articles = append(articles, Article{
			Keyword:      keyword,
			Title:        title,
			URL:          UnwrapGoogleURL(href),
			Source:       strings.TrimSpace(sel.Find(selSource).First().Text()),
			Snippet:      strings.TrimSpace(sel.Find(selSnippet).First().Text()),
			PublishedRaw: raw,
			PublishedAt:  ParseRelativeTime(raw, now),
		})
	})
	return articles, nil
}

// publishedText finds the timestamp: the last class-less span in the result
// card.
func publishedText(sel *goquery.Selection) string {
	var text string
	sel.Find("span").Each(func(_ int, span *goquery.Selection) {
		if _, hasClass := span.Attr("class"); hasClass {
			return
		}
		if t := strings.TrimSpace(span.Text()); t != "" {
			text = t
		}
	})
	return text
}

var relativeRe = regexp.MustCompile(`(\d+)\s+(minute|hour|day|week)`)

// ParseRelativeTime resolves timestamps like "2 hours ago" or "yesterday"
// against now, and absolute stamps like "Dec 5, 2023". A zero time means the
// format was not recognized.
func ParseRelativeTime(raw string, now time.Time) time.Time {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return time.Time{}
	}
	if strings.Contains(s, "yesterday") {
		return now.AddDate(0, 0, -1)
	}
	if m := relativeRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}
		}
		switch m[2] {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute)
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour)
		case "day":
			return now.AddDate(0, 0, -n)
		case "week":
			return now.AddDate(0, 0, -7*n)
		}
	}
	if t, err := time.Parse("Jan 2, 2006", strings.TrimSpace(raw)); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// ExtractText pulls readable paragraph text out of an article page, used to
// populate Article.Content after a content fetch.
func ExtractText(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var parts []string
	doc.Find("article p, main p, p").Each(func(_ int, p *goquery.Selection) {
		if t := strings.TrimSpace(p.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(dedupeStrings(parts), "\n\n")
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
