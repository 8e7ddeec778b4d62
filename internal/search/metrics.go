package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keywordsSearched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_search_keywords_total",
		Help: "Keyword searches completed successfully.",
	})
	articlesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_search_articles_parsed_total",
		Help: "Articles parsed out of news results pages.",
	})
	degradedTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_degraded_transitions_total",
		Help: "Transitions of a run into degraded mode.",
	})
)
