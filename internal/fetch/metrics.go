package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts HTTP requests dispatched by the plain fetcher.
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_fetch_requests_total",
		Help: "The total number of HTTP requests sent.",
	})
	// requestErrors counts requests that resulted in an error.
	requestErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_fetch_request_errors_total",
		Help: "The total number of failed HTTP requests.",
	})
	// headlessFetches counts fetches served by the headless browser.
	headlessFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_fetch_headless_total",
		Help: "The total number of fetches executed with the headless browser.",
	})
	// softBlockPromotions counts soft-blocked pages promoted to headless.
	softBlockPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscheck_soft_block_promotions_total",
		Help: "The total number of pages promoted to the headless fetcher after a soft block.",
	})
)
