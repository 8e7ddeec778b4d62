package blockdetect

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// SoftBlockDetector spots pages that returned 200 but carry no usable
// content: consent walls, "enable JavaScript" shells, interstitial bot pages.
// It is a caller-side heuristic, separate from Detect, and its positive
// result maps to SoftBlock. Call sites use it to promote a fetch to the
// headless strategy rather than to retry.
type SoftBlockDetector struct {
	minBodyBytes int
	selectors    []string
	markers      [][]byte
}

// DefaultSoftBlockMarkers are lowercase phrases that indicate a soft block.
var DefaultSoftBlockMarkers = []string{
	"enable javascript",
	"javascript is disabled",
	"before you continue",
	"consent.google",
	"unusual traffic",
}

// NewSoftBlockDetector builds a detector. A page is soft-blocked when its
// body is under minBodyBytes, when it contains any marker phrase, or when
// none of the required selectors are present.
func NewSoftBlockDetector(minBodyBytes int, selectors, markers []string) *SoftBlockDetector {
	lowered := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(m)))
	}
	return &SoftBlockDetector{
		minBodyBytes: minBodyBytes,
		selectors:    selectors,
		markers:      lowered,
	}
}

// Blocked reports whether the body looks like a soft block.
func (d *SoftBlockDetector) Blocked(body []byte) bool {
	if d == nil {
		return false
	}
	switch {
	case d.bodyBelowThreshold(body):
		return true
	case d.containsMarker(body):
		return true
	default:
		return d.missingSelectors(body)
	}
}

func (d *SoftBlockDetector) bodyBelowThreshold(body []byte) bool {
	return d.minBodyBytes > 0 && len(body) < d.minBodyBytes
}

func (d *SoftBlockDetector) containsMarker(body []byte) bool {
	if len(body) == 0 || len(d.markers) == 0 {
		return false
	}
	lowered := bytes.ToLower(body)
	for _, marker := range d.markers {
		if bytes.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

func (d *SoftBlockDetector) missingSelectors(body []byte) bool {
	if len(d.selectors) == 0 || len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	for _, sel := range d.selectors {
		if sel == "" {
			continue
		}
		if doc.Find(sel).Length() == 0 {
			return true
		}
	}
	return false
}
