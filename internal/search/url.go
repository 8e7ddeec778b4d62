package search

import (
	"net/url"
	"strings"
)

// trackingParams are query keys stripped during normalization, beyond the
// utm_* family.
var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"mc_cid": {},
	"mc_eid": {},
	"ref":    {},
	"source": {},
	"cmpid":  {},
}

// UnwrapGoogleURL extracts the target URL from a Google /url? redirect. Other
// URLs pass through unchanged.
func UnwrapGoogleURL(raw string) string {
	if raw == "" {
		return raw
	}
	if strings.HasPrefix(raw, "/url?") {
		raw = "https://www.google.com" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.Contains(parsed.Host, "google.com") || parsed.Path != "/url" {
		return raw
	}
	query := parsed.Query()
	for _, key := range []string{"q", "url"} {
		if target := query.Get(key); target != "" {
			return target
		}
	}
	return raw
}

// NormalizeURL canonicalizes a URL for dedupe and source matching: redirect
// unwrapping, lowercased host without www, trailing-slash trim, and tracking
// parameters removed. Unparseable input comes back as-is.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	raw = UnwrapGoogleURL(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return raw
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")

	path := parsed.Path
	if path == "" {
		path = "/"
	} else if path != "/" {
		path = strings.TrimRight(path, "/")
	}

	query := parsed.Query()
	kept := url.Values{}
	for key, values := range query {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			continue
		}
		if _, tracking := trackingParams[lower]; tracking {
			continue
		}
		kept[key] = values
	}

	// Values.Encode sorts keys, so normalization is deterministic.
	normalized := url.URL{
		Scheme:   strings.ToLower(parsed.Scheme),
		Host:     host,
		Path:     path,
		RawQuery: kept.Encode(),
	}
	return normalized.String()
}
