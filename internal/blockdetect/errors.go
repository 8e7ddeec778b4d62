package blockdetect

import "fmt"

// HTTPError reports a response with a non-success status code. Fetchers
// surface it instead of a bare error so classification can inspect the
// status without re-parsing strings.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.URL)
}

// ContentError reports a response whose body revealed a block (CAPTCHA page,
// empty shell) even though the transport succeeded.
type ContentError struct {
	Type BlockType
	URL  string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("blocked content (%s): %s", e.Type, e.URL)
}
