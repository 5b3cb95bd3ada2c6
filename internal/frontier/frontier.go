// Package frontier filters discovered links and tracks the per-session
// queue of pending URLs.
package frontier

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL standardizes a URL to avoid duplicates. It lowercases the
// scheme and host, removes default ports, drops the fragment, and sorts
// query parameters.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""

	q := u.Query()
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Filter resolves raw anchor destinations against baseURL, discards
// non-navigational schemes and anything matching the common exclusion list
// plus extraExclusions, and returns a deduplicated slice in insertion
// order. Given a fixed input it is idempotent, and appending an exclusion
// pattern never grows the result.
func Filter(hrefs []string, baseURL string, extraExclusions []string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	patterns := make([]string, 0, len(CommonExclusions)+len(extraExclusions))
	patterns = append(patterns, CommonExclusions...)
	patterns = append(patterns, extraExclusions...)
	matcher := newExclusionMatcher(patterns)

	seen := make(map[string]struct{}, len(hrefs))
	out := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		href = strings.TrimSpace(href)
		if !navigational(href) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		normalized, err := NormalizeURL(resolved.String())
		if err != nil {
			continue
		}
		if matcher.Excluded(normalized, resolved.Path) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

func navigational(href string) bool {
	if href == "" || href == "#" || strings.HasPrefix(href, "#") {
		return false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") {
		return false
	}
	return true
}

// Frontier is a session-scoped FIFO of pending URLs. The visited set
// covers both queued and completed URLs so any URL is enqueued at most
// once for the lifetime of a session. It is owned by a single session task
// and is not safe for concurrent use.
type Frontier struct {
	queue   []string
	visited map[string]struct{}
}

// New returns an empty Frontier.
func New() *Frontier {
	return &Frontier{
		visited: make(map[string]struct{}),
	}
}

// Enqueue adds URLs that have not been seen before and returns how many
// were accepted.
func (f *Frontier) Enqueue(urls ...string) int {
	accepted := 0
	for _, u := range urls {
		if _, seen := f.visited[u]; seen {
			continue
		}
		f.visited[u] = struct{}{}
		f.queue = append(f.queue, u)
		accepted++
	}
	return accepted
}

// Next pops the oldest pending URL.
func (f *Frontier) Next() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	u := f.queue[0]
	f.queue = f.queue[1:]
	return u, true
}

// MarkVisited records a URL as seen without queueing it. Used for the
// start URL, which is visited directly.
func (f *Frontier) MarkVisited(u string) {
	f.visited[u] = struct{}{}
}

// Seen reports whether a URL has been queued or visited.
func (f *Frontier) Seen(u string) bool {
	_, ok := f.visited[u]
	return ok
}

// Pending returns the number of queued URLs.
func (f *Frontier) Pending() int {
	return len(f.queue)
}
