// Package robots fetches and evaluates robots.txt so source pages are only
// read when their site permits it.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/blogforge/internal/cache"
)

// DefaultEntryExpiry is how long parsed rules stay in memory.
const DefaultEntryExpiry = 30 * time.Minute

// maxRobotsBytes caps how much of a robots.txt is read.
const maxRobotsBytes = 512 << 10

// Source tells where a ruleset came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceMemory
	SourceCache304
)

// StatusError reports a robots.txt answer that is neither success nor
// "not found".
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("robots.txt status %d", e.Code) }

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents   []string
	Allow    []string
	Disallow []string
}

// Manager fetches robots.txt per site, keeps parsed rules in memory and
// revalidates through the on-disk HTTP cache.
type Manager struct {
	HTTPClient  *http.Client
	Cache       *cache.HTTPCache
	UserAgent   string
	EntryExpiry time.Duration

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	rules  Rules
	expiry time.Time
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// Get returns the rules at robotsURL. A missing file (404 or 410) yields an
// empty ruleset, which allows everything.
func (m *Manager) Get(ctx context.Context, robotsURL string) (Rules, Source, error) {
	u, err := url.Parse(robotsURL)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("parse url: %w", err)
	}
	if s := strings.ToLower(u.Scheme); s != "http" && s != "https" {
		return Rules{}, SourceNetwork, fmt.Errorf("unsupported url scheme: %q", robotsURL)
	}

	m.mu.Lock()
	if ent, ok := m.mem[robotsURL]; ok && m.clock().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.rules, SourceMemory, nil
	}
	m.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if m.Cache != nil {
		if meta, err := m.Cache.LoadMeta(ctx, robotsURL); err == nil && meta != nil {
			if meta.ETag != "" {
				req.Header.Set("If-None-Match", meta.ETag)
			}
			if meta.LastModified != "" {
				req.Header.Set("If-Modified-Since", meta.LastModified)
			}
		}
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, SourceNetwork, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && m.Cache != nil:
		body, err := m.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return Rules{}, SourceCache304, fmt.Errorf("load cached robots: %w", err)
		}
		rules := Parse(string(body))
		m.remember(robotsURL, rules)
		return rules, SourceCache304, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		m.remember(robotsURL, Rules{})
		return Rules{}, SourceNetwork, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, SourceNetwork, &StatusError{Code: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return Rules{}, SourceNetwork, fmt.Errorf("read robots: %w", err)
	}
	if m.Cache != nil {
		_ = m.Cache.Save(ctx, robotsURL, "text/plain", resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), data)
	}
	rules := Parse(string(data))
	m.remember(robotsURL, rules)
	return rules, SourceNetwork, nil
}

func (m *Manager) remember(key string, rules Rules) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = DefaultEntryExpiry
	}
	m.mu.Lock()
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	m.mem[key] = memEntry{rules: rules, expiry: m.clock().Add(exp)}
	m.mu.Unlock()
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var groups []Group
	var cur Group
	flush := func() {
		if len(cur.Agents) > 0 || len(cur.Allow) > 0 || len(cur.Disallow) > 0 {
			groups = append(groups, cur)
		}
		cur = Group{}
	}
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent", "useragent":
			// consecutive User-agent lines share one group
			if len(cur.Allow) > 0 || len(cur.Disallow) > 0 {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
		}
	}
	flush()
	return Rules{Groups: groups}
}
