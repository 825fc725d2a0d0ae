package robots

import (
	"context"
	"net/url"

	"github.com/rs/zerolog/log"
)

// Checker answers whether a page may be read under its site's robots.txt.
type Checker struct {
	Manager   *Manager
	UserAgent string
}

// Allowed fetches the site's robots.txt and evaluates pageURL against it.
// A robots.txt that cannot be retrieved is logged and treated as allowing
// the page.
func (c *Checker) Allowed(ctx context.Context, pageURL string) (bool, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false, err
	}
	robotsURL := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/robots.txt"}).String()
	rules, src, err := c.Manager.Get(ctx, robotsURL)
	if err != nil {
		log.Warn().Err(err).Str("robots", robotsURL).Msg("robots.txt unavailable; proceeding")
		return true, nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	ok := rules.IsAllowed(c.UserAgent, path)
	log.Debug().Str("url", pageURL).Bool("allowed", ok).Int("source", int(src)).Msg("robots.txt evaluated")
	return ok, nil
}
