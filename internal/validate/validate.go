// Package validate checks generation requests before any network work is
// done on their behalf.
package validate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrValidation matches every *Error via errors.Is.
var ErrValidation = errors.New("invalid request")

// Error describes which input was rejected and why.
type Error struct {
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrValidation }

const (
	DefaultTone      = "professional"
	DefaultWordCount = 800
	MinWordCount     = 300
	MaxWordCount     = 2000
)

// Tones lists the accepted writing tones.
var Tones = []string{"professional", "casual", "technical", "conversational"}

// Options fills defaults for tone and word count and checks both. An empty
// tone or a zero word count selects the default.
func Options(tone string, words int) (string, int, error) {
	tone = strings.ToLower(strings.TrimSpace(tone))
	if tone == "" {
		tone = DefaultTone
	}
	if !isTone(tone) {
		return "", 0, &Error{Field: "tone", Reason: fmt.Sprintf("must be one of %s", strings.Join(Tones, ", "))}
	}
	if words == 0 {
		words = DefaultWordCount
	}
	if words < MinWordCount || words > MaxWordCount {
		return "", 0, &Error{Field: "word_count", Reason: fmt.Sprintf("must be between %d and %d", MinWordCount, MaxWordCount)}
	}
	return tone, words, nil
}

func isTone(t string) bool {
	for _, v := range Tones {
		if v == t {
			return true
		}
	}
	return false
}

// Prober reports the HTTP status a URL answers with. *fetch.Client
// satisfies it.
type Prober interface {
	Probe(ctx context.Context, url string) (int, error)
}

// Robots reports whether a page may be read under its site's robots.txt.
// *robots.Checker satisfies it.
type Robots interface {
	Allowed(ctx context.Context, url string) (bool, error)
}

// URLValidator checks shape and, when set, robots.txt permission and
// reachability.
type URLValidator struct {
	Prober Prober
	Robots Robots
}

// Validate returns the trimmed URL when it is acceptable.
func (v *URLValidator) Validate(ctx context.Context, raw string) (string, error) {
	u, err := CheckURL(raw)
	if err != nil {
		return "", err
	}
	if v == nil {
		return u.String(), nil
	}
	if v.Robots != nil {
		ok, err := v.Robots.Allowed(ctx, u.String())
		if err != nil {
			return "", &Error{Field: "url", Reason: "robots.txt check failed", Err: err}
		}
		if !ok {
			return "", &Error{Field: "url", Reason: "disallowed by robots.txt"}
		}
	}
	if v.Prober == nil {
		return u.String(), nil
	}
	code, err := v.Prober.Probe(ctx, u.String())
	if err != nil {
		log.Warn().Err(err).Str("url", u.String()).Msg("url probe failed")
		return "", &Error{Field: "url", Reason: "not reachable", Err: err}
	}
	if code < 200 || code >= 400 {
		return "", &Error{Field: "url", Reason: fmt.Sprintf("answered with status %d", code)}
	}
	return u.String(), nil
}

// CheckURL enforces an http(s) scheme, a host, and a host that is not local,
// loopback, private or link-local.
func CheckURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &Error{Field: "url", Reason: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &Error{Field: "url", Reason: "cannot be parsed", Err: err}
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, &Error{Field: "url", Reason: "scheme must be http or https"}
	}
	if u.Hostname() == "" {
		return nil, &Error{Field: "url", Reason: "host is missing"}
	}
	if isLocalOrPrivateHost(u.Hostname()) {
		return nil, &Error{Field: "url", Reason: "local and private hosts are not allowed"}
	}
	return u, nil
}

func isLocalOrPrivateHost(host string) bool {
	h := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	switch h {
	case "localhost", "localhost.localdomain", "0.0.0.0", "::", "::1":
		return true
	}
	if strings.HasSuffix(h, ".localhost") {
		return true
	}
	if ip := net.ParseIP(h); ip != nil {
		return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
	}
	return false
}
