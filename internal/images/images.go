// Package images looks up stock photos that illustrate an article.
package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Unsplash API root.
const DefaultBaseURL = "https://api.unsplash.com"

const (
	defaultQuery   = "blog post"
	queryKeywords  = 3
	defaultTimeout = 10 * time.Second
	// AdditionalImages is how many section images accompany the featured one.
	AdditionalImages = 3
)

// ErrEnrichment matches every *EnrichmentError via errors.Is.
var ErrEnrichment = errors.New("image enrichment failed")

// EnrichmentError reports a lookup that could not be completed. Callers
// treat it as "no images".
type EnrichmentError struct {
	Query string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("%s for %q: %v", ErrEnrichment.Error(), e.Query, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

func (e *EnrichmentError) Is(target error) bool { return target == ErrEnrichment }

// Image is one stock photo with attribution.
type Image struct {
	URL             string `json:"url"`
	URLSmall        string `json:"url_small"`
	URLThumb        string `json:"url_thumb"`
	AltText         string `json:"alt_text"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
}

// Fetcher searches Unsplash. Without an access key every lookup returns no
// images and no error.
type Fetcher struct {
	HTTPClient *http.Client
	AccessKey  string
	BaseURL    string
}

// Enabled reports whether lookups will reach the API.
func (f *Fetcher) Enabled() bool {
	return f != nil && strings.TrimSpace(f.AccessKey) != ""
}

// Query builds the search string from the first three keywords.
func Query(keywords []string) string {
	var parts []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			parts = append(parts, k)
		}
		if len(parts) == queryKeywords {
			break
		}
	}
	if len(parts) == 0 {
		return defaultQuery
	}
	return strings.Join(parts, " ")
}

type searchResponse struct {
	Results []struct {
		Description    string `json:"description"`
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
			Small   string `json:"small"`
			Thumb   string `json:"thumb"`
		} `json:"urls"`
		User struct {
			Name  string `json:"name"`
			Links struct {
				HTML string `json:"html"`
			} `json:"links"`
		} `json:"user"`
	} `json:"results"`
}

// Search returns up to n landscape photos matching keywords.
func (f *Fetcher) Search(ctx context.Context, keywords []string, n int) ([]Image, error) {
	if !f.Enabled() {
		log.Debug().Msg("image lookup disabled: no access key")
		return nil, nil
	}
	if n <= 0 {
		n = 1
	}
	q := Query(keywords)
	base := f.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	params := url.Values{}
	params.Set("query", q)
	params.Set("per_page", strconv.Itoa(n))
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, &EnrichmentError{Query: q, Err: err}
	}
	req.Header.Set("Authorization", "Client-ID "+f.AccessKey)
	req.Header.Set("Accept-Version", "v1")

	hc := f.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, &EnrichmentError{Query: q, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &EnrichmentError{Query: q, Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}
	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &EnrichmentError{Query: q, Err: fmt.Errorf("decode: %w", err)}
	}
	if len(sr.Results) == 0 {
		log.Warn().Str("query", q).Msg("no images found")
		return nil, nil
	}
	out := make([]Image, 0, min(n, len(sr.Results)))
	for _, r := range sr.Results {
		if len(out) == n {
			break
		}
		alt := r.AltDescription
		if alt == "" {
			alt = r.Description
		}
		if alt == "" {
			alt = q
		}
		out = append(out, Image{
			URL:             r.URLs.Regular,
			URLSmall:        r.URLs.Small,
			URLThumb:        r.URLs.Thumb,
			AltText:         alt,
			Photographer:    r.User.Name,
			PhotographerURL: r.User.Links.HTML,
		})
	}
	log.Info().Str("query", q).Int("images", len(out)).Msg("images fetched")
	return out, nil
}

// Featured returns a single header image, or nil when none was found.
func (f *Fetcher) Featured(ctx context.Context, keywords []string) (*Image, error) {
	imgs, err := f.Search(ctx, keywords, 1)
	if err != nil || len(imgs) == 0 {
		return nil, err
	}
	return &imgs[0], nil
}
