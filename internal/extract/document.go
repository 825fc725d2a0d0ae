package extract

import (
	"errors"
	"fmt"
	"time"
)

// ErrExtraction matches every extraction failure via errors.Is.
var ErrExtraction = errors.New("could not extract content")

// Error reports that no strategy produced body text for URL.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrExtraction.Error(), e.URL)
	}
	return fmt.Sprintf("%s: %s: %v", ErrExtraction.Error(), e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrExtraction }

// SourceDocument is the readable content of one page. Text is never empty
// on a successful extraction.
type SourceDocument struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	Authors     []string   `json:"authors,omitempty"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Description string     `json:"description,omitempty"`
	TopImage    string     `json:"top_image,omitempty"`
	// Method names the strategy that produced the document.
	Method string `json:"extraction_method"`
	// Truncated is set when Text was cut to the configured maximum.
	Truncated bool `json:"truncated,omitempty"`
}
