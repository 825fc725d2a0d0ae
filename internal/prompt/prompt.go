// Package prompt renders the generation request sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/article"
)

// Input carries everything the prompt mentions about the source page and
// the requested article.
type Input struct {
	URL               string
	Title             string
	Summary           string
	Intent            string
	PrimaryKeywords   []string
	SecondaryKeywords []string
	Topics            []string
	Tone              string
	WordCount         int
}

// DensityTarget returns the primary keyword density to ask for, in percent.
// Shorter articles tolerate a denser keyword use.
func DensityTarget(words int) float64 {
	switch {
	case words < 500:
		return 2.0
	case words < 1000:
		return 1.5
	default:
		return 1.0
	}
}

// Build renders the generation prompt. The output contract is the fixed
// article schema.
func Build(in Input) string {
	var sb strings.Builder
	sb.WriteString("You are an expert SEO content writer. Generate a high-quality, original blog post based on the following information:\n\n")

	sb.WriteString("SOURCE INFORMATION:\n")
	fmt.Fprintf(&sb, "Website URL: %s\n", in.URL)
	fmt.Fprintf(&sb, "Website Title: %s\n", orDefault(in.Title, "N/A"))
	fmt.Fprintf(&sb, "Website Summary: %s\n", orDefault(in.Summary, "No summary available"))
	fmt.Fprintf(&sb, "Website Intent: %s\n\n", orDefault(in.Intent, "informational"))

	sb.WriteString("SEO KEYWORDS:\n")
	fmt.Fprintf(&sb, "Primary Keywords: %s\n", joinOrNA(in.PrimaryKeywords))
	fmt.Fprintf(&sb, "Secondary Keywords: %s\n\n", joinOrNA(in.SecondaryKeywords))

	sb.WriteString("MAIN TOPICS:\n")
	if len(in.Topics) == 0 {
		sb.WriteString("- General content\n")
	}
	for _, t := range in.Topics {
		fmt.Fprintf(&sb, "- %s\n", t)
	}

	sb.WriteString("\nBLOG REQUIREMENTS:\n")
	fmt.Fprintf(&sb, "- Tone: %s\n", in.Tone)
	fmt.Fprintf(&sb, "- Target Word Count: %d words\n", in.WordCount)
	sb.WriteString("- Include proper heading structure (H1, H2, H3)\n")
	sb.WriteString("- Make it SEO-optimized and engaging\n")
	sb.WriteString("- Write original content (do NOT copy from the source)\n")
	sb.WriteString("- Use keywords naturally throughout the content\n")
	sb.WriteString("- Include a compelling meta description (150-160 characters)\n")
	sb.WriteString("- Add a clear call-to-action at the end\n\n")

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Create an engaging H1 title that includes primary keywords\n")
	sb.WriteString("2. Write a captivating introduction that hooks the reader\n")
	sb.WriteString("3. Organize content with clear H2 and H3 subheadings\n")
	fmt.Fprintf(&sb, "4. Use the primary keywords %.1f%% throughout the content\n", DensityTarget(in.WordCount))
	sb.WriteString("5. Include actionable insights and value for readers\n")
	sb.WriteString("6. End with a strong conclusion and call-to-action\n")
	sb.WriteString("7. Generate a meta description optimized for search engines\n\n")

	sb.WriteString("OUTPUT FORMAT:\n")
	sb.WriteString("- Return ONLY a single valid JSON object. Do NOT include any explanatory text, headings, or markdown outside the JSON.\n")
	sb.WriteString("- The JSON must be parsable by a strict JSON parser: no trailing commas, straight quotes, no comments.\n")
	sb.WriteString("- Use exactly this schema:\n")
	sb.WriteString(article.Schema)
	sb.WriteString("\n")

	out := sb.String()
	log.Debug().Int("chars", len(out)).Int("words", in.WordCount).Str("tone", in.Tone).Int("primary_keywords", len(in.PrimaryKeywords)).Msg("prompt built")
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOrNA(items []string) string {
	if len(items) == 0 {
		return "N/A"
	}
	return strings.Join(items, ", ")
}
