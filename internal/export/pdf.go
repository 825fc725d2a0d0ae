package export

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var (
	linkRe  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	imageRe = regexp.MustCompile(`^!\[[^\]]*\]\([^)]*\)$`)
)

// WritePDF renders Markdown into a plain A4 PDF. Headings get a bold face,
// links stay clickable and images are left out.
func WritePDF(markdown string, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	scanner := bufio.NewScanner(strings.NewReader(markdown))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" {
			pdf.Ln(5)
			continue
		}
		if imageRe.MatchString(s) {
			continue
		}
		if strings.HasPrefix(s, "#") {
			level := 0
			for level < len(s) && s[level] == '#' {
				level++
			}
			text := strings.TrimSpace(s[level:])
			if text == "" {
				continue
			}
			size := 16.0
			if level >= 2 {
				size = 13.0
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
			continue
		}
		s = strings.TrimPrefix(s, "> ")
		s = strings.ReplaceAll(s, "**", "")
		parts := linkRe.FindAllStringSubmatchIndex(s, -1)
		if len(parts) == 0 {
			pdf.MultiCell(0, 5, tr(s), "", "L", false)
			continue
		}
		pos := 0
		for _, m := range parts {
			if m[0] > pos {
				pdf.Write(5, tr(s[pos:m[0]]))
			}
			text, url := s[m[2]:m[3]], s[m[4]:m[5]]
			if strings.HasPrefix(url, "#") {
				pdf.Write(5, tr(text))
			} else {
				pdf.WriteLinkString(5, tr(text), url)
			}
			pos = m[1]
		}
		if pos < len(s) {
			pdf.Write(5, tr(s[pos:]))
		}
		pdf.Ln(6)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return pdf.Output(w)
}
