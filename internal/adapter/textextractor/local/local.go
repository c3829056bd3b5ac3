// Package local extracts plain text from uploaded resumes and job
// descriptions in process.
//
// Plain text and Markdown are decoded directly. PDF and DOCX are parsed
// in memory unless a remote extractor is configured, in which case those
// formats are delegated to it.
package local

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-recruiter-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-recruiter-evaluator/pkg/textx"
)

// Format is a supported upload format.
type Format string

// Supported formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extFormats = map[string]Format{
	".txt":  FormatText,
	".md":   FormatMarkdown,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
}

// AllowedExt reports whether the file name carries an accepted extension.
func AllowedExt(name string) bool {
	_, ok := extFormats[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extractor implements domain.TextExtractor.
type Extractor struct {
	// Remote, when set, handles PDF and DOCX instead of the in-process parsers.
	Remote domain.TextExtractor
}

// New returns an Extractor. remote may be nil.
func New(remote domain.TextExtractor) *Extractor { return &Extractor{Remote: remote} }

var _ domain.TextExtractor = (*Extractor)(nil)

// Extract checks the extension allowlist, confirms the content with MIME
// sniffing and returns sanitized text. Unsupported or mismatched files yield
// domain.ErrUnsupportedMedia.
func (e *Extractor) Extract(ctx domain.Context, fileName string, data []byte) (string, error) {
	start := time.Now()
	format, err := Detect(fileName, data)
	if err != nil {
		observability.ObserveExtraction("local", "unsupported", "rejected", time.Since(start))
		return "", err
	}

	var (
		text      string
		extractor = "local"
	)
	switch {
	case (format == FormatPDF || format == FormatDOCX) && e.Remote != nil:
		extractor = "remote"
		text, err = e.Remote.Extract(ctx, fileName, data)
	case format == FormatPDF:
		text, err = extractPDF(data)
	case format == FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text = string(data)
	}
	if err != nil {
		observability.ObserveExtraction(extractor, string(format), "error", time.Since(start))
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidArgument, fileName, err)
	}

	text = textx.CollapseBlankLines(textx.SanitizeText(text))
	if text == "" {
		observability.ObserveExtraction(extractor, string(format), "empty", time.Since(start))
		return "", fmt.Errorf("%w: %s: no text content found", domain.ErrInvalidArgument, fileName)
	}
	observability.ObserveExtraction(extractor, string(format), "ok", time.Since(start))
	return text, nil
}

// Detect resolves the upload format from the extension and verifies it
// against the sniffed content type.
func Detect(fileName string, data []byte) (Format, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	format, ok := extFormats[ext]
	if !ok {
		return "", fmt.Errorf("%w: extension %q not allowed (use .txt, .md, .pdf or .docx)", domain.ErrUnsupportedMedia, ext)
	}
	mt := mimetype.Detect(data)
	if !allowedMIMEFor(mt, format) {
		return "", fmt.Errorf("%w: %s content detected as %s", domain.ErrUnsupportedMedia, fileName, mt.String())
	}
	return format, nil
}

func allowedMIMEFor(mt *mimetype.MIME, format Format) bool {
	switch format {
	case FormatPDF:
		return mt.Is(mimePDF)
	case FormatDOCX:
		return mt.Is(mimeDOCX)
	default:
		// Some detectors classify rich plain text as another text/* subtype.
		for m := mt; m != nil; m = m.Parent() {
			if strings.HasPrefix(m.String(), "text/") {
				return true
			}
		}
		return false
	}
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()
	return stripXML(doc.Editable().GetContent()), nil
}

// stripXML reduces WordprocessingML to its text runs, one paragraph per line.
func stripXML(s string) string {
	s = strings.ReplaceAll(s, "</w:p>", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
