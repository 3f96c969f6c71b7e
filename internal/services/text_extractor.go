package services

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

var allowedResumeExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

type TextExtractor interface {
	ExtractText(filename string, content []byte) (string, error)
}

// docConverterBinary is the wv tool docconv shells out to for legacy .doc files.
const docConverterBinary = "wvText"

type textExtractor struct {
	docSupported bool
}

// NewTextExtractor looks up the .doc converter on PATH once. Without it .doc
// uploads fail with ErrDocConverterUnavailable, a server-side error.
func NewTextExtractor() TextExtractor {
	return newTextExtractor(exec.LookPath)
}

func newTextExtractor(lookPath func(string) (string, error)) *textExtractor {
	_, err := lookPath(docConverterBinary)
	if err != nil {
		log.Warn().Str("binary", docConverterBinary).Msg(".doc converter not found, legacy Word uploads will fail")
	}
	return &textExtractor{docSupported: err == nil}
}

// ExtractText returns the normalised text of a PDF, DOCX or DOC document.
func (e *textExtractor) ExtractText(filename string, content []byte) (string, error) {
	var (
		raw string
		err error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		raw, err = extractPDFText(content)
	case ".docx":
		raw, _, err = docconv.ConvertDocx(bytes.NewReader(content))
	case ".doc":
		if !e.docSupported {
			return "", fmt.Errorf("%w: %s is not installed", ErrDocConverterUnavailable, docConverterBinary)
		}
		raw, _, err = docconv.ConvertDoc(bytes.NewReader(content))
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFileType, filepath.Ext(filename))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	text := CleanResumeText(raw)
	if text == "" {
		return "", fmt.Errorf("%w: no text content found", ErrUnreadableDocument)
	}

	return text, nil
}

func extractPDFText(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// one bad page should not lose the rest of the resume
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	leadingBullets  = regexp.MustCompile(`(?m)^[ \t]*[•*\-▪◦🔹][ \t]*`)
	inlineBullets   = regexp.MustCompile(`[•▪◦🔹][ \t]*`)
	extraNewlines   = regexp.MustCompile(`\n{3,}`)
)

// CleanResumeText collapses horizontal whitespace, normalises bullet glyphs
// and caps blank lines at one. Hyphens only count as bullets at the start of
// a line so e-mail addresses and date ranges survive.
func CleanResumeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = inlineBullets.ReplaceAllString(text, "• ")
	text = leadingBullets.ReplaceAllString(text, "• ")
	text = extraNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ValidateResumeFile checks the extension and size of an upload.
func ValidateResumeFile(filename string, size, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedResumeExtensions[ext]; !ok {
		return fmt.Errorf("%w: only PDF, DOC, and DOCX files are allowed", ErrInvalidFileType)
	}

	if size <= 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFileType)
	}

	if size > maxSize {
		return fmt.Errorf("%w: file size exceeds %s limit", ErrFileTooLarge, formatBytes(maxSize))
	}

	return nil
}

// ResumeContentType returns the MIME type stored alongside the object.
func ResumeContentType(filename string) string {
	return allowedResumeExtensions[strings.ToLower(filepath.Ext(filename))]
}

func formatBytes(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
