// Package resume handles uploaded resume documents: text extraction from
// PDF, DOCX, and plain text, and the object-storage round trip for the
// original files.
package resume

import (
	"bytes"
	"fmt"
	"html"
	"path"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

// DetectKind resolves the canonical MIME type for an upload. Browsers often
// send application/octet-stream, so the filename extension is the fallback.
func DetectKind(contentType, filename string) (string, error) {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	switch strings.TrimSpace(contentType) {
	case MimePDF, MimeDocx, MimeText:
		return strings.TrimSpace(contentType), nil
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return MimePDF, nil
	case ".docx":
		return MimeDocx, nil
	case ".txt":
		return MimeText, nil
	}
	return "", fmt.Errorf("unsupported file type: %s (%s)", contentType, filename)
}

// Extract pulls plain text out of an uploaded document. The result is
// already normalized with CleanText.
func Extract(mime string, data []byte) (string, error) {
	var text string
	var err error
	switch mime {
	case MimeText:
		text = string(data)
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDocx:
		text, err = extractDocx(data)
	default:
		return "", fmt.Errorf("unsupported file type: %s", mime)
	}
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}

// extractPDF concatenates the plain text of every page. The parser panics
// on some malformed files, so the recover converts that into an error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, _ := page.GetPlainText(nil)
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

var xmlTag = regexp.MustCompile(`<[^>]+>`)

// extractDocx reads the document body. GetContent returns WordprocessingML,
// so paragraph closes become newlines before the tags are stripped.
func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes extracted text: runs of spaces collapse to one,
// runs of blank lines collapse to a single blank line, and every line is
// trimmed.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
