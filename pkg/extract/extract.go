// Package extract turns dropped blobs into text for the file watcher.
// Extractors are total: any failure yields an empty string, never an
// error, so a corrupt file cannot stall the pipeline.
package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/deskhand/deskhand/pkg/assistant"
)

// MaxChars caps extracted text. Overflow is truncated with a marker.
const MaxChars = 10000

// ImageTimeout bounds the assistant call describing an image.
const ImageTimeout = 60 * time.Second

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".webp": true,
}

// Supported reports whether the file watcher handles this extension.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	return ext == ".pdf" || imageExtensions[ext]
}

// ForFile dispatches on extension. The boolean reports whether any
// text came out.
func ForFile(ctx context.Context, a assistant.Assistant, path, ext string) (string, bool) {
	var text string
	switch {
	case strings.EqualFold(ext, ".pdf"):
		text = PDFText(path)
	case imageExtensions[strings.ToLower(ext)]:
		text = ImageDescription(ctx, a, path)
	}
	return text, text != ""
}

// PDFText extracts the plain text of every page, separated by blank
// lines. Pages that fail to parse are skipped.
func PDFText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	reader, err := pdf.NewReader(strings.NewReader(string(data)), int64(len(data)))
	if err != nil {
		return ""
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil || text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return Cap(b.String())
}

// ImageDescription asks the assistant to describe the image file. The
// assistant CLI resolves the path itself.
func ImageDescription(ctx context.Context, a assistant.Assistant, path string) string {
	if a == nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, ImageTimeout)
	defer cancel()
	prompt := fmt.Sprintf("Describe the contents of the image file at %s in a few sentences. Mention any visible text verbatim.", path)
	out, err := a.Complete(ctx, prompt)
	if err != nil {
		return ""
	}
	return Cap(strings.TrimSpace(out))
}

// Cap truncates text to MaxChars characters, appending a marker line.
// The cut is on rune boundaries so multibyte text stays valid UTF-8.
func Cap(text string) string {
	if len(text) <= MaxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= MaxChars {
		return text
	}
	return string(runes[:MaxChars]) + "\n[truncated]"
}
