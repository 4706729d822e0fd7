package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhand/deskhand/pkg/assistant"
)

func TestCapTruncates(t *testing.T) {
	long := strings.Repeat("a", MaxChars+50)
	got := Cap(long)
	assert.True(t, strings.HasSuffix(got, "\n[truncated]"))
	assert.Len(t, got, MaxChars+len("\n[truncated]"))

	short := strings.Repeat("b", 10)
	assert.Equal(t, short, Cap(short))
}

func TestCapKeepsMultibyteRunesIntact(t *testing.T) {
	long := strings.Repeat("é", MaxChars+5)
	got := Cap(long)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "\n[truncated]"))
	kept := strings.TrimSuffix(got, "\n[truncated]")
	assert.Equal(t, MaxChars, utf8.RuneCountInString(kept))

	// Multibyte text under the character cap passes through even when
	// its byte length exceeds it.
	fits := strings.Repeat("é", MaxChars-1)
	assert.Equal(t, fits, Cap(fits))
}

func TestPDFTextMissingFile(t *testing.T) {
	assert.Empty(t, PDFText(filepath.Join(t.TempDir(), "nope.pdf")))
}

func TestPDFTextCorruptBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
	assert.Empty(t, PDFText(path))
}

func TestImageDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644))

	described := assistant.Func(func(_ context.Context, prompt string) (string, error) {
		assert.Contains(t, prompt, path)
		return "A bar chart of quarterly revenue.", nil
	})
	assert.Equal(t, "A bar chart of quarterly revenue.", ImageDescription(context.Background(), described, path))

	failing := assistant.Func(func(_ context.Context, _ string) (string, error) {
		return "", errors.New("boom")
	})
	assert.Empty(t, ImageDescription(context.Background(), failing, path))

	assert.Empty(t, ImageDescription(context.Background(), described, filepath.Join(t.TempDir(), "missing.png")))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".pdf"))
	assert.True(t, Supported(".PNG"))
	assert.True(t, Supported(".webp"))
	assert.False(t, Supported(".docx"))
}

func TestForFileUnknownExtension(t *testing.T) {
	text, ok := ForFile(context.Background(), nil, "x.docx", ".docx")
	assert.False(t, ok)
	assert.Empty(t, text)
}
