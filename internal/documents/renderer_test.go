package documents

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice-service/internal/common/errors"
	"backoffice-service/internal/common/logger"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(t.TempDir(), logger.NewNoOpLogger())
	require.NoError(t, err)
	return r
}

func quoteInstructions(t *testing.T, items []LineItem) []Instruction {
	t.Helper()
	req := Request{Kind: KindQuote, CustomerName: "Acme Corp", Items: items, Total: 100}
	require.NoError(t, req.Validate())
	return Layout(req, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestRenderer_RenderWritesPDF(t *testing.T) {
	r := newTestRenderer(t)

	doc, err := r.Render(context.Background(), quoteInstructions(t, []LineItem{{Description: "Consulting", Price: 100}}), KindQuote)
	require.NoError(t, err)

	assert.Equal(t, KindQuote, doc.Kind)
	assert.True(t, strings.HasPrefix(doc.Filename, "quote-"))
	assert.True(t, strings.HasSuffix(doc.Filename, ".pdf"))

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"), "output should be a PDF file")
}

func TestRenderer_EmptyItemListStillRenders(t *testing.T) {
	r := newTestRenderer(t)

	doc, err := r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)

	info, err := os.Stat(doc.Path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRenderer_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, logger.NewNoOpLogger())
	require.NoError(t, err)

	_, err = r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "quote"))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "temp file %s left behind", entry.Name())
	}
}

func TestRenderer_RenderFailures(t *testing.T) {
	r := newTestRenderer(t)

	tests := []struct {
		name         string
		instructions []Instruction
		kind         Kind
	}{
		{name: "empty instruction sequence", instructions: nil, kind: KindQuote},
		{name: "unknown kind", instructions: quoteInstructions(t, nil), kind: "receipt"},
		{name: "empty text content", instructions: []Instruction{TextAt{X: 100, Y: 100, FontSize: 12}}, kind: KindQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(context.Background(), tt.instructions, tt.kind)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeRenderFailed, errors.CodeOf(err))
		})
	}
}

func TestRenderer_OpenUnknownFilename(t *testing.T) {
	r := newTestRenderer(t)

	_, err := r.Open(context.Background(), KindQuote, "quote-0.pdf")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDocumentNotFound, errors.CodeOf(err))
}

func TestRenderer_ResolveRejectsPathEscapes(t *testing.T) {
	r := newTestRenderer(t)

	for _, filename := range []string{"../secrets.txt", "sub/doc.pdf", `..\doc.pdf`, ""} {
		_, err := r.Resolve(KindQuote, filename)
		require.Error(t, err, "filename %q should be rejected", filename)
		assert.Equal(t, errors.ErrCodeDocumentNotFound, errors.CodeOf(err))
	}
}

func TestRenderer_OpenReturnsRenderedDocument(t *testing.T) {
	r := newTestRenderer(t)

	doc, err := r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)

	f, err := r.Open(context.Background(), KindQuote, doc.Filename)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]byte, 4)
	_, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(buf))
}

func TestRenderer_SweepRemovesExpiredDocuments(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRenderer(dir, logger.NewNoOpLogger())
	require.NoError(t, err)

	old, err := r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)
	fresh, err := r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)

	stale := time.Now().AddDate(0, 0, -90)
	require.NoError(t, os.Chtimes(old.Path, stale, stale))

	r.Sweep(30)

	_, err = os.Stat(old.Path)
	assert.True(t, os.IsNotExist(err), "expired document should be removed")
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err, "fresh document should survive the sweep")
}

func TestRenderer_SweepDisabledByDefault(t *testing.T) {
	r := newTestRenderer(t)

	doc, err := r.Render(context.Background(), quoteInstructions(t, nil), KindQuote)
	require.NoError(t, err)

	stale := time.Now().AddDate(0, 0, -365)
	require.NoError(t, os.Chtimes(doc.Path, stale, stale))

	r.Sweep(0)

	_, err = os.Stat(doc.Path)
	assert.NoError(t, err, "retention 0 must not delete anything")
}
