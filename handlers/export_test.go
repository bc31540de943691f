package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easydevis/models"
	"easydevis/services"
	"easydevis/testhelpers"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces to hyphens", "Devis DEV 1", "Devis-DEV-1"},
		{"slashes to hyphens", "path/to/file", "path-to-file"},
		{"backslashes", "path\\to\\file", "path-to-file"},
		{"colons", "file:name", "file-name"},
		{"quotes dropped", `a"b`, "ab"},
		{"no special chars", "Devis_DEV-202503-001.pdf", "Devis_DEV-202503-001.pdf"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// openSample makes the sample quote the working quote.
func openSample(t *testing.T) *services.Builder {
	t.Helper()
	b, repo := newTestBuilder(t)
	sample := testhelpers.SampleQuote(t)
	repo.AppendOrReplaceInHistory(sample)
	if _, _, err := b.OpenFromHistory(sample.ID); err != nil {
		t.Fatalf("OpenFromHistory() error = %v", err)
	}
	return b
}

func TestHandleExport_PDF(t *testing.T) {
	b := openSample(t)
	x := services.NewExporter(services.DefaultExportOptions())

	rec := call(t, HandleExport(b, x), http.MethodGet, "/api/quote/export/pdf", nil, "format", "pdf")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Devis_DEV-202503-001_Mme_Lefevre.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestHandleExport_XLSX(t *testing.T) {
	b := openSample(t)
	x := services.NewExporter(services.DefaultExportOptions())

	rec := call(t, HandleExport(b, x), http.MethodGet, "/api/quote/export/XLSX", nil, "format", "XLSX")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, services.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestHandleExport_UnknownFormat(t *testing.T) {
	b, _ := newTestBuilder(t)
	x := services.NewExporter(services.DefaultExportOptions())

	rec := call(t, HandleExport(b, x), http.MethodGet, "/api/quote/export/docx", nil, "format", "docx")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePreview(t *testing.T) {
	b := openSample(t)
	x := services.NewExporter(services.DefaultExportOptions())

	rec := call(t, HandlePreview(b, x), http.MethodGet, "/api/quote/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	testhelpers.AssertHTMLContains(t, rec.Body.String(),
		`<article class="devis-preview">`,
		"DEV-202503-001",
		"Martin Électricité",
		"Tableau électrique 13 modules",
	)
	// excluded line items never reach the document
	testhelpers.AssertHTMLNotContains(t, rec.Body.String(), "Câble R2V 3G2.5")
}

func TestHandlePreview_CanceledRequest(t *testing.T) {
	b, _ := newTestBuilder(t)
	x := services.NewExporter(services.DefaultExportOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/quote/preview", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	require.NoError(t, HandlePreview(b, x)(newTestRequestEvent(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRespondFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown section", models.ErrUnknownSection, http.StatusNotFound},
		{"unknown item", models.ErrUnknownItem, http.StatusNotFound},
		{"unknown product", services.ErrUnknownProduct, http.StatusNotFound},
		{"not in history", services.ErrNotInHistory, http.StatusNotFound},
		{"last section", models.ErrLastSection, http.StatusConflict},
		{"empty name", models.ErrEmptyName, http.StatusBadRequest},
		{"validation", services.ValidateProduct(models.Product{}), http.StatusBadRequest},
		{"anything else", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			require.NoError(t, respondFailure(e, "test", tt.err))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
