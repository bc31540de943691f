package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"easydevis/models"
)

// ErrSuperseded is returned when a newer request of the same kind started
// while this one was in flight. Its result must be dropped.
var ErrSuperseded = errors.New("superseded by a newer request")

// Format is an export file type.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "pdf" and "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) Extension() string { return string(f) }

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// ExportOptions configures logo sizing and the exported page.
type ExportOptions struct {
	LogoWidthMM     float64
	LogoMaxHeightMM float64
	LogoTimeout     time.Duration
	// LogoDir holds logos referenced by file name. Empty disables them.
	LogoDir         string
	Page            PageSpec
}

// DefaultExportOptions matches the configuration defaults.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		LogoWidthMM:     35,
		LogoMaxHeightMM: 25,
		LogoTimeout:     5 * time.Second,
		Page:            A4Portrait,
	}
}

// Document is a rendered export ready to be served or written to disk.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	// Pages is the expected page count of a PDF; zero for spreadsheets.
	Pages int
}

// Exporter renders quotes for preview and export. Previews and exports are
// tracked separately: the most recent request of each kind wins, so a live
// preview never cancels a download.
type Exporter struct {
	logos      *LogoLoader
	page       PageSpec
	exportGen  atomic.Uint64
	previewGen atomic.Uint64
	log        zerolog.Logger

	// renderPDF is swapped in tests to exercise failure paths.
	renderPDF func([]Page, PageSpec) ([]byte, error)
}

// NewExporter returns an Exporter configured with opts.
func NewExporter(opts ExportOptions) *Exporter {
	if opts.Page.HeightMM <= 0 {
		opts.Page = A4Portrait
	}
	return &Exporter{
		logos:     NewLogoLoader(opts.LogoWidthMM, opts.LogoMaxHeightMM, opts.LogoTimeout).WithDir(opts.LogoDir),
		page:      opts.Page,
		log:       log.With().Str("component", "export").Logger(),
		renderPDF: GeneratePDF,
	}
}

// Export renders q in the requested format. The quote is only read. A failure
// inside the document writer, panics included, comes back as an error.
func (e *Exporter) Export(ctx context.Context, q models.Quote, calc QuoteCalculations, format Format) (Document, error) {
	gen := e.exportGen.Add(1)
	start := time.Now()

	logo := e.loadLogo(ctx, q.CompanyInfo.Logo)
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if e.exportGen.Load() != gen {
		return Document{}, ErrSuperseded
	}

	blocks := BuildPlan(q, calc, logo)
	doc := Document{
		Filename:    ExportFilename(q.Number, q.Client.Name, format),
		ContentType: format.ContentType(),
	}

	err := safeRender(func() (err error) {
		switch format {
		case FormatXLSX:
			doc.Data, err = GenerateExcel(blocks)
		default:
			pages := Paginate(blocks, e.page)
			doc.Pages = PageCount(pages)
			doc.Data, err = e.renderPDF(pages, e.page)
		}
		return err
	})
	if err != nil {
		e.log.Error().Err(err).Str("quote", q.Number).Str("format", string(format)).Msg("export failed")
		return Document{}, fmt.Errorf("export %s: %w", format, err)
	}
	if e.exportGen.Load() != gen {
		return Document{}, ErrSuperseded
	}

	e.log.Info().
		Str("quote", q.Number).
		Str("file", doc.Filename).
		Str("size", humanize.Bytes(uint64(len(doc.Data)))).
		Int("pages", doc.Pages).
		Dur("took", time.Since(start)).
		Msg("quote exported")
	return doc, nil
}

// Preview returns the on-screen rendering of q.
func (e *Exporter) Preview(ctx context.Context, q models.Quote, calc QuoteCalculations) (templ.Component, error) {
	gen := e.previewGen.Add(1)

	logo := e.loadLogo(ctx, q.CompanyInfo.Logo)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.previewGen.Load() != gen {
		return nil, ErrSuperseded
	}
	return Preview(BuildPlan(q, calc, logo)), nil
}

// loadLogo never fails: a logo that cannot be loaded is left out.
func (e *Exporter) loadLogo(ctx context.Context, ref string) *Logo {
	logo, err := e.logos.Load(ctx, ref)
	if err != nil {
		e.log.Warn().Err(err).Str("logo", truncateRef(ref)).Msg("logo skipped")
		return nil
	}
	return logo
}

// truncateRef keeps data URLs out of the logs.
func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "…"
	}
	return ref
}

func safeRender(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("component", "export").Bytes("stack", debug.Stack()).Msg("document writer panicked")
			err = fmt.Errorf("document writer panicked: %v", r)
		}
	}()
	return fn()
}
