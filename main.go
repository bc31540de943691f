package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"easydevis/collections"
	"easydevis/config"
	"easydevis/handlers"
	"easydevis/services"
	"easydevis/storage"
)

// session is the builder state shared by the server and the CLI.
type session struct {
	builder  *services.Builder
	exporter *services.Exporter
	writes   *storage.WriteBehind
}

func newSession(app *pocketbase.PocketBase, cfg *config.Config) (*session, error) {
	collections.Setup(app)
	if err := collections.MigrateLegacyKeys(app); err != nil {
		log.Warn().Err(err).Msg("legacy key migration failed")
	}

	defaults, err := cfg.QuoteDefaults()
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(storage.NewRecordKV(app))
	writes := storage.NewWriteBehind()
	return &session{
		builder: services.NewBuilder(repo, writes, defaults),
		exporter: services.NewExporter(services.ExportOptions{
			LogoWidthMM:     cfg.LogoWidthMM,
			LogoMaxHeightMM: cfg.LogoMaxHeightMM,
			LogoTimeout:     cfg.LogoTimeout,
			LogoDir:         cfg.LogoDir,
			Page:            services.A4Portrait,
		}),
		writes: writes,
	}, nil
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration")
	}
	zerolog.SetGlobalLevel(cfg.ZerologLevel())

	app := pocketbase.New()
	app.RootCmd.AddCommand(exportCommand(app, cfg))

	var s *session
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		s, err = newSession(app, cfg)
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}

		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))
		handlers.Register(se.Router, s.builder, s.exporter)
		return se.Next()
	})

	// pending writes must reach the store before the process exits
	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		if s != nil {
			s.writes.Close()
		}
		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal().Err(err).Msg("pocketbase")
	}
}

// exportCommand writes the working quote to EXPORT_DIR.
func exportCommand(app *pocketbase.PocketBase, cfg *config.Config) *cobra.Command {
	var (
		format string
		outDir string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the working quote as PDF or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := services.ParseFormat(format)
			if err != nil {
				return err
			}
			s, err := newSession(app, cfg)
			if err != nil {
				return err
			}
			defer s.writes.Close()

			q, calc := s.builder.Current()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			doc, err := s.exporter.Export(ctx, q, calc, f)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
			path := filepath.Join(outDir, doc.Filename)
			if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(services.FormatPDF), "pdf or xlsx")
	cmd.Flags().StringVarP(&outDir, "out", "o", cfg.ExportDir, "output directory")
	return cmd
}
