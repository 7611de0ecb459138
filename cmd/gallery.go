package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shipscore/scoring"
	"shipscore/services"
	"shipscore/storage"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse, summarise and export stored analyses.",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every app in the gallery, newest first.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		printGallery(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

var galleryShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show the stored report for one app.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		entry, err := store.FindBySlug(cmd.Context(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			// accept an app id too
			entry, err = store.FindByAppID(cmd.Context(), args[0])
		}
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no report for %q", args[0])
		}
		if err != nil {
			return err
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

var galleryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print score, grade, genre and weakest-dimension statistics.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		insights := services.NewInsightService(logger)
		insights.Print(cmd.OutOrStdout(), insights.Generate(entries))
		return nil
	},
}

var (
	exportFormat string
	exportOut    string
)

var galleryExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the gallery to CSV or Parquet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		var exporter storage.GalleryExporter
		switch strings.ToLower(exportFormat) {
		case "csv":
			exporter, err = storage.NewCSVWriter(exportOut, scoring.DimensionKeys())
		case "parquet":
			exporter, err = storage.NewParquetWriter(exportOut)
		default:
			return fmt.Errorf("unknown export format %q (want csv or parquet)", exportFormat)
		}
		if err != nil {
			return err
		}

		if err := exporter.Write(entries); err != nil {
			_ = exporter.Close()
			return err
		}
		if err := exporter.Close(); err != nil {
			return err
		}
		logger.Info("[cmd] exported %d entries to %s", len(entries), exportOut)
		return nil
	},
}

func init() {
	galleryExportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or parquet")
	galleryExportCmd.Flags().StringVar(&exportOut, "out", "output/gallery.csv", "output file")

	galleryCmd.AddCommand(galleryListCmd, galleryShowCmd, galleryStatsCmd, galleryExportCmd)
}
