package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/seventv/slide-inverter/internal/configure"
	"github.com/seventv/slide-inverter/internal/global"
	"github.com/seventv/slide-inverter/internal/svc/prometheus"
	"github.com/seventv/slide-inverter/internal/svc/s3"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// flagAliases maps command line flags onto config keys.
var flagAliases = map[string]string{
	"fg":               "inversion.foreground",
	"bg":               "inversion.background",
	"suffix":           "inversion.file_suffix",
	"folder":           "inversion.folder_name",
	"jpeg-quality":     "inversion.jpeg_quality",
	"max-image-pixels": "inversion.max_image_pixels",
	"workers":          "worker.jobs",
	"output":           "output.path",
	"progress":         "output.progress",
	"bind":             "server.bind",
	"cache-size":       "server.cache_size",
}

var config *configure.Config

var rootCmd = &cobra.Command{
	Use:           "slide-inverter",
	Short:         "slide-inverter - recolor presentations for dark mode",
	Long:          "slide-inverter remaps the backgrounds, text and pictures of .pptx presentations onto a dark color pair.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config = configure.New(cmd.Flags(), flagAliases)

		if !config.NoHeader {
			zap.S().Info("Slide Inverter")
			zap.S().Infof("Version: %s", Version)
			zap.S().Infof("build.Time: %s", Time)
			zap.S().Infof("build.User: %s", User)
		}

		zap.S().Debug("MaxProcs: ", runtime.GOMAXPROCS(0))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "config.yaml", "Config file location")
	flags.String("level", "info", "Log level")
	flags.Bool("noheader", false, "Disable the startup header")
}

func addInversionFlags(cmd *cobra.Command) {
	def := configure.Default().Inversion

	flags := cmd.Flags()
	flags.String("fg", def.Foreground, "Foreground color, light content maps here")
	flags.String("bg", def.Background, "Background color, dark content maps here")
	flags.String("suffix", def.FileSuffix, "Suffix added to output file names")
	flags.String("folder", def.FolderName, "Name of the output archive")
	flags.Int("jpeg-quality", def.JPEGQuality, "Quality of re-encoded lossy pictures (1-100)")
	flags.Int("max-image-pixels", def.MaxImagePixels, "Pictures with more pixels are left untouched")
	flags.Int("workers", 0, "Presentations processed at once, 0 picks a default")
}

func setupInstances(gCtx global.Context) error {
	cfg := gCtx.Config()

	gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
		Labels: cfg.Monitoring.Labels.ToPrometheus(),
	})

	if cfg.S3.Region == "" && cfg.S3.Endpoint == "" {
		return nil
	}

	inst, err := s3.New(gCtx, s3.Options{
		Region:      cfg.S3.Region,
		Endpoint:    cfg.S3.Endpoint,
		AccessToken: cfg.S3.AccessToken,
		SecretKey:   cfg.S3.SecretKey,
	})
	if err != nil {
		return multierr.Append(errors.New("failed to setup s3"), err)
	}
	gCtx.Inst().S3 = inst

	return nil
}
