package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/internal/batch"
	"github.com/seventv/slide-inverter/internal/global"
	"github.com/seventv/slide-inverter/internal/storage"
	"github.com/seventv/slide-inverter/internal/tui"
	"github.com/seventv/slide-inverter/task"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var errNothingConverted = errors.New("no presentation was converted")

var runCmd = &cobra.Command{
	Use:   "run [flags] <file|dir|s3://bucket/key>...",
	Short: "Invert presentations and zip archives of presentations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if noInvert, _ := cmd.Flags().GetBool("no-invert-images"); noInvert {
			config.Inversion.InvertImages = false
		}

		cfg, err := config.Inversion.Build()
		if err != nil {
			return err
		}

		for _, w := range colors.ValidateContrast(cfg.Foreground, cfg.Background) {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gCtx := global.New(ctx, config)
		if err := setupInstances(gCtx); err != nil {
			return err
		}

		store := storage.New(gCtx.Inst().S3)

		sources, warnings := readSources(gCtx, store, args)
		jobs, skipped := batch.ExpandSources(sources)
		warnings = append(warnings, skipped...)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
		}
		if len(jobs) == 0 {
			return errors.New("no presentations to process")
		}

		proc := batch.New(batch.Options{
			Workers:    config.Worker.Jobs,
			Prometheus: gCtx.Inst().Prometheus,
		})

		res, err := process(gCtx, proc, jobs, cfg, config.Output.Progress)
		if err != nil {
			return err
		}

		dst := ""
		if res.Successful > 0 {
			loc, err := archiveLocation(config.Output.Path, cfg.ArchiveName())
			if err != nil {
				return err
			}

			if err := store.Write(gCtx, loc, res.Archive, container.MimeZIP); err != nil {
				return err
			}
			dst = loc.String()
		}

		fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.BatchSummary(res, dst)))
		if w := tui.RenderWarnings(res); w != "" {
			fmt.Fprintln(os.Stdout, w)
		}

		if res.Successful == 0 {
			return errNothingConverted
		}

		return nil
	},
}

func init() {
	addInversionFlags(runCmd)

	flags := runCmd.Flags()
	flags.Bool("no-invert-images", false, "Leave pictures untouched")
	flags.String("output", ".", "Directory, .zip path or s3:// location for the archive")
	flags.Bool("progress", false, "Show an interactive progress bar")

	rootCmd.AddCommand(runCmd)
}

// process runs the batch with either a progress bar or a log line per job.
func process(ctx context.Context, proc *batch.Processor, jobs []task.Job, cfg task.Config, progress bool) (task.BatchResult, error) {
	if !progress {
		return proc.Process(ctx, jobs, cfg, func(current, total int, filename string) {
			zap.S().Infow("processed",
				"current", current,
				"total", total,
				"filename", filename,
			)
		})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan tui.Update, len(jobs))
	program := tea.NewProgram(tui.NewModel(updates, len(jobs), cancel))

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		close(uiDone)
	}()

	res, err := proc.Process(ctx, jobs, cfg, func(current, total int, filename string) {
		updates <- tui.Update{Current: current, Total: total, Filename: filename}
	})

	close(updates)
	<-uiDone

	return res, err
}

// readSources loads every argument in order. Local directories contribute
// their .pptx and .zip files; unreadable inputs become warnings.
func readSources(ctx context.Context, store *storage.Storage, args []string) ([]batch.Source, []string) {
	warnings := []string{}

	locs := []storage.Location{}
	for _, arg := range args {
		loc, err := storage.Parse(arg)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}

		if !loc.IsS3() {
			if info, err := os.Stat(loc.Path); err == nil && info.IsDir() {
				walked, err := walkDir(loc.Path)
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("%s: %v", arg, err))
					continue
				}
				locs = append(locs, walked...)
				continue
			}
		}

		locs = append(locs, loc)
	}

	blobs, err := store.ReadAll(ctx, locs)
	for _, e := range multierr.Errors(err) {
		warnings = append(warnings, e.Error())
	}

	sources := []batch.Source{}
	for _, l := range locs {
		if data, ok := blobs[l]; ok {
			sources = append(sources, batch.Source{Name: l.Name(), Data: data})
		}
	}

	return sources, warnings
}

func walkDir(root string) ([]storage.Location, error) {
	locs := []storage.Location{}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		switch strings.ToLower(filepath.Ext(p)) {
		case task.DocumentExtension, ".zip":
			locs = append(locs, storage.Location{Path: p})
		}

		return nil
	})

	return locs, err
}

// archiveLocation resolves --output. A path ending in .zip is used as is,
// anything else is a directory or prefix the archive is placed under.
func archiveLocation(output, name string) (storage.Location, error) {
	if output == "" {
		output = "."
	}

	if strings.EqualFold(path.Ext(output), ".zip") {
		return storage.Parse(output)
	}

	if strings.HasPrefix(output, "s3://") {
		return storage.Parse(strings.TrimSuffix(output, "/") + "/" + name)
	}

	return storage.Location{Path: filepath.Join(output, name)}, nil
}
