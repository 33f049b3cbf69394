package batch

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/internal/instance"
	"github.com/seventv/slide-inverter/internal/palette"
	"github.com/seventv/slide-inverter/internal/slide"
	"github.com/seventv/slide-inverter/task"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

// Worker turns one job into one result. It owns the decoded document for the
// duration of the call and shares nothing mutable with other workers.
type Worker struct {
	Codec      slide.Codec
	Images     slide.ImageConverter
	Prometheus instance.Prometheus
}

// countingConverter tracks how many pictures went through the converter.
type countingConverter struct {
	slide.ImageConverter
	n *int64
}

func (c countingConverter) Convert(data []byte, pair colors.Pair) ([]byte, string, error) {
	atomic.AddInt64(c.n, 1)
	return c.ImageConverter.Convert(data, pair)
}

// Work never fails: errors and panics become a failed result carrying a warning.
func (w Worker) Work(ctx context.Context, job task.Job, cfg task.Config) (result task.Result) {
	zap.S().Debugw("starting new job",
		"job_id", job.ID,
		"filename", job.Filename,
	)

	result = task.Result{
		JobID:     job.ID,
		Filename:  job.Filename,
		State:     task.ResultStateFailed,
		StartedAt: time.Now(),
	}

	finish := w.Prometheus.StartJob()

	var err error
	defer func() {
		if pnk := recover(); pnk != nil {
			err = &task.UnexpectedWorkerError{Filename: job.Filename, Panic: pnk}
			zap.S().Errorw("job panicked",
				"job_id", job.ID,
				"filename", job.Filename,
				"error", err,
			)

			result.Filename = job.Filename
			result.State = task.ResultStateFailed
			result.Output = nil
			result.SHA3 = ""
			result.Warnings = []string{fmt.Sprintf("Unexpected error: %v", err)}
		}

		result.FinishedAt = time.Now()

		finish(err == nil)
	}()

	if err = ctx.Err(); err != nil {
		result.Warnings = []string{fmt.Sprintf("Processing failed: %v", err)}
		return result
	}

	var (
		out      []byte
		warnings []string
	)
	out, warnings, err = w.process(job, cfg)
	if err != nil {
		zap.S().Errorw("failed to process document",
			"job_id", job.ID,
			"filename", job.Filename,
			"error", err,
		)
		result.Warnings = []string{fmt.Sprintf("Processing failed: %v", err)}

		return result
	}

	h := sha3.New512()
	if _, err = h.Write(out); err != nil {
		result.Warnings = []string{fmt.Sprintf("Processing failed: %v", err)}
		return result
	}

	result.Filename = cfg.OutputName(job.Filename)
	result.State = task.ResultStateSuccess
	result.Output = out
	result.SHA3 = hex.EncodeToString(h.Sum(nil))
	result.Warnings = warnings

	zap.S().Debugw("finished job",
		"job_id", job.ID,
		"filename", result.Filename,
		"warnings", len(warnings),
	)

	return result
}

func (w Worker) process(job task.Job, cfg task.Config) ([]byte, []string, error) {
	w.Prometheus.TotalBytesIn(len(job.Data))

	done := w.Prometheus.DecodeDocument()

	doc, err := w.Codec.Open(job.Data)
	if err != nil {
		return nil, nil, err
	}

	slides, err := doc.Slides()
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("failed at list slides"), err)
	}

	done()

	images := w.Images
	if images == nil {
		images = palette.Converter{JPEGQuality: cfg.JPEGQuality, MaxPixels: cfg.MaxImagePixels}
	}

	var pictures int64
	applier := slide.NewApplier(countingConverter{ImageConverter: images, n: &pictures})

	done = w.Prometheus.ApplySlides()

	warnings, err := applier.ApplyDocument(doc, cfg)
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("failed at apply slides"), err)
	}

	done()

	w.Prometheus.TotalSlidesProcessed(len(slides))
	w.Prometheus.TotalPicturesProcessed(int(atomic.LoadInt64(&pictures)))

	done = w.Prometheus.EncodeDocument()

	out, err := doc.Save()
	if err != nil {
		return nil, nil, multierr.Append(fmt.Errorf("failed at save document"), err)
	}

	done()

	w.Prometheus.TotalBytesOut(len(out))

	return out, warnings, nil
}
