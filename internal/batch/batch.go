package batch

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/seventv/slide-inverter/internal/archive"
	"github.com/seventv/slide-inverter/internal/instance"
	"github.com/seventv/slide-inverter/internal/pptx"
	"github.com/seventv/slide-inverter/internal/slide"
	"github.com/seventv/slide-inverter/internal/svc/prometheus"
	"github.com/seventv/slide-inverter/task"
	"go.uber.org/zap"
)

// ProgressFunc is called once per finished job, in completion order.
type ProgressFunc func(current, total int, filename string)

type Options struct {
	// Workers bounds parallelism, 0 picks DefaultWorkers.
	Workers int
	Codec   slide.Codec
	// Images overrides the image converter, nil remaps with the palette codec.
	Images      slide.ImageConverter
	Prometheus  instance.Prometheus
	NewExecutor func(workers int) Executor
}

type Processor struct {
	workers     int
	worker      Worker
	prom        instance.Prometheus
	newExecutor func(workers int) Executor
}

// DefaultWorkers keeps memory bounded on small hosts: at most two jobs run at once.
func DefaultWorkers() int {
	n := runtime.NumCPU()
	if n > 2 {
		n = 2
	}
	if n < 1 {
		n = 1
	}

	return n
}

func New(opts Options) *Processor {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers()
	}
	if opts.Codec == nil {
		opts.Codec = pptx.Codec{}
	}
	if opts.Prometheus == nil {
		opts.Prometheus = prometheus.New(prometheus.Options{})
	}
	if opts.NewExecutor == nil {
		opts.NewExecutor = func(workers int) Executor {
			return NewPool(workers)
		}
	}

	return &Processor{
		workers: opts.Workers,
		worker: Worker{
			Codec:      opts.Codec,
			Images:     opts.Images,
			Prometheus: opts.Prometheus,
		},
		prom:        opts.Prometheus,
		newExecutor: opts.NewExecutor,
	}
}

func (p *Processor) Workers() int {
	return p.workers
}

// Process runs every job and packages the successful outputs. Only an invalid
// config is returned as an error; per job failures end up in the results.
// Jobs that have not started when ctx ends are reported as failed.
func (p *Processor) Process(ctx context.Context, jobs []task.Job, cfg task.Config, onProgress ProgressFunc) (task.BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return task.BatchResult{}, err
	}

	total := len(jobs)
	results := make([]task.Result, total)

	zap.S().Infow("processing batch",
		"jobs", total,
		"workers", p.workers,
	)

	mtx := sync.Mutex{}
	completed := 0
	report := func(filename string) {
		mtx.Lock()
		defer mtx.Unlock()

		completed++
		if onProgress != nil {
			onProgress(completed, total, filename)
		}
	}

	exec := p.newExecutor(p.workers)
	for i, job := range jobs {
		i, job := i, job

		if err := ctx.Err(); err != nil {
			results[i] = canceled(job, err)
			report(job.Filename)
			continue
		}

		exec.Submit(func() {
			// each slot of results is written by exactly one job
			results[i] = p.worker.Work(ctx, job, cfg)
			report(job.Filename)
		})
	}
	exec.Wait()

	return p.collect(results, cfg)
}

func canceled(job task.Job, err error) task.Result {
	return task.Result{
		JobID:    job.ID,
		Filename: job.Filename,
		State:    task.ResultStateFailed,
		Warnings: []string{fmt.Sprintf("Processing failed: %v", err)},
	}
}

func (p *Processor) collect(results []task.Result, cfg task.Config) (task.BatchResult, error) {
	done := p.prom.PackArchive()
	defer done()

	names := []string{}
	for _, r := range results {
		if r.Success() && r.Output != nil {
			names = append(names, r.Filename)
		}
	}
	names = archive.UniqueNames(names)

	entries := make([]archive.Entry, 0, len(names))
	successful := 0
	for i := range results {
		if !results[i].Success() {
			continue
		}

		successful++
		if results[i].Output == nil {
			continue
		}

		results[i].Filename = names[len(entries)]
		entries = append(entries, archive.Entry{Name: results[i].Filename, Data: results[i].Output})
	}

	data, err := archive.Pack(entries)
	if err != nil {
		return task.BatchResult{}, err
	}

	zap.S().Infow("batch finished",
		"total", len(results),
		"successful", successful,
		"archive_bytes", len(data),
	)

	return task.BatchResult{
		Results:    results,
		Archive:    data,
		Total:      len(results),
		Successful: successful,
	}, nil
}
