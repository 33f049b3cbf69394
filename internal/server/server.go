package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/seventv/common/utils"
	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/internal/batch"
	"github.com/seventv/slide-inverter/internal/cache"
	"github.com/seventv/slide-inverter/internal/configure"
	"github.com/seventv/slide-inverter/internal/global"
	"github.com/seventv/slide-inverter/task"
	"github.com/valyala/fasthttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type Server struct {
	proc     *batch.Processor
	cache    *cache.LRU
	defaults configure.Inversion
}

func NewServer(proc *batch.Processor, c *cache.LRU, defaults configure.Inversion) *Server {
	if c == nil {
		c = cache.New(0)
	}

	return &Server{
		proc:     proc,
		cache:    c,
		defaults: defaults,
	}
}

// New serves the API on the configured bind until gCtx is done.
func New(gCtx global.Context, proc *batch.Processor) <-chan struct{} {
	config := gCtx.Config()
	s := NewServer(proc, cache.New(config.Server.CacheSize), config.Inversion)

	srv := fasthttp.Server{
		Handler:            s.Handler(gCtx),
		MaxRequestBodySize: config.Server.MaxBodyBytes,
		Name:               "slide-inverter",
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		zap.S().Infow("API enabled",
			"bind", config.Server.Bind,
		)

		if err := srv.ListenAndServe(config.Server.Bind); err != nil {
			zap.S().Fatalw("failed to bind api",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()
		_ = srv.Shutdown()
	}()

	return done
}

func (s *Server) Handler(pCtx context.Context) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				zap.S().Errorw("panic in api",
					"panic", err,
					"path", utils.B2S(ctx.Path()),
				)
				writeError(ctx, fasthttp.StatusInternalServerError, fmt.Errorf("%v", err))
			}
		}()

		switch utils.B2S(ctx.Path()) {
		case "/invert":
			if !ctx.IsPost() {
				writeError(ctx, fasthttp.StatusMethodNotAllowed, errors.New("use POST"))
				return
			}
			s.invert(pCtx, ctx)
		case "/contrast":
			if !ctx.IsGet() {
				writeError(ctx, fasthttp.StatusMethodNotAllowed, errors.New("use GET"))
				return
			}
			s.contrast(ctx)
		default:
			writeError(ctx, fasthttp.StatusNotFound, errors.New("not found"))
		}
	}
}

type errorResponse struct {
	Error    string   `json:"error"`
	Warnings []string `json:"warnings,omitempty"`
}

type contrastResponse struct {
	Ratio    float64  `json:"ratio"`
	Warnings []string `json:"warnings"`
}

type invertResponse struct {
	task.BatchResult
	Warnings    []string `json:"warnings"`
	ArchiveName string   `json:"archive_name"`
	Archive     []byte   `json:"archive"`
	Cached      bool     `json:"cached"`
}

// inversion reads the request's overrides on top of the server defaults.
func (s *Server) inversion(ctx *fasthttp.RequestCtx) (task.Config, error) {
	inv := s.defaults

	str := func(key string, dst *string) {
		if v := ctx.FormValue(key); len(v) != 0 {
			*dst = string(v)
		}
	}
	str("fg", &inv.Foreground)
	str("bg", &inv.Background)
	str("suffix", &inv.FileSuffix)
	str("folder", &inv.FolderName)

	var err error
	if v := ctx.FormValue("invert_images"); len(v) != 0 {
		b, e := strconv.ParseBool(utils.B2S(v))
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("invalid invert_images: %s", v))
		}
		inv.InvertImages = b
	}
	if v := ctx.FormValue("jpeg_quality"); len(v) != 0 {
		q, e := strconv.Atoi(utils.B2S(v))
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("invalid jpeg_quality: %s", v))
		}
		inv.JPEGQuality = q
	}
	if err != nil {
		return task.Config{}, err
	}

	return inv.Build()
}

func (s *Server) invert(pCtx context.Context, ctx *fasthttp.RequestCtx) {
	cfg, err := s.inversion(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	sources, err := readSources(ctx)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	jobs, warnings := batch.ExpandSources(sources)
	warnings = append(warnings, colors.ValidateContrast(cfg.Foreground, cfg.Background)...)
	if len(jobs) == 0 {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorResponse{
			Error:    "no presentations found in the upload",
			Warnings: warnings,
		})
		return
	}

	inputs := make([]cache.Input, len(jobs))
	for i, j := range jobs {
		inputs[i] = cache.Input{Name: j.Filename, Data: j.Data}
	}

	key, err := cache.Key(cfg, inputs)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, err)
		return
	}

	res, cached := s.cache.Get(key)
	if !cached {
		res, err = s.proc.Process(pCtx, jobs, cfg, func(current, total int, filename string) {
			zap.S().Debugw("job finished",
				"current", current,
				"total", total,
				"filename", filename,
			)
		})
		if err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, err)
			return
		}

		if pCtx.Err() == nil {
			s.cache.Add(key, res)
		}
	}

	warnings = append(warnings, res.AllWarnings()...)

	ctx.Response.Header.Set("X-Total-Jobs", strconv.Itoa(res.Total))
	ctx.Response.Header.Set("X-Successful-Jobs", strconv.Itoa(res.Successful))
	ctx.Response.Header.Set("X-Cache", strconv.FormatBool(cached))

	status := fasthttp.StatusOK
	if res.Successful == 0 {
		status = fasthttp.StatusUnprocessableEntity
	}

	if status != fasthttp.StatusOK || string(ctx.Request.Header.Peek(fasthttp.HeaderAccept)) == "application/json" {
		writeJSON(ctx, status, invertResponse{
			BatchResult: res,
			Warnings:    warnings,
			ArchiveName: cfg.ArchiveName(),
			Archive:     res.Archive,
			Cached:      cached,
		})
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType(container.MimeZIP)
	ctx.Response.Header.Set(fasthttp.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", cfg.ArchiveName()))
	ctx.SetBody(res.Archive)
}

func (s *Server) contrast(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	fg := s.defaults.Foreground
	bg := s.defaults.Background
	if v := args.Peek("fg"); len(v) != 0 {
		fg = string(v)
	}
	if v := args.Peek("bg"); len(v) != 0 {
		bg = string(v)
	}

	cfg, err := task.ConfigFromHex(fg, bg)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err)
		return
	}

	warnings := colors.ValidateContrast(cfg.Foreground, cfg.Background)
	if warnings == nil {
		warnings = []string{}
	}

	writeJSON(ctx, fasthttp.StatusOK, contrastResponse{
		Ratio:    colors.ContrastRatio(cfg.Foreground, cfg.Background),
		Warnings: warnings,
	})
}

func readSources(ctx *fasthttp.RequestCtx) ([]batch.Source, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, multierr.Append(errors.New("failed to parse multipart form"), err)
	}

	files := form.File["files"]
	if len(files) == 0 {
		return nil, errors.New("no files uploaded, expected multipart field \"files\"")
	}

	sources := make([]batch.Source, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to open %s", fh.Filename), err)
		}

		data, err := io.ReadAll(f)
		err = multierr.Append(err, f.Close())
		if err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to read %s", fh.Filename), err)
		}

		sources = append(sources, batch.Source{Name: fh.Filename, Data: data})
	}

	return sources, nil
}

func writeError(ctx *fasthttp.RequestCtx, status int, err error) {
	var colorErr *colors.InvalidColorError
	if errors.As(err, &colorErr) {
		status = fasthttp.StatusBadRequest
	}

	writeJSON(ctx, status, errorResponse{Error: err.Error()})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		zap.S().Errorw("failed to marshal response",
			"error", err,
		)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(b)
}
