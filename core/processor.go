package core

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Skryldev/image-compressor/config"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// Processor is the batch orchestrator.  It is safe for concurrent use.
type Processor struct {
	cfg        config.Config
	transcoder Transcoder
	logger     Logger
	metrics    MetricsCollector

	// Worker pool for async jobs.
	jobQueue chan Job
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	stopped  bool

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
}

// New creates a Processor with the given config.  Call Start() before
// submitting jobs; call Stop() when done.  ProcessBatch does not need the
// worker pool.
func New(cfg config.Config, t Transcoder) *Processor {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Processor{
		cfg:        cfg,
		transcoder: t,
		jobQueue:   make(chan Job, queueSize),
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l Logger) { p.logger = l }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m MetricsCollector) { p.metrics = m }

// Transcoder returns the transcoder used for every file.
func (p *Processor) Transcoder() Transcoder { return p.transcoder }

// Workers returns the bound on concurrently processed files.
func (p *Processor) Workers() int {
	if p.cfg.WorkerCount > 0 {
		return p.cfg.WorkerCount
	}
	return runtime.NumCPU()
}

// Start launches the worker pool.  It is idempotent.
func (p *Processor) Start() {
	p.once.Do(func() {
		for i := 0; i < p.Workers(); i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Stop stops accepting jobs, lets the workers drain the queue and waits for
// them to exit.  It is idempotent.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.jobQueue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Submit enqueues an async job.  Returns ErrWorkerPoolFull if the queue is full
// and ErrStopped after Stop.
func (p *Processor) Submit(job Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return apperrors.New(apperrors.CategoryPipeline, "submit", apperrors.ErrStopped)
	}
	select {
	case p.jobQueue <- job:
		return nil
	default:
		return apperrors.New(apperrors.CategoryPipeline, "submit", apperrors.ErrWorkerPoolFull)
	}
}

// ProcessBatch processes every source with the same params and returns one
// Outcome per source, in input order.  Files run concurrently up to Workers().
// Cancellation is checked before each file starts; a file that is already
// transcoding always finishes.  Files that never started carry a canceled error.
func (p *Processor) ProcessBatch(ctx context.Context, sources []SourceImage, params Params) []Outcome {
	batchID := uuid.NewString()
	start := time.Now()
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	g.SetLimit(p.Workers())
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			outcomes[i] = canceledOutcome(i, src, err)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = canceledOutcome(i, src, err)
				return nil
			}
			outcomes[i] = p.process(ctx, i, src, params)
			return nil
		})
	}
	_ = g.Wait()

	if p.logger != nil {
		var failed int
		for _, o := range outcomes {
			if !o.OK() {
				failed++
			}
		}
		p.logger.Info("batch.done",
			"batch_id", batchID,
			"files", len(sources),
			"failed", failed,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return outcomes
}

// Process runs the full pipeline for a single source.
func (p *Processor) Process(ctx context.Context, src SourceImage, params Params) Outcome {
	return p.process(ctx, 0, src, params)
}

func (p *Processor) process(ctx context.Context, idx int, src SourceImage, params Params) Outcome {
	start := time.Now()
	params = params.Normalize()

	if !IsImageType(src.ContentType) {
		return p.fail(idx, src, apperrors.New(apperrors.CategoryNotAnImage, "check", apperrors.ErrNotAnImage))
	}

	// A started file is never interrupted.
	tctx := context.WithoutCancel(ctx)

	meta, err := p.transcoder.Probe(tctx, src.Data)
	if err != nil {
		return p.fail(idx, src, apperrors.Wrap(apperrors.CategoryDecode, "probe", err))
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return p.fail(idx, src, apperrors.New(apperrors.CategoryDecode, "probe", apperrors.ErrInvalidDimensions))
	}

	w, h := utils.ScaleToFit(meta.Width, meta.Height, params.MaxDimension)
	dims := Dimensions{Width: w, Height: h}
	format := ResolveFormat(params.Format, src.ContentType)

	out, err := p.transcoder.Transcode(tctx, src.Data, dims, format, params.Quality)
	if err != nil {
		return p.fail(idx, src, apperrors.Wrap(apperrors.CategoryEncode, "transcode", err))
	}

	res := &Result{
		Name:           src.Name,
		OriginalSize:   src.Size(),
		CompressedSize: int64(len(out)),
		Savings:        utils.SavingsPercent(src.Size(), int64(len(out))),
		Format:         format,
		OutputName:     utils.OutputName(src.Name, format.Extension),
		SourceDims:     meta.Dimensions(),
		OutputDims:     dims,
		Output:         out,
		Original:       src.Data,
		ProcessingTime: time.Since(start),
	}

	atomic.AddInt64(&p.processedCount, 1)
	if p.metrics != nil {
		p.metrics.RecordThroughput(res.OriginalSize, res.CompressedSize)
	}
	if p.logger != nil {
		p.logger.Debug("file.done",
			"file", src.Name,
			"format", format.Format,
			"width", dims.Width,
			"height", dims.Height,
			"original_bytes", res.OriginalSize,
			"compressed_bytes", res.CompressedSize,
			"savings", res.Savings,
		)
	}
	return Outcome{Index: idx, Result: res}
}

func (p *Processor) fail(idx int, src SourceImage, err error) Outcome {
	pe := apperrors.WithFile(err, apperrors.CategoryPipeline, src.Name)
	atomic.AddInt64(&p.errorCount, 1)
	if p.metrics != nil {
		p.metrics.RecordError(pe.Op, string(pe.Category))
	}
	if p.logger != nil {
		p.logger.Warn("file.failed",
			"file", src.Name,
			"category", pe.Category,
			"error", pe.Message(),
		)
	}
	return Outcome{Index: idx, Err: pe}
}

func canceledOutcome(idx int, src SourceImage, err error) Outcome {
	pe := apperrors.New(apperrors.CategoryCanceled, "batch", err)
	pe.Filename = src.Name
	return Outcome{Index: idx, Err: pe}
}

// ── worker pool internals ──────────────────────────────────────────────────────

func (p *Processor) worker() {
	defer p.wg.Done()
	for job := range p.jobQueue {
		p.processJob(job)
	}
}

func (p *Processor) processJob(job Job) {
	var outcome Outcome
	if err := job.Ctx.Err(); err != nil {
		outcome = canceledOutcome(0, job.Source, err)
	} else {
		outcome = p.process(job.Ctx, 0, job.Source, job.Params)
	}
	if job.ResultCh != nil {
		job.ResultCh <- JobResult{JobID: job.ID, Outcome: outcome}
	}
}

// ProcessedCount returns the total number of successfully processed images.
func (p *Processor) ProcessedCount() int64 { return atomic.LoadInt64(&p.processedCount) }

// ErrorCount returns the total number of processing errors.
func (p *Processor) ErrorCount() int64 { return atomic.LoadInt64(&p.errorCount) }
