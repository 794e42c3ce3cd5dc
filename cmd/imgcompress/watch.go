package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

// settleDelay is how long a file must stay quiet before it is compressed.
const settleDelay = 300 * time.Millisecond

// watch compresses files created or rewritten under the given directories
// until ctx is canceled.  Plain file arguments watch their parent directory.
func (a *app) watch(ctx context.Context, args []string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	outAbs, _ := filepath.Abs(a.sink.Root())
	for _, arg := range args {
		dir := arg
		if info, err := os.Stat(arg); err != nil {
			return fmt.Errorf("watch %s: %w", arg, err)
		} else if !info.IsDir() {
			dir = filepath.Dir(arg)
		}
		if abs, _ := filepath.Abs(dir); abs == outAbs {
			return fmt.Errorf("watch %s: input directory is the output directory", dir)
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		a.logger.Info("watch.added", "dir", dir)
	}

	results := make(chan core.JobResult, a.cfg.QueueSize)
	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		for res := range results {
			a.deliver(ctx, res.Outcome)
		}
	}()

	a.proc.Start()

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(settleDelay)
			return
		}
		pending[path] = time.AfterFunc(settleDelay, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			a.submit(ctx, path, results)
		})
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-w.Events:
			if !ok {
				break loop
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if skipName(ev.Name) {
				continue
			}
			if info, err := os.Stat(ev.Name); err != nil || !info.Mode().IsRegular() {
				continue
			}
			schedule(ev.Name)
		case err, ok := <-w.Errors:
			if !ok {
				break loop
			}
			a.logger.Warn("watch.error", "error", err)
		}
	}

	mu.Lock()
	for p, t := range pending {
		t.Stop()
		delete(pending, p)
	}
	mu.Unlock()

	// Stop drains queued jobs; every send to results happens before it returns.
	a.proc.Stop()
	close(results)
	consumer.Wait()
	a.report.finish(a.metrics.Snapshot())
	return nil
}

// submit reads path and enqueues it on the worker pool.
func (a *app) submit(ctx context.Context, path string, results chan<- core.JobResult) {
	if ctx.Err() != nil {
		return
	}
	src, err := readInput(ctx, path, a.cfg)
	if err != nil {
		a.report.failure(apperrors.WithFile(err, apperrors.CategoryInput, filepath.Base(path)))
		return
	}
	job := core.Job{Ctx: ctx, Source: src, Params: a.params, ResultCh: results}
	if err := a.proc.Submit(job); err != nil {
		a.report.failure(apperrors.WithFile(err, apperrors.CategoryPipeline, src.Name))
	}
}

func (a *app) deliver(ctx context.Context, o core.Outcome) {
	if !o.OK() {
		a.report.failure(o.Err)
		return
	}
	// Outputs of files that already finished are still written after ctx ends.
	if err := a.store(context.WithoutCancel(ctx), resultKey(o.Result), o.Result); err != nil {
		a.report.failure(apperrors.WithFile(err, apperrors.CategoryStorage, o.Result.Name))
		return
	}
	a.report.success(o.Result, a.sink.Path(resultKey(o.Result)))
}
