package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/hooks"
	"github.com/Skryldev/image-compressor/utils"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// resultKey is the storage key of a result's output file at the output root.
func resultKey(r *core.Result) core.StorageKey {
	return core.StorageKey{Path: r.OutputName}
}

// store writes r's output under key and, when enabled, its side-car metadata.
func (a *app) store(ctx context.Context, key core.StorageKey, r *core.Result) error {
	var meta map[string]string
	if a.cfg.WriteMeta {
		meta = resultMeta(r)
	}
	return a.sink.Put(ctx, key, bytes.NewReader(r.Output), meta)
}

func resultMeta(r *core.Result) map[string]string {
	return map[string]string{
		"source":           r.Name,
		"format":           string(r.Format.Format),
		"mime":             r.Format.MIME,
		"original_bytes":   strconv.FormatInt(r.OriginalSize, 10),
		"compressed_bytes": strconv.FormatInt(r.CompressedSize, 10),
		"savings_percent":  strconv.Itoa(r.Savings),
		"source_dims":      fmt.Sprintf("%dx%d", r.SourceDims.Width, r.SourceDims.Height),
		"output_dims":      fmt.Sprintf("%dx%d", r.OutputDims.Width, r.OutputDims.Height),
		"processing_ms":    strconv.FormatInt(r.ProcessingTime.Milliseconds(), 10),
	}
}

// reportEntry is one successful file in the JSON report.  Sizes and savings
// are always present, zero included.
type reportEntry struct {
	Name           string `json:"name"`
	OK             bool   `json:"ok"`
	Output         string `json:"output"`
	Format         string `json:"format"`
	OriginalSize   int64  `json:"original_size"`
	CompressedSize int64  `json:"compressed_size"`
	Savings        int    `json:"savings"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}

// reportFailure is one failed file in the JSON report.
type reportFailure struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

type reportSummary struct {
	Files          int64            `json:"files"`
	Failed         int              `json:"failed"`
	OriginalSize   int64            `json:"original_size"`
	CompressedSize int64            `json:"compressed_size"`
	Savings        int              `json:"savings"`
	Errors         map[string]int64 `json:"errors,omitempty"`
}

// reporter prints per-file lines and a closing summary, either as text or as
// a single JSON document.
type reporter struct {
	mu      sync.Mutex
	w       io.Writer
	asJSON  bool
	printer *message.Printer
	entries []any
	failed  int
}

func newReporter(w io.Writer, asJSON bool) *reporter {
	return &reporter{w: w, asJSON: asJSON, printer: message.NewPrinter(language.English)}
}

func (r *reporter) success(res *core.Result, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.asJSON {
		r.entries = append(r.entries, reportEntry{
			Name:           res.Name,
			OK:             true,
			Output:         path,
			Format:         string(res.Format.Format),
			OriginalSize:   res.OriginalSize,
			CompressedSize: res.CompressedSize,
			Savings:        res.Savings,
			Width:          res.OutputDims.Width,
			Height:         res.OutputDims.Height,
		})
		return
	}
	fmt.Fprintf(r.w, "%s: %s -> %s (%d%% smaller) %s\n",
		res.Name, utils.HumanBytes(res.OriginalSize), utils.HumanBytes(res.CompressedSize), res.Savings, path)
}

func (r *reporter) failure(err *apperrors.ProcessingError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
	if r.asJSON {
		r.entries = append(r.entries, reportFailure{
			Name:     err.Filename,
			Category: string(err.Category),
			Error:    err.Message(),
		})
		return
	}
	fmt.Fprintf(r.w, "%s: error: %s\n", err.Filename, err.Message())
}

// finish prints the summary built from the collected metrics.
func (r *reporter) finish(s hooks.MetricsSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := reportSummary{
		Files:          s.Files,
		Failed:         r.failed,
		OriginalSize:   s.BytesIn,
		CompressedSize: s.BytesOut,
		Savings:        utils.SavingsPercent(s.BytesIn, s.BytesOut),
		Errors:         s.Errors,
	}
	if r.asJSON {
		doc := struct {
			Files   []any         `json:"files"`
			Summary reportSummary `json:"summary"`
		}{Files: r.entries, Summary: sum}
		if doc.Files == nil {
			doc.Files = []any{}
		}
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return
	}
	r.printer.Fprintf(r.w, "%d compressed, %d failed: %s -> %s (%d%% saved)\n",
		sum.Files, sum.Failed, utils.HumanBytes(sum.OriginalSize), utils.HumanBytes(sum.CompressedSize), sum.Savings)
}
