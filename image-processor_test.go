package imageprocessor_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"

	imageprocessor "github.com/Skryldev/image-compressor"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/hooks"
	"github.com/Skryldev/image-compressor/utils"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newRedJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 256), B: uint8(y % 256), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func newBluePNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 50, G: 50, B: 200, A: uint8(255 - x%128)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newProc(t testing.TB) *imageprocessor.Processor {
	t.Helper()
	cfg := imageprocessor.DefaultConfig()
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	return imageprocessor.New(cfg)
}

func decodedSize(t *testing.T, data []byte) (string, int, int) {
	t.Helper()
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return name, cfg.Width, cfg.Height
}

// ── Batch behaviour ───────────────────────────────────────────────────────────

func TestProcessBatch_OneBadFileDoesNotAffectOthers(t *testing.T) {
	proc := newProc(t)
	sources := []core.SourceImage{
		imageprocessor.FromBytes(newRedJPEG(t, 800, 600), "image/jpeg", "holiday.jpg"),
		imageprocessor.FromBytes([]byte("shopping list: milk, eggs"), "text/plain", "notes.txt"),
		imageprocessor.FromBytes(newBluePNG(t, 300, 300), "image/png", "logo.png"),
	}

	outcomes := proc.ProcessBatch(context.Background(), sources, core.Params{Quality: 80, MaxDimension: 400})
	require.Len(t, outcomes, 3)

	require.True(t, outcomes[0].OK())
	r := outcomes[0].Result
	assert.Equal(t, "holiday-compressed.jpg", r.OutputName)
	assert.Equal(t, core.Dimensions{Width: 400, Height: 300}, r.OutputDims)
	name, w, h := decodedSize(t, r.Output)
	assert.Equal(t, "jpeg", name)
	assert.Equal(t, 400, w)
	assert.Equal(t, 300, h)
	assert.Equal(t, int64(len(r.Output)), r.CompressedSize)
	assert.Equal(t, utils.SavingsPercent(r.OriginalSize, r.CompressedSize), r.Savings)

	require.NotNil(t, outcomes[1].Err)
	assert.Equal(t, apperrors.CategoryNotAnImage, outcomes[1].Err.Category)
	assert.Equal(t, "notes.txt", outcomes[1].Err.Filename)
	assert.Equal(t, "this file is not an image", outcomes[1].Err.Message())

	require.True(t, outcomes[2].OK())
	assert.Equal(t, "logo-compressed.png", outcomes[2].Result.OutputName)
	name, w, h = decodedSize(t, outcomes[2].Result.Output)
	assert.Equal(t, "png", name)
	assert.Equal(t, 300, w)
	assert.Equal(t, 300, h)

	processed, errs := proc.Stats()
	assert.Equal(t, int64(2), processed)
	assert.Equal(t, int64(1), errs)
}

func TestProcessBatch_ConvertToWebP(t *testing.T) {
	proc := newProc(t)
	src := imageprocessor.FromBytes(newBluePNG(t, 640, 480), "image/png", "scan.png")

	outcomes := proc.ProcessBatch(context.Background(), []core.SourceImage{src}, core.Params{Quality: 60, Format: imageprocessor.WebP})
	require.True(t, outcomes[0].OK())
	r := outcomes[0].Result
	assert.Equal(t, "scan-compressed.webp", r.OutputName)
	assert.Equal(t, "image/webp", r.Format.MIME)
	assert.Equal(t, "webp", utils.DetectFormat(r.Output))
	_, w, h := decodedSize(t, r.Output)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestProcessBatch_MislabeledImageIsSniffed(t *testing.T) {
	proc := newProc(t)
	// Declared PNG but actually JPEG: decoding follows the bytes, the
	// preserved output format follows the declaration.
	src := imageprocessor.FromBytes(newRedJPEG(t, 64, 64), "image/png", "odd.png")
	o := proc.Process(context.Background(), src, core.Params{Quality: 80})
	require.True(t, o.OK())
	assert.Equal(t, core.FormatPNG, o.Result.Format.Format)
	assert.Equal(t, "png", utils.DetectFormat(o.Result.Output))
}

func TestProcessBatch_ThinStripKeepsOnePixel(t *testing.T) {
	proc := newProc(t)
	sources := []core.SourceImage{
		imageprocessor.FromBytes(newBluePNG(t, 400, 1), "image/png", "strip.png"),
		imageprocessor.FromBytes(newRedJPEG(t, 2, 600), "image/jpeg", "thread.jpg"),
	}
	outcomes := proc.ProcessBatch(context.Background(), sources, core.Params{Quality: 80, MaxDimension: 100})

	require.True(t, outcomes[0].OK(), "%v", outcomes[0].Err)
	assert.Equal(t, core.Dimensions{Width: 100, Height: 1}, outcomes[0].Result.OutputDims)
	_, w, h := decodedSize(t, outcomes[0].Result.Output)
	assert.Equal(t, 100, w)
	assert.Equal(t, 1, h)

	require.True(t, outcomes[1].OK(), "%v", outcomes[1].Err)
	assert.Equal(t, core.Dimensions{Width: 1, Height: 100}, outcomes[1].Result.OutputDims)
	assert.NotEmpty(t, outcomes[1].Result.Output)
}

func TestProcessBatch_CorruptImage(t *testing.T) {
	proc := newProc(t)
	raw := newRedJPEG(t, 100, 100)
	src := imageprocessor.FromBytes(raw[:40], "image/jpeg", "broken.jpg")

	o := proc.ProcessBatch(context.Background(), []core.SourceImage{src}, core.Params{Quality: 80})[0]
	require.NotNil(t, o.Err)
	assert.Equal(t, apperrors.CategoryDecode, o.Err.Category)
	assert.Equal(t, "broken.jpg", o.Err.Filename)
}

func TestProcessBatch_QualityExtremes(t *testing.T) {
	proc := newProc(t)
	raw := newRedJPEG(t, 120, 80)
	for _, q := range []int{0, 100} {
		for _, f := range []core.OutputFormat{imageprocessor.JPEG, imageprocessor.PNG, imageprocessor.WebP} {
			o := proc.Process(context.Background(), imageprocessor.FromBytes(raw, "image/jpeg", "q.jpg"), core.Params{Quality: q, Format: f})
			require.True(t, o.OK(), "quality %d format %s", q, f)
			assert.NotEmpty(t, o.Result.Output)
		}
	}
}

func TestProcessBatch_Canceled(t *testing.T) {
	proc := newProc(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := proc.ProcessBatch(ctx, []core.SourceImage{
		imageprocessor.FromBytes(newRedJPEG(t, 10, 10), "image/jpeg", "a.jpg"),
	}, core.Params{})
	require.NotNil(t, outcomes[0].Err)
	assert.Equal(t, apperrors.CategoryCanceled, outcomes[0].Err.Category)
}

func TestAddHook_CollectsStepMetrics(t *testing.T) {
	proc := newProc(t)
	metrics := hooks.NewInMemoryMetrics()
	proc.SetMetrics(metrics)
	proc.AddHook(hooks.NewMetricsHook(metrics))

	proc.ProcessBatch(context.Background(), []core.SourceImage{
		imageprocessor.FromBytes(newRedJPEG(t, 200, 100), "image/jpeg", "a.jpg"),
		imageprocessor.FromBytes(newBluePNG(t, 50, 50), "image/png", "b.png"),
	}, core.Params{Quality: 70, MaxDimension: 100})

	s := metrics.Snapshot()
	assert.Equal(t, int64(2), s.Files)
	for _, step := range []string{"decode", "resize", "format", "encode"} {
		assert.Equal(t, int64(2), s.StepCalls[step], step)
	}
}

// ── Async worker pool ─────────────────────────────────────────────────────────

func TestSubmit(t *testing.T) {
	proc := newProc(t)
	proc.Start()
	defer proc.Stop()

	results := make(chan core.JobResult, 1)
	require.NoError(t, proc.Submit(core.Job{
		Source:   imageprocessor.FromBytes(newRedJPEG(t, 300, 200), "image/jpeg", "async.jpg"),
		Params:   core.Params{Quality: 75, MaxDimension: 150},
		ResultCh: results,
	}))

	select {
	case res := <-results:
		require.True(t, res.Outcome.OK())
		assert.Equal(t, core.Dimensions{Width: 150, Height: 100}, res.Outcome.Result.OutputDims)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for job result")
	}
}

// ── Pure entry points ─────────────────────────────────────────────────────────

func TestPureFunctions(t *testing.T) {
	assert.Equal(t, core.Dimensions{Width: 1920, Height: 1080}, imageprocessor.Scale(3840, 2160, 1920))
	assert.Equal(t, "png", imageprocessor.ResolveFormat(imageprocessor.Original, "image/png").Extension)
	assert.Equal(t, "jpg", imageprocessor.ResolveFormat(imageprocessor.Original, "image/gif").Extension)
	assert.Equal(t, 0, imageprocessor.SavingsPercent(100, 120))
	assert.Equal(t, "a.b-compressed.webp", imageprocessor.OutputName("a.b.c", "webp"))
}

func TestParamsFromConfig(t *testing.T) {
	cfg := imageprocessor.DefaultConfig()
	cfg.Quality = 55
	cfg.MaxDimension = 1024
	cfg.Format = "webp"
	p, err := imageprocessor.ParamsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, core.Params{Quality: 55, MaxDimension: 1024, Format: imageprocessor.WebP}, p)

	cfg.Format = "heic"
	_, err = imageprocessor.ParamsFromConfig(cfg)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestAccessors(t *testing.T) {
	proc := newProc(t)
	require.NotNil(t, proc.Pipeline())
	assert.Equal(t, 2, proc.Inner().Workers())

	_, ok := proc.Registry().DecoderFor(core.FormatTIFF)
	assert.True(t, ok)
	_, ok = proc.Registry().EncoderFor(core.FormatGIF)
	assert.False(t, ok, "gif is a source-only format")

	custom := imageprocessor.NewWithTranscoder(imageprocessor.DefaultConfig(), proc.Pipeline())
	assert.Nil(t, custom.Registry())
	assert.Nil(t, custom.Pipeline())
	o := custom.Process(context.Background(), imageprocessor.FromBytes(newBluePNG(t, 8, 8), "image/png", "tiny.png"), core.Params{Quality: 50})
	assert.True(t, o.OK())
}

// ── Benchmarks ────────────────────────────────────────────────────────────────

func BenchmarkProcessBatch_8x1920(b *testing.B) {
	proc := newProc(b)
	raw := newRedJPEG(b, 1920, 1080)
	sources := make([]core.SourceImage, 8)
	for i := range sources {
		sources[i] = imageprocessor.FromBytes(raw, "image/jpeg", "bench.jpg")
	}
	params := core.Params{Quality: 80, MaxDimension: 960}

	b.ReportAllocs()
	b.SetBytes(int64(len(raw) * len(sources)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, o := range proc.ProcessBatch(context.Background(), sources, params) {
			if !o.OK() {
				b.Fatal(o.Err)
			}
		}
	}
}

func BenchmarkScale(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = imageprocessor.Scale(4032, 3024, 1920)
	}
}
