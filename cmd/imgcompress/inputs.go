package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Skryldev/image-compressor/adapters/storage"
	"github.com/Skryldev/image-compressor/config"
	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
	"github.com/Skryldev/image-compressor/utils"
)

// compressedMarker appears in every name produced by utils.OutputName.
const compressedMarker = "-compressed."

// skipName reports whether a file should never be treated as an input.
func skipName(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") ||
		strings.Contains(base, compressedMarker) ||
		strings.HasSuffix(base, storage.MetaSuffix)
}

// inputFile is one file to compress.  Dir is its directory relative to the
// argument it was found under, "" for top-level and explicitly named files.
type inputFile struct {
	Path string
	Dir  string
}

// collectInputs expands args into a de-duplicated list of files in argument
// order; directories contribute their files in lexical order.
// Directories are walked recursively, skipping outRoot and our own outputs.
func collectInputs(args []string, outRoot string) ([]inputFile, error) {
	outAbs, _ := filepath.Abs(outRoot)
	seen := make(map[string]struct{})
	var files []inputFile
	add := func(p, dir string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, inputFile{Path: p, Dir: dir})
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg, "")
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if abs, _ := filepath.Abs(p); abs == outAbs && p != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() && !skipName(p) {
				add(p, relDir(arg, p))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

func relDir(root, path string) string {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return ""
	}
	return rel
}

// readInputs loads every file into a SourceImage.  errs is indexed like files
// and holds the read failure of each unreadable file; sources holds only the
// readable ones, in input order.
func readInputs(ctx context.Context, files []inputFile, cfg config.Config) (sources []core.SourceImage, errs []*apperrors.ProcessingError) {
	sources = make([]core.SourceImage, 0, len(files))
	errs = make([]*apperrors.ProcessingError, len(files))
	for i, in := range files {
		src, err := readInput(ctx, in.Path, cfg)
		if err != nil {
			errs[i] = apperrors.WithFile(err, apperrors.CategoryInput, filepath.Base(in.Path))
			continue
		}
		sources = append(sources, src)
	}
	return sources, errs
}

// outputKeys hands out storage keys for one batch run.  A key already taken
// in the run gets a "-2", "-3", ... suffix ahead of the "-compressed" marker,
// so re-runs still recognise the output as ours.
type outputKeys map[string]struct{}

func (k outputKeys) claim(dir string, r *core.Result) core.StorageKey {
	key := core.StorageKey{Bucket: dir, Path: r.OutputName}
	stem := strings.TrimSuffix(r.OutputName, compressedMarker+r.Format.Extension)
	for n := 2; ; n++ {
		id := filepath.Join(key.Bucket, key.Path)
		if _, taken := k[id]; !taken {
			k[id] = struct{}{}
			return key
		}
		key.Path = stem + "-" + strconv.Itoa(n) + compressedMarker + r.Format.Extension
	}
}

// readInput reads one file through the size limit and declares its content
// type from the sniffed bytes.
func readInput(ctx context.Context, path string, cfg config.Config) (core.SourceImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.SourceImage{}, apperrors.Wrap(apperrors.CategoryInput, "open", err)
	}
	defer f.Close()

	data, err := utils.ReadAll(ctx, &utils.LimitedReader{R: f, Max: cfg.MaxImageBytes}, cfg.ChunkSize)
	if err != nil {
		return core.SourceImage{}, apperrors.Wrap(apperrors.CategoryInput, "read", err)
	}
	return core.SourceImage{
		Data:        data,
		ContentType: utils.DetectContentType(data),
		Name:        filepath.Base(path),
	}, nil
}
