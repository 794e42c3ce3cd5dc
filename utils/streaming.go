package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// ErrTooLarge is returned by LimitedReader once more than Max bytes are read.
var ErrTooLarge = errors.New("input exceeds size limit")

// bufPool reuses byte buffers to reduce GC pressure.  A buffer is owned by
// exactly one caller between AcquireBuffer and ReleaseBuffer.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// AcquireBuffer returns a reset buffer from the pool.
func AcquireBuffer() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// ReleaseBuffer returns b to the pool.  Callers must not use b after this call.
func ReleaseBuffer(b *bytes.Buffer) {
	// Cap large buffers to avoid pinning excessive memory.
	if b.Cap() > 8*1024*1024 {
		return
	}
	bufPool.Put(b)
}

// DrainReader reads all bytes from r into a pooled buffer and returns them.
// The caller owns the returned slice; pass the buffer back with ReleaseBuffer.
func DrainReader(ctx context.Context, r io.Reader, chunkSize int) (*bytes.Buffer, error) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	buf := AcquireBuffer()
	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			ReleaseBuffer(buf)
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			ReleaseBuffer(buf)
			return nil, err
		}
	}
	return buf, nil
}

// ReadAll drains r through a pooled buffer and returns an owned copy.
func ReadAll(ctx context.Context, r io.Reader, chunkSize int) ([]byte, error) {
	buf, err := DrainReader(ctx, r, chunkSize)
	if err != nil {
		return nil, err
	}
	defer ReleaseBuffer(buf)
	return CloneBytes(buf.Bytes()), nil
}

// LimitedReader wraps r and returns ErrTooLarge when more than Max bytes are
// available.  Max <= 0 disables the limit.
type LimitedReader struct {
	R   io.Reader
	Max int64
	n   int64
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Max <= 0 {
		return l.R.Read(p)
	}
	if l.n > l.Max {
		return 0, ErrTooLarge
	}
	// Allow one byte past the limit so an input of exactly Max bytes passes.
	remain := l.Max + 1 - l.n
	if int64(len(p)) > remain {
		p = p[:remain]
	}
	n, err := l.R.Read(p)
	l.n += int64(n)
	if l.n > l.Max {
		return n, ErrTooLarge
	}
	return n, err
}
