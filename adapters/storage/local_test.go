package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-compressor/core"
	apperrors "github.com/Skryldev/image-compressor/errors"
)

func TestLocal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(filepath.Join(t.TempDir(), "out"), 0)
	require.NoError(t, err)

	key := core.StorageKey{Path: "photo-compressed.jpg"}
	require.NoError(t, l.Put(ctx, key, bytes.NewReader([]byte("jpeg bytes")), map[string]string{"savings_percent": "42"}))

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := l.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	meta, err := l.Meta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "42", meta["savings_percent"])

	require.NoError(t, l.Delete(ctx, key))
	ok, err = l.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = os.Stat(l.Path(key) + MetaSuffix)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocal_NoMetaWithoutFields(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	key := core.StorageKey{Bucket: "batch", Path: "a-compressed.png"}
	require.NoError(t, l.Put(ctx, key, strings.NewReader("png"), nil))
	assert.Equal(t, filepath.Join(l.Root(), "batch", "a-compressed.png"), l.Path(key))

	_, err = os.Stat(l.Path(key) + MetaSuffix)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLocal_PathStaysInsideRoot(t *testing.T) {
	l, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)
	p := l.Path(core.StorageKey{Bucket: "../..", Path: "../../etc/passwd"})
	assert.True(t, strings.HasPrefix(p, l.Root()), p)
}

func TestLocal_GetMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)
	_, err = l.Get(context.Background(), core.StorageKey{Path: "nope.jpg"})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryStorage))

	require.NoError(t, l.Delete(context.Background(), core.StorageKey{Path: "nope.jpg"}))
}

func TestLocal_Canceled(t *testing.T) {
	l, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = l.Put(ctx, core.StorageKey{Path: "x.jpg"}, strings.NewReader("x"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
