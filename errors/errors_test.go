package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingError_Error(t *testing.T) {
	err := New(CategoryDecode, "probe", ErrEmptyInput)
	assert.Equal(t, "[decode] probe: empty input", err.Error())

	err.Filename = "a.jpg"
	assert.Equal(t, "[decode] probe: a.jpg: empty input", err.Error())
	assert.Equal(t, "empty input", err.Message())
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestWrap_KeepsCategory(t *testing.T) {
	inner := New(CategoryNotAnImage, "check", ErrNotAnImage)
	wrapped := Wrap(CategoryEncode, "transcode", inner)
	assert.Same(t, inner, wrapped)
	assert.Equal(t, CategoryNotAnImage, CategoryOf(wrapped))

	assert.Nil(t, Wrap(CategoryEncode, "x", nil))

	plain := Wrap(CategoryStorage, "put", context.Canceled)
	assert.True(t, IsCategory(plain, CategoryStorage))
	assert.ErrorIs(t, plain, context.Canceled)
}

func TestWithFile(t *testing.T) {
	orig := New(CategoryDecode, "decode", ErrUnsupportedFormat)
	pe := WithFile(fmt.Errorf("outer: %w", orig), CategoryPipeline, "b.png")
	require.NotNil(t, pe)
	assert.Equal(t, CategoryDecode, pe.Category)
	assert.Equal(t, "b.png", pe.Filename)
	assert.Empty(t, orig.Filename, "original is not mutated")

	pe = WithFile(errors.New("boom"), CategoryStorage, "c.webp")
	assert.Equal(t, CategoryStorage, pe.Category)
	assert.Equal(t, "boom", pe.Message())

	assert.Nil(t, WithFile(nil, CategoryStorage, "x"))
}

func TestCategoryOf_Plain(t *testing.T) {
	assert.Equal(t, Category(""), CategoryOf(errors.New("plain")))
	assert.False(t, IsCategory(nil, CategoryDecode))
}

func TestMessage_NoCause(t *testing.T) {
	assert.Equal(t, "canceled", (&ProcessingError{Category: CategoryCanceled}).Message())
}
