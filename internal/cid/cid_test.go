package cid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate([]byte("hello"))
	require.NoError(t, err)
	b, err := Generate([]byte("hello"))
	require.NoError(t, err)
	c, err := Generate([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "bafk"), "raw CIDv1 in base32: %s", a)
	assert.True(t, Validate(a))
	assert.False(t, Validate("not-a-cid"))
}

func TestETag(t *testing.T) {
	etag, err := ETag([]byte("body{}"))
	require.NoError(t, err)
	s, err := Generate([]byte("body{}"))
	require.NoError(t, err)
	assert.Equal(t, `"`+s+`"`, etag)
}
