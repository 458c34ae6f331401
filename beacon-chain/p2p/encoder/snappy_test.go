package encoder

import (
	"bytes"
	"io"
	"testing"

	"github.com/golang/snappy"
	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

func TestWriteSnappyBuffer_ReadsBackThroughPool(t *testing.T) {
	payload := bytes.Repeat([]byte("epoch"), 1000)
	var buf bytes.Buffer
	n, err := writeSnappyBuffer(&buf, payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	r := newBufferedReader(&buf)
	defer bufReaderPool.Put(r)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.DeepEqual(t, payload, got)
}

func TestNewBufferedReader_ResetsPooledReader(t *testing.T) {
	var first, second bytes.Buffer
	_, err := writeSnappyBuffer(&first, []byte("first"))
	require.NoError(t, err)
	_, err = writeSnappyBuffer(&second, []byte("second"))
	require.NoError(t, err)

	r := newBufferedReader(&first)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	bufReaderPool.Put(r)

	r = newBufferedReader(&second)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got), "A pooled reader must not keep the previous source")
}

func TestNewBufferedWriter_ForeignPoolEntry(t *testing.T) {
	bufWriterPool.Put("not a writer")
	var buf bytes.Buffer
	w := newBufferedWriter(&buf)
	require.NotNil(t, w)
	_, err := w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := io.ReadAll(snappy.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}
